package vectorindex

import (
	"context"
	"fmt"
	"log"
	"time"

	"coursegen/models"
	"coursegen/services/history"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/protobuf/types/known/structpb"
)

const exchangeNamespace = "coursegen-exchanges"

// PineconeIndex stores conversation exchanges as embedded vectors and
// satisfies history.VectorIndex. Each vector's metadata carries the full
// exchange so retrieval needs no second lookup.
type PineconeIndex struct {
	client    *pinecone.Client
	embedder  embeddings.Embedder
	indexName string
}

func NewPineconeIndex(apiKey, openaiAPIKey, indexName string) (*PineconeIndex, error) {
	log.Printf("[INFO] Initializing Pinecone exchange index %s", indexName)

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}

	llm, err := openai.New(
		openai.WithModel("gpt-4o-mini"),
		openai.WithToken(openaiAPIKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	index := &PineconeIndex{
		client:    pc,
		embedder:  embedder,
		indexName: indexName,
	}

	log.Printf("[INFO] Pinecone exchange index initialized successfully")
	return index, nil
}

// EnsureIndex creates the serverless index when it does not exist yet and
// blocks until it is ready.
func (p *PineconeIndex) EnsureIndex(ctx context.Context) error {
	indexes, err := p.client.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}

	for _, idx := range indexes {
		if idx.Name == p.indexName {
			log.Printf("[INFO] Index %s already exists", p.indexName)
			return nil
		}
	}

	log.Printf("[INFO] Creating Pinecone index: %s", p.indexName)
	dimension := int32(1536) // OpenAI ada-002 embedding dimension
	deletionProtection := pinecone.DeletionProtectionDisabled
	metric := pinecone.Cosine

	_, err = p.client.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:               p.indexName,
		Dimension:          &dimension,
		Metric:             &metric,
		Cloud:              pinecone.Aws,
		Region:             "us-east-1",
		DeletionProtection: &deletionProtection,
		Tags:               &pinecone.IndexTags{"environment": "development", "project": "coursegen"},
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	for {
		idx, err := p.client.DescribeIndex(ctx, p.indexName)
		if err != nil {
			return fmt.Errorf("failed to describe index: %w", err)
		}
		if idx.Status.Ready {
			log.Printf("[INFO] Index %s is ready", p.indexName)
			return nil
		}
		log.Printf("[INFO] Waiting for index %s to be ready...", p.indexName)
		time.Sleep(10 * time.Second)
	}
}

func (p *PineconeIndex) connection(ctx context.Context) (*pinecone.IndexConnection, error) {
	idxDesc, err := p.client.DescribeIndex(ctx, p.indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index: %w", err)
	}

	idxConn, err := p.client.Index(pinecone.NewIndexConnParams{
		Host:      idxDesc.Host,
		Namespace: exchangeNamespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index connection: %w", err)
	}

	return idxConn, nil
}

func (p *PineconeIndex) Add(ctx context.Context, id, text string, exchange models.ConversationExchange) error {
	log.Printf("[INFO] Upserting exchange %s to Pinecone", id)

	queryEmbeddings, err := p.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("failed to generate embedding: %w", err)
	}

	metadata := map[string]any{
		"conversation_id":   exchange.ConversationID,
		"user_message":      exchange.UserMessage,
		"assistant_message": exchange.AssistantMessage,
		"seq":               exchange.Seq,
		"source_tag":        exchange.SourceTag,
		"created_at":        time.Now().Format(time.RFC3339),
	}

	metadataStruct, err := structpb.NewStruct(metadata)
	if err != nil {
		return fmt.Errorf("failed to create metadata struct for exchange %s: %w", id, err)
	}

	idxConn, err := p.connection(ctx)
	if err != nil {
		return err
	}

	_, err = idxConn.UpsertVectors(ctx, []*pinecone.Vector{{
		Id:       id,
		Values:   &queryEmbeddings[0],
		Metadata: metadataStruct,
	}})
	if err != nil {
		return fmt.Errorf("failed to upsert vector: %w", err)
	}

	return nil
}

func (p *PineconeIndex) Query(ctx context.Context, text string, k int, conversationID string) ([]history.Match, error) {
	log.Printf("[INFO] Querying Pinecone for conversation %s (k=%d)", conversationID, k)

	queryEmbeddings, err := p.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	filter, err := structpb.NewStruct(map[string]any{
		"conversation_id": conversationID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata filter: %w", err)
	}

	idxConn, err := p.connection(ctx)
	if err != nil {
		return nil, err
	}

	result, err := idxConn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          queryEmbeddings[0],
		TopK:            uint32(k),
		MetadataFilter:  filter,
		IncludeValues:   false,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}

	matches := make([]history.Match, 0, len(result.Matches))
	for _, match := range result.Matches {
		if match.Vector == nil || match.Vector.Metadata == nil {
			continue
		}
		metadata := match.Vector.Metadata.AsMap()

		exchange := models.ConversationExchange{
			ExchangeID:       match.Vector.Id,
			ConversationID:   stringField(metadata, "conversation_id"),
			UserMessage:      stringField(metadata, "user_message"),
			AssistantMessage: stringField(metadata, "assistant_message"),
			SourceTag:        stringField(metadata, "source_tag"),
		}
		// structpb stores numbers as float64
		if seq, ok := metadata["seq"].(float64); ok {
			exchange.Seq = int(seq)
		}

		matches = append(matches, history.Match{
			ID:       match.Vector.Id,
			Score:    match.Score,
			Exchange: exchange,
		})
	}

	log.Printf("[INFO] Retrieved %d matches for conversation %s", len(matches), conversationID)
	return matches, nil
}

func (p *PineconeIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	idxConn, err := p.connection(ctx)
	if err != nil {
		return err
	}

	if err := idxConn.DeleteVectorsById(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}

	return nil
}

func stringField(metadata map[string]any, key string) string {
	if value, ok := metadata[key].(string); ok {
		return value
	}
	return ""
}
