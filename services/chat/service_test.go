package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"coursegen/models"
	"coursegen/services/history"
	"coursegen/services/tokens"

	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	reply   string
	chunks  []string
	err     error
	prompts []string
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				f.prompts = append(f.prompts, text.Text)
			}
		}
	}

	if f.err != nil {
		return nil, f.err
	}

	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.StreamingFunc != nil {
		for _, chunk := range f.chunks {
			if err := opts.StreamingFunc(ctx, []byte(chunk)); err != nil {
				return nil, err
			}
		}
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.reply}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return f.reply, f.err
}

type fakeConversationRepo struct {
	nextSeq    int
	nextSeqErr error
	saved      []*models.ConversationExchange
}

func (f *fakeConversationRepo) NextSeq(conversationID string) (int, error) {
	if f.nextSeqErr != nil {
		return 0, f.nextSeqErr
	}
	f.nextSeq++
	return f.nextSeq, nil
}

func (f *fakeConversationRepo) SaveExchange(exchange *models.ConversationExchange) error {
	f.saved = append(f.saved, exchange)
	return nil
}

func (f *fakeConversationRepo) GetExchanges(conversationID string) ([]*models.ConversationExchange, error) {
	return nil, nil
}

type fakeIndex struct {
	added   []models.ConversationExchange
	matches []history.Match
}

func (f *fakeIndex) Add(ctx context.Context, id, text string, exchange models.ConversationExchange) error {
	f.added = append(f.added, exchange)
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, text string, k int, conversationID string) ([]history.Match, error) {
	return f.matches, nil
}

func (f *fakeIndex) Delete(ctx context.Context, ids []string) error {
	return nil
}

func newTestService(model *fakeModel, repo *fakeConversationRepo, index *fakeIndex) *Service {
	return NewService(model, history.NewStore(index), repo, tokens.NewBuilder(0.4, 0.6), Options{
		MaxPromptTokens:  200,
		HistoryK:         5,
		HistoryMaxTokens: 120,
	})
}

func TestStreamReplyStreamsAndRecords(t *testing.T) {
	model := &fakeModel{reply: "Use channels.", chunks: []string{"Use ", "channels."}}
	repo := &fakeConversationRepo{}
	index := &fakeIndex{}
	service := newTestService(model, repo, index)

	var streamed []string
	resp, err := service.StreamReply(context.Background(), "conv-1", "How do goroutines communicate?", "",
		func(token string) { streamed = append(streamed, token) })
	if err != nil {
		t.Fatalf("StreamReply() unexpected error: %v", err)
	}

	if resp.Message != "Use channels." {
		t.Errorf("Message = %q, expected the full completion", resp.Message)
	}
	if resp.ConversationID != "conv-1" {
		t.Errorf("ConversationID = %q, expected conv-1", resp.ConversationID)
	}
	if strings.Join(streamed, "") != "Use channels." {
		t.Errorf("streamed chunks = %v, expected them to concatenate to the reply", streamed)
	}

	if len(repo.saved) != 1 {
		t.Fatalf("saved %d exchange rows, expected 1", len(repo.saved))
	}
	saved := repo.saved[0]
	if saved.Seq != 1 {
		t.Errorf("Seq = %d, expected 1 from the repo allocator", saved.Seq)
	}
	if saved.UserMessage != "How do goroutines communicate?" || saved.AssistantMessage != "Use channels." {
		t.Errorf("saved exchange has wrong content: %+v", saved)
	}
	if saved.ExchangeID == "" {
		t.Error("saved exchange has no ID")
	}

	if len(index.added) != 1 {
		t.Fatalf("indexed %d exchanges, expected 1", len(index.added))
	}
}

func TestStreamReplyRejectsEmptyMessage(t *testing.T) {
	service := newTestService(&fakeModel{reply: "x"}, &fakeConversationRepo{}, &fakeIndex{})

	_, err := service.StreamReply(context.Background(), "conv-1", "   ", "", func(string) {})
	if err == nil {
		t.Fatal("StreamReply() expected error for empty message")
	}
}

func TestStreamReplyGeneratesConversationID(t *testing.T) {
	repo := &fakeConversationRepo{}
	service := newTestService(&fakeModel{reply: "hi"}, repo, &fakeIndex{})

	resp, err := service.StreamReply(context.Background(), "", "hello", "", func(string) {})
	if err != nil {
		t.Fatalf("StreamReply() unexpected error: %v", err)
	}
	if resp.ConversationID == "" {
		t.Fatal("StreamReply() did not generate a conversation ID")
	}
	if repo.saved[0].ConversationID != resp.ConversationID {
		t.Errorf("saved exchange conversation %q does not match response %q",
			repo.saved[0].ConversationID, resp.ConversationID)
	}
}

func TestStreamReplyPromptShape(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	index := &fakeIndex{matches: []history.Match{
		{ID: "e1", Score: 0.9, Exchange: models.ConversationExchange{
			ExchangeID: "e1", ConversationID: "conv-1", Seq: 1,
			UserMessage: "what is a slice", AssistantMessage: "a view over an array",
		}},
	}}
	service := newTestService(model, &fakeConversationRepo{}, index)

	_, err := service.StreamReply(context.Background(), "conv-1", "and a map?", "", func(string) {})
	if err != nil {
		t.Fatalf("StreamReply() unexpected error: %v", err)
	}

	if len(model.prompts) != 1 {
		t.Fatalf("model saw %d prompts, expected 1", len(model.prompts))
	}
	prompt := model.prompts[0]

	if !strings.HasPrefix(prompt, "ROLE: Tutor") {
		t.Errorf("prompt does not start with the role line: %q", prompt)
	}
	if !strings.Contains(prompt, "what is a slice") {
		t.Error("prompt does not include the retrieved history")
	}
	if !strings.HasSuffix(prompt, "User: and a map?\nAssistant:") {
		t.Errorf("prompt does not end with the completion sentinel: %q", prompt)
	}
}

func TestStreamReplyTutorTagSwitchesSystemPrompt(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	repo := &fakeConversationRepo{}
	service := newTestService(model, repo, &fakeIndex{})

	_, err := service.StreamReply(context.Background(), "conv-1", "explain slices", models.SourceTagTutor, func(string) {})
	if err != nil {
		t.Fatalf("StreamReply() unexpected error: %v", err)
	}

	if !strings.Contains(model.prompts[0], "tutoring a learner") {
		t.Errorf("prompt did not use the tutor system prompt: %q", model.prompts[0])
	}
	if repo.saved[0].SourceTag != models.SourceTagTutor {
		t.Errorf("saved SourceTag = %q, expected %q", repo.saved[0].SourceTag, models.SourceTagTutor)
	}
}

func TestStreamReplySurvivesBookkeepingFailure(t *testing.T) {
	repo := &fakeConversationRepo{nextSeqErr: fmt.Errorf("db down")}
	index := &fakeIndex{}
	service := newTestService(&fakeModel{reply: "still here"}, repo, index)

	resp, err := service.StreamReply(context.Background(), "conv-1", "hello", "", func(string) {})
	if err != nil {
		t.Fatalf("StreamReply() should not fail on a bookkeeping error, got: %v", err)
	}
	if resp.Message != "still here" {
		t.Errorf("Message = %q, expected the completion", resp.Message)
	}
	if len(repo.saved) != 0 || len(index.added) != 0 {
		t.Error("exchange was persisted despite seq allocation failure")
	}
}

func TestStreamReplyPropagatesLLMError(t *testing.T) {
	repo := &fakeConversationRepo{}
	service := newTestService(&fakeModel{err: fmt.Errorf("boom")}, repo, &fakeIndex{})

	_, err := service.StreamReply(context.Background(), "conv-1", "hello", "", func(string) {})
	if err == nil {
		t.Fatal("StreamReply() expected error when the model fails")
	}
	if len(repo.saved) != 0 {
		t.Error("exchange was persisted despite a failed completion")
	}
}
