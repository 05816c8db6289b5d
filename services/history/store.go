package history

import (
	"context"
	"fmt"
	"log"
	"sort"

	"coursegen/models"
	"coursegen/services/tokens"
)

// lastExchangeRatio reserves this share of the retrieval budget for the
// single most recent exchange, whatever its similarity score. Pure
// similarity can surface a stale exchange while dropping the turn that
// grounds the user's pronouns.
const lastExchangeRatio = 0.6

// truncatedInclusionFloor is the minimum leftover budget worth spending on
// one final truncated inclusion.
const truncatedInclusionFloor = 10

// Match is one vector-index hit with its stored exchange.
type Match struct {
	ID       string
	Score    float32
	Exchange models.ConversationExchange
}

// VectorIndex is the injected embedding-similarity capability. Any backend
// with add/query/delete semantics satisfies it.
type VectorIndex interface {
	Add(ctx context.Context, id, text string, exchange models.ConversationExchange) error
	Query(ctx context.Context, text string, k int, conversationID string) ([]Match, error)
	Delete(ctx context.Context, ids []string) error
}

// Store persists conversation exchanges into a vector index and retrieves
// a relevance+recency blended subset under a token budget.
type Store struct {
	index VectorIndex
}

func NewStore(index VectorIndex) *Store {
	return &Store{index: index}
}

// Save embeds the exchange and stores it with its full metadata. Exchanges
// from a cross-channel source tag are embedded by user and assistant text
// together so they are retrievable by content, not just by the prompting
// user turn.
func (s *Store) Save(ctx context.Context, exchange models.ConversationExchange) error {
	log.Printf("[INFO] Storing exchange %s for conversation %s (seq %d)", exchange.ExchangeID, exchange.ConversationID, exchange.Seq)

	text := exchange.UserMessage
	if exchange.SourceTag != "" {
		text = exchange.UserMessage + "\n" + exchange.AssistantMessage
	}

	if err := s.index.Add(ctx, exchange.ExchangeID, text, exchange); err != nil {
		log.Printf("[ERROR] Failed to store exchange %s: %v", exchange.ExchangeID, err)
		return fmt.Errorf("failed to store exchange: %w", err)
	}

	return nil
}

// Retrieve returns prior exchanges for the conversation, most relevant to
// query, under maxTokens, in chronological order. When includeLast is set
// the exchange with the highest seq is always present, whole or truncated.
//
// Any failure degrades to an empty result: history is an optimization,
// never a hard dependency of the calling request.
func (s *Store) Retrieve(ctx context.Context, query, conversationID string, maxTokens, k int, includeLast bool) []models.ConversationExchange {
	log.Printf("[INFO] Retrieving history for conversation %s (k=%d, budget=%d)", conversationID, k, maxTokens)

	candidates, err := s.index.Query(ctx, query, 2*k, conversationID)
	if err != nil {
		log.Printf("[WARN] History retrieval failed, continuing without history: %v", err)
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	// Defensive scope check: the index is expected to filter by
	// conversation, but a wrong exchange in a prompt leaks another
	// user's conversation.
	filtered := candidates[:0]
	for _, c := range candidates {
		if c.Exchange.ConversationID == conversationID {
			filtered = append(filtered, c)
		}
	}
	candidates = filtered
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Exchange.Seq < candidates[j].Exchange.Seq
	})

	budget := maxTokens
	selected := make([]models.ConversationExchange, 0, k)

	rest := candidates
	if includeLast {
		last := candidates[len(candidates)-1].Exchange
		rest = candidates[:len(candidates)-1]

		reserved := int(float64(maxTokens) * lastExchangeRatio)
		cost := exchangeTokens(last)
		if cost <= reserved {
			budget -= cost
		} else {
			half := reserved / 2
			last.UserMessage = tokens.Truncate(last.UserMessage, half, "...")
			last.AssistantMessage = tokens.Truncate(last.AssistantMessage, half, "...")
			budget -= reserved
		}
		selected = append(selected, last)
	}

	// Fill the remainder most-recent-first among the similar set, whole
	// exchanges while they fit, then at most one truncated inclusion.
	for i := len(rest) - 1; i >= 0; i-- {
		if len(selected) >= k {
			break
		}
		exchange := rest[i].Exchange
		cost := exchangeTokens(exchange)
		if cost <= budget {
			selected = append(selected, exchange)
			budget -= cost
			continue
		}
		if budget > truncatedInclusionFloor {
			half := budget / 2
			exchange.UserMessage = tokens.Truncate(exchange.UserMessage, half, "...")
			exchange.AssistantMessage = tokens.Truncate(exchange.AssistantMessage, half, "...")
			selected = append(selected, exchange)
		}
		break
	}

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Seq < selected[j].Seq
	})

	log.Printf("[INFO] Retrieved %d exchanges for conversation %s", len(selected), conversationID)
	return selected
}

func exchangeTokens(exchange models.ConversationExchange) int {
	return tokens.Estimate(exchange.UserMessage) + tokens.Estimate(exchange.AssistantMessage)
}
