package db

import (
	"database/sql"
	"fmt"

	"coursegen/models"

	_ "github.com/lib/pq"
)

type ConversationRepository interface {
	NextSeq(conversationID string) (int, error)
	SaveExchange(exchange *models.ConversationExchange) error
	GetExchanges(conversationID string) ([]*models.ConversationExchange, error)
}

type PostgresConversationRepository struct {
	db *sql.DB
}

func NewPostgresConversationRepository(databaseURL string) (*PostgresConversationRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresConversationRepository{db: db}, nil
}

// NextSeq allocates the next monotonic position within a conversation.
// Seq gives retrieval a stable chronological order independent of clock skew.
func (r *PostgresConversationRepository) NextSeq(conversationID string) (int, error) {
	query := `
		SELECT COALESCE(MAX(seq), 0) + 1
		FROM coursegen.exchanges
		WHERE conversation_id = $1`

	var seq int
	row := r.db.QueryRow(query, conversationID)

	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to allocate seq: %w", err)
	}

	return seq, nil
}

func (r *PostgresConversationRepository) SaveExchange(exchange *models.ConversationExchange) error {
	query := `
		INSERT INTO coursegen.exchanges (id, conversation_id, user_message, assistant_message, seq, source_tag)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	row := r.db.QueryRow(query,
		exchange.ExchangeID, exchange.ConversationID,
		exchange.UserMessage, exchange.AssistantMessage,
		exchange.Seq, exchange.SourceTag)

	if err := row.Scan(&exchange.CreatedAt); err != nil {
		return fmt.Errorf("failed to save exchange: %w", err)
	}

	return nil
}

func (r *PostgresConversationRepository) GetExchanges(conversationID string) ([]*models.ConversationExchange, error) {
	query := `
		SELECT id, conversation_id, user_message, assistant_message, seq, source_tag, created_at
		FROM coursegen.exchanges
		WHERE conversation_id = $1
		ORDER BY seq ASC`

	rows, err := r.db.Query(query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	exchanges := make([]*models.ConversationExchange, 0)
	for rows.Next() {
		exchange := &models.ConversationExchange{}
		err := rows.Scan(&exchange.ExchangeID, &exchange.ConversationID,
			&exchange.UserMessage, &exchange.AssistantMessage,
			&exchange.Seq, &exchange.SourceTag, &exchange.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		exchanges = append(exchanges, exchange)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over exchanges: %w", err)
	}

	return exchanges, nil
}

func (r *PostgresConversationRepository) Close() error {
	return r.db.Close()
}
