package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the pgx-backed Store, grounded on
// internal/persistence/databases/chat_store_postgres.go's table-per-turn
// layout and single-transaction append.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS agent_messages (
    id UUID PRIMARY KEY,
    thread_id TEXT NOT NULL,
    user_id TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    tool_call_id TEXT NOT NULL DEFAULT '',
    tool_calls JSONB NOT NULL DEFAULT '[]',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS agent_messages_thread_user_created_idx
    ON agent_messages(thread_id, user_id, created_at);

CREATE TABLE IF NOT EXISTS agent_summaries (
    thread_id TEXT NOT NULL,
    user_id TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    summarized_count INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (thread_id, user_id)
);
`)
	return err
}

func (s *PostgresStore) AppendMessages(ctx context.Context, threadID, userID string, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, m := range msgs {
		id := m.ID
		if id == "" {
			id = uuid.NewString()
		}
		createdAt := m.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		toolCallsJSON, err := json.Marshal(m.ToolCalls)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO agent_messages (id, thread_id, user_id, role, content, tool_call_id, tool_calls, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id, threadID, userID, m.Role, m.Content, m.ToolCallID, toolCallsJSON, createdAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) ListMessages(ctx context.Context, threadID, userID string) ([]Message, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, role, content, tool_call_id, tool_calls, created_at
FROM agent_messages
WHERE thread_id = $1 AND user_id = $2
ORDER BY created_at ASC`, threadID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		var toolCallsJSON []byte
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.ToolCallID, &toolCallsJSON, &m.CreatedAt); err != nil {
			return nil, err
		}
		if len(toolCallsJSON) > 0 {
			_ = json.Unmarshal(toolCallsJSON, &m.ToolCalls)
		}
		m.ThreadID = threadID
		m.UserID = userID
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetSummary(ctx context.Context, threadID, userID string) (Summary, error) {
	var sum Summary
	err := s.pool.QueryRow(ctx, `
SELECT summary, summarized_count FROM agent_summaries WHERE thread_id = $1 AND user_id = $2`,
		threadID, userID).Scan(&sum.Text, &sum.SummarizedCount)
	if err == pgx.ErrNoRows {
		return Summary{}, nil
	}
	return sum, err
}

func (s *PostgresStore) UpdateSummary(ctx context.Context, threadID, userID string, sum Summary) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO agent_summaries (thread_id, user_id, summary, summarized_count, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (thread_id, user_id) DO UPDATE
SET summary = EXCLUDED.summary, summarized_count = EXCLUDED.summarized_count, updated_at = NOW()`,
		threadID, userID, sum.Text, sum.SummarizedCount)
	return err
}
