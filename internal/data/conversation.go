package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/relaykit/discord-mcp-relay/internal/biz/domain"
	"github.com/relaykit/discord-mcp-relay/internal/biz/repo"

	_ "modernc.org/sqlite"
)

// DefaultStoreDSN keeps the history in process memory only
const DefaultStoreDSN = ":memory:"

// conversationRepo implements the Conversation repository
type conversationRepo struct {
	db *sql.DB
}

// NewConversationRepo creates a new Conversation repository
func NewConversationRepo(dsn string) (repo.ConversationRepo, error) {
	if dsn == "" {
		dsn = DefaultStoreDSN
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A memory database lives and dies with its connection, so keep exactly one
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	// Create table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS responses (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			scope TEXT NOT NULL,
			response_id TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_responses_scope_seq ON responses(scope, seq)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &conversationRepo{db: db}, nil
}

// Last gets the most recent record of a scope
func (r *conversationRepo) Last(ctx context.Context, scope string) (*domain.ResponseRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT scope, response_id, created_at
		FROM responses
		WHERE scope = ?
		ORDER BY seq DESC
		LIMIT 1
	`, scope)

	var rec domain.ResponseRecord
	var createdAt int64
	err := row.Scan(&rec.Scope, &rec.ResponseID, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last response: %w", err)
	}
	rec.CreatedAt = time.UnixMilli(createdAt)

	return &rec, nil
}

// Append appends a record
func (r *conversationRepo) Append(ctx context.Context, rec *domain.ResponseRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO responses (scope, response_id, created_at) VALUES (?, ?, ?)
	`, rec.Scope, rec.ResponseID, createdAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to append response: %w", err)
	}
	return nil
}

// Count returns the number of records in a scope
func (r *conversationRepo) Count(ctx context.Context, scope string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses WHERE scope = ?`, scope).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return n, nil
}

// History lists a scope's records, oldest first
func (r *conversationRepo) History(ctx context.Context, scope string) ([]*domain.ResponseRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT scope, response_id, created_at
		FROM responses
		WHERE scope = ?
		ORDER BY seq ASC
	`, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	var records []*domain.ResponseRecord
	for rows.Next() {
		var rec domain.ResponseRecord
		var createdAt int64
		if err := rows.Scan(&rec.Scope, &rec.ResponseID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(createdAt)
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Reset removes all records of a scope
func (r *conversationRepo) Reset(ctx context.Context, scope string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM responses WHERE scope = ?`, scope)
	if err != nil {
		return 0, fmt.Errorf("failed to reset scope: %w", err)
	}
	return result.RowsAffected()
}

// ListScopes summarizes every non-empty scope, most recently active first
func (r *conversationRepo) ListScopes(ctx context.Context) ([]*domain.ScopeSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.scope, c.turns, r.response_id, r.created_at
		FROM responses r
		JOIN (
			SELECT scope, COUNT(*) AS turns, MAX(seq) AS last_seq
			FROM responses
			GROUP BY scope
		) c ON r.seq = c.last_seq
		ORDER BY r.seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}
	defer rows.Close()

	var scopes []*domain.ScopeSummary
	for rows.Next() {
		var s domain.ScopeSummary
		var updatedAt int64
		if err := rows.Scan(&s.Scope, &s.Turns, &s.LastResponseID, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scope: %w", err)
		}
		s.UpdatedAt = time.UnixMilli(updatedAt)
		scopes = append(scopes, &s)
	}

	return scopes, rows.Err()
}

// Close closes the database connection
func (r *conversationRepo) Close() error {
	return r.db.Close()
}
