// Package audit keeps an operational record of lifecycle mutations. The
// campaigns themselves live in the external backend; this trail exists so
// destructive and confirm-gated operations issued through the gateway can
// be reconstructed later.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Entry is one recorded mutation.
type Entry struct {
	ID         string    `db:"id" json:"id"`
	Operation  string    `db:"operation" json:"operation"` // create, start, pause, delete, create_goal
	Source     string    `db:"source" json:"source"`
	CampaignID string    `db:"campaign_id" json:"campaign_id,omitempty"`
	Outcome    string    `db:"outcome" json:"outcome"` // ok, error, masked_error
	Detail     string    `db:"detail" json:"detail,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Recorder appends audit entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Store persists entries in Postgres.
type Store struct {
	db *sqlx.DB
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect audit db: %w", err)
	}
	return &Store{db: db}, nil
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO audit_log (id, operation, source, campaign_id, outcome, detail, created_at)
		VALUES (:id, :operation, :source, :campaign_id, :outcome, :detail, :created_at)`,
		e,
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Recent returns the latest entries for one source, newest first.
func (s *Store) Recent(ctx context.Context, source string, limit int) ([]Entry, error) {
	if limit < 1 {
		limit = 50
	}
	var entries []Entry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, operation, source, campaign_id, outcome, detail, created_at
		FROM audit_log
		WHERE source = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		source, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Nop discards entries, for runs without an audit database.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
