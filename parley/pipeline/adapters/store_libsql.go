package adapters

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/equalvoice/parley-mediator/parley/conversation"
	ports "github.com/equalvoice/parley-mediator/parley/pipeline/ports"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// OpenDatabase opens (creating if needed) an embedded libsql database at
// path and applies the schema migrations.
func OpenDatabase(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create database directory %s: %w", dir, err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		file, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("could not create db at path %s: %w", path, err)
		}
		file.Close()
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL&_synchronous=NORMAL&_temp_store=memory", path)
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open libsql connection: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// LibSQLDecisionStore persists evaluated messages and decisions in libsql.
type LibSQLDecisionStore struct {
	db *sql.DB
}

// NewLibSQLDecisionStore creates a store over an open database.
func NewLibSQLDecisionStore(db *sql.DB) *LibSQLDecisionStore {
	return &LibSQLDecisionStore{db: db}
}

// SaveMessage records an evaluated message.
func (s *LibSQLDecisionStore) SaveMessage(ctx context.Context, msg conversation.Message) error {
	query := `
		INSERT OR REPLACE INTO messages (id, conversation_id, author, gender, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.ConversationID, msg.Author, string(msg.Gender), msg.Text, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// SaveDecision records a decision; the trigger events are stored as JSON.
func (s *LibSQLDecisionStore) SaveDecision(ctx context.Context, d ports.Decision) error {
	events, err := json.Marshal(d.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO decisions
			(id, conversation_id, message_id, should_intervene, strategy, body, events, state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		d.ID, d.ConversationID, d.MessageID, d.ShouldIntervene,
		string(d.Strategy), d.Text, string(events), string(d.State), d.EvaluatedAt)
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

// RecentDecisions returns the last k decisions of a conversation in
// chronological order.
func (s *LibSQLDecisionStore) RecentDecisions(ctx context.Context, conversationID string, k int) ([]ports.Decision, error) {
	query := `
		SELECT id, conversation_id, message_id, should_intervene, strategy, body, events, state, created_at
		FROM decisions
		WHERE conversation_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, conversationID, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []ports.Decision
	for rows.Next() {
		var d ports.Decision
		var events string
		if err := rows.Scan(&d.ID, &d.ConversationID, &d.MessageID, &d.ShouldIntervene,
			&d.Strategy, &d.Text, &events, &d.State, &d.EvaluatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		if err := json.Unmarshal([]byte(events), &d.Events); err != nil {
			return nil, fmt.Errorf("failed to unmarshal events: %w", err)
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decisions: %w", err)
	}

	// Reverse to chronological order (oldest first).
	for i, j := 0, len(decisions)-1; i < j; i, j = i+1, j-1 {
		decisions[i], decisions[j] = decisions[j], decisions[i]
	}
	return decisions, nil
}

var _ ports.DecisionStore = (*LibSQLDecisionStore)(nil)
