package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Transcript is one persisted chat turn.
type Transcript struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Message    string    `json:"message"`
	Answer     string    `json:"answer"`
	Outcome    Outcome   `json:"outcome"`
	Department string    `json:"department,omitempty"`
	Doctors    []string  `json:"doctors"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
}

// TranscriptStore persists chat turns to Postgres.
type TranscriptStore struct {
	db *sql.DB
}

func NewTranscriptStore(db *sql.DB) *TranscriptStore {
	if db == nil {
		panic("conversation: sql db required")
	}
	return &TranscriptStore{db: db}
}

// Append inserts t, filling its id and timestamp when unset.
func (s *TranscriptStore) Append(ctx context.Context, t *Transcript) error {
	if t == nil {
		return errors.New("conversation: transcript cannot be nil")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Source == "" {
		t.Source = "web"
	}
	if t.Doctors == nil {
		t.Doctors = []string{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_transcripts (id, session_id, message, answer, outcome, department, doctors, source, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)`,
		t.ID, t.SessionID, t.Message, t.Answer, string(t.Outcome), t.Department, pq.Array(t.Doctors), t.Source, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("conversation: failed to insert transcript: %w", err)
	}
	return nil
}

// ListBySession returns the most recent turns of a session, oldest first.
func (s *TranscriptStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]Transcript, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, message, answer, outcome, COALESCE(department, ''), doctors, source, created_at
		FROM (
			SELECT * FROM chat_transcripts WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2
		) recent
		ORDER BY created_at ASC`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to list transcripts: %w", err)
	}
	defer rows.Close()

	out := []Transcript{}
	for rows.Next() {
		var (
			t       Transcript
			outcome string
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Message, &t.Answer, &outcome, &t.Department,
			pq.Array(&t.Doctors), &t.Source, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversation: failed to scan transcript: %w", err)
		}
		t.Outcome = Outcome(outcome)
		if t.Doctors == nil {
			t.Doctors = []string{}
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
