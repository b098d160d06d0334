package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ShayCichocki/parley/pkg/models"
)

// Conversation summarises one recorded conversation.
type Conversation struct {
	ID           string
	StartedAt    time.Time
	LastActivity time.Time
	Turns        int
}

// ResultRecord is one stored pipeline result.
// Result holds the full decoded payload.
type ResultRecord struct {
	ID             string
	ConversationID string
	Seq            int
	InputText      string
	Category       models.IntentCategory
	Success        bool
	Error          string
	State          models.ConversationState
	Feedback       string
	ProcessingTime time.Duration
	CreatedAt      time.Time
	Result         *models.PipelineResult
}

const resultColumns = `id, conversation_id, seq, input_text, category, success, error, state,
	feedback, payload, processing_us, created_at`

// Record stores a pipeline result under a conversation, creating the
// conversation row on its first result.
func (db *DB) Record(conversationID string, res *models.PipelineResult) error {
	if res == nil {
		return fmt.Errorf("record result: nil result")
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	createdAt := res.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var category string
	if res.Intent != nil {
		category = string(res.Intent.Category)
	}
	var feedback string
	if res.Feedback != nil {
		feedback = res.Feedback.Content
	}

	return db.inTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO conversations (id, started_at, last_activity, turns)
			VALUES (?, ?, ?, 1)
			ON CONFLICT(id) DO UPDATE SET
				last_activity = excluded.last_activity,
				turns = turns + 1
		`, conversationID, formatTime(createdAt), formatTime(createdAt))
		if err != nil {
			return fmt.Errorf("upsert conversation: %w", err)
		}

		var seq int
		if err := tx.QueryRow("SELECT turns FROM conversations WHERE id = ?", conversationID).Scan(&seq); err != nil {
			return fmt.Errorf("get conversation turns: %w", err)
		}

		_, err = tx.Exec(`
			INSERT INTO results (`+resultColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, res.ID, conversationID, seq, res.InputText, category, res.Success, res.Error,
			string(res.State), feedback, string(payload), res.ProcessingTime.Microseconds(),
			formatTime(createdAt))
		if err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
		return nil
	})
}

// GetResult retrieves a result by ID. It returns nil when no result exists.
func (db *DB) GetResult(id string) (*ResultRecord, error) {
	row := db.queryRow(`SELECT `+resultColumns+` FROM results WHERE id = ?`, id)
	rec, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return rec, nil
}

// ListResults returns the most recent results of a conversation in turn
// order. A limit of zero or less returns every result.
func (db *DB) ListResults(conversationID string, limit int) ([]ResultRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.query(`
		SELECT `+resultColumns+` FROM (
			SELECT * FROM results WHERE conversation_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var records []ResultRecord
	for rows.Next() {
		rec, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// ListConversations returns conversations, most recently active first.
// A limit of zero or less returns every conversation.
func (db *DB) ListConversations(limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.query(`
		SELECT id, started_at, last_activity, turns
		FROM conversations ORDER BY last_activity DESC, started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		var startedAt, lastActivity string
		if err := rows.Scan(&c.ID, &startedAt, &lastActivity, &c.Turns); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		c.StartedAt, _ = parseTime(startedAt)
		c.LastActivity, _ = parseTime(lastActivity)
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*ResultRecord, error) {
	var rec ResultRecord
	var errText, feedback sql.NullString
	var payload, createdAt string
	var processingUS int64
	err := row.Scan(&rec.ID, &rec.ConversationID, &rec.Seq, &rec.InputText, &rec.Category,
		&rec.Success, &errText, &rec.State, &feedback, &payload, &processingUS, &createdAt)
	if err != nil {
		return nil, err
	}
	rec.Error = errText.String
	rec.Feedback = feedback.String
	rec.ProcessingTime = time.Duration(processingUS) * time.Microsecond
	rec.CreatedAt, _ = parseTime(createdAt)

	var res models.PipelineResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	rec.Result = &res
	return &rec, nil
}
