// Package audit records credential lifecycle events.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	ActionIssued          = "credential.issued"
	ActionRefreshed       = "credential.refreshed"
	ActionRevoked         = "credential.revoked"
	ActionRefreshRejected = "credential.refresh_rejected"
	ActionPurged          = "credential.purged"
)

type Entry struct {
	ID        string                 `json:"id"`
	Action    string                 `json:"action"`
	SessionID string                 `json:"session_id,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt int64                  `json:"created_at"`
}

// Logger writes entries to the request logger and, when db is set, to the
// credential_audit table. Tokens never appear in an entry.
type Logger struct {
	db  *sql.DB
	now func() time.Time
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db, now: time.Now}
}

// Log records an entry. Storage failures are logged and not returned, so an
// audit outage never blocks the credential flow.
func (l *Logger) Log(ctx context.Context, action, sessionID, userID string, metadata map[string]interface{}) {
	entry := &Entry{
		ID:        "audit_" + uuid.New().String(),
		Action:    action,
		SessionID: sessionID,
		UserID:    userID,
		Metadata:  metadata,
		CreatedAt: l.now().Unix(),
	}

	logger := log.Ctx(ctx)
	logger.Info().
		Str("audit_id", entry.ID).
		Str("action", entry.Action).
		Str("session_id", entry.SessionID).
		Str("user_id", entry.UserID).
		Fields(entry.Metadata).
		Msg("audit")

	if l.db == nil {
		return
	}

	metaJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		logger.Error().Err(err).Msg("failed to encode audit metadata")
		return
	}

	query := `
		INSERT INTO credential_audit (id, action, session_id, user_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := l.db.ExecContext(ctx, query, entry.ID, entry.Action, entry.SessionID, entry.UserID, string(metaJSON), entry.CreatedAt); err != nil {
		logger.Error().Err(err).Str("audit_id", entry.ID).Msg("failed to persist audit entry")
	}
}

// Recent returns the newest entries for a session, newest first.
func (l *Logger) Recent(ctx context.Context, sessionID string, limit int) ([]*Entry, error) {
	if l.db == nil {
		return nil, nil
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, action, session_id, user_id, metadata, created_at
		FROM credential_audit
		WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			e        Entry
			metaJSON string
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.SessionID, &e.UserID, &metaJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		if metaJSON != "" && metaJSON != "null" {
			if err := json.Unmarshal([]byte(metaJSON), &e.Metadata); err != nil {
				return nil, err
			}
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
