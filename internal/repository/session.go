package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chat-arcade/internal/domain"

	"github.com/rs/zerolog"
)

// SessionRepository stores encoded session blobs so active games survive a
// process restart. The registry stays the source of truth while the process
// lives; rows here mirror it.
type SessionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSessionRepository(sqlDB *sql.DB, logger zerolog.Logger) *SessionRepository {
	return &SessionRepository{db: sqlDB, logger: logger}
}

func (r *SessionRepository) Save(ctx context.Context, key domain.Key, gameType domain.GameType, payload []byte) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO game_sessions (user_id, chat_id, game_type, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, chat_id, game_type)
		DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key.UserID, key.ChatID, string(gameType), payload, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, key domain.Key, gameType domain.GameType) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM game_sessions WHERE user_id = ? AND chat_id = ? AND game_type = ?`,
		key.UserID, key.ChatID, string(gameType),
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// LoadAll returns every stored blob, oldest first. Used to rehydrate the
// registry on startup.
func (r *SessionRepository) LoadAll(ctx context.Context) ([][]byte, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload FROM game_sessions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	defer rows.Close()

	var payloads [][]byte
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		payloads = append(payloads, payload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	return payloads, nil
}
