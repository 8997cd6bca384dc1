package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chat-arcade/internal/constants"
	"chat-arcade/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type RatingRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRatingRepository(sqlDB *sql.DB, logger zerolog.Logger) *RatingRepository {
	return &RatingRepository{db: sqlDB, logger: logger}
}

// Get returns the stored rating, or the default for unrated players.
func (r *RatingRepository) Get(ctx context.Context, userID, chatID int64) (int, error) {
	var rating int
	err := r.db.QueryRowContext(ctx, `
		SELECT rating FROM ratings WHERE user_id = ? AND chat_id = ?`,
		userID, chatID,
	).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return constants.EloDefaultRating, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get rating: %w", err)
	}
	return rating, nil
}

func (r *RatingRepository) Set(ctx context.Context, userID, chatID int64, rating int) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ratings (user_id, chat_id, rating, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, chat_id)
		DO UPDATE SET rating = excluded.rating, updated_at = excluded.updated_at`,
		userID, chatID, rating, now,
	)
	if err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}
	return nil
}

// AppendHistory records one player's rating change for a match.
func (r *RatingRepository) AppendHistory(ctx context.Context, h domain.RatingHistory) error {
	id := h.ID
	if id == "" {
		var err error
		id, err = gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
	}

	createdAt := h.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rating_history (id, match_id, user_id, chat_id, rating_change, rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, h.MatchID, h.UserID, h.ChatID, h.RatingChange, h.Rating, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append rating history: %w", err)
	}
	return nil
}

func (r *RatingRepository) HistoryFor(ctx context.Context, userID, chatID int64, limit int) ([]domain.RatingHistory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, match_id, user_id, chat_id, rating_change, rating, created_at
		FROM rating_history
		WHERE user_id = ? AND chat_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		userID, chatID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating history: %w", err)
	}
	defer rows.Close()

	var out []domain.RatingHistory
	for rows.Next() {
		var h domain.RatingHistory
		if err := rows.Scan(&h.ID, &h.MatchID, &h.UserID, &h.ChatID, &h.RatingChange, &h.Rating, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating history row: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rating history rows: %w", err)
	}
	return out, nil
}
