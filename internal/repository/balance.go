package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chat-arcade/internal/domain"

	"github.com/rs/zerolog"
)

type BalanceRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewBalanceRepository(sqlDB *sql.DB, logger zerolog.Logger) *BalanceRepository {
	return &BalanceRepository{db: sqlDB, logger: logger}
}

func (r *BalanceRepository) Upsert(ctx context.Context, b domain.Balance) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO balances (user_id, chat_id, balance, total_won, total_lost, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, chat_id)
		DO UPDATE SET balance = excluded.balance,
			total_won = excluded.total_won,
			total_lost = excluded.total_lost,
			updated_at = excluded.updated_at`,
		b.UserID, b.ChatID, b.Balance, b.TotalWon, b.TotalLost, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert balance: %w", err)
	}
	return nil
}

// UpsertBatch flushes a ledger snapshot in one transaction.
func (r *BalanceRepository) UpsertBatch(ctx context.Context, balances []domain.Balance) error {
	if len(balances) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, b := range balances {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO balances (user_id, chat_id, balance, total_won, total_lost, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, chat_id)
			DO UPDATE SET balance = excluded.balance,
				total_won = excluded.total_won,
				total_lost = excluded.total_lost,
				updated_at = excluded.updated_at`,
			b.UserID, b.ChatID, b.Balance, b.TotalWon, b.TotalLost, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert balance for user %d: %w", b.UserID, err)
		}
	}

	return tx.Commit()
}

func (r *BalanceRepository) LoadAll(ctx context.Context) ([]domain.Balance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, chat_id, balance, total_won, total_lost FROM balances`)
	if err != nil {
		return nil, fmt.Errorf("failed to load balances: %w", err)
	}
	defer rows.Close()

	var out []domain.Balance
	for rows.Next() {
		var b domain.Balance
		if err := rows.Scan(&b.UserID, &b.ChatID, &b.Balance, &b.TotalWon, &b.TotalLost); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance rows: %w", err)
	}
	return out, nil
}
