// Package ledger owns the per-(player, chat) virtual-currency balances.
// Balances never go negative and change only through Apply.
package ledger

import (
	"errors"
	"sync"

	"chat-arcade/internal/domain"

	"github.com/rs/zerolog"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

type Ledger struct {
	mu              sync.Mutex
	balances        map[domain.Key]*domain.Balance
	startingBalance int
	logger          zerolog.Logger
}

func New(startingBalance int, logger zerolog.Logger) *Ledger {
	return &Ledger{
		balances:        make(map[domain.Key]*domain.Balance),
		startingBalance: startingBalance,
		logger:          logger,
	}
}

// GetBalance returns a copy of the player's balance, creating it at the
// configured starting balance on first access.
func (l *Ledger) GetBalance(key domain.Key) domain.Balance {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.lookup(key)
}

// SetBalance overrides the stored balance. Admin tooling and tests only.
func (l *Ledger) SetBalance(key domain.Key, amount int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lookup(key).Balance = amount
}

// Apply adds delta (signed) to the balance. The whole read-modify-write runs
// under the ledger lock so near-simultaneous settlements cannot lose
// updates. A delta that would push the balance below zero is rejected with
// ErrInsufficientBalance and nothing changes.
func (l *Ledger) Apply(key domain.Key, delta int) (domain.Balance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.lookup(key)
	if b.Balance+delta < 0 {
		l.logger.Debug().
			Int64("user_id", key.UserID).
			Int64("chat_id", key.ChatID).
			Int("balance", b.Balance).
			Int("delta", delta).
			Msg("apply rejected, insufficient balance")
		return *b, ErrInsufficientBalance
	}

	b.Balance += delta
	if delta >= 0 {
		b.TotalWon += delta
	} else {
		b.TotalLost += -delta
	}

	l.logger.Debug().
		Int64("user_id", key.UserID).
		Int64("chat_id", key.ChatID).
		Int("delta", delta).
		Int("balance", b.Balance).
		Msg("balance applied")

	return *b, nil
}

// Snapshot returns copies of every balance, for persistence flushes.
func (l *Ledger) Snapshot() []domain.Balance {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Balance, 0, len(l.balances))
	for _, b := range l.balances {
		out = append(out, *b)
	}
	return out
}

// Hydrate loads stored balances, replacing any in-memory entries.
func (l *Ledger) Hydrate(balances []domain.Balance) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range balances {
		copied := b
		l.balances[domain.Key{UserID: b.UserID, ChatID: b.ChatID}] = &copied
	}
}

// lookup must be called with the lock held.
func (l *Ledger) lookup(key domain.Key) *domain.Balance {
	b, ok := l.balances[key]
	if !ok {
		b = &domain.Balance{
			UserID:  key.UserID,
			ChatID:  key.ChatID,
			Balance: l.startingBalance,
		}
		l.balances[key] = b
	}
	return b
}
