// Package coinflip implements the 50/50 double-or-nothing coin toss.
package coinflip

import (
	"strings"

	"chat-arcade/internal/domain"
	"chat-arcade/internal/ledger"
	"chat-arcade/internal/rng"

	"github.com/rs/zerolog"
)

type Side string

const (
	Heads Side = "heads"
	Tails Side = "tails"
)

var sides = []Side{Heads, Tails}

type Result struct {
	Success       bool
	Choice        Side
	Outcome       Side
	Won           bool
	BetAmount     int
	BalanceChange int
	NewBalance    int
	ErrorCode     domain.ErrorCode
}

type Engine struct {
	ledger *ledger.Ledger
	src    rng.Source
	logger zerolog.Logger
}

func NewEngine(l *ledger.Ledger, src rng.Source, logger zerolog.Logger) *Engine {
	if src == nil {
		src = rng.Default()
	}
	return &Engine{ledger: l, src: src, logger: logger}
}

// ParseSide normalizes user input to a coin side.
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Heads:
		return Heads, true
	case Tails:
		return Tails, true
	}
	return "", false
}

// Flip tosses the coin for a positive bet: the winner doubles it, the loser
// forfeits it. A rejection leaves the balance untouched.
func (e *Engine) Flip(key domain.Key, betAmount int, choice Side) Result {
	balance := e.ledger.GetBalance(key)

	if betAmount <= 0 {
		return Result{
			Choice:     choice,
			BetAmount:  betAmount,
			NewBalance: balance.Balance,
			ErrorCode:  domain.ErrCodeInvalidBet,
		}
	}

	if balance.Balance < betAmount {
		return Result{
			Choice:     choice,
			BetAmount:  betAmount,
			NewBalance: balance.Balance,
			ErrorCode:  domain.ErrCodeInsufficientBalance,
		}
	}

	outcome := sides[e.src.Index(len(sides))]
	won := outcome == choice

	change := betAmount
	if !won {
		change = -betAmount
	}

	newBalance, err := e.ledger.Apply(key, change)
	if err != nil {
		e.logger.Error().Err(err).
			Int64("user_id", key.UserID).
			Int64("chat_id", key.ChatID).
			Msg("coinflip settlement failed")
		return Result{
			Choice:     choice,
			BetAmount:  betAmount,
			NewBalance: balance.Balance,
			ErrorCode:  domain.ErrCodeInsufficientBalance,
		}
	}

	e.logger.Info().
		Int64("user_id", key.UserID).
		Int64("chat_id", key.ChatID).
		Str("choice", string(choice)).
		Str("outcome", string(outcome)).
		Bool("won", won).
		Int("bet", betAmount).
		Int("balance", newBalance.Balance).
		Msg("coin flipped")

	return Result{
		Success:       true,
		Choice:        choice,
		Outcome:       outcome,
		Won:           won,
		BetAmount:     betAmount,
		BalanceChange: change,
		NewBalance:    newBalance.Balance,
	}
}
