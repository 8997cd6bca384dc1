// Package roulette implements the single-shot chamber game on top of the
// betting ledger.
package roulette

import (
	"errors"

	"chat-arcade/internal/constants"
	"chat-arcade/internal/domain"
	"chat-arcade/internal/ledger"
	"chat-arcade/internal/rng"

	"github.com/rs/zerolog"
)

type Result struct {
	Success      bool
	Shot         bool
	PointsChange int
	NewBalance   int
	BetAmount    int
	ErrorCode    domain.ErrorCode
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

// Play spins the cylinder once. Chamber 0 out of six is the bullet. With a
// positive bet the balance moves by exactly the bet, sign decided by the
// draw; with bet 0 the fixed penalty and reward constants apply. Any
// rejection leaves the balance untouched.
func (e *Engine) Play(key domain.Key, betAmount int) Result {
	balance := e.ledger.GetBalance(key)

	if betAmount < 0 {
		return Result{
			NewBalance: balance.Balance,
			BetAmount:  betAmount,
			ErrorCode:  domain.ErrCodeInvalidBet,
		}
	}

	if betAmount > 0 && balance.Balance < betAmount {
		return Result{
			NewBalance: balance.Balance,
			BetAmount:  betAmount,
			ErrorCode:  domain.ErrCodeInsufficientBalance,
		}
	}

	chamber := e.src.Index(constants.RouletteChambers)
	shot := chamber == 0

	var pointsChange int
	switch {
	case betAmount > 0 && shot:
		pointsChange = -betAmount
	case betAmount > 0:
		pointsChange = betAmount
	case shot:
		pointsChange = -constants.RouletteShotPenalty
	default:
		pointsChange = constants.RouletteSurvivalReward
	}

	newBalance, err := e.ledger.Apply(key, pointsChange)
	if err != nil {
		// The pre-check covers the betting path; the fixed penalty can
		// still exceed a small balance, in which case the ledger floors
		// the loss at whatever the player has.
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			pointsChange = -newBalance.Balance
			newBalance, _ = e.ledger.Apply(key, pointsChange)
		} else {
			e.logger.Error().Err(err).
				Int64("user_id", key.UserID).
				Int64("chat_id", key.ChatID).
				Msg("roulette settlement failed")
			return Result{
				NewBalance: balance.Balance,
				BetAmount:  betAmount,
				ErrorCode:  domain.ErrCodeInsufficientBalance,
			}
		}
	}

	e.logger.Info().
		Int64("user_id", key.UserID).
		Int64("chat_id", key.ChatID).
		Bool("shot", shot).
		Int("bet", betAmount).
		Int("points_change", pointsChange).
		Int("balance", newBalance.Balance).
		Msg("roulette played")

	return Result{
		Success:      true,
		Shot:         shot,
		PointsChange: pointsChange,
		NewBalance:   newBalance.Balance,
		BetAmount:    betAmount,
	}
}
