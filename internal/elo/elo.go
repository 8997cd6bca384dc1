// Package elo implements the standard Elo rating update used for duel
// settlements.
package elo

import (
	"math"

	"chat-arcade/internal/constants"
	"chat-arcade/internal/domain"
)

type Calculator struct {
	k int
}

func NewCalculator() *Calculator {
	return &Calculator{k: constants.EloKFactor}
}

// ExpectedScore is the probability of the first player beating the second:
// E = 1 / (1 + 10^((opponent - player) / 400)).
func (c *Calculator) ExpectedScore(playerElo, opponentElo int) float64 {
	exponent := float64(opponentElo-playerElo) / 400.0
	return 1.0 / (1.0 + math.Pow(10, exponent))
}

// Calculate returns the rating deltas and new ratings after a match. The
// winner scores 1, the loser 0, and new ratings are floored at zero.
func (c *Calculator) Calculate(winnerElo, loserElo int) domain.EloChange {
	winnerExpected := c.ExpectedScore(winnerElo, loserElo)
	loserExpected := c.ExpectedScore(loserElo, winnerElo)

	winnerDelta := int(math.Round(float64(c.k) * (1.0 - winnerExpected)))
	loserDelta := int(math.Round(float64(c.k) * (0.0 - loserExpected)))

	winnerNew := winnerElo + winnerDelta
	if winnerNew < 0 {
		winnerNew = 0
	}
	loserNew := loserElo + loserDelta
	if loserNew < 0 {
		loserNew = 0
	}

	return domain.EloChange{
		WinnerDelta:  winnerDelta,
		LoserDelta:   loserDelta,
		WinnerNewElo: winnerNew,
		LoserNewElo:  loserNew,
	}
}
