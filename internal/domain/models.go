package domain

import (
	"time"
)

// Key identifies at most one active game per player per chat.
type Key struct {
	UserID int64
	ChatID int64
}

type Balance struct {
	UserID    int64
	ChatID    int64
	Balance   int
	TotalWon  int
	TotalLost int
}

type GameType string

const (
	GameDuel     GameType = "duel"
	GameRoulette GameType = "roulette"
	GameCoinFlip GameType = "coinflip"
)

type ChallengeStatus string

const (
	ChallengePending   ChallengeStatus = "pending"
	ChallengeAccepted  ChallengeStatus = "accepted"
	ChallengeExpired   ChallengeStatus = "expired"
	ChallengeCancelled ChallengeStatus = "cancelled"
	ChallengeDeclined  ChallengeStatus = "declined"
)

// Challenge is a pending game invitation between two players in a chat.
type Challenge struct {
	ID           string
	ChatID       int64
	ChallengerID int64
	TargetID     int64
	GameType     GameType
	BetAmount    int
	Status       ChallengeStatus
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Copy returns an independent copy, so callers cannot mutate the stored
// challenge behind the manager's back.
func (c *Challenge) Copy() *Challenge {
	copied := *c
	return &copied
}

// EloChange is produced fresh per match and never mutated.
type EloChange struct {
	WinnerDelta  int
	LoserDelta   int
	WinnerNewElo int
	LoserNewElo  int
}

type Rating struct {
	UserID    int64
	ChatID    int64
	Rating    int
	UpdatedAt time.Time
}

type RatingHistory struct {
	ID           string // nanoid
	MatchID      string
	UserID       int64
	ChatID       int64
	RatingChange int
	Rating       int
	CreatedAt    time.Time
}
