package constants

import "time"

const (
	// StartingBalance is granted the first time a player's balance is read
	// in a chat.
	StartingBalance = 100

	RouletteChambers       = 6
	RouletteShotPenalty    = 50
	RouletteSurvivalReward = 10
)

const (
	DuelMaxHP  = 100
	DuelDamage = 25

	// DuelOpponentID marks the built-in automated opponent in PvE duels.
	DuelOpponentID = 0

	HPBarSegments = 7
)

const (
	EloKFactor       = 32
	EloDefaultRating = 1000
)

const (
	ChallengeTimeout     = 5 * time.Minute
	ChallengeSweepPeriod = 30 * time.Second
)

const (
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
	NotifyTimeout   = 10 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)
