// Package challenge runs the consent step in front of every PvP game: a
// challenge is issued, and only an accept from its target starts the game
// and escrows the bet from both sides.
package challenge

import (
	"sync"
	"time"

	"chat-arcade/internal/constants"
	"chat-arcade/internal/domain"
	"chat-arcade/internal/ledger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Result struct {
	Success   bool
	Challenge *domain.Challenge
	ErrorCode domain.ErrorCode
}

type Manager struct {
	mu         sync.Mutex
	challenges map[string]*domain.Challenge
	ledger     *ledger.Ledger
	timeout    time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewManager(l *ledger.Ledger, logger zerolog.Logger) *Manager {
	return &Manager{
		challenges: make(map[string]*domain.Challenge),
		ledger:     l,
		timeout:    constants.ChallengeTimeout,
		logger:     logger,
		now:        time.Now,
	}
}

// Create issues a challenge. A challenger may hold only one pending
// challenge per chat, and a bet must be coverable at issue time.
func (m *Manager) Create(chatID, challengerID, targetID int64, gameType domain.GameType, betAmount int) Result {
	if challengerID == targetID {
		return Result{ErrorCode: domain.ErrCodeSelfChallenge}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasPendingLocked(challengerID, chatID) {
		return Result{ErrorCode: domain.ErrCodePendingExists}
	}

	if betAmount < 0 {
		return Result{ErrorCode: domain.ErrCodeInvalidBet}
	}

	if betAmount > 0 {
		balance := m.ledger.GetBalance(domain.Key{UserID: challengerID, ChatID: chatID})
		if balance.Balance < betAmount {
			return Result{ErrorCode: domain.ErrCodeInsufficientBalance}
		}
	}

	now := m.now().UTC()
	c := &domain.Challenge{
		ID:           uuid.New().String(),
		ChatID:       chatID,
		ChallengerID: challengerID,
		TargetID:     targetID,
		GameType:     gameType,
		BetAmount:    betAmount,
		Status:       domain.ChallengePending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.timeout),
	}
	m.challenges[c.ID] = c

	m.logger.Info().
		Str("challenge_id", c.ID).
		Int64("challenger_id", challengerID).
		Int64("target_id", targetID).
		Int("bet", betAmount).
		Msg("challenge created")

	return Result{Success: true, Challenge: c.Copy()}
}

// Accept marks a pending challenge accepted and escrows the bet from both
// players. Only the target may accept, and only before expiry.
func (m *Manager) Accept(challengeID string, acceptorID int64) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.challenges[challengeID]
	if !ok {
		return Result{ErrorCode: domain.ErrCodeNotFound}
	}
	if c.Status != domain.ChallengePending {
		return Result{ErrorCode: domain.ErrCodeNotPending}
	}
	if acceptorID != c.TargetID {
		return Result{ErrorCode: domain.ErrCodeWrongTarget}
	}
	if m.now().UTC().After(c.ExpiresAt) {
		c.Status = domain.ChallengeExpired
		return Result{ErrorCode: domain.ErrCodeExpired}
	}

	if c.BetAmount > 0 {
		challengerKey := domain.Key{UserID: c.ChallengerID, ChatID: c.ChatID}
		targetKey := domain.Key{UserID: c.TargetID, ChatID: c.ChatID}

		if m.ledger.GetBalance(challengerKey).Balance < c.BetAmount {
			c.Status = domain.ChallengeCancelled
			return Result{ErrorCode: domain.ErrCodeChallengerBroke}
		}
		if m.ledger.GetBalance(targetKey).Balance < c.BetAmount {
			return Result{ErrorCode: domain.ErrCodeInsufficientBalance}
		}

		if _, err := m.ledger.Apply(challengerKey, -c.BetAmount); err != nil {
			c.Status = domain.ChallengeCancelled
			return Result{ErrorCode: domain.ErrCodeChallengerBroke}
		}
		if _, err := m.ledger.Apply(targetKey, -c.BetAmount); err != nil {
			// Give the challenger their stake back; nobody played yet.
			m.ledger.Apply(challengerKey, c.BetAmount)
			return Result{ErrorCode: domain.ErrCodeInsufficientBalance}
		}
	}

	c.Status = domain.ChallengeAccepted

	m.logger.Info().
		Str("challenge_id", c.ID).
		Int("bet", c.BetAmount).
		Msg("challenge accepted, bet escrowed from both players")

	return Result{Success: true, Challenge: c.Copy()}
}

// Decline refuses a pending challenge. No balances move.
func (m *Manager) Decline(challengeID string, declinerID int64) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.challenges[challengeID]
	if !ok {
		return Result{ErrorCode: domain.ErrCodeNotFound}
	}
	if c.Status != domain.ChallengePending {
		return Result{ErrorCode: domain.ErrCodeNotPending}
	}
	if declinerID != c.TargetID {
		return Result{ErrorCode: domain.ErrCodeWrongTarget}
	}

	c.Status = domain.ChallengeDeclined
	m.logger.Info().Str("challenge_id", c.ID).Msg("challenge declined")
	return Result{Success: true, Challenge: c.Copy()}
}

// Cancel withdraws a pending challenge. Challenger only.
func (m *Manager) Cancel(challengeID string, cancellerID int64) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.challenges[challengeID]
	if !ok {
		return Result{ErrorCode: domain.ErrCodeNotFound}
	}
	if c.Status != domain.ChallengePending {
		return Result{ErrorCode: domain.ErrCodeNotPending}
	}
	if cancellerID != c.ChallengerID {
		return Result{ErrorCode: domain.ErrCodeNotChallenger}
	}

	c.Status = domain.ChallengeCancelled
	m.logger.Info().Str("challenge_id", c.ID).Msg("challenge cancelled by challenger")
	return Result{Success: true, Challenge: c.Copy()}
}

// Get returns a pending challenge by id, or nil.
func (m *Manager) Get(challengeID string) *domain.Challenge {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.challenges[challengeID]
	if !ok || c.Status != domain.ChallengePending {
		return nil
	}
	return c.Copy()
}

// PendingFor lists pending challenges a user is part of in a chat.
func (m *Manager) PendingFor(userID, chatID int64) []domain.Challenge {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Challenge
	for _, c := range m.challenges {
		if c.ChatID == chatID && c.Status == domain.ChallengePending &&
			(c.ChallengerID == userID || c.TargetID == userID) {
			out = append(out, *c)
		}
	}
	return out
}

// CancelExpired expires every pending challenge past its deadline and
// returns them. No balances move; nothing was escrowed yet. Driven by the
// sweep ticker in the service layer.
func (m *Manager) CancelExpired() []domain.Challenge {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	var expired []domain.Challenge
	for id, c := range m.challenges {
		if c.Status == domain.ChallengePending && now.After(c.ExpiresAt) {
			c.Status = domain.ChallengeExpired
			expired = append(expired, *c)
			m.logger.Info().Str("challenge_id", c.ID).Msg("challenge expired")
			continue
		}
		// Terminal challenges are kept until their deadline passes so late
		// accept attempts still get a precise error, then dropped.
		if c.Status != domain.ChallengePending && now.After(c.ExpiresAt) {
			delete(m.challenges, id)
		}
	}
	return expired
}

func (m *Manager) hasPendingLocked(challengerID, chatID int64) bool {
	for _, c := range m.challenges {
		if c.ChallengerID == challengerID && c.ChatID == chatID && c.Status == domain.ChallengePending {
			return true
		}
	}
	return false
}
