package service

import (
	"context"
	"fmt"
	"time"

	"chat-arcade/internal/challenge"
	"chat-arcade/internal/coinflip"
	"chat-arcade/internal/constants"
	"chat-arcade/internal/domain"
	"chat-arcade/internal/duel"
	"chat-arcade/internal/elo"
	"chat-arcade/internal/ledger"
	"chat-arcade/internal/notify"
	"chat-arcade/internal/repository"
	"chat-arcade/internal/roulette"
	"chat-arcade/internal/session"

	"github.com/rs/zerolog"
)

// ArcadeService is the dispatcher-facing entry point: it gates every action
// through the session registry, runs the relevant engine, settles balances
// through the ledger, and mirrors session changes into storage.
type ArcadeService struct {
	registry   *session.Registry
	ledger     *ledger.Ledger
	duels      *duel.Engine
	roulette   *roulette.Engine
	coinflip   *coinflip.Engine
	elo        *elo.Calculator
	challenges *challenge.Manager

	sessionRepo *repository.SessionRepository
	balanceRepo *repository.BalanceRepository
	ratingRepo  *repository.RatingRepository

	notifier *notify.TelegramClient
	logger   zerolog.Logger
}

func NewArcadeService(
	registry *session.Registry,
	l *ledger.Ledger,
	duels *duel.Engine,
	rouletteEngine *roulette.Engine,
	coinflipEngine *coinflip.Engine,
	eloCalc *elo.Calculator,
	challenges *challenge.Manager,
	sessionRepo *repository.SessionRepository,
	balanceRepo *repository.BalanceRepository,
	ratingRepo *repository.RatingRepository,
	notifier *notify.TelegramClient,
	logger zerolog.Logger,
) *ArcadeService {
	return &ArcadeService{
		registry:    registry,
		ledger:      l,
		duels:       duels,
		roulette:    rouletteEngine,
		coinflip:    coinflipEngine,
		elo:         eloCalc,
		challenges:  challenges,
		sessionRepo: sessionRepo,
		balanceRepo: balanceRepo,
		ratingRepo:  ratingRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// Hydrate reloads persisted sessions and balances after a restart.
func (s *ArcadeService) Hydrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	balances, err := s.balanceRepo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load balances: %w", err)
	}
	s.ledger.Hydrate(balances)

	blobs, err := s.sessionRepo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	restored := 0
	for _, blob := range blobs {
		sess, err := session.Decode(blob)
		if err != nil {
			s.logger.Error().Err(err).Msg("skipping corrupt session blob")
			continue
		}
		s.registry.Hydrate(sess)
		restored++
	}

	s.logger.Info().
		Int("balances", len(balances)).
		Int("sessions", restored).
		Msg("state hydrated")
	return nil
}

// Flush persists the ledger snapshot, for shutdown.
func (s *ArcadeService) Flush(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.balanceRepo.UpsertBatch(ctx, s.ledger.Snapshot()); err != nil {
		return fmt.Errorf("failed to flush balances: %w", err)
	}
	return nil
}

// RunChallengeSweeper expires stale challenges until ctx is cancelled.
func (s *ArcadeService) RunChallengeSweeper(ctx context.Context) {
	ticker := time.NewTicker(constants.ChallengeSweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired := s.challenges.CancelExpired()
			for _, c := range expired {
				s.logger.Info().Str("challenge_id", c.ID).Msg("swept expired challenge")
			}
		}
	}
}

// Balance returns the player's balance, creating it on first read.
func (s *ArcadeService) Balance(userID, chatID int64) domain.Balance {
	return s.ledger.GetBalance(domain.Key{UserID: userID, ChatID: chatID})
}

// SetBalance is the admin override.
func (s *ArcadeService) SetBalance(ctx context.Context, userID, chatID int64, amount int) error {
	key := domain.Key{UserID: userID, ChatID: chatID}
	s.ledger.SetBalance(key, amount)

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	if err := s.balanceRepo.Upsert(ctx, s.ledger.GetBalance(key)); err != nil {
		return fmt.Errorf("failed to persist balance override: %w", err)
	}
	return nil
}

// Rating returns the player's current rating and their most recent history
// rows.
func (s *ArcadeService) Rating(ctx context.Context, userID, chatID int64, historyLimit int) (int, []domain.RatingHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	rating, err := s.ratingRepo.Get(ctx, userID, chatID)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load rating: %w", err)
	}

	history, err := s.ratingRepo.HistoryFor(ctx, userID, chatID, historyLimit)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load rating history: %w", err)
	}
	return rating, history, nil
}

// PendingChallenges lists the open challenges a player is part of in a chat.
func (s *ArcadeService) PendingChallenges(userID, chatID int64) []domain.Challenge {
	return s.challenges.PendingFor(userID, chatID)
}

// PlayRoulette spins once for a player who is not in the middle of another
// game.
func (s *ArcadeService) PlayRoulette(ctx context.Context, userID, chatID int64, bet int) roulette.Result {
	key := domain.Key{UserID: userID, ChatID: chatID}

	if s.registry.IsActive(key) {
		return roulette.Result{
			NewBalance: s.ledger.GetBalance(key).Balance,
			BetAmount:  bet,
			ErrorCode:  domain.ErrCodeAlreadyPlaying,
		}
	}

	result := s.roulette.Play(key, bet)
	if result.Success {
		s.persistBalance(ctx, key)
	}
	return result
}

// FlipCoin plays one double-or-nothing toss.
func (s *ArcadeService) FlipCoin(ctx context.Context, userID, chatID int64, bet int, choice coinflip.Side) coinflip.Result {
	key := domain.Key{UserID: userID, ChatID: chatID}

	if s.registry.IsActive(key) {
		return coinflip.Result{
			Choice:     choice,
			BetAmount:  bet,
			NewBalance: s.ledger.GetBalance(key).Balance,
			ErrorCode:  domain.ErrCodeAlreadyPlaying,
		}
	}

	result := s.coinflip.Flip(key, bet, choice)
	if result.Success {
		s.persistBalance(ctx, key)
	}
	return result
}

func (s *ArcadeService) persistBalance(ctx context.Context, key domain.Key) {
	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.balanceRepo.Upsert(dbCtx, s.ledger.GetBalance(key)); err != nil {
		s.logger.Error().Err(err).
			Int64("user_id", key.UserID).
			Int64("chat_id", key.ChatID).
			Msg("failed to persist balance")
	}
}
