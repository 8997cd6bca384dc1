package service_test

import (
	"context"
	"database/sql"
	"testing"

	"chat-arcade/internal/challenge"
	"chat-arcade/internal/coinflip"
	"chat-arcade/internal/config"
	"chat-arcade/internal/domain"
	"chat-arcade/internal/duel"
	"chat-arcade/internal/elo"
	"chat-arcade/internal/ledger"
	"chat-arcade/internal/notify"
	"chat-arcade/internal/repository"
	"chat-arcade/internal/rng"
	"chat-arcade/internal/roulette"
	"chat-arcade/internal/service"
	"chat-arcade/internal/session"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const schema = `
CREATE TABLE balances (
	user_id INTEGER NOT NULL,
	chat_id INTEGER NOT NULL,
	balance INTEGER NOT NULL DEFAULT 0,
	total_won INTEGER NOT NULL DEFAULT 0,
	total_lost INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, chat_id)
);
CREATE TABLE game_sessions (
	user_id INTEGER NOT NULL,
	chat_id INTEGER NOT NULL,
	game_type TEXT NOT NULL,
	payload BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, chat_id, game_type)
);
CREATE TABLE ratings (
	user_id INTEGER NOT NULL,
	chat_id INTEGER NOT NULL,
	rating INTEGER NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, chat_id)
);
CREATE TABLE rating_history (
	id TEXT PRIMARY KEY,
	match_id TEXT NOT NULL,
	user_id INTEGER NOT NULL,
	chat_id INTEGER NOT NULL,
	rating_change INTEGER NOT NULL,
	rating INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);`

type harness struct {
	svc        *service.ArcadeService
	ledger     *ledger.Ledger
	registry   *session.Registry
	ratingRepo *repository.RatingRepository
	db         *sql.DB
}

func newHarness(t *testing.T, src rng.Source) *harness {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	log := zerolog.Nop()
	l := ledger.New(100, log)
	registry := session.NewRegistry(log)
	ratingRepo := repository.NewRatingRepository(db, log)

	svc := service.NewArcadeService(
		registry,
		l,
		duel.NewEngine(src),
		roulette.NewEngine(l, src, log),
		coinflip.NewEngine(l, src, log),
		elo.NewCalculator(),
		challenge.NewManager(l, log),
		repository.NewSessionRepository(db, log),
		repository.NewBalanceRepository(db, log),
		ratingRepo,
		notify.NewTelegramClient(&config.Config{}),
		log,
	)

	return &harness{svc: svc, ledger: l, registry: registry, ratingRepo: ratingRepo, db: db}
}

func TestPlayRoulette_BlockedDuringActiveGame(t *testing.T) {
	h := newHarness(t, rng.Sequence(0.5))
	ctx := context.Background()

	if _, code := h.svc.StartPracticeDuel(ctx, 1, 10, 0, 0); code != domain.ErrCodeNone {
		t.Fatalf("practice duel failed to start: %s", code)
	}

	result := h.svc.PlayRoulette(ctx, 1, 10, 10)
	if result.ErrorCode != domain.ErrCodeAlreadyPlaying {
		t.Errorf("got %s, want ALREADY_PLAYING", result.ErrorCode)
	}

	// Another player in the same chat is unaffected.
	if result := h.svc.PlayRoulette(ctx, 2, 10, 10); !result.Success {
		t.Errorf("other player should be able to play: %s", result.ErrorCode)
	}
}

func TestPracticeDuel_FullFlow(t *testing.T) {
	// Opponent draws cycle (0.0, 0.5): attack head (blocked by our head
	// defense), defend body (open to our head attack). We land 25 every
	// round and never take damage.
	h := newHarness(t, rng.Sequence(0.0, 0.5))
	ctx := context.Background()

	state, code := h.svc.StartPracticeDuel(ctx, 1, 10, 0, 50)
	if code != domain.ErrCodeNone {
		t.Fatalf("start failed: %s", code)
	}
	if !state.IsPvE() {
		t.Fatal("practice duel should be PvE")
	}
	if got := h.ledger.GetBalance(domain.Key{UserID: 1, ChatID: 10}).Balance; got != 50 {
		t.Fatalf("stake should be escrowed: got %d, want 50", got)
	}

	var result service.DuelMoveResult
	for i := 0; i < 4; i++ {
		result = h.svc.SubmitDuelMove(ctx, 1, 10, duel.ZoneHead, duel.ZoneHead)
		if !result.Success {
			t.Fatalf("round %d failed: %s", i+1, result.ErrorCode)
		}
	}

	if !result.State.IsFinished() {
		t.Fatalf("duel should be over after 4 clean hits, state: %+v", result.State)
	}
	if result.WinnerID != 1 {
		t.Errorf("winner: got %d, want 1", result.WinnerID)
	}
	if result.Payout != 100 {
		t.Errorf("payout: got %d, want 100", result.Payout)
	}
	if result.Elo != nil {
		t.Error("PvE duels must not touch ratings")
	}

	// Stake came back double: 100 - 50 + 100.
	if got := h.ledger.GetBalance(domain.Key{UserID: 1, ChatID: 10}).Balance; got != 150 {
		t.Errorf("balance after win: got %d, want 150", got)
	}

	if h.registry.IsActive(domain.Key{UserID: 1, ChatID: 10}) {
		t.Error("session should be vacated after settlement")
	}

	var stored int
	h.db.QueryRow(`SELECT COUNT(*) FROM game_sessions`).Scan(&stored)
	if stored != 0 {
		t.Errorf("stored sessions after settlement: got %d, want 0", stored)
	}
}

func TestPvPDuel_SettlesEloAndPot(t *testing.T) {
	h := newHarness(t, rng.Sequence(0.5))
	ctx := context.Background()

	created := h.svc.ChallengeDuel(10, 1, 2, 60)
	if !created.Success {
		t.Fatalf("challenge failed: %s", created.ErrorCode)
	}

	state, code := h.svc.AcceptDuelChallenge(ctx, created.Challenge.ID, 2, 0)
	if code != domain.ErrCodeNone {
		t.Fatalf("accept failed: %s", code)
	}
	if state.Bet != 60 {
		t.Errorf("bet: got %d, want 60", state.Bet)
	}

	for _, id := range []int64{1, 2} {
		if !h.registry.IsActive(domain.Key{UserID: id, ChatID: 10}) {
			t.Fatalf("player %d should have an active session", id)
		}
	}

	// Player 1 always hits (head into body defense), player 2 always
	// blocked (attack into matching head defense). Four rounds to zero.
	var result service.DuelMoveResult
	for i := 0; i < 4; i++ {
		first := h.svc.SubmitDuelMove(ctx, 1, 10, duel.ZoneHead, duel.ZoneHead)
		if !first.Success || first.Resolved {
			t.Fatalf("round %d: first move should park, got %+v", i+1, first)
		}
		result = h.svc.SubmitDuelMove(ctx, 2, 10, duel.ZoneHead, duel.ZoneBody)
		if !result.Success || !result.Resolved {
			t.Fatalf("round %d: second move should resolve, got %+v", i+1, result)
		}
	}

	if result.WinnerID != 1 {
		t.Fatalf("winner: got %d, want 1", result.WinnerID)
	}
	if result.Elo == nil {
		t.Fatal("PvP settlement should produce an elo change")
	}
	if result.Elo.WinnerNewElo != 1016 || result.Elo.LoserNewElo != 984 {
		t.Errorf("elo: got %d/%d, want 1016/984", result.Elo.WinnerNewElo, result.Elo.LoserNewElo)
	}

	// Pot of 120 to the winner, both stakes already escrowed.
	if got := h.ledger.GetBalance(domain.Key{UserID: 1, ChatID: 10}).Balance; got != 160 {
		t.Errorf("winner balance: got %d, want 160", got)
	}
	if got := h.ledger.GetBalance(domain.Key{UserID: 2, ChatID: 10}).Balance; got != 40 {
		t.Errorf("loser balance: got %d, want 40", got)
	}

	winnerRating, err := h.ratingRepo.Get(ctx, 1, 10)
	if err != nil {
		t.Fatalf("failed to read rating: %v", err)
	}
	if winnerRating != 1016 {
		t.Errorf("stored winner rating: got %d, want 1016", winnerRating)
	}

	history, err := h.ratingRepo.HistoryFor(ctx, 1, 10, 10)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history rows: got %d, want 1", len(history))
	}
	if history[0].MatchID != created.Challenge.ID {
		t.Errorf("history match id: got %s, want %s", history[0].MatchID, created.Challenge.ID)
	}

	for _, id := range []int64{1, 2} {
		if h.registry.IsActive(domain.Key{UserID: id, ChatID: 10}) {
			t.Errorf("player %d session should be vacated", id)
		}
	}
}

func TestHydrate_RestoresSessionsAndBalances(t *testing.T) {
	h := newHarness(t, rng.Sequence(0.0, 0.5))
	ctx := context.Background()

	if _, code := h.svc.StartPracticeDuel(ctx, 1, 10, 42, 30); code != domain.ErrCodeNone {
		t.Fatalf("start failed: %s", code)
	}
	if err := h.svc.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	// A fresh registry and ledger over the same database simulate a
	// restart.
	log := zerolog.Nop()
	l := ledger.New(100, log)
	registry := session.NewRegistry(log)
	svc := service.NewArcadeService(
		registry,
		l,
		duel.NewEngine(rng.Sequence(0.0, 0.5)),
		roulette.NewEngine(l, rng.Sequence(0.5), log),
		coinflip.NewEngine(l, rng.Sequence(0.5), log),
		elo.NewCalculator(),
		challenge.NewManager(l, log),
		repository.NewSessionRepository(h.db, log),
		repository.NewBalanceRepository(h.db, log),
		repository.NewRatingRepository(h.db, log),
		notify.NewTelegramClient(&config.Config{}),
		log,
	)

	if err := svc.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate failed: %v", err)
	}

	key := domain.Key{UserID: 1, ChatID: 10}
	if !registry.IsActive(key) {
		t.Fatal("duel session should survive a restart")
	}
	if got := registry.Get(key).MessageID; got != 42 {
		t.Errorf("message_id: got %d, want 42", got)
	}
	if got := l.GetBalance(key).Balance; got != 70 {
		t.Errorf("restored balance: got %d, want 70", got)
	}

	// The restored duel is still playable to completion.
	var result service.DuelMoveResult
	for i := 0; i < 4; i++ {
		result = svc.SubmitDuelMove(ctx, 1, 10, duel.ZoneHead, duel.ZoneHead)
	}
	if result.WinnerID != 1 {
		t.Errorf("winner after restore: got %d, want 1", result.WinnerID)
	}
}
