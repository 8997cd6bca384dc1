package fx

import (
	"chat-arcade/internal/challenge"
	"chat-arcade/internal/coinflip"
	"chat-arcade/internal/config"
	"chat-arcade/internal/database"
	"chat-arcade/internal/duel"
	eloengine "chat-arcade/internal/elo"
	"chat-arcade/internal/ledger"
	"chat-arcade/internal/logger"
	"chat-arcade/internal/notify"
	"chat-arcade/internal/repository"
	"chat-arcade/internal/rng"
	"chat-arcade/internal/roulette"
	"chat-arcade/internal/server"
	"chat-arcade/internal/service"
	"chat-arcade/internal/session"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideRandomSource() rng.Source {
	return rng.Default()
}

func ProvideLedger(cfg *config.Config, log zerolog.Logger) *ledger.Ledger {
	return ledger.New(cfg.StartingBalance, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(ProvideRandomSource),
	// repos
	fx.Provide(repository.NewSessionRepository),
	fx.Provide(repository.NewBalanceRepository),
	fx.Provide(repository.NewRatingRepository),
	// game core
	fx.Provide(session.NewRegistry),
	fx.Provide(ProvideLedger),
	fx.Provide(duel.NewEngine),
	fx.Provide(roulette.NewEngine),
	fx.Provide(coinflip.NewEngine),
	fx.Provide(eloengine.NewCalculator),
	fx.Provide(challenge.NewManager),
	// collaborators
	fx.Provide(notify.NewTelegramClient),
	// svc
	fx.Provide(service.NewArcadeService),
	// server
	fx.Provide(server.NewArcadeServer),
)
