package service

import (
	"context"
	"fmt"

	"chat-arcade/internal/challenge"
	"chat-arcade/internal/constants"
	"chat-arcade/internal/domain"
	"chat-arcade/internal/duel"
	"chat-arcade/internal/session"

	"golang.org/x/sync/errgroup"
)

// duelRecord is the typed shape of a duel session's state map. A pending
// move is the first half of a PvP round, parked until the opponent answers.
type duelRecord struct {
	Duel          duel.State `json:"duel"`
	MatchID       string     `json:"match_id"`
	PendingPlayer int64      `json:"pending_player,omitempty"`
	PendingAttack duel.Zone  `json:"pending_attack,omitempty"`
	PendingDefend duel.Zone  `json:"pending_defend,omitempty"`
}

type DuelMoveResult struct {
	Success   bool
	Resolved  bool // a full round was resolved (false while waiting on the opponent)
	State     duel.State
	WinnerID  int64
	Elo       *domain.EloChange
	Payout    int
	ErrorCode domain.ErrorCode
}

// ChallengeDuel issues a duel challenge to another player.
func (s *ArcadeService) ChallengeDuel(chatID, challengerID, targetID int64, bet int) challenge.Result {
	return s.challenges.Create(chatID, challengerID, targetID, domain.GameDuel, bet)
}

func (s *ArcadeService) DeclineChallenge(challengeID string, declinerID int64) challenge.Result {
	return s.challenges.Decline(challengeID, declinerID)
}

func (s *ArcadeService) CancelChallenge(challengeID string, cancellerID int64) challenge.Result {
	return s.challenges.Cancel(challengeID, cancellerID)
}

// AcceptDuelChallenge escrows the bet, starts the duel, and registers a
// session for both players against the shared UI message. If either player
// slipped into another game since the challenge was issued, the escrow is
// returned and nothing starts.
func (s *ArcadeService) AcceptDuelChallenge(ctx context.Context, challengeID string, acceptorID, messageID int64) (duel.State, domain.ErrorCode) {
	res := s.challenges.Accept(challengeID, acceptorID)
	if !res.Success {
		return duel.State{}, res.ErrorCode
	}
	c := res.Challenge

	state := s.duels.NewDuel(c.ChallengerID, c.TargetID, c.BetAmount)
	code := s.registerDuel(ctx, state, c.ID, c.ChatID, messageID)
	if code != domain.ErrCodeNone {
		// Undo the escrow; the duel never started.
		if c.BetAmount > 0 {
			s.ledger.Apply(domain.Key{UserID: c.ChallengerID, ChatID: c.ChatID}, c.BetAmount)
			s.ledger.Apply(domain.Key{UserID: c.TargetID, ChatID: c.ChatID}, c.BetAmount)
		}
		return duel.State{}, code
	}

	return state, domain.ErrCodeNone
}

// StartPracticeDuel begins a PvE duel against the built-in opponent. The
// player's stake is debited up front and paid back double on a win.
func (s *ArcadeService) StartPracticeDuel(ctx context.Context, userID, chatID, messageID int64, bet int) (duel.State, domain.ErrorCode) {
	if bet < 0 {
		return duel.State{}, domain.ErrCodeInvalidBet
	}

	key := domain.Key{UserID: userID, ChatID: chatID}
	if bet > 0 {
		if _, err := s.ledger.Apply(key, -bet); err != nil {
			return duel.State{}, domain.ErrCodeInsufficientBalance
		}
	}

	state := s.duels.NewDuel(userID, constants.DuelOpponentID, bet)
	code := s.registerDuel(ctx, state, "", chatID, messageID)
	if code != domain.ErrCodeNone {
		if bet > 0 {
			s.ledger.Apply(key, bet)
		}
		return duel.State{}, code
	}

	return state, domain.ErrCodeNone
}

func (s *ArcadeService) registerDuel(ctx context.Context, state duel.State, matchID string, chatID, messageID int64) domain.ErrorCode {
	record := duelRecord{Duel: state, MatchID: matchID}
	stateMap, err := session.StateFrom(record)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to flatten duel state")
		return domain.ErrCodeSessionNotFound
	}

	p1Key := domain.Key{UserID: state.Player1ID, ChatID: chatID}
	if !s.registry.Register(p1Key, domain.GameDuel, messageID, stateMap) {
		return domain.ErrCodeAlreadyPlaying
	}

	if !state.IsPvE() {
		p2Key := domain.Key{UserID: state.Player2ID, ChatID: chatID}
		p2Map, _ := session.StateFrom(record)
		if !s.registry.Register(p2Key, domain.GameDuel, messageID, p2Map) {
			s.registry.End(p1Key)
			return domain.ErrCodeAlreadyPlaying
		}
		s.persistSession(ctx, p2Key)
	}

	s.persistSession(ctx, p1Key)
	return domain.ErrCodeNone
}

// SubmitDuelMove plays one player's attack/defend pick. Against the built-in
// opponent the round resolves immediately; in PvP the first pick waits for
// the opponent's answer.
func (s *ArcadeService) SubmitDuelMove(ctx context.Context, userID, chatID int64, attack, defend duel.Zone) DuelMoveResult {
	key := domain.Key{UserID: userID, ChatID: chatID}

	sess := s.registry.Get(key)
	if sess == nil || sess.GameType != domain.GameDuel {
		return DuelMoveResult{ErrorCode: domain.ErrCodeSessionNotFound}
	}

	var record duelRecord
	if err := session.StateInto(sess.State, &record); err != nil {
		s.logger.Error().Err(err).
			Int64("user_id", userID).
			Int64("chat_id", chatID).
			Msg("corrupt duel state")
		return DuelMoveResult{ErrorCode: domain.ErrCodeSessionNotFound}
	}

	state := record.Duel
	if state.IsFinished() {
		return DuelMoveResult{Success: true, State: state}
	}

	if state.IsPvE() {
		oppAttack, oppDefend := s.duels.OpponentMove()
		state = s.duels.ResolveRound(state, attack, defend, oppAttack, oppDefend)
		return s.afterRound(ctx, state, record.MatchID, chatID, sess.MessageID)
	}

	// PvP: park the first move, resolve on the second.
	if record.PendingPlayer == 0 || record.PendingPlayer == userID {
		record.PendingPlayer = userID
		record.PendingAttack = attack
		record.PendingDefend = defend
		record.Duel = state
		s.syncDuelSessions(ctx, record, chatID)
		return DuelMoveResult{Success: true, State: state}
	}

	var p1Atk, p1Def, p2Atk, p2Def duel.Zone
	if userID == state.Player1ID {
		p1Atk, p1Def = attack, defend
		p2Atk, p2Def = record.PendingAttack, record.PendingDefend
	} else {
		p1Atk, p1Def = record.PendingAttack, record.PendingDefend
		p2Atk, p2Def = attack, defend
	}

	state = s.duels.ResolveRound(state, p1Atk, p1Def, p2Atk, p2Def)
	record.PendingPlayer = 0
	record.PendingAttack = ""
	record.PendingDefend = ""
	record.Duel = state

	if !state.IsFinished() {
		s.syncDuelSessions(ctx, record, chatID)
	}
	return s.afterRound(ctx, state, record.MatchID, chatID, sess.MessageID)
}

func (s *ArcadeService) afterRound(ctx context.Context, state duel.State, matchID string, chatID, messageID int64) DuelMoveResult {
	result := DuelMoveResult{Success: true, Resolved: true, State: state}

	if !state.IsFinished() {
		if state.IsPvE() {
			record := duelRecord{Duel: state, MatchID: matchID}
			s.syncDuelSessions(ctx, record, chatID)
		}
		s.editGameMessage(ctx, chatID, messageID, RenderDuel(state))
		return result
	}

	winnerID, _ := state.WinnerID()
	result.WinnerID = winnerID

	eloChange, payout := s.settleDuel(ctx, state, matchID, chatID)
	result.Elo = eloChange
	result.Payout = payout

	s.editGameMessage(ctx, chatID, messageID, RenderDuel(state))
	return result
}

// settleDuel pays the pot, applies ratings, and vacates both sessions. The
// pot is both stakes for PvP and double the stake for PvE, so the winner's
// credit is 2x the bet either way.
func (s *ArcadeService) settleDuel(ctx context.Context, state duel.State, matchID string, chatID int64) (*domain.EloChange, int) {
	winnerID, _ := state.WinnerID()
	loserID, _ := state.LoserID()

	payout := 0
	if state.Bet > 0 && winnerID != constants.DuelOpponentID {
		payout = state.Bet * 2
		winnerKey := domain.Key{UserID: winnerID, ChatID: chatID}
		if _, err := s.ledger.Apply(winnerKey, payout); err != nil {
			s.logger.Error().Err(err).Int64("winner_id", winnerID).Msg("failed to pay duel pot")
		}
		s.persistBalance(ctx, winnerKey)
	}

	var eloChange *domain.EloChange
	if !state.IsPvE() {
		eloChange = s.applyRatings(ctx, matchID, chatID, winnerID, loserID)
	}

	s.endDuelSessions(ctx, state, chatID)
	return eloChange, payout
}

func (s *ArcadeService) applyRatings(ctx context.Context, matchID string, chatID, winnerID, loserID int64) *domain.EloChange {
	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	winnerElo, err := s.ratingRepo.Get(dbCtx, winnerID, chatID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load winner rating")
		return nil
	}
	loserElo, err := s.ratingRepo.Get(dbCtx, loserID, chatID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load loser rating")
		return nil
	}

	change := s.elo.Calculate(winnerElo, loserElo)

	g, gctx := errgroup.WithContext(dbCtx)
	g.Go(func() error {
		if err := s.ratingRepo.Set(gctx, winnerID, chatID, change.WinnerNewElo); err != nil {
			return err
		}
		return s.ratingRepo.AppendHistory(gctx, domain.RatingHistory{
			MatchID:      matchID,
			UserID:       winnerID,
			ChatID:       chatID,
			RatingChange: change.WinnerDelta,
			Rating:       change.WinnerNewElo,
		})
	})
	g.Go(func() error {
		if err := s.ratingRepo.Set(gctx, loserID, chatID, change.LoserNewElo); err != nil {
			return err
		}
		return s.ratingRepo.AppendHistory(gctx, domain.RatingHistory{
			MatchID:      matchID,
			UserID:       loserID,
			ChatID:       chatID,
			RatingChange: change.LoserDelta,
			Rating:       change.LoserNewElo,
		})
	})
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("match_id", matchID).Msg("failed to persist ratings")
	}

	return &change
}

func (s *ArcadeService) endDuelSessions(ctx context.Context, state duel.State, chatID int64) {
	keys := []domain.Key{{UserID: state.Player1ID, ChatID: chatID}}
	if !state.IsPvE() {
		keys = append(keys, domain.Key{UserID: state.Player2ID, ChatID: chatID})
	}

	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	for _, key := range keys {
		s.registry.End(key)
		if err := s.sessionRepo.Delete(dbCtx, key, domain.GameDuel); err != nil {
			s.logger.Error().Err(err).
				Int64("user_id", key.UserID).
				Msg("failed to delete stored session")
		}
	}
}

// syncDuelSessions writes the shared duel record into both players'
// sessions and mirrors them to storage.
func (s *ArcadeService) syncDuelSessions(ctx context.Context, record duelRecord, chatID int64) {
	stateMap, err := session.StateFrom(record)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to flatten duel state")
		return
	}

	keys := []domain.Key{{UserID: record.Duel.Player1ID, ChatID: chatID}}
	if !record.Duel.IsPvE() {
		keys = append(keys, domain.Key{UserID: record.Duel.Player2ID, ChatID: chatID})
	}
	for _, key := range keys {
		s.registry.Update(key, stateMap)
		s.persistSession(ctx, key)
	}
}

func (s *ArcadeService) persistSession(ctx context.Context, key domain.Key) {
	sess := s.registry.Get(key)
	if sess == nil {
		return
	}

	blob, err := session.Encode(sess)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode session")
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	if err := s.sessionRepo.Save(dbCtx, key, sess.GameType, blob); err != nil {
		s.logger.Error().Err(err).
			Int64("user_id", key.UserID).
			Int64("chat_id", key.ChatID).
			Msg("failed to persist session")
	}
}

func (s *ArcadeService) editGameMessage(ctx context.Context, chatID, messageID int64, text string) {
	if !s.notifier.Enabled() || messageID == 0 {
		return
	}

	notifyCtx, cancel := context.WithTimeout(ctx, constants.NotifyTimeout)
	defer cancel()
	if err := s.notifier.EditMessage(notifyCtx, chatID, messageID, text); err != nil {
		s.logger.Warn().Err(err).
			Int64("chat_id", chatID).
			Int64("message_id", messageID).
			Msg("failed to edit game message")
	}
}

// RenderDuel formats the duel scoreboard for the chat message.
func RenderDuel(state duel.State) string {
	p2Name := fmt.Sprintf("Player %d", state.Player2ID)
	if state.IsPvE() {
		p2Name = "The House"
	}

	text := fmt.Sprintf("⚔️ Duel\nPlayer %d: %s\n%s: %s",
		state.Player1ID, duel.HPBar(state.Player1HP, constants.DuelMaxHP),
		p2Name, duel.HPBar(state.Player2HP, constants.DuelMaxHP),
	)

	if winnerID, ok := state.WinnerID(); ok {
		if winnerID == constants.DuelOpponentID {
			text += "\n\n🏆 The House wins!"
		} else {
			text += fmt.Sprintf("\n\n🏆 Player %d wins!", winnerID)
		}
	}
	return text
}
