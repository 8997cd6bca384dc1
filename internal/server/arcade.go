package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"chat-arcade/internal/coinflip"
	"chat-arcade/internal/domain"
	"chat-arcade/internal/duel"
	"chat-arcade/internal/service"

	"github.com/rs/zerolog"
)

// ArcadeServer exposes the game operations to the chat dispatcher as JSON
// over HTTP. Expected game failures come back as 200s with an error_code;
// only malformed requests and internal faults map to HTTP errors.
type ArcadeServer struct {
	svc    *service.ArcadeService
	logger zerolog.Logger
}

func NewArcadeServer(svc *service.ArcadeService, logger zerolog.Logger) *ArcadeServer {
	return &ArcadeServer{svc: svc, logger: logger}
}

func (s *ArcadeServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/roulette/play", s.handleRoulette)
	mux.HandleFunc("POST /v1/coinflip/play", s.handleCoinFlip)
	mux.HandleFunc("GET /v1/balance", s.handleBalance)
	mux.HandleFunc("POST /v1/balance/set", s.handleSetBalance)
	mux.HandleFunc("GET /v1/rating", s.handleRating)
	mux.HandleFunc("GET /v1/duel/challenges", s.handlePendingChallenges)
	mux.HandleFunc("POST /v1/duel/challenge", s.handleChallenge)
	mux.HandleFunc("POST /v1/duel/accept", s.handleAccept)
	mux.HandleFunc("POST /v1/duel/decline", s.handleDecline)
	mux.HandleFunc("POST /v1/duel/cancel", s.handleCancel)
	mux.HandleFunc("POST /v1/duel/practice", s.handlePractice)
	mux.HandleFunc("POST /v1/duel/move", s.handleMove)
}

type rouletteRequest struct {
	UserID int64 `json:"user_id"`
	ChatID int64 `json:"chat_id"`
	Bet    int   `json:"bet"`
}

func (s *ArcadeServer) handleRoulette(w http.ResponseWriter, r *http.Request) {
	var req rouletteRequest
	if !s.decode(w, r, &req) {
		return
	}

	result := s.svc.PlayRoulette(r.Context(), req.UserID, req.ChatID, req.Bet)
	s.respond(w, map[string]any{
		"success":       result.Success,
		"shot":          result.Shot,
		"points_change": result.PointsChange,
		"new_balance":   result.NewBalance,
		"bet_amount":    result.BetAmount,
		"error_code":    result.ErrorCode,
	})
}

type coinFlipRequest struct {
	UserID int64  `json:"user_id"`
	ChatID int64  `json:"chat_id"`
	Bet    int    `json:"bet"`
	Choice string `json:"choice"`
}

func (s *ArcadeServer) handleCoinFlip(w http.ResponseWriter, r *http.Request) {
	var req coinFlipRequest
	if !s.decode(w, r, &req) {
		return
	}

	side, ok := coinflip.ParseSide(req.Choice)
	if !ok {
		http.Error(w, "choice must be heads or tails", http.StatusBadRequest)
		return
	}

	result := s.svc.FlipCoin(r.Context(), req.UserID, req.ChatID, req.Bet, side)
	s.respond(w, map[string]any{
		"success":        result.Success,
		"choice":         result.Choice,
		"outcome":        result.Outcome,
		"won":            result.Won,
		"bet_amount":     result.BetAmount,
		"balance_change": result.BalanceChange,
		"new_balance":    result.NewBalance,
		"error_code":     result.ErrorCode,
	})
}

func (s *ArcadeServer) handleBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok1 := queryInt64(r, "user_id")
	chatID, ok2 := queryInt64(r, "chat_id")
	if !ok1 || !ok2 {
		http.Error(w, "user_id and chat_id are required", http.StatusBadRequest)
		return
	}

	b := s.svc.Balance(userID, chatID)
	s.respond(w, map[string]any{
		"user_id":    b.UserID,
		"chat_id":    b.ChatID,
		"balance":    b.Balance,
		"total_won":  b.TotalWon,
		"total_lost": b.TotalLost,
	})
}

func (s *ArcadeServer) handleRating(w http.ResponseWriter, r *http.Request) {
	userID, ok1 := queryInt64(r, "user_id")
	chatID, ok2 := queryInt64(r, "chat_id")
	if !ok1 || !ok2 {
		http.Error(w, "user_id and chat_id are required", http.StatusBadRequest)
		return
	}

	limit, ok := queryInt64(r, "limit")
	if !ok || limit <= 0 {
		limit = 10
	}

	rating, history, err := s.svc.Rating(r.Context(), userID, chatID, int(limit))
	if err != nil {
		s.logger.Error().Err(err).Msg("rating lookup failed")
		http.Error(w, "failed to load rating", http.StatusInternalServerError)
		return
	}

	entries := make([]map[string]any, 0, len(history))
	for _, h := range history {
		entries = append(entries, map[string]any{
			"match_id":      h.MatchID,
			"rating_change": h.RatingChange,
			"rating":        h.Rating,
			"created_at":    h.CreatedAt,
		})
	}
	s.respond(w, map[string]any{
		"user_id": userID,
		"chat_id": chatID,
		"rating":  rating,
		"history": entries,
	})
}

func (s *ArcadeServer) handlePendingChallenges(w http.ResponseWriter, r *http.Request) {
	userID, ok1 := queryInt64(r, "user_id")
	chatID, ok2 := queryInt64(r, "chat_id")
	if !ok1 || !ok2 {
		http.Error(w, "user_id and chat_id are required", http.StatusBadRequest)
		return
	}

	pending := s.svc.PendingChallenges(userID, chatID)
	entries := make([]map[string]any, 0, len(pending))
	for _, c := range pending {
		entries = append(entries, map[string]any{
			"challenge_id":  c.ID,
			"challenger_id": c.ChallengerID,
			"target_id":     c.TargetID,
			"game_type":     c.GameType,
			"bet":           c.BetAmount,
			"expires_at":    c.ExpiresAt,
		})
	}
	s.respond(w, map[string]any{"challenges": entries})
}

type setBalanceRequest struct {
	UserID int64 `json:"user_id"`
	ChatID int64 `json:"chat_id"`
	Amount int   `json:"amount"`
}

func (s *ArcadeServer) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	var req setBalanceRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.svc.SetBalance(r.Context(), req.UserID, req.ChatID, req.Amount); err != nil {
		s.logger.Error().Err(err).Msg("set balance failed")
		http.Error(w, "failed to set balance", http.StatusInternalServerError)
		return
	}
	s.respond(w, map[string]any{"success": true})
}

type challengeRequest struct {
	ChatID       int64 `json:"chat_id"`
	ChallengerID int64 `json:"challenger_id"`
	TargetID     int64 `json:"target_id"`
	Bet          int   `json:"bet"`
}

func (s *ArcadeServer) handleChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if !s.decode(w, r, &req) {
		return
	}

	res := s.svc.ChallengeDuel(req.ChatID, req.ChallengerID, req.TargetID, req.Bet)
	body := map[string]any{
		"success":    res.Success,
		"error_code": res.ErrorCode,
	}
	if res.Challenge != nil {
		body["challenge_id"] = res.Challenge.ID
		body["expires_at"] = res.Challenge.ExpiresAt
	}
	s.respond(w, body)
}

type challengeActionRequest struct {
	ChallengeID string `json:"challenge_id"`
	UserID      int64  `json:"user_id"`
	MessageID   int64  `json:"message_id"`
}

func (s *ArcadeServer) handleAccept(w http.ResponseWriter, r *http.Request) {
	var req challengeActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	state, code := s.svc.AcceptDuelChallenge(r.Context(), req.ChallengeID, req.UserID, req.MessageID)
	s.respondDuel(w, state, code)
}

func (s *ArcadeServer) handleDecline(w http.ResponseWriter, r *http.Request) {
	var req challengeActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	res := s.svc.DeclineChallenge(req.ChallengeID, req.UserID)
	s.respond(w, map[string]any{"success": res.Success, "error_code": res.ErrorCode})
}

func (s *ArcadeServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req challengeActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	res := s.svc.CancelChallenge(req.ChallengeID, req.UserID)
	s.respond(w, map[string]any{"success": res.Success, "error_code": res.ErrorCode})
}

type practiceRequest struct {
	UserID    int64 `json:"user_id"`
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
	Bet       int   `json:"bet"`
}

func (s *ArcadeServer) handlePractice(w http.ResponseWriter, r *http.Request) {
	var req practiceRequest
	if !s.decode(w, r, &req) {
		return
	}

	state, code := s.svc.StartPracticeDuel(r.Context(), req.UserID, req.ChatID, req.MessageID, req.Bet)
	s.respondDuel(w, state, code)
}

type moveRequest struct {
	UserID int64  `json:"user_id"`
	ChatID int64  `json:"chat_id"`
	Attack string `json:"attack"`
	Defend string `json:"defend"`
}

func (s *ArcadeServer) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !s.decode(w, r, &req) {
		return
	}

	attack, ok1 := parseZone(req.Attack)
	defend, ok2 := parseZone(req.Defend)
	if !ok1 || !ok2 {
		http.Error(w, "attack and defend must be head, body or legs", http.StatusBadRequest)
		return
	}

	result := s.svc.SubmitDuelMove(r.Context(), req.UserID, req.ChatID, attack, defend)
	body := map[string]any{
		"success":    result.Success,
		"resolved":   result.Resolved,
		"error_code": result.ErrorCode,
	}
	if result.Success {
		body["state"] = result.State
		body["finished"] = result.State.IsFinished()
		if result.State.IsFinished() {
			body["winner_id"] = result.WinnerID
			body["payout"] = result.Payout
		}
		if result.Elo != nil {
			body["elo"] = result.Elo
		}
	}
	s.respond(w, body)
}

func (s *ArcadeServer) respondDuel(w http.ResponseWriter, state duel.State, code domain.ErrorCode) {
	body := map[string]any{
		"success":    code == domain.ErrCodeNone,
		"error_code": code,
	}
	if code == domain.ErrCodeNone {
		body["state"] = state
	}
	s.respond(w, body)
}

func (s *ArcadeServer) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *ArcadeServer) respond(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func parseZone(z string) (duel.Zone, bool) {
	switch duel.Zone(z) {
	case duel.ZoneHead, duel.ZoneBody, duel.ZoneLegs:
		return duel.Zone(z), true
	}
	return "", false
}

func queryInt64(r *http.Request, key string) (int64, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	return n, err == nil
}
