// Package session enforces the at-most-one-active-game-per-player rule and
// owns every live game session. Engines receive session state for the span
// of a single call and never hold onto it.
package session

import (
	"sync"
	"time"

	"chat-arcade/internal/domain"

	"github.com/rs/zerolog"
)

// Session is one active game for a (player, chat) key. State carries the
// per-game payload as JSON-compatible values; the engines give it shape at
// their boundary.
type Session struct {
	UserID    int64
	ChatID    int64
	GameType  domain.GameType
	MessageID int64
	State     map[string]any
	CreatedAt time.Time
}

type Registry struct {
	mu       sync.Mutex
	sessions map[domain.Key]*Session
	logger   zerolog.Logger
	now      func() time.Time
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[domain.Key]*Session),
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a session for key iff none exists. The check-and-insert
// is atomic: of two concurrent calls for the same key exactly one wins.
func (r *Registry) Register(key domain.Key, gameType domain.GameType, messageID int64, initialState map[string]any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[key]; exists {
		r.logger.Warn().
			Int64("user_id", key.UserID).
			Int64("chat_id", key.ChatID).
			Msg("user already playing")
		return false
	}

	if initialState == nil {
		initialState = make(map[string]any)
	}

	r.sessions[key] = &Session{
		UserID:    key.UserID,
		ChatID:    key.ChatID,
		GameType:  gameType,
		MessageID: messageID,
		State:     initialState,
		CreatedAt: r.now().UTC(),
	}

	r.logger.Info().
		Int64("user_id", key.UserID).
		Int64("chat_id", key.ChatID).
		Str("game_type", string(gameType)).
		Msg("game registered")
	return true
}

// IsActive reports whether a session exists for key. Equivalent to
// Get(key) != nil at every observable instant.
func (r *Registry) IsActive(key domain.Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[key]
	return ok
}

// Get returns a deep copy of the session, or nil. Callers mutate sessions
// only through Update.
func (r *Registry) Get(key domain.Key) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if !ok {
		return nil
	}
	return s.clone()
}

// Update merges partial into the session's state. Returns false without
// mutating anything when no session exists. GameType and MessageID are
// never altered here.
func (r *Registry) Update(key domain.Key, partial map[string]any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if !ok {
		r.logger.Warn().
			Int64("user_id", key.UserID).
			Int64("chat_id", key.ChatID).
			Msg("update on missing session")
		return false
	}

	for k, v := range partial {
		s.State[k] = v
	}
	return true
}

// End removes the session and reports whether one existed. An external
// expiry timer uses this to vacate stale sessions; the registry itself
// tracks no timers.
func (r *Registry) End(key domain.Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[key]; !ok {
		return false
	}
	delete(r.sessions, key)

	r.logger.Info().
		Int64("user_id", key.UserID).
		Int64("chat_id", key.ChatID).
		Msg("game ended")
	return true
}

// Hydrate installs a decoded session, overwriting any in-memory one.
// Used when reloading persisted sessions on startup.
func (r *Registry) Hydrate(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[domain.Key{UserID: s.UserID, ChatID: s.ChatID}] = s.clone()
}

func (s *Session) clone() *Session {
	copied := *s
	copied.State = deepCopyMap(s.State)
	return &copied
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}
