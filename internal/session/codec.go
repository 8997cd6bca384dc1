package session

import (
	"encoding/json"
	"fmt"
	"time"

	"chat-arcade/internal/domain"
)

// Wire form of a session. Every field is mandatory; created_at travels as an
// ISO-8601 string so the blob stays readable in storage.
type wireSession struct {
	GameType  string         `json:"game_type"`
	UserID    int64          `json:"user_id"`
	ChatID    int64          `json:"chat_id"`
	MessageID int64          `json:"message_id"`
	Data      map[string]any `json:"data"`
	CreatedAt string         `json:"created_at"`
}

// Encode serializes a session. Decode(Encode(s)) reproduces s exactly,
// including nested state values.
func Encode(s *Session) ([]byte, error) {
	w := wireSession{
		GameType:  string(s.GameType),
		UserID:    s.UserID,
		ChatID:    s.ChatID,
		MessageID: s.MessageID,
		Data:      s.State,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	blob, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return blob, nil
}

// Decode is the one boundary where a corrupt blob is fatal to the call.
func Decode(blob []byte) (*Session, error) {
	var w wireSession
	if err := json.Unmarshal(blob, &w); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session created_at: %w", err)
	}

	data := w.Data
	if data == nil {
		data = make(map[string]any)
	}

	return &Session{
		UserID:    w.UserID,
		ChatID:    w.ChatID,
		GameType:  domain.GameType(w.GameType),
		MessageID: w.MessageID,
		State:     data,
		CreatedAt: createdAt,
	}, nil
}
