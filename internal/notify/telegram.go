// Package notify talks to the Telegram Bot API to refresh the rendered game
// message after a state change. The game core never depends on delivery
// succeeding; failures are logged and swallowed by the caller.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chat-arcade/internal/config"

	"github.com/valyala/fasthttp"
)

type TelegramClient struct {
	token  string
	client *fasthttp.Client
}

type apiResponse struct {
	Ok          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

type editMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

func NewTelegramClient(cfg *config.Config) *TelegramClient {
	return &TelegramClient{
		token: cfg.BotToken,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// Enabled reports whether a bot token was configured.
func (c *TelegramClient) Enabled() bool {
	return c.token != ""
}

// EditMessage rewrites the game UI message in place.
func (c *TelegramClient) EditMessage(ctx context.Context, chatID, messageID int64, text string) error {
	return c.post(ctx, "editMessageText", editMessageRequest{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: "HTML",
	})
}

// SendMessage posts a fresh message to the chat.
func (c *TelegramClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.post(ctx, "sendMessage", sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
}

func (c *TelegramClient) post(ctx context.Context, method string, payload any) error {
	if c.token == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", method, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("https://api.telegram.org/bot%s/%s", c.token, method))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.Do(req, resp)
	}
	if err != nil {
		return fmt.Errorf("telegram %s request failed: %w", method, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		var apiResp apiResponse
		if jsonErr := json.Unmarshal(resp.Body(), &apiResp); jsonErr == nil && apiResp.Description != "" {
			return fmt.Errorf("telegram %s error %d: %s", method, apiResp.ErrorCode, apiResp.Description)
		}
		return fmt.Errorf("telegram %s error: status %d", method, resp.StatusCode())
	}

	return nil
}
