package api

import (
	"context"
	"net/http"

	"cicada/internal/models"
)

// ChatResponse is the success body of POST /chat/: the persisted echo of the
// user's message followed by the assistant's reply. The server is
// authoritative for both ids and timestamps.
type ChatResponse struct {
	UserMessage models.ChatMessage `json:"user_message"`
	AIResponse  models.ChatMessage `json:"ai_response"`
}

// History fetches the full persisted thread in chronological order.
func (c *Client) History(ctx context.Context) ([]models.ChatMessage, error) {
	var out []models.ChatMessage
	if err := c.do(ctx, http.MethodGet, "/chat/", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage submits one message and returns the confirmed pair.
func (c *Client) SendMessage(ctx context.Context, text string) (*ChatResponse, error) {
	body := map[string]string{"message": text}
	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat/", body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearChat deletes the persisted thread.
func (c *Client) ClearChat(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/chat/clear/", nil, nil, true)
}
