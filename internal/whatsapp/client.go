package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	support_errors "support-chat/pkg/errors"
)

// Client talks to the WhatsApp gateway's HTTP API. The gateway addresses
// chats by phone-based chat ids ("<digits>@c.us"); replies and status events
// come back through webhooks, not through this client.
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string
}

func NewClient(apiURL, token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     strings.TrimRight(apiURL, "/"),
		token:      token,
	}
}

type sendTextRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

type sendTextResponse struct {
	IDMessage string `json:"idMessage"`
}

// SendText delivers a text body to a chat id or phone and returns the
// gateway's message id. Gateway failures map to ErrUpstreamUnavailable; the
// caller decides whether that matters (notification relays never do).
func (c *Client) SendText(ctx context.Context, chatID, body string) (string, error) {
	payload, err := json.Marshal(sendTextRequest{ChatID: chatID, Message: body})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/sendMessage/%s", c.apiURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", support_errors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", support_errors.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: gateway returned %d: %s",
			support_errors.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out sendTextResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: bad gateway response: %v", support_errors.ErrUpstreamUnavailable, err)
	}
	return out.IDMessage, nil
}

// ChatIDForPhone converts a phone number to the gateway's chat id form.
func ChatIDForPhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String() + "@c.us"
}
