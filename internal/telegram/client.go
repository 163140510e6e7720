// Package telegram is a minimal Bot API client: outbound sends plus
// webhook self-registration. Delivery failures are logged by callers and
// never retried.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the Telegram Bot API on behalf of any tenant; the token
// is passed per call so one client serves every bot identity.
type Client struct {
	httpClient *http.Client
	apiBase    string
	logger     *zap.Logger
}

// NewClient creates a Client. apiBase is normally the public Bot API root
// and is overridable for tests.
func NewClient(apiBase string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiBase:    strings.TrimRight(apiBase, "/"),
		logger:     logger,
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage delivers a text reply to one chat.
func (c *Client) SendMessage(ctx context.Context, token string, chatID int64, text string) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("text", text)
	return c.call(ctx, token, "sendMessage", form)
}

// SendDocument delivers a document by URL with an optional caption.
func (c *Client) SendDocument(ctx context.Context, token string, chatID int64, fileURL, caption string) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("document", fileURL)
	if caption != "" {
		form.Set("caption", caption)
	}
	return c.call(ctx, token, "sendDocument", form)
}

// RegisterWebhook points the bot's webhook at the given public URL,
// dropping updates that piled up while the service was down.
func (c *Client) RegisterWebhook(ctx context.Context, token, webhookURL string) error {
	form := url.Values{}
	form.Set("url", webhookURL)
	form.Set("drop_pending_updates", "true")
	return c.call(ctx, token, "setWebhook", form)
}

func (c *Client) call(ctx context.Context, token, method string, form url.Values) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.apiBase, token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	var result apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !result.OK {
		return fmt.Errorf("telegram %s: %s", method, result.Description)
	}
	return nil
}
