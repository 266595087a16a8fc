package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/matheuskafuri/dropwatch/internal/store"
)

const telegramAPI = "https://api.telegram.org"

// Telegram posts alerts to a chat through the Bot API, one message per
// opportunity.
type Telegram struct {
	token    string
	chatID   string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	retry    func() backoff.BackOff
}

// NewTelegram returns a Telegram notifier sending at most one message per
// second to chatID.
func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		token:    token,
		chatID:   chatID,
		endpoint: telegramAPI,
		client:   &http.Client{Timeout: 15 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		retry: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
	}
}

func (t *Telegram) Name() string { return "telegram" }

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify sends ops in order and stops at the first message that cannot be
// delivered. The IDs sent before that point are returned with the error.
func (t *Telegram) Notify(ctx context.Context, ops []store.Opportunity) ([]string, error) {
	sent := make([]string, 0, len(ops))
	for _, o := range ops {
		if err := t.limiter.Wait(ctx); err != nil {
			return sent, err
		}
		send := func() error { return t.send(ctx, FormatMarkdown(o)) }
		policy := backoff.WithContext(backoff.WithMaxRetries(t.retry(), 3), ctx)
		if err := backoff.Retry(send, policy); err != nil {
			return sent, fmt.Errorf("sending %s: %w", o.SourceID, err)
		}
		sent = append(sent, o.SourceID)
	}
	return sent, nil
}

func (t *Telegram) send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                t.chatID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return backoff.Permanent(err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.endpoint, t.token)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var result apiResponse
	_ = json.Unmarshal(respBody, &result)

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, result.Description)
	}
	if resp.StatusCode != http.StatusOK || !result.OK {
		// Client errors such as a bad chat ID will not succeed on retry.
		return backoff.Permanent(fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, result.Description))
	}
	return nil
}
