package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kamaljeyaram/Matrix/pkg/circuitbreaker"
	"github.com/Kamaljeyaram/Matrix/pkg/metrics"
)

const defaultBaseURL = "https://api.telegram.org"

// Config controls how the Bot API client behaves.
type Config struct {
	Token      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	HTTPClient *http.Client
	Logger     *zerolog.Logger
	Metrics    *metrics.Metrics
}

// Client wraps the Telegram Bot API endpoints used by the booking flow.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	cb         *circuitbreaker.CircuitBreaker
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a configured Client with sane defaults.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Client{
		token:      cfg.Token,
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: maxRetries,
		backoff:    backoff,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "telegram",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
		logger:  logger,
		metrics: cfg.Metrics,
	}, nil
}

// GetMe fetches the bot identity.
func (c *Client) GetMe(ctx context.Context) (*BotInfo, error) {
	data, err := c.invoke(ctx, "getMe", nil)
	if err != nil {
		return nil, err
	}
	var info BotInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("telegram: decode getMe result: %w", err)
	}
	return &info, nil
}

// SendMessage sends a freeform Markdown message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) (*Message, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, errors.New("telegram: chat id is required")
	}
	return c.send(ctx, sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "Markdown",
	})
}

// SendMeetingNotification renders the booking message for the recipient and
// sends it with an inline join button attached.
func (c *Client) SendMeetingNotification(ctx context.Context, chatID string, notif MeetingNotification) (*Message, error) {
	if strings.TrimSpace(chatID) == "" {
		return nil, errors.New("telegram: chat id is required")
	}
	return c.send(ctx, sendMessageRequest{
		ChatID:    chatID,
		Text:      notif.render(),
		ParseMode: "Markdown",
		ReplyMarkup: &inlineKeyboardMarkup{
			InlineKeyboard: [][]inlineKeyboardButton{{
				{Text: "🔗 Join Meeting", URL: notif.MeetingLink},
			}},
		},
	})
}

// SetWebhook registers a callback URL with the Bot API.
func (c *Client) SetWebhook(ctx context.Context, url string) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("telegram: webhook url is required")
	}
	_, err := c.invoke(ctx, "setWebhook", setWebhookRequest{URL: url})
	return err
}

func (c *Client) send(ctx context.Context, req sendMessageRequest) (*Message, error) {
	data, err := c.invoke(ctx, "sendMessage", req)
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("telegram: decode sendMessage result: %w", err)
	}
	return &msg, nil
}

func (c *Client) invoke(ctx context.Context, method string, body interface{}) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("telegram: marshal %s body: %w", method, err)
		}
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	var result json.RawMessage
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn().
				Str("method", method).
				Int("attempt", attempt).
				Err(lastErr).
				Msg("retrying telegram request")
			if err := c.sleep(ctx, attempt); err != nil {
				return nil, err
			}
		}

		err := c.cb.Execute(func() error {
			var execErr error
			result, execErr = c.doRequest(ctx, url, method, payload)
			return execErr
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, url, method string, payload []byte) (json.RawMessage, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("telegram: build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.TelegramLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.countRequest(method, "transport_error")
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer resp.Body.Close()
	c.countRequest(method, strconv.Itoa(resp.StatusCode))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("telegram: read %s response: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("telegram: decode %s response (status %d): %w", method, resp.StatusCode, err)
	}

	// Bot token never reaches the log; only the method name does.
	c.logger.Debug().
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Bool("ok", envelope.OK).
		Msg("telegram request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.OK {
		return nil, classify(resp.StatusCode, envelope.ErrorCode, envelope.Description)
	}
	return envelope.Result, nil
}

func (c *Client) countRequest(method, status string) {
	if c.metrics == nil {
		return
	}
	c.metrics.TelegramRequests.WithLabelValues(method, status).Inc()
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	delay := c.backoff * time.Duration(1<<(attempt-1))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryable reports whether a failure is worth another attempt: transport
// timeouts, an open breaker, and upstream 429/5xx. Classified client errors
// (bad chat, bad token) never are.
func retryable(err error) bool {
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
