// Package twilio is the outbound SMS and voice-call client behind the
// dispatcher's delivery channels. Deliveries are fire-and-forget side
// effects: callers record the outcome but never fail a dispatch on it.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/envutil"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/httpx"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
)

type Client interface {
	SendSMS(ctx context.Context, to string, body string) (*Message, error)
	// PlaceCall starts an outbound voice call that reads sayText to the worker.
	PlaceCall(ctx context.Context, to string, sayText string) (*Call, error)
}

type Config struct {
	AccountSID  string
	AuthToken   string
	BaseURL     string
	DefaultFrom string
	Timeout     time.Duration
	MaxRetries  int
}

func ConfigFromEnv() Config {
	return Config{
		AccountSID:  strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID")),
		AuthToken:   strings.TrimSpace(os.Getenv("TWILIO_AUTH_TOKEN")),
		BaseURL:     strings.TrimSpace(os.Getenv("TWILIO_BASE_URL")),
		DefaultFrom: strings.TrimSpace(os.Getenv("TWILIO_FROM_NUMBER")),
		Timeout:     envutil.Duration("TWILIO_TIMEOUT", 15*time.Second),
		MaxRetries:  envutil.Int("TWILIO_MAX_RETRIES", 2),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.AccountSID == "" {
		return nil, fmt.Errorf("missing TWILIO_ACCOUNT_SID")
	}
	if cfg.AuthToken == "" {
		return nil, fmt.Errorf("missing TWILIO_AUTH_TOKEN")
	}
	if cfg.DefaultFrom == "" {
		return nil, fmt.Errorf("missing TWILIO_FROM_NUMBER")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com/2010-04-01"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &client{
		log:        log.With("client", "TwilioClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type Message struct {
	SID          string  `json:"sid,omitempty"`
	To           string  `json:"to,omitempty"`
	From         string  `json:"from,omitempty"`
	Body         string  `json:"body,omitempty"`
	Status       string  `json:"status,omitempty"`
	ErrorCode    *int    `json:"error_code,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

type Call struct {
	SID    string `json:"sid,omitempty"`
	To     string `json:"to,omitempty"`
	From   string `json:"from,omitempty"`
	Status string `json:"status,omitempty"`
}

func (c *client) SendSMS(ctx context.Context, to string, body string) (*Message, error) {
	to = strings.TrimSpace(to)
	body = strings.TrimSpace(body)
	if to == "" {
		return nil, fmt.Errorf("twilio: To required")
	}
	if body == "" {
		return nil, fmt.Errorf("twilio: Body required")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.cfg.DefaultFrom)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.cfg.BaseURL, c.cfg.AccountSID)
	var out Message
	if err := c.doForm(ctx, endpoint, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) PlaceCall(ctx context.Context, to string, sayText string) (*Call, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, fmt.Errorf("twilio: To required")
	}
	sayText = strings.TrimSpace(sayText)
	if sayText == "" {
		return nil, fmt.Errorf("twilio: say text required")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.cfg.DefaultFrom)
	form.Set("Twiml", fmt.Sprintf("<Response><Say>%s</Say></Response>", escapeXML(sayText)))

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", c.cfg.BaseURL, c.cfg.AccountSID)
	var out Call
	if err := c.doForm(ctx, endpoint, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 1000 {
		msg = msg[:1000] + "..."
	}
	return fmt.Sprintf("twilio http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doFormOnce(ctx context.Context, endpoint string, form url.Values) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, err
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) doForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resp, raw, err := c.doFormOnce(ctx, endpoint, form)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("twilio decode error: %w", uErr)
			}
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, httpx.Backoff(500*time.Millisecond, attempt, 5*time.Second), 5*time.Second)
		c.log.Warn("Twilio request retrying",
			"endpoint", endpoint,
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.SleepCtx(ctx, sleepFor); err != nil {
			return err
		}
	}
	return fmt.Errorf("unreachable retry loop")
}

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlReplacer.Replace(s)
}
