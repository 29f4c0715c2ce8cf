// Package llm wraps the OpenAI-compatible chat-completions endpoint consumed
// by the severity classifier. The collaborator is treated as best-effort: the
// caller always has a deterministic fallback, so timeouts here are short and
// failures are returned, never retried indefinitely.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/envutil"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/httpx"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
)

type Client interface {
	// GenerateText returns the assistant completion for a system+user prompt.
	GenerateText(ctx context.Context, system, user string) (string, error)
	// GenerateJSON asks for a JSON object completion and decodes it.
	GenerateJSON(ctx context.Context, system, user string) (map[string]any, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing LLM_API_KEY")
	}

	baseURL := strings.TrimRight(envutil.Str("LLM_BASE_URL", "https://api.openai.com"), "/")
	model := envutil.Str("LLM_MODEL", "gpt-4o-mini")

	// Triage must stay responsive; the fallback scorer covers anything slower.
	timeout := envutil.Duration("LLM_TIMEOUT", 8*time.Second)
	maxRetries := envutil.Int("LLM_MAX_RETRIES", 1)

	return &client{
		log:        log.With("client", "LLMClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}, nil
}

type llmHTTPError struct {
	StatusCode int
	Body       string
}

func (e *llmHTTPError) Error() string {
	return fmt.Sprintf("llm http %d: %s", e.StatusCode, e.Body)
}

func (e *llmHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *client) GenerateText(ctx context.Context, system, user string) (string, error) {
	return c.complete(ctx, system, user, nil)
}

func (c *client) GenerateJSON(ctx context.Context, system, user string) (map[string]any, error) {
	raw, err := c.complete(ctx, system, user, &respFormat{Type: "json_object"})
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &out); err != nil {
		return nil, fmt.Errorf("llm returned unparseable json: %w", err)
	}
	return out, nil
}

func (c *client) complete(ctx context.Context, system, user string, format *respFormat) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    0.2,
		ResponseFormat: format,
	}

	var decoded chatResponse
	if err := c.do(ctx, http.MethodPost, "/v1/chat/completions", body, &decoded); err != nil {
		return "", err
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

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
		return resp, raw, &llmHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("llm decode error: %w", uErr)
			}
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, httpx.Backoff(500*time.Millisecond, attempt, 4*time.Second), 4*time.Second)
		c.log.Warn("LLM request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.SleepCtx(ctx, sleepFor); err != nil {
			return err
		}
	}
	return fmt.Errorf("unreachable retry loop")
}

// extractJSONObject tolerates completions that wrap the object in prose or a
// markdown fence.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
