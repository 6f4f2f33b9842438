package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yungbote/roadmap-backend/internal/platform/envutil"
	"github.com/yungbote/roadmap-backend/internal/platform/httpx"
	"github.com/yungbote/roadmap-backend/internal/platform/logger"
)

// Client is the text-generation surface of an OpenAI-compatible Responses API.
type Client interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature *float64
	HTTPClient  *http.Client
}

// ConfigFromEnv reads OPENAI_* variables. OPENAI_API_KEY is required.
func ConfigFromEnv() (Config, error) {
	apiKey, err := envutil.Required("OPENAI_API_KEY")
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		APIKey:     apiKey,
		BaseURL:    envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:      envutil.String("OPENAI_MODEL", "gpt-4o-mini"),
		Timeout:    envutil.Seconds("OPENAI_TIMEOUT_SECONDS", 180*time.Second),
		MaxRetries: envutil.Int("OPENAI_MAX_RETRIES", 2),
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if v := envutil.String("OPENAI_TEMPERATURE", ""); v != "" {
		if f, perr := strconv.ParseFloat(v, 64); perr == nil && f >= 0 && f <= 2 {
			cfg.Temperature = &f
		}
	}
	return cfg, nil
}

type client struct {
	log         *logger.Logger
	baseURL     string
	apiKey      string
	model       string
	maxRetries  int
	temperature *float64
	httpClient  *http.Client

	// set once the model rejects the temperature parameter
	noTemperature atomic.Bool
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	if log == nil {
		return nil, errors.New("logger required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 180 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &client{
		log:         log.With("client", "openai"),
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       model,
		maxRetries:  cfg.MaxRetries,
		temperature: cfg.Temperature,
		httpClient:  hc,
	}, nil
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model       string         `json:"model"`
	Input       []inputMessage `json:"input"`
	Temperature *float64       `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" && c.Text != "" {
				out.WriteString(c.Text)
			}
		}
	}
	return out.String()
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	req := responsesRequest{
		Model: c.model,
		Input: []inputMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	if c.temperature != nil && !c.noTemperature.Load() {
		req.Temperature = c.temperature
	}

	var resp responsesResponse
	err := c.post(ctx, "/v1/responses", &req, &resp)
	if err != nil && req.Temperature != nil && isUnsupportedTemperature(err) {
		c.log.Warn("model rejected temperature; retrying without it", "model", c.model)
		c.noTemperature.Store(true)
		req.Temperature = nil
		err = c.post(ctx, "/v1/responses", &req, &resp)
	}
	if err != nil {
		return "", err
	}
	if resp.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", resp.Refusal)
	}
	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no output_text found in response")
	}
	return text, nil
}

func (c *client) post(ctx context.Context, path string, body any, out any) error {
	var raw []byte
	policy := httpx.RetryPolicy{
		MaxRetries:  c.maxRetries,
		BaseBackoff: time.Second,
		MaxBackoff:  10 * time.Second,
		OnRetry: func(attempt int, sleep time.Duration, err error) {
			c.log.Warn("OpenAI request retrying",
				"path", path,
				"attempt", attempt,
				"max_retries", c.maxRetries,
				"sleep", sleep.String(),
				"error", err.Error(),
			)
		},
	}
	err := httpx.Retry(ctx, policy, func(ctx context.Context) (*http.Response, error) {
		resp, b, err := c.doOnce(ctx, path, body)
		raw = b
		return resp, err
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if uErr := json.Unmarshal(raw, out); uErr != nil {
		return fmt.Errorf("openai decode error: %w", uErr)
	}
	return nil
}

func (c *client) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
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
		return resp, raw, &httpx.StatusError{Service: "openai", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func isUnsupportedTemperature(err error) bool {
	var se *httpx.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(se.Body)
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, needle := range []string{"unsupported", "unknown parameter", "not supported", "does not support", "only the default"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
