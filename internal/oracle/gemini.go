package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the Gemini REST root.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// GeminiClient calls the generateContent endpoint.
type GeminiClient struct {
	baseURL    string
	apiKey     string
	model      string
	mimeType   string
	httpClient *http.Client
	log        zerolog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

var _ Oracle = (*GeminiClient)(nil)

// ClientOption configures a GeminiClient.
type ClientOption func(*GeminiClient)

// NewGeminiClient creates a client for model under baseURL.
func NewGeminiClient(baseURL, apiKey, model string, opts ...ClientOption) *GeminiClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	c := &GeminiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		log:          zerolog.Nop(),
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "oracle").Str("model", c.model).Logger()

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *GeminiClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetries enables retries of 429 and 5xx replies. Clients make a single
// attempt by default.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *GeminiClient) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithJSONResponse asks the model for an application/json reply.
func WithJSONResponse() ClientOption {
	return func(c *GeminiClient) {
		c.mimeType = "application/json"
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *GeminiClient) {
		c.log = log
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *GeminiClient) {
		c.httpClient = hc
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends prompt as a single user turn and returns the joined text parts.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if c.mimeType != "" {
		reqBody.GenerationConfig = &generationConfig{ResponseMimeType: c.mimeType}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	start := time.Now()
	body, err := c.doWithRetry(ctx, payload)
	if err != nil {
		c.log.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("Generate failed")
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &TransportError{Message: "malformed response envelope", Err: err}
	}

	if len(resp.Candidates) == 0 {
		reason := "no candidates"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + resp.PromptFeedback.BlockReason
		}
		return "", &TransportError{Message: reason}
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", &TransportError{Message: "empty reply (finish reason " + resp.Candidates[0].FinishReason + ")"}
	}

	c.log.Debug().Dur("elapsed", time.Since(start)).Int("chars", len(text)).Msg("Generate completed")
	return text, nil
}

func (c *GeminiClient) endpoint() string {
	q := url.Values{}
	q.Set("key", c.apiKey)
	return fmt.Sprintf("%s/models/%s:generateContent?%s", c.baseURL, url.PathEscape(c.model), q.Encode())
}

func (c *GeminiClient) doRequest(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= 400 {
		msg := http.StatusText(resp.StatusCode)
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return nil, &TransportError{StatusCode: resp.StatusCode, Message: msg}
	}

	return body, nil
}

func (c *GeminiClient) doWithRetry(ctx context.Context, payload []byte) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff
			if backoff > 0 {
				wait = backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			}
			c.log.Debug().Int("attempt", attempt).Dur("backoff", wait).Msg("Retrying request")

			select {
			case <-ctx.Done():
				return nil, &TransportError{Err: ctx.Err()}
			case <-time.After(wait):
			}
			backoff *= 2
		}

		body, err := c.doRequest(ctx, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var tErr *TransportError
		if !errors.As(err, &tErr) || !tErr.IsRetryable() {
			return nil, err
		}
	}

	if c.maxRetries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
