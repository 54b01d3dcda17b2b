package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash-preview-09-2025"

	// SentinelOffline is returned when the provider answered but produced no text.
	SentinelOffline = "SYSTEM_OFFLINE"
	// SentinelConnectionLost is returned for every transport, status or decode failure.
	SentinelConnectionLost = "ERROR: CONNECTION_LOST. RETRY_LATER."
)

// ErrNoCandidate reports a well-formed response without candidates[0].content.parts[0].text.
var ErrNoCandidate = errors.New("gemini: no candidate text in response")

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

// generateRequest is the minimal request shape for the generateContent endpoint.
type generateRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction content   `json:"systemInstruction"`
}

// generateResponse is the minimal response shape returned by generateContent.
type generateResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("gemini: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client sends prompts to the Generative Language API.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		c.model = strings.TrimSpace(model)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client for the given API key. The key is not validated;
// a bad key surfaces as a failed request.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		apiKey:     apiKey,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.model == "" {
		return nil, errors.New("gemini: model must not be empty")
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return http.DefaultClient
}

func generateURL(baseURL, model string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/v1beta") {
		base += "/v1beta"
	}
	return base + "/models/" + url.PathEscape(model) + ":generateContent"
}

// Text is the total form of Generate: it always returns a displayable string.
// Missing candidate text maps to SentinelOffline, any other failure to
// SentinelConnectionLost.
func (c *Client) Text(ctx context.Context, prompt, systemInstruction string) (text string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("gemini: recovered panic", zap.Any("panic", r))
			text = SentinelConnectionLost
		}
	}()

	out, err := c.Generate(ctx, prompt, systemInstruction)
	switch {
	case err == nil:
		return out
	case errors.Is(err, ErrNoCandidate):
		c.logger.Warn("gemini: response carried no candidate text")
		return SentinelOffline
	default:
		c.logger.Error("gemini: generate failed", zap.Error(err))
		return SentinelConnectionLost
	}
}

// Generate issues one generateContent call and returns the first candidate's text.
func (c *Client) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents:          []content{{Parts: []part{{Text: prompt}}}},
		SystemInstruction: content{Parts: []part{{Text: systemInstruction}}},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := generateURL(c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?key="+url.QueryEscape(c.apiKey), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var payload generateResponse
	if err := c.doJSONRequest(req, endpoint, &payload); err != nil {
		return "", err
	}
	text := firstCandidateText(payload)
	if text == "" {
		return "", ErrNoCandidate
	}
	return text, nil
}

func firstCandidateText(payload generateResponse) string {
	if len(payload.Candidates) == 0 {
		return ""
	}
	c := payload.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 {
		return ""
	}
	return c.Parts[0].Text
}

// doJSONRequest executes req and decodes a 2xx body into out. endpoint is the
// key-free URL used in errors.
func (c *Client) doJSONRequest(req *http.Request, endpoint string, out any) error {
	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return fmt.Errorf("gemini: request failed: %w", redact(err, c.apiKey))
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("gemini: request failed: %w", &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        endpoint,
			Body:       string(buf),
		})
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("gemini: decode response: %w", redact(err, c.apiKey))
	}
	return nil
}

// redact strips the API key from transport errors, which embed the request URL.
func redact(err error, apiKey string) error {
	if apiKey == "" {
		return err
	}
	msg := err.Error()
	escaped := url.QueryEscape(apiKey)
	if !strings.Contains(msg, apiKey) && !strings.Contains(msg, escaped) {
		return err
	}
	msg = strings.ReplaceAll(msg, escaped, "REDACTED")
	msg = strings.ReplaceAll(msg, apiKey, "REDACTED")
	return errors.New(msg)
}
