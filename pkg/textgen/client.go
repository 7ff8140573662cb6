// Package textgen provides a client for a hosted text-generation
// inference endpoint speaking the generate/response JSON protocol.
//
// Generation failures are reported inside the returned text as an
// "Error: ..." string rather than as a Go error. Downstream consumers
// treat model output as untrusted data and already handle malformed
// responses, so transport failures flow through the same path.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

// ErrorPrefix marks an in-band transport failure in generated text.
const ErrorPrefix = "Error:"

// generateAttempts is the number of tries a single Generate call gets
// when the endpoint times out or returns a transient status.
const generateAttempts = 2

// Message is a single turn of a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client defines the text-generation operations.
type Client interface {
	// Generate sends a raw prompt and returns the generated text, or an
	// "Error: ..." string on transport failure.
	Generate(ctx context.Context, prompt string, maxNewTokens int, temperature float64) string
	// Chat formats messages with the Llama-3 chat template and generates
	// the assistant turn.
	Chat(ctx context.Context, messages []Message, maxNewTokens int, temperature float64) string
	// Ping reports whether the endpoint is reachable.
	Ping(ctx context.Context) error
}

// Option configures the textgen client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetryConfig overrides the generate retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a client for the given inference endpoint base URL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.RetryConfig{
			MaxAttempts:    generateAttempts,
			InitialBackoff: time.Second,
			ShouldRetry:    retryable,
			OnRetry:        resilience.RetryLogger("textgen", "generate"),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Prompt       string  `json:"prompt"`
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (c *httpClient) Generate(ctx context.Context, prompt string, maxNewTokens int, temperature float64) string {
	payload, err := json.Marshal(generateRequest{
		Prompt:       prompt,
		MaxNewTokens: maxNewTokens,
		Temperature:  temperature,
	})
	if err != nil {
		return fmt.Sprintf("%s %v", ErrorPrefix, err)
	}

	text, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (string, error) {
		return c.doGenerate(ctx, payload)
	})
	if err == nil {
		return text
	}
	if isTimeout(err) {
		return fmt.Sprintf("%s Request timed out after %d attempts", ErrorPrefix, c.retry.MaxAttempts)
	}
	return fmt.Sprintf("%s %v", ErrorPrefix, err)
}

func (c *httpClient) doGenerate(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(payload))
	if err != nil {
		return "", eris.Wrap(err, "textgen: build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("textgen: generate returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return "", resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return "", statusErr
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", eris.Wrap(err, "textgen: decode response")
	}
	return parsed.Response, nil
}

// Chat renders messages in the Llama-3 chat template and leaves the
// assistant header open for the model to complete.
func (c *httpClient) Chat(ctx context.Context, messages []Message, maxNewTokens int, temperature float64) string {
	var b strings.Builder
	b.WriteString("<|begin_of_text|>")
	for _, msg := range messages {
		fmt.Fprintf(&b, "<|start_header_id|>%s<|end_header_id|>\n\n%s<|eot_id|>", msg.Role, msg.Content)
	}
	b.WriteString("<|start_header_id|>assistant<|end_header_id|>\n\n")
	return c.Generate(ctx, b.String(), maxNewTokens, temperature)
}

func (c *httpClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return eris.Wrap(err, "textgen: build ping request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "textgen: ping")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return eris.Errorf("textgen: endpoint unhealthy, status %d", resp.StatusCode)
	}
	return nil
}

// IsErrorText reports whether generated text is an in-band transport
// failure rather than model output.
func IsErrorText(text string) bool {
	return strings.HasPrefix(text, ErrorPrefix)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// retryable covers timeouts plus the transient failures the endpoint
// reports through status codes.
func retryable(err error) bool {
	return isTimeout(err) || resilience.IsTransient(err)
}
