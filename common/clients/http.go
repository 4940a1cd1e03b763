package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Logger interface for HTTP client logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// HTTPClient wraps http.Client with context-aware helpers.
// Session token and language are read from the context and sent as headers.
type HTTPClient struct {
	client *http.Client
	logger Logger
}

// NewHTTPClient creates a new HTTP client wrapper
func NewHTTPClient(client *http.Client, logger Logger) *HTTPClient {
	return &HTTPClient{
		client: client,
		logger: logger,
	}
}

// DoRequest creates and executes an HTTP request, extracting metadata from context
func (c *HTTPClient) DoRequest(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token, ok := GetToken(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if lang, ok := GetLanguage(ctx); ok {
		req.Header.Set("Accept-Language", lang)
	}

	c.logger.Debug("sending request", "method", method, "url", url)
	return c.client.Do(req)
}

// APIError is a non-2xx reply from the familytree API
type APIError struct {
	Status   int               `json:"-"`
	Category string            `json:"error"`
	Message  string            `json:"message"`
	Detail   string            `json:"detail"`
	Fields   map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: status=%d", e.Status)
	}
	return fmt.Sprintf("%s (status=%d, %s)", e.Message, e.Status, e.Category)
}

// decodeError reads an error body; bodies that are not JSON end up in Detail
func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil {
		apiErr.Detail = string(body)
	}
	return apiErr
}
