// Package assistant talks to the backend's conversation service.
//
// The backend exposes three JSON endpoints under the assistant base URL:
//
//	POST /assistant/start  {user_email}                          -> {session_id}
//	POST /assistant/chat   {session_id|null, user_email, message} -> reply object
//	POST /assistant/end    {session_id}                          -> {status}
//
// The client is a thin protocol wrapper. It never retries; retry and
// fallback policy belongs to the conversation controller. Chat replies are
// returned as raw decoded objects and must go through Validate before use.
package assistant

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
)

const (
	DefaultBaseURL = "http://localhost:8000/api/v1"

	startPath = "/assistant/start"
	chatPath  = "/assistant/chat"
	endPath   = "/assistant/end"

	apiKeyHeader = "x-api-key"

	// maxErrorBody bounds how much of a failed response is kept for logs.
	maxErrorBody = 4 << 10
)

// ErrMissingSessionID is returned when the start endpoint succeeds but does
// not issue a session id.
var ErrMissingSessionID = errors.New("assistant: start response has no session_id")

// StatusError reports a non-2xx response. Body holds the response text for
// diagnostics.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("assistant: %s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("assistant: %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type startRequest struct {
	UserEmail string `json:"user_email"`
}

type startResponse struct {
	SessionID string `json:"session_id"`
}

type chatRequest struct {
	SessionID *string `json:"session_id"`
	UserEmail string  `json:"user_email"`
	Message   string  `json:"message"`
}

type endRequest struct {
	SessionID string `json:"session_id"`
}

// NewClient creates a client for the given assistant base URL. A nil
// httpClient uses http.DefaultClient; timeouts are applied per call through
// the context.
func NewClient(baseURL, apiKey string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid assistant URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid assistant URL %q: scheme must be http or https", baseURL)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}, nil
}

// BaseURL returns the resolved assistant base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StartSession asks the backend for a new conversation session.
func (c *Client) StartSession(ctx context.Context, userEmail string) (string, error) {
	var resp startResponse
	if err := c.post(ctx, startPath, startRequest{UserEmail: userEmail}, &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", ErrMissingSessionID
	}
	return resp.SessionID, nil
}

// SendMessage sends one user message. An empty sessionID is sent as JSON
// null so the backend can create a session on the fly. The decoded reply is
// untrusted.
func (c *Client) SendMessage(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error) {
	req := chatRequest{
		UserEmail: userEmail,
		Message:   text,
	}
	if sessionID != "" {
		req.SessionID = &sessionID
	}

	var raw map[string]any
	if err := c.post(ctx, chatPath, req, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("assistant: %s returned an empty body", chatPath)
	}
	return raw, nil
}

// EndSession closes a session on the backend. It is best effort: any
// failure is reported as false and nothing else.
func (c *Client) EndSession(ctx context.Context, sessionID string) bool {
	if sessionID == "" {
		return false
	}
	return c.post(ctx, endPath, endRequest{SessionID: sessionID}, nil) == nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("assistant: failed to encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("assistant: failed to build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("assistant: %s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(text)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("assistant: failed to read %s response: %w", path, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("assistant: failed to decode %s response: %w", path, err)
	}
	return nil
}
