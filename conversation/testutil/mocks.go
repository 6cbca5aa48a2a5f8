package testutil

import (
	"context"
	"errors"
	"sync"
)

// ErrUnreachable simulates a backend that cannot be reached.
var ErrUnreachable = errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")

// ChatCall records one SendMessage invocation.
type ChatCall struct {
	SessionID string
	UserEmail string
	Text      string
}

// MockSessionClient implements conversation.SessionClient for testing
type MockSessionClient struct {
	// Configurable responses
	StartSessionFunc func(ctx context.Context, userEmail string) (string, error)
	SendMessageFunc  func(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error)
	EndSessionFunc   func(ctx context.Context, sessionID string) bool

	mu         sync.Mutex
	starts     int
	chats      []ChatCall
	endedCalls []string
}

// NewMockSessionClient creates a mock that issues session "sess-1" and
// echoes every message back as a valid reply.
func NewMockSessionClient() *MockSessionClient {
	return &MockSessionClient{
		StartSessionFunc: func(ctx context.Context, userEmail string) (string, error) {
			return "sess-1", nil
		},
		SendMessageFunc: func(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error) {
			return map[string]any{
				"response":   "Echo: " + text,
				"intent":     "chat",
				"confidence": 0.8,
			}, nil
		},
		EndSessionFunc: func(ctx context.Context, sessionID string) bool {
			return true
		},
	}
}

// NewUnreachableClient creates a mock whose every call fails like a backend
// that is down.
func NewUnreachableClient() *MockSessionClient {
	m := NewMockSessionClient()
	m.StartSessionFunc = func(ctx context.Context, userEmail string) (string, error) {
		return "", ErrUnreachable
	}
	m.SendMessageFunc = func(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error) {
		return nil, ErrUnreachable
	}
	m.EndSessionFunc = func(ctx context.Context, sessionID string) bool {
		return false
	}
	return m
}

func (m *MockSessionClient) StartSession(ctx context.Context, userEmail string) (string, error) {
	m.mu.Lock()
	m.starts++
	m.mu.Unlock()
	return m.StartSessionFunc(ctx, userEmail)
}

func (m *MockSessionClient) SendMessage(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error) {
	m.mu.Lock()
	m.chats = append(m.chats, ChatCall{SessionID: sessionID, UserEmail: userEmail, Text: text})
	m.mu.Unlock()
	return m.SendMessageFunc(ctx, sessionID, userEmail, text)
}

func (m *MockSessionClient) EndSession(ctx context.Context, sessionID string) bool {
	m.mu.Lock()
	m.endedCalls = append(m.endedCalls, sessionID)
	m.mu.Unlock()
	return m.EndSessionFunc(ctx, sessionID)
}

// Starts returns how many times StartSession was called.
func (m *MockSessionClient) Starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

// Chats returns every SendMessage call in order.
func (m *MockSessionClient) Chats() []ChatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatCall(nil), m.chats...)
}

// Ended returns the session ids passed to EndSession.
func (m *MockSessionClient) Ended() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.endedCalls...)
}
