package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"deskmate/conversation/testutil"
	"deskmate/model"
	"deskmate/responder"
)

const testUser = "dana@contoso.com"

// Turns complete inside Submit; nothing may outlive a test.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newController(client SessionClient, opts Options) *Controller {
	return New(client, testUser, opts)
}

func TestNewTranscriptHasGreeting(t *testing.T) {
	c := newController(testutil.NewMockSessionClient(), Options{})

	require.Equal(t, 1, c.Transcript().Len())
	greeting := c.Transcript().Last()
	assert.Equal(t, model.RoleAssistant, greeting.Role)
	assert.Equal(t, model.SourceSystem, greeting.Source)
	assert.Equal(t, ModeLive, c.Mode())
	assert.Empty(t, c.SessionID())
	assert.False(t, c.Busy())
}

func TestSubmitEmptyInputIsNoop(t *testing.T) {
	mock := testutil.NewMockSessionClient()
	c := newController(mock, Options{})

	for _, in := range []string{"", "   ", "\n\t "} {
		_, err := c.Submit(context.Background(), in)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}

	assert.Equal(t, 1, c.Transcript().Len())
	assert.Zero(t, mock.Starts())
	assert.Empty(t, mock.Chats())
}

func TestSubmitLive(t *testing.T) {
	mock := testutil.NewMockSessionClient()
	mock.SendMessageFunc = func(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error) {
		return map[string]any{
			"response":   "  You have **2** P0 tasks.\n",
			"intent":     "task_query",
			"confidence": 0.97,
			"reasoning_trace": []any{
				map[string]any{"step_type": "think", "content": "look up tasks"},
			},
			"followup_suggestions": []any{"Plan my day"},
		}, nil
	}
	c := newController(mock, Options{})

	reply, err := c.Submit(context.Background(), "show my P0 tasks")
	require.NoError(t, err)

	assert.Equal(t, "  You have **2** P0 tasks.\n", reply.Content)
	assert.Equal(t, model.SourceRemote, reply.Source)
	assert.Equal(t, "task_query", reply.Intent)
	assert.Equal(t, 0.97, reply.Confidence)
	assert.Equal(t, []model.ReasoningStep{{Type: model.StepThinking, Content: "look up tasks"}}, reply.ReasoningTrace)
	assert.Equal(t, []string{"Plan my day"}, reply.Suggestions)
	assert.Equal(t, ModeLive, c.Mode())
	assert.Equal(t, "sess-1", c.SessionID())

	msgs := c.Transcript().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.RoleUser, msgs[1].Role)
	assert.Equal(t, "show my P0 tasks", msgs[1].Content)
	assert.Equal(t, reply.ID, msgs[2].ID)

	require.Len(t, mock.Chats(), 1)
	assert.Equal(t, testutil.ChatCall{SessionID: "sess-1", UserEmail: testUser, Text: "show my P0 tasks"}, mock.Chats()[0])
}

func TestSubmitUnreachableFallsBack(t *testing.T) {
	c := newController(testutil.NewUnreachableClient(), Options{})
	before := c.Transcript().Len()

	reply, err := c.Submit(context.Background(), "show my P0 tasks")
	require.NoError(t, err)

	assert.Equal(t, "task_query", reply.Intent)
	assert.InDelta(t, 0.92, reply.Confidence, 1e-9)
	require.Len(t, reply.ReasoningTrace, 3)
	assert.Equal(t, model.StepThinking, reply.ReasoningTrace[0].Type)
	assert.Equal(t, model.StepAction, reply.ReasoningTrace[1].Type)
	assert.Equal(t, model.StepObservation, reply.ReasoningTrace[2].Type)
	assert.Equal(t, model.SourceLocal, reply.Source)
	assert.Equal(t, ModeDegraded, c.Mode())
	assert.Empty(t, c.SessionID())
	assert.Equal(t, before+2, c.Transcript().Len())
}

func TestSubmitInvalidPayloadFallsBack(t *testing.T) {
	payloads := []map[string]any{
		{"intent": "task_query"},
		{"response": ""},
		{"response": 12.0},
		nil,
	}

	for _, payload := range payloads {
		mock := testutil.NewMockSessionClient()
		mock.SendMessageFunc = func(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error) {
			return payload, nil
		}
		c := newController(mock, Options{RetryAttempts: 3})

		reply, err := c.Submit(context.Background(), "anything at risk?")
		require.NoError(t, err)

		assert.Contains(t, responder.Intents(), reply.Intent)
		assert.GreaterOrEqual(t, reply.Confidence, 0.0)
		assert.LessOrEqual(t, reply.Confidence, 1.0)
		assert.Equal(t, model.SourceLocal, reply.Source)
		assert.Equal(t, ModeDegraded, c.Mode())
		assert.Len(t, mock.Chats(), 1, "invalid payloads are not retried")
	}
}

func TestSubmitWithoutSessionStillTriesChat(t *testing.T) {
	mock := testutil.NewMockSessionClient()
	mock.StartSessionFunc = func(ctx context.Context, userEmail string) (string, error) {
		return "", errors.New("503 Service Unavailable")
	}
	mock.SendMessageFunc = func(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error) {
		return map[string]any{"response": "hello", "session_id": "server-made"}, nil
	}
	c := newController(mock, Options{})

	reply, err := c.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Content)
	assert.Equal(t, "", mock.Chats()[0].SessionID)
	assert.Equal(t, "server-made", c.SessionID())

	_, err = c.Submit(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, 1, mock.Starts(), "adopted session removes the need to start one")
	assert.Equal(t, "server-made", mock.Chats()[1].SessionID)
}

func TestSubmitRetriesSessionStartLazily(t *testing.T) {
	mock := testutil.NewUnreachableClient()
	c := newController(mock, Options{})

	_, err := c.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, 1, mock.Starts())

	mock.StartSessionFunc = func(ctx context.Context, userEmail string) (string, error) {
		return "sess-late", nil
	}
	_, err = c.Submit(context.Background(), "hi again")
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Starts())
	assert.Equal(t, "sess-late", c.SessionID())
	assert.Equal(t, "sess-late", mock.Chats()[1].SessionID)
}

func TestSessionIDRotation(t *testing.T) {
	mock := testutil.NewMockSessionClient()
	next := "sess-2"
	mock.SendMessageFunc = func(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error) {
		return map[string]any{"response": "ok", "session_id": next}, nil
	}
	c := newController(mock, Options{})

	_, err := c.Submit(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, "sess-2", c.SessionID())

	next = "sess-3"
	_, err = c.Submit(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, "sess-3", c.SessionID())

	_, err = c.Submit(context.Background(), "third")
	require.NoError(t, err)

	chats := mock.Chats()
	require.Len(t, chats, 3)
	assert.Equal(t, "sess-1", chats[0].SessionID)
	assert.Equal(t, "sess-2", chats[1].SessionID)
	assert.Equal(t, "sess-3", chats[2].SessionID)
}

func TestFailedExchangeKeepsSession(t *testing.T) {
	mock := testutil.NewMockSessionClient()
	c := newController(mock, Options{})

	_, err := c.Submit(context.Background(), "first")
	require.NoError(t, err)

	mock.SendMessageFunc = func(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error) {
		return nil, testutil.ErrUnreachable
	}
	_, err = c.Submit(context.Background(), "second")
	require.NoError(t, err)

	assert.Equal(t, "sess-1", c.SessionID())
	assert.Equal(t, 1, mock.Starts())
	assert.Equal(t, "sess-1", mock.Chats()[1].SessionID)
}

func TestConcurrentSubmitIsDropped(t *testing.T) {
	mock := testutil.NewMockSessionClient()
	entered := make(chan struct{})
	release := make(chan struct{})
	mock.SendMessageFunc = func(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error) {
		close(entered)
		<-release
		return map[string]any{"response": "first reply"}, nil
	}
	c := newController(mock, Options{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := c.Submit(context.Background(), "first")
		assert.NoError(t, err)
	}()

	<-entered
	assert.True(t, c.Busy())

	_, err := c.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 2, c.Transcript().Len(), "only greeting and first user message")

	close(release)
	wg.Wait()

	msgs := c.Transcript().Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[1].Content)
	assert.Equal(t, "first reply", msgs[2].Content)
	assert.Len(t, mock.Chats(), 1)
	assert.False(t, c.Busy())
}

func TestBeginEchoesBeforeNetwork(t *testing.T) {
	mock := testutil.NewMockSessionClient()
	c := newController(mock, Options{})

	turn, err := c.Begin("show my P0 tasks")
	require.NoError(t, err)

	assert.Equal(t, turn.User, c.Transcript().Last())
	assert.Empty(t, mock.Chats())
	assert.True(t, c.Busy())

	_, err = c.Begin("another")
	assert.ErrorIs(t, err, ErrBusy)

	reply := c.Complete(context.Background(), turn)
	assert.False(t, c.Busy())
	assert.Equal(t, reply, c.Complete(context.Background(), turn), "second Complete is a no-op")
	assert.Equal(t, 3, c.Transcript().Len())
}

func TestRetryPolicy(t *testing.T) {
	mock := testutil.NewMockSessionClient()
	failures := 2
	mock.SendMessageFunc = func(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error) {
		if failures > 0 {
			failures--
			return nil, testutil.ErrUnreachable
		}
		return map[string]any{"response": "made it"}, nil
	}

	c := newController(mock, Options{RetryAttempts: 2})
	reply, err := c.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "made it", reply.Content)
	assert.Len(t, mock.Chats(), 3)
	assert.Equal(t, ModeLive, c.Mode())
}

func TestRetryPolicyIsBounded(t *testing.T) {
	mock := testutil.NewUnreachableClient()
	c := newController(mock, Options{RetryAttempts: 2})

	reply, err := c.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, model.SourceLocal, reply.Source)
	assert.Len(t, mock.Chats(), 3)
}

func TestNoRetryByDefault(t *testing.T) {
	mock := testutil.NewUnreachableClient()
	c := newController(mock, Options{})

	_, err := c.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Len(t, mock.Chats(), 1)
}

func TestTimeoutFallsBack(t *testing.T) {
	mock := testutil.NewMockSessionClient()
	mock.SendMessageFunc = func(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	c := newController(mock, Options{Timeout: 20 * time.Millisecond})

	reply, err := c.Submit(context.Background(), "give me a briefing")
	require.NoError(t, err)
	assert.Equal(t, "briefing", reply.Intent)
	assert.Equal(t, ModeDegraded, c.Mode())
	assert.False(t, c.Busy())
}

func TestNilClientAnswersLocally(t *testing.T) {
	c := New(nil, testUser, Options{})

	reply, err := c.Submit(context.Background(), "help")
	require.NoError(t, err)
	assert.Equal(t, "help", reply.Intent)
	assert.Equal(t, ModeDegraded, c.Mode())

	c.Close(context.Background())
}

func TestModeRecovers(t *testing.T) {
	mock := testutil.NewUnreachableClient()
	c := newController(mock, Options{})

	_, err := c.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, ModeDegraded, c.Mode())

	mock.StartSessionFunc = testutil.NewMockSessionClient().StartSessionFunc
	mock.SendMessageFunc = testutil.NewMockSessionClient().SendMessageFunc
	_, err = c.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, ModeLive, c.Mode())
}

func TestExactlyOneReplyPerSubmit(t *testing.T) {
	mock := testutil.NewMockSessionClient()
	call := 0
	mock.SendMessageFunc = func(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error) {
		call++
		switch call % 3 {
		case 0:
			return nil, testutil.ErrUnreachable
		case 1:
			return map[string]any{"response": "remote " + text}, nil
		default:
			return map[string]any{"confidence": 0.4}, nil
		}
	}
	c := newController(mock, Options{})

	inputs := []string{"a", " ", "show my P0 tasks", "", "help", "risks?", "contoso", "\t", "x"}
	accepted := 0
	for _, in := range inputs {
		if _, err := c.Submit(context.Background(), in); err == nil {
			accepted++
		}
	}

	msgs := c.Transcript().Messages()
	require.Len(t, msgs, 1+2*accepted)
	for i := 1; i < len(msgs); i += 2 {
		assert.Equal(t, model.RoleUser, msgs[i].Role)
		assert.Equal(t, model.RoleAssistant, msgs[i+1].Role)
	}
}

func TestDegradedModeIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := newController(testutil.NewUnreachableClient(), Options{Logger: zap.New(core)})

	_, err := c.Submit(context.Background(), "hi")
	require.NoError(t, err)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 2)
	assert.Equal(t, "start session failed, continuing without one", warnings[0].Message)
	assert.Equal(t, "assistant unavailable, answering locally", warnings[1].Message)
	assert.Equal(t, testUser, warnings[1].ContextMap()["user_email"])
}

func TestClose(t *testing.T) {
	t.Run("ends current session", func(t *testing.T) {
		mock := testutil.NewMockSessionClient()
		c := newController(mock, Options{})
		_, err := c.Submit(context.Background(), "hi")
		require.NoError(t, err)

		c.Close(context.Background())
		assert.Equal(t, []string{"sess-1"}, mock.Ended())
	})

	t.Run("no session, no call", func(t *testing.T) {
		mock := testutil.NewMockSessionClient()
		c := newController(mock, Options{})

		c.Close(context.Background())
		assert.Empty(t, mock.Ended())
	})

	t.Run("failure swallowed", func(t *testing.T) {
		mock := testutil.NewMockSessionClient()
		mock.EndSessionFunc = func(ctx context.Context, sessionID string) bool { return false }
		c := newController(mock, Options{})
		_, err := c.Submit(context.Background(), "hi")
		require.NoError(t, err)

		c.Close(context.Background())
		assert.Equal(t, "sess-1", c.SessionID())
		assert.Equal(t, 3, c.Transcript().Len())
	})
}

func TestStoredRepliesAreImmutable(t *testing.T) {
	c := New(nil, testUser, Options{})

	reply, err := c.Submit(context.Background(), "show my P0 tasks")
	require.NoError(t, err)
	reply.ReasoningTrace[0].Content = "tampered"

	stored := c.Transcript().Last()
	assert.NotEqual(t, "tampered", stored.ReasoningTrace[0].Content)
}
