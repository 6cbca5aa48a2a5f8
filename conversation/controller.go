// Package conversation owns the per-view assistant conversation: the
// transcript, the backend session id and the fallback contract.
//
// Every accepted Submit appends one user message and then exactly one
// assistant message. The assistant message comes from the backend when it
// answers with a valid payload, and from the local responder otherwise.
// Fallback is silent for the user; Mode and Message.Source expose which
// path served each reply.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"deskmate/assistant"
	"deskmate/model"
	"deskmate/responder"
)

const DefaultTimeout = 30 * time.Second

var (
	// ErrEmptyInput is returned for blank input; nothing is appended.
	ErrEmptyInput = errors.New("conversation: empty input")
	// ErrBusy is returned while another submit is in flight; the input is dropped.
	ErrBusy = errors.New("conversation: submit already in progress")
)

// SessionClient is the backend conversation surface the controller needs.
// *assistant.Client implements it.
type SessionClient interface {
	StartSession(ctx context.Context, userEmail string) (string, error)
	SendMessage(ctx context.Context, sessionID, userEmail, text string) (map[string]any, error)
	EndSession(ctx context.Context, sessionID string) bool
}

// Mode reports which path served the most recent reply.
type Mode int

const (
	ModeLive Mode = iota
	ModeDegraded
)

func (m Mode) String() string {
	if m == ModeDegraded {
		return "degraded"
	}
	return "live"
}

// Options tunes a Controller. Zero values select defaults.
type Options struct {
	Logger *zap.Logger
	// Timeout bounds each backend call.
	Timeout time.Duration
	// RetryAttempts is the number of extra chat attempts after a transport
	// failure. Invalid payloads are never retried.
	RetryAttempts int
	Greeting      string
	Now           func() time.Time
}

type Controller struct {
	client    SessionClient
	userEmail string
	log       *zap.Logger
	timeout   time.Duration
	retries   int
	now       func() time.Time

	transcript *model.Transcript
	busy       *semaphore.Weighted
	inFlight   atomic.Bool

	mu        sync.Mutex
	sessionID string
	mode      Mode
}

// Turn is a submit that has echoed its user message and is waiting for the
// assistant reply.
type Turn struct {
	User model.Message

	once  sync.Once
	reply model.Message
}

// New creates a controller for one conversation view. client may be nil,
// in which case every reply comes from the local responder.
func New(client SessionClient, userEmail string, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryAttempts < 0 {
		opts.RetryAttempts = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Controller{
		client:     client,
		userEmail:  userEmail,
		log:        opts.Logger.With(zap.String("user_email", userEmail)),
		timeout:    opts.Timeout,
		retries:    opts.RetryAttempts,
		now:        opts.Now,
		transcript: model.NewTranscript(opts.Greeting, opts.Now()),
		busy:       semaphore.NewWeighted(1),
		mode:       ModeLive,
	}
}

// Transcript returns the conversation log.
func (c *Controller) Transcript() *model.Transcript {
	return c.transcript
}

// SessionID returns the current backend session id, or "" if none.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Mode returns the path that served the most recent reply.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Busy reports whether a submit is in flight.
func (c *Controller) Busy() bool {
	return c.inFlight.Load()
}

// Submit sends text and waits for the assistant reply.
func (c *Controller) Submit(ctx context.Context, text string) (model.Message, error) {
	turn, err := c.Begin(text)
	if err != nil {
		return model.Message{}, err
	}
	return c.Complete(ctx, turn), nil
}

// Begin validates text, claims the controller and appends the user message
// before any network call. The returned turn must be passed to Complete.
func (c *Controller) Begin(text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if !c.busy.TryAcquire(1) {
		c.log.Debug("dropping submit while busy")
		return nil, ErrBusy
	}
	c.inFlight.Store(true)

	user := model.NewMessage(model.RoleUser, model.SourceUser, text, c.now())
	c.transcript.Append(user)

	return &Turn{User: user}, nil
}

// Complete produces the assistant reply for turn, appends it and releases
// the controller. Calling it again for the same turn returns the first
// reply without side effects.
func (c *Controller) Complete(ctx context.Context, turn *Turn) model.Message {
	turn.once.Do(func() {
		defer func() {
			c.inFlight.Store(false)
			c.busy.Release(1)
		}()

		reply := c.reply(ctx, turn.User.Content)
		c.transcript.Append(reply)
		turn.reply = reply
	})
	return turn.reply
}

// Close ends the backend session, best effort.
func (c *Controller) Close(ctx context.Context) {
	sid := c.SessionID()
	if c.client == nil || sid == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if !c.client.EndSession(ctx, sid) {
		c.log.Debug("end session failed", zap.String("session_id", sid))
		return
	}
	c.log.Info("session ended", zap.String("session_id", sid))
}

func (c *Controller) reply(ctx context.Context, text string) model.Message {
	reply, err := c.remote(ctx, text)
	if err == nil {
		msg := model.NewMessage(model.RoleAssistant, model.SourceRemote, reply.Content, c.now())
		msg.Intent = reply.Intent
		msg.Confidence = reply.Confidence
		msg.ReasoningTrace = reply.Trace
		msg.Suggestions = reply.Suggestions

		c.mu.Lock()
		if reply.SessionID != "" && reply.SessionID != c.sessionID {
			c.log.Info("adopting session id", zap.String("previous", c.sessionID), zap.String("session_id", reply.SessionID))
			c.sessionID = reply.SessionID
		}
		c.mode = ModeLive
		c.mu.Unlock()

		return msg
	}

	c.log.Warn("assistant unavailable, answering locally", zap.Error(err))

	resp := responder.Respond(text)

	c.mu.Lock()
	c.mode = ModeDegraded
	c.mu.Unlock()

	return resp.Message(c.now())
}

var errNoClient = errors.New("conversation: no assistant client configured")

// remote runs the backend path: lazy session start, chat with bounded
// retries, validation. Any error means the caller must fall back.
func (c *Controller) remote(ctx context.Context, text string) (assistant.Reply, error) {
	if c.client == nil {
		return assistant.Reply{}, errNoClient
	}

	sid := c.ensureSession(ctx)

	var (
		raw map[string]any
		err error
	)
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.log.Info("retrying chat", zap.Int("attempt", attempt+1), zap.Error(err))
		}
		raw, err = c.send(ctx, sid, text)
		if err == nil || ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		return assistant.Reply{}, err
	}

	return assistant.Validate(raw)
}

// ensureSession starts a session if none exists. A failure is not fatal:
// the chat is still attempted with no session id.
func (c *Controller) ensureSession(ctx context.Context) string {
	if sid := c.SessionID(); sid != "" {
		return sid
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	sid, err := c.client.StartSession(callCtx, c.userEmail)
	if err != nil {
		c.log.Warn("start session failed, continuing without one", zap.Error(err))
		return ""
	}

	c.mu.Lock()
	c.sessionID = sid
	c.mu.Unlock()

	c.log.Info("session started", zap.String("session_id", sid))
	return sid
}

func (c *Controller) send(ctx context.Context, sid, text string) (map[string]any, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.client.SendMessage(callCtx, sid, c.userEmail, text)
}
