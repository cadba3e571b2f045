package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/chatter/internal/logging"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/ports"
	"github.com/google/uuid"
)

// Messages appended to the transcript by the controller itself.
const (
	ApologyMessage   = "Sorry, I'm having trouble connecting to the server. Please try again later."
	ThankYouMessage  = "Thank you! Your message has been sent. Our team will get back to you shortly."
	FormErrorMessage = "Sorry, there was an error submitting your form. Please try again."
)

// DefaultTimeout bounds each resolution and submission request.
const DefaultTimeout = 15 * time.Second

// Observer receives every session transition.
type Observer func(diff *domain.SessionDiff, snapshot *domain.Session)

// Controller is the interaction controller of one widget.
type Controller struct {
	resolver ports.Resolver
	sink     ports.SubmissionSink
	clientID string

	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	observers []Observer
	timeout   time.Duration
	clock     func() time.Time

	mu      sync.Mutex
	session *domain.Session
	gen     uint64
	ctx     context.Context
	cancel  context.CancelFunc

	notifyMu sync.Mutex
	inflight sync.WaitGroup
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithHooks registers lifecycle hooks. Repeated calls are merged.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = c.hooks.Merge(hooks)
	}
}

// WithObserver registers a transition observer.
func WithObserver(obs Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, obs)
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// WithClock overrides the time source used for transcript timestamps.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// New creates a controller. The session starts closed until Open is called.
func New(resolver ports.Resolver, sink ports.SubmissionSink, clientID string, opts ...Option) *Controller {
	c := &Controller{
		resolver: resolver,
		sink:     sink,
		clientID: clientID,
		logger:   logging.NewNop(),
		timeout:  DefaultTimeout,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.session = domain.NewSession("", c.clock)
	c.session.Close()
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.cancel()
	return c
}

// Subscribe registers an observer after construction.
func (c *Controller) Subscribe(obs Observer) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.observers = append(c.observers, obs)
}

// ClientID returns the tenant this controller talks for.
func (c *Controller) ClientID() string {
	return c.clientID
}

// Open starts a fresh session and requests the welcome node.
// Requests are bound to ctx: cancelling it has the same effect as Close.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	c.cancel()
	c.gen++
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.session = domain.NewSession(uuid.NewString(), c.clock)
	sessionID := c.session.ID
	c.publishLocked(nil)

	c.logger.Info("Chat opened", "session_id", sessionID, "client_id", c.clientID)
	if c.hooks.OnChatStarted != nil {
		c.hooks.OnChatStarted(ctx, c.clientID)
	}

	c.mu.Lock()
	return c.submit(domain.KindRule, domain.WelcomeNodeID, "")
}

// Submit sends a user action without waiting for the response.
// Rejections are logged and otherwise ignored.
func (c *Controller) Submit(kind domain.InteractionKind, payload string) {
	if err := c.TrySubmit(kind, payload); err != nil {
		c.logger.Warn("Submit dropped", "kind", kind, "err", err)
	}
}

// TrySubmit is Submit with the rejection reported.
// It returns domain.ErrRequestInFlight while another interaction is resolving.
func (c *Controller) TrySubmit(kind domain.InteractionKind, payload string) error {
	if !kind.Valid() {
		return &domain.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown interaction kind %q", kind)}
	}
	if kind == domain.KindText {
		payload = strings.TrimSpace(payload)
		if payload == "" {
			return &domain.ValidationError{Field: "payload", Reason: "is empty"}
		}
		c.mu.Lock()
		return c.submit(kind, payload, payload)
	}
	c.mu.Lock()
	return c.submit(kind, payload, "")
}

// Click selects a quick reply. The option label is recorded as the user's line.
func (c *Controller) Click(opt domain.Option) error {
	c.mu.Lock()
	return c.submit(domain.KindRule, opt.Payload, opt.Text)
}

// submit starts one resolution. It must be called with c.mu held and releases it.
func (c *Controller) submit(kind domain.InteractionKind, payload, userText string) error {
	req := domain.ResolveRequest{Kind: kind, Payload: payload, ClientID: c.clientID}

	old := c.session.Snapshot()
	if err := c.session.BeginResolve(req, userText); err != nil {
		c.mu.Unlock()
		if errors.Is(err, domain.ErrRequestInFlight) {
			c.logger.Warn("Request already in flight, dropping submit", "kind", kind, "payload", payload)
		}
		return err
	}

	gen := c.gen
	ctx := c.ctx
	c.inflight.Add(1)
	c.publishLocked(old)

	go c.resolve(ctx, gen, req)
	return nil
}

func (c *Controller) resolve(ctx context.Context, gen uint64, req domain.ResolveRequest) {
	defer c.inflight.Done()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := c.clock()
	res, err := c.resolver.Resolve(reqCtx, req)
	if err == nil && res == nil {
		err = fmt.Errorf("%w: empty resolution", domain.ErrMalformedResponse)
	}

	c.mu.Lock()
	if gen != c.gen || c.session.Closed() {
		c.mu.Unlock()
		c.logger.Debug("Discarding late response", "kind", req.Kind, "payload", req.Payload)
		return
	}

	old := c.session.Snapshot()
	if err == nil {
		switch r := res.(type) {
		case domain.TextResponse, domain.RichResponse, domain.FormEscalation:
			err = c.session.CompleteResolve(r)
		case domain.Failure:
			err = r
		default:
			err = fmt.Errorf("%w: unknown resolution %T", domain.ErrMalformedResponse, res)
		}
	}

	outcome := domain.OutcomeOf(res)
	if err != nil {
		outcome = domain.OutcomeFailure
		c.logger.Error("Resolution failed", "kind", req.Kind, "payload", req.Payload, "err", err)
		if ferr := c.session.FailResolve(ApologyMessage); ferr != nil {
			c.logger.Error("Failed to record resolution failure", "err", ferr)
		}
		c.publishLocked(old)

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		old = c.session.Snapshot()
		c.session.Recover()
	}
	c.publishLocked(old)

	if c.hooks.OnResolve != nil {
		c.hooks.OnResolve(ctx, &domain.ResolveEvent{
			Timestamp: c.clock(),
			ClientID:  c.clientID,
			Kind:      req.Kind,
			Payload:   req.Payload,
			Outcome:   outcome,
			Duration:  c.clock().Sub(start),
			Err:       err,
		})
	}
}

// SubmitForm validates and delivers the lead form. It blocks until the sink answers.
// Validation failures keep the entered values and add nothing to the transcript.
func (c *Controller) SubmitForm(ctx context.Context, fields domain.FormFields) error {
	c.mu.Lock()
	if c.session.Closed() {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if c.session.Phase != domain.PhaseFormMode {
		c.mu.Unlock()
		return domain.ErrNotInFormMode
	}
	if err := fields.Validate(); err != nil {
		_ = c.session.SetFormDraft(fields)
		c.mu.Unlock()
		return err
	}

	old := c.session.Snapshot()
	if err := c.session.BeginFormSubmit(fields); err != nil {
		c.mu.Unlock()
		return err
	}
	gen := c.gen
	sessionCtx := c.ctx
	c.publishLocked(old)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	stop := context.AfterFunc(sessionCtx, cancel)
	defer stop()

	sendErr := c.sink.CreateSubmission(reqCtx, c.clientID, fields)

	c.mu.Lock()
	if gen != c.gen || c.session.Closed() {
		c.mu.Unlock()
		return domain.ErrSessionClosed
	}
	old = c.session.Snapshot()
	if sendErr != nil {
		c.logger.Error("Form submission failed", "err", sendErr)
		_ = c.session.FailFormSubmit(FormErrorMessage)
	} else {
		c.logger.Info("Form submitted", "client_id", c.clientID)
		_ = c.session.CompleteFormSubmit(ThankYouMessage)
	}
	c.publishLocked(old)

	if c.hooks.OnSubmission != nil {
		c.hooks.OnSubmission(ctx, &domain.SubmissionEvent{
			Timestamp: c.clock(),
			ClientID:  c.clientID,
			Success:   sendErr == nil,
			Err:       sendErr,
		})
	}
	if sendErr != nil {
		return fmt.Errorf("submit form: %w", sendErr)
	}
	return nil
}

// CancelForm hides the form and returns to chat. Entered values are kept.
func (c *Controller) CancelForm() error {
	c.mu.Lock()
	old := c.session.Snapshot()
	if err := c.session.CancelForm(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.publishLocked(old)
	return nil
}

// Close discards the session. In-flight requests are cancelled and their responses ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.session.Closed() {
		c.mu.Unlock()
		return
	}
	old := c.session.Snapshot()
	c.session.Close()
	c.gen++
	c.cancel()
	c.logger.Info("Chat closed", "session_id", c.session.ID)
	c.publishLocked(old)
}

// Wait blocks until no resolution is in flight.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

// Snapshot returns a copy of the current session.
func (c *Controller) Snapshot() *domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Snapshot()
}

// publishLocked computes the diff against old and notifies observers.
// It must be called with c.mu held and releases it. Notification order follows transition order.
func (c *Controller) publishLocked(old *domain.Session) {
	snap := c.session.Snapshot()
	diff := domain.Diff(old, snap)

	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	if diff == nil {
		return
	}
	for _, obs := range c.observers {
		obs(diff, snap)
	}
}
