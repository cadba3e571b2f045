package controller_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/chatter/pkg/controller"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var welcome = domain.RichResponse{
	Message: "Welcome! How can I help you today?",
	Options: []domain.Option{
		{Text: "Pricing", Payload: "pricing"},
		{Text: "Talk to us", Payload: domain.ShowFormNodeID},
	},
}

// flowResolver answers from a fixed table keyed by payload.
type flowResolver struct {
	mu    sync.Mutex
	calls []domain.ResolveRequest
	table map[string]domain.Resolution
	err   error
}

func newFlowResolver() *flowResolver {
	return &flowResolver{table: map[string]domain.Resolution{
		domain.WelcomeNodeID:  welcome,
		"pricing":             domain.TextResponse{Answer: "Plans start at $10."},
		domain.ShowFormNodeID: domain.FormEscalation{Message: "Please fill out the form below."},
	}}
}

func (r *flowResolver) Resolve(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, req)
	if r.err != nil {
		return nil, r.err
	}
	res, ok := r.table[req.Payload]
	if !ok {
		return nil, &domain.ResolutionError{StatusCode: 404, Cause: domain.ErrNodeNotFound}
	}
	return res, nil
}

func (r *flowResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// gateResolver blocks until released or cancelled.
type gateResolver struct {
	release chan struct{}
	started chan struct{}
	res     domain.Resolution
	ctxErr  chan error
}

func newGateResolver(res domain.Resolution) *gateResolver {
	return &gateResolver{
		release: make(chan struct{}),
		started: make(chan struct{}, 10),
		res:     res,
		ctxErr:  make(chan error, 10),
	}
}

func (g *gateResolver) Resolve(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error) {
	g.started <- struct{}{}
	select {
	case <-g.release:
		return g.res, nil
	case <-ctx.Done():
		g.ctxErr <- ctx.Err()
		return nil, ctx.Err()
	}
}

type recordingSink struct {
	mu     sync.Mutex
	fields []domain.FormFields
	err    error
}

func (s *recordingSink) CreateSubmission(ctx context.Context, clientID string, f domain.FormFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields = append(s.fields, f)
	return s.err
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
}

func openController(t *testing.T, resolver ports.Resolver, sink ports.SubmissionSink, opts ...controller.Option) *controller.Controller {
	t.Helper()
	opts = append([]controller.Option{controller.WithClock(fixedClock)}, opts...)
	c := controller.New(resolver, sink, "tenant-1", opts...)
	require.NoError(t, c.Open(context.Background()))
	c.Wait()
	t.Cleanup(c.Close)
	return c
}

// Opening the widget greets the user with quick replies.
func TestController_OpenShowsWelcome(t *testing.T) {
	resolver := newFlowResolver()
	c := openController(t, resolver, &recordingSink{})

	s := c.Snapshot()
	require.Len(t, s.Transcript, 1)
	assert.Equal(t, domain.SpeakerBot, s.Transcript[0].Speaker)
	assert.True(t, s.Transcript[0].IsRich)
	assert.Equal(t, welcome.Options, s.Options)
	assert.Equal(t, domain.PhaseAwaitingInput, s.Phase)
	assert.False(t, s.Typing)

	require.Equal(t, 1, resolver.callCount())
	assert.Equal(t, domain.ResolveRequest{Kind: domain.KindRule, Payload: domain.WelcomeNodeID, ClientID: "tenant-1"}, resolver.calls[0])
}

// Clicking a quick reply records the label and shows the answer.
func TestController_ClickOption(t *testing.T) {
	c := openController(t, newFlowResolver(), &recordingSink{})

	require.NoError(t, c.Click(welcome.Options[0]))
	c.Wait()

	s := c.Snapshot()
	require.Len(t, s.Transcript, 3)
	assert.Equal(t, domain.Entry{Seq: 2, Speaker: domain.SpeakerUser, Content: "Pricing", At: fixedClock()}, s.Transcript[1])
	assert.Equal(t, "Plans start at $10.", s.Transcript[2].Content)
	assert.False(t, s.Transcript[2].IsRich)
	assert.Empty(t, s.Options)
}

func TestController_WelcomeWithoutOptions(t *testing.T) {
	resolver := newFlowResolver()
	resolver.table[domain.WelcomeNodeID] = domain.RichResponse{Message: domain.DefaultWelcomeMessage, Options: []domain.Option{}}
	c := openController(t, resolver, &recordingSink{})

	s := c.Snapshot()
	require.Len(t, s.Transcript, 1)
	assert.Equal(t, domain.SpeakerBot, s.Transcript[0].Speaker)
	assert.Equal(t, domain.DefaultWelcomeMessage, s.Transcript[0].Content)
	assert.Empty(t, s.Options)
	assert.False(t, s.Typing)
	assert.Equal(t, domain.PhaseAwaitingInput, s.Phase)
}

// A button pointing at a missing node keeps its label in the transcript and apologizes once.
func TestController_ClickDanglingOption(t *testing.T) {
	c := openController(t, newFlowResolver(), &recordingSink{})

	require.NoError(t, c.Click(domain.Option{Text: "Old promo", Payload: "promo_2023"}))
	c.Wait()

	s := c.Snapshot()
	require.Len(t, s.Transcript, 3)
	assert.Equal(t, domain.SpeakerUser, s.Transcript[1].Speaker)
	assert.Equal(t, "Old promo", s.Transcript[1].Content)
	assert.Equal(t, domain.SpeakerBot, s.Transcript[2].Speaker)
	assert.Equal(t, controller.ApologyMessage, s.Transcript[2].Content)

	apologies := 0
	for _, e := range s.Transcript {
		if e.Content == controller.ApologyMessage {
			apologies++
		}
	}
	assert.Equal(t, 1, apologies)
	assert.Empty(t, s.Options)
	assert.False(t, s.Typing)
	assert.Equal(t, domain.PhaseAwaitingInput, s.Phase)
}

// Entries are only ever appended: earlier entries never change and Seq counts up from 1.
func TestController_TranscriptIsAppendOnly(t *testing.T) {
	c := openController(t, newFlowResolver(), &recordingSink{})

	seen := []domain.Entry{}
	check := func(step string) {
		t.Helper()
		s := c.Snapshot()
		require.GreaterOrEqual(t, len(s.Transcript), len(seen), step)
		assert.Equal(t, seen, s.Transcript[:len(seen)], step)
		for i, e := range s.Transcript {
			assert.Equal(t, i+1, e.Seq, step)
		}
		seen = append([]domain.Entry(nil), s.Transcript...)
	}

	check("open")
	c.Submit(domain.KindText, "do you ship?")
	c.Wait()
	check("free text")
	require.NoError(t, c.Click(welcome.Options[0]))
	c.Wait()
	check("click")
	require.NoError(t, c.Click(domain.Option{Text: "Ghost", Payload: "ghost"}))
	c.Wait()
	check("dangling click")
	escalate(t, c)
	check("escalate")
	assert.ErrorIs(t, c.TrySubmit(domain.KindText, "hello?"), domain.ErrInputSuppressed)
	check("suppressed input")
	require.Error(t, c.SubmitForm(context.Background(), domain.FormFields{Name: "Ada"}))
	check("invalid form")
	require.NoError(t, c.CancelForm())
	check("cancel form")
	c.Submit(domain.KindRule, "pricing")
	c.Wait()
	check("rule")

	assert.Greater(t, len(seen), 6)
}

func TestController_FreeText(t *testing.T) {
	resolver := newFlowResolver()
	resolver.table["hours"] = domain.TextResponse{Answer: "9 to 5"}
	c := openController(t, resolver, &recordingSink{})

	c.Submit(domain.KindText, "  hours ")
	c.Wait()

	s := c.Snapshot()
	require.Len(t, s.Transcript, 3)
	assert.Equal(t, "hours", s.Transcript[1].Content)
	assert.Equal(t, "9 to 5", s.Transcript[2].Content)

	err := c.TrySubmit(domain.KindText, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	err = c.TrySubmit("video", "x")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Len(t, c.Snapshot().Transcript, 3)
}

// One interaction at a time: a second submit is dropped and never reaches the resolver.
func TestController_SingleFlight(t *testing.T) {
	gate := newGateResolver(domain.TextResponse{Answer: "done"})
	c := controller.New(gate, &recordingSink{}, "tenant-1")
	require.NoError(t, c.Open(context.Background()))
	<-gate.started

	err := c.TrySubmit(domain.KindText, "hello?")
	assert.ErrorIs(t, err, domain.ErrRequestInFlight)
	c.Submit(domain.KindText, "hello again?")
	assert.ErrorIs(t, c.Click(domain.Option{Text: "x", Payload: "y"}), domain.ErrRequestInFlight)

	s := c.Snapshot()
	assert.Empty(t, s.Transcript)
	assert.True(t, s.Typing)
	assert.Equal(t, domain.PhaseResolving, s.Phase)

	close(gate.release)
	c.Wait()
	assert.Len(t, gate.started, 0)
	assert.Len(t, c.Snapshot().Transcript, 1)
	c.Close()
}

// Every failure removes the typing indicator and returns to AwaitingInput.
func TestController_FailuresRecover(t *testing.T) {
	tests := []struct {
		name     string
		resolver ports.Resolver
	}{
		{"Network Error", ports.ResolverFunc(func(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error) {
			return nil, fmt.Errorf("%w: connection refused", domain.ErrNetwork)
		})},
		{"Failure Variant", ports.ResolverFunc(func(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error) {
			return domain.Failure{Err: domain.ErrMalformedResponse}, nil
		})},
		{"Empty Resolution", ports.ResolverFunc(func(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error) {
			return nil, nil
		})},
		{"Dangling Reference", ports.ResolverFunc(func(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error) {
			return nil, &domain.ResolutionError{StatusCode: 404, Message: "Sorry, that option is not valid."}
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			var phases []domain.Phase
			obs := func(d *domain.SessionDiff, _ *domain.Session) {
				mu.Lock()
				defer mu.Unlock()
				if d.Phase != nil {
					phases = append(phases, *d.Phase)
				}
			}

			c := openController(t, tt.resolver, &recordingSink{}, controller.WithObserver(obs))

			s := c.Snapshot()
			require.Len(t, s.Transcript, 1)
			assert.Equal(t, controller.ApologyMessage, s.Transcript[0].Content)
			assert.False(t, s.Typing)
			assert.Nil(t, s.Pending)
			assert.Equal(t, domain.PhaseAwaitingInput, s.Phase)

			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, []domain.Phase{
				domain.PhaseAwaitingInput,
				domain.PhaseResolving,
				domain.PhaseErrored,
				domain.PhaseAwaitingInput,
			}, phases)
		})
	}
}

func TestController_Timeout(t *testing.T) {
	gate := newGateResolver(nil)
	c := openController(t, gate, &recordingSink{}, controller.WithTimeout(20*time.Millisecond))

	assert.ErrorIs(t, <-gate.ctxErr, context.DeadlineExceeded)
	s := c.Snapshot()
	require.Len(t, s.Transcript, 1)
	assert.Equal(t, controller.ApologyMessage, s.Transcript[0].Content)
	assert.Equal(t, domain.PhaseAwaitingInput, s.Phase)
}

func TestController_CloseDiscardsLateResponse(t *testing.T) {
	gate := newGateResolver(domain.TextResponse{Answer: "too late"})
	c := controller.New(gate, &recordingSink{}, "tenant-1")
	require.NoError(t, c.Open(context.Background()))
	<-gate.started

	c.Close()
	assert.ErrorIs(t, <-gate.ctxErr, context.Canceled)
	c.Wait()

	s := c.Snapshot()
	assert.True(t, s.Closed())
	assert.Empty(t, s.Transcript)
	assert.False(t, s.Typing)

	assert.ErrorIs(t, c.TrySubmit(domain.KindText, "anyone?"), domain.ErrSessionClosed)
	assert.ErrorIs(t, c.CancelForm(), domain.ErrSessionClosed)
	assert.ErrorIs(t, c.SubmitForm(context.Background(), domain.FormFields{}), domain.ErrSessionClosed)
	c.Close()
}

func TestController_ReopenStartsFresh(t *testing.T) {
	c := openController(t, newFlowResolver(), &recordingSink{})
	first := c.Snapshot().ID

	require.NoError(t, c.Click(welcome.Options[0]))
	c.Wait()
	c.Close()

	require.NoError(t, c.Open(context.Background()))
	c.Wait()
	s := c.Snapshot()
	assert.NotEqual(t, first, s.ID)
	assert.Len(t, s.Transcript, 1)
	assert.Equal(t, domain.ModeChat, s.Mode)
}

func escalate(t *testing.T, c *controller.Controller) {
	t.Helper()
	require.NoError(t, c.Click(welcome.Options[1]))
	c.Wait()
	s := c.Snapshot()
	require.Equal(t, domain.ModeForm, s.Mode)
	require.Equal(t, domain.PhaseFormMode, s.Phase)
}

func TestController_FormSuppressesChat(t *testing.T) {
	c := openController(t, newFlowResolver(), &recordingSink{})

	assert.ErrorIs(t, c.SubmitForm(context.Background(), domain.FormFields{}), domain.ErrNotInFormMode)
	escalate(t, c)

	before := len(c.Snapshot().Transcript)
	assert.ErrorIs(t, c.TrySubmit(domain.KindText, "hi"), domain.ErrInputSuppressed)
	assert.Len(t, c.Snapshot().Transcript, before)
}

// An invalid form never reaches the sink and keeps the entered values.
func TestController_FormValidation(t *testing.T) {
	sink := &recordingSink{}
	c := openController(t, newFlowResolver(), sink)
	escalate(t, c)

	before := c.Snapshot()
	fields := domain.FormFields{Name: "Ada", Phone: "555"}
	err := c.SubmitForm(context.Background(), fields)
	require.ErrorIs(t, err, domain.ErrValidation)

	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"email", "message"}, verrs.Fields())

	after := c.Snapshot()
	assert.Equal(t, before.Transcript, after.Transcript)
	assert.Equal(t, fields, after.Form)
	assert.Equal(t, domain.ModeForm, after.Mode)
	assert.Empty(t, sink.fields)
}

// A valid form is delivered and the user is thanked.
func TestController_FormSuccess(t *testing.T) {
	var events []*domain.SubmissionEvent
	sink := &recordingSink{}
	c := openController(t, newFlowResolver(), sink, controller.WithHooks(domain.LifecycleHooks{
		OnSubmission: func(_ context.Context, e *domain.SubmissionEvent) { events = append(events, e) },
	}))
	escalate(t, c)

	fields := domain.FormFields{Name: "Ada", Email: "ada@example.com", Message: "Call me"}
	require.NoError(t, c.SubmitForm(context.Background(), fields))

	s := c.Snapshot()
	assert.Equal(t, domain.ModeChat, s.Mode)
	assert.Equal(t, domain.PhaseAwaitingInput, s.Phase)
	assert.False(t, s.FormSubmitting)
	assert.Equal(t, controller.ThankYouMessage, s.Transcript[len(s.Transcript)-1].Content)
	assert.Equal(t, []domain.FormFields{fields}, sink.fields)

	require.Len(t, events, 1)
	assert.True(t, events[0].Success)
	assert.Equal(t, "tenant-1", events[0].ClientID)
}

func TestController_FormFailureKeepsForm(t *testing.T) {
	sink := &recordingSink{err: errors.New("502 bad gateway")}
	c := openController(t, newFlowResolver(), sink)
	escalate(t, c)

	fields := domain.FormFields{Name: "Ada", Email: "ada@example.com", Message: "Call me"}
	err := c.SubmitForm(context.Background(), fields)
	assert.ErrorContains(t, err, "502")

	s := c.Snapshot()
	assert.Equal(t, domain.ModeForm, s.Mode)
	assert.False(t, s.FormSubmitting)
	assert.Equal(t, fields, s.Form)
	assert.Equal(t, controller.FormErrorMessage, s.Transcript[len(s.Transcript)-1].Content)

	sink.err = nil
	require.NoError(t, c.SubmitForm(context.Background(), fields))
	assert.Equal(t, domain.ModeChat, c.Snapshot().Mode)
}

func TestController_CancelForm(t *testing.T) {
	c := openController(t, newFlowResolver(), &recordingSink{})
	assert.ErrorIs(t, c.CancelForm(), domain.ErrNotInFormMode)

	escalate(t, c)
	err := c.SubmitForm(context.Background(), domain.FormFields{Name: "Ada"})
	require.Error(t, err)

	require.NoError(t, c.CancelForm())
	s := c.Snapshot()
	assert.Equal(t, domain.ModeChat, s.Mode)
	assert.Equal(t, "Ada", s.Form.Name)

	require.NoError(t, c.Click(domain.Option{Text: "Pricing", Payload: "pricing"}))
	c.Wait()
	assert.Equal(t, "Plans start at $10.", c.Snapshot().Transcript[len(c.Snapshot().Transcript)-1].Content)
}

func TestController_Hooks(t *testing.T) {
	var mu sync.Mutex
	var started []string
	var outcomes []domain.Outcome
	hooks := domain.LifecycleHooks{
		OnChatStarted: func(_ context.Context, clientID string) {
			mu.Lock()
			defer mu.Unlock()
			started = append(started, clientID)
		},
		OnResolve: func(_ context.Context, e *domain.ResolveEvent) {
			mu.Lock()
			defer mu.Unlock()
			outcomes = append(outcomes, e.Outcome)
		},
	}

	c := openController(t, newFlowResolver(), &recordingSink{}, controller.WithHooks(hooks))
	require.NoError(t, c.Click(domain.Option{Text: "Ghost", Payload: "ghost"}))
	c.Wait()
	require.NoError(t, c.Click(domain.Option{Text: "Talk", Payload: domain.ShowFormNodeID}))
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"tenant-1"}, started)
	assert.Equal(t, []domain.Outcome{domain.OutcomeRich, domain.OutcomeFailure, domain.OutcomeForm}, outcomes)
}
