package domain

import (
	"context"
	"time"
)

// Outcome names the kind of resolution produced for an interaction.
type Outcome string

const (
	OutcomeText    Outcome = "text"
	OutcomeRich    Outcome = "rich"
	OutcomeForm    Outcome = "form"
	OutcomeFailure Outcome = "failure"
)

// OutcomeOf classifies a resolution.
func OutcomeOf(res Resolution) Outcome {
	switch res.(type) {
	case TextResponse:
		return OutcomeText
	case RichResponse:
		return OutcomeRich
	case FormEscalation:
		return OutcomeForm
	default:
		return OutcomeFailure
	}
}

// ResolveEvent describes one finished interaction.
type ResolveEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	ClientID  string          `json:"client_id"`
	Kind      InteractionKind `json:"kind"`
	Payload   string          `json:"payload"`
	Outcome   Outcome         `json:"outcome"`
	Duration  time.Duration   `json:"duration"`
	Err       error           `json:"-"`
}

// SubmissionEvent describes one lead submission attempt.
type SubmissionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	ClientID  string    `json:"client_id"`
	Success   bool      `json:"success"`
	Err       error     `json:"-"`
}

// LifecycleHooks defines callbacks for conversation observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnChatStarted func(context.Context, string)
	OnResolve     func(context.Context, *ResolveEvent)
	OnSubmission  func(context.Context, *SubmissionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnChatStarted: chain(h.OnChatStarted, other.OnChatStarted),
		OnResolve:     chain(h.OnResolve, other.OnResolve),
		OnSubmission:  chain(h.OnSubmission, other.OnSubmission),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, v T) {
		a(ctx, v)
		b(ctx, v)
	}
}
