package ports

import (
	"context"

	"github.com/aretw0/chatter/pkg/domain"
)

// Resolver resolves one interaction into a Resolution.
// Transport and HTTP failures are returned as errors; callers map them to domain.Failure.
type Resolver interface {
	Resolve(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error)

func (f ResolverFunc) Resolve(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error) {
	return f(ctx, req)
}

// SubmissionSink delivers lead-form fields. A nil error means the submission was accepted.
type SubmissionSink interface {
	CreateSubmission(ctx context.Context, clientID string, fields domain.FormFields) error
}

// SubmissionSinkFunc adapts a function to the SubmissionSink interface.
type SubmissionSinkFunc func(ctx context.Context, clientID string, fields domain.FormFields) error

func (f SubmissionSinkFunc) CreateSubmission(ctx context.Context, clientID string, fields domain.FormFields) error {
	return f(ctx, clientID, fields)
}
