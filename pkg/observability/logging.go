package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/chatter/pkg/domain"
)

// LoggingHooks returns hooks that log every lifecycle event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnChatStarted: func(ctx context.Context, clientID string) {
			logger.InfoContext(ctx, "chat started", "client_id", clientID)
		},
		OnResolve: func(ctx context.Context, e *domain.ResolveEvent) {
			attrs := []any{
				"client_id", e.ClientID,
				"kind", e.Kind,
				"payload", e.Payload,
				"outcome", e.Outcome,
				"duration", e.Duration,
			}
			if e.Err != nil {
				logger.WarnContext(ctx, "interaction failed", append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "interaction resolved", attrs...)
		},
		OnSubmission: func(ctx context.Context, e *domain.SubmissionEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "submission failed", "client_id", e.ClientID, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "submission received", "client_id", e.ClientID)
		},
	}
}
