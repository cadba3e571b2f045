// Package resolver is the server-side resolution service: rule payloads are looked up in
// the flow store, free text is matched against the FAQ list.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/chatter/internal/logging"
	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/ports"
)

// Canned answers.
const (
	NoInputMessage     = "No input received."
	InvalidOptionMsg   = "Sorry, that option is not valid."
	NoAnswerMessage    = "I'm sorry, I don't have a confident answer for that. You can try rephrasing, or contact our support team."
	DefaultFormMessage = "Please fill out the form below and our team will get back to you."
)

// StoreResolver implements ports.Resolver over a NodeStore and a FAQ Matcher.
type StoreResolver struct {
	store   ports.NodeStore
	matcher *Matcher
	logger  *slog.Logger
}

var _ ports.Resolver = (*StoreResolver)(nil)

// Option configures the StoreResolver.
type Option func(*StoreResolver)

// WithMatcher sets the FAQ matcher used for free text.
func WithMatcher(m *Matcher) Option {
	return func(r *StoreResolver) {
		r.matcher = m
	}
}

// WithLogger configures a logger for the StoreResolver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *StoreResolver) {
		r.logger = logger
	}
}

// New creates a resolver reading nodes from store.
func New(store ports.NodeStore, opts ...Option) *StoreResolver {
	r := &StoreResolver{
		store:   store,
		matcher: NewMatcher(nil, 0),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve answers one interaction.
// Empty payloads are validation errors; unknown nodes are 404 resolution errors.
func (r *StoreResolver) Resolve(ctx context.Context, req domain.ResolveRequest) (domain.Resolution, error) {
	payload := strings.TrimSpace(req.Payload)
	if payload == "" {
		return nil, &domain.ValidationError{Reason: NoInputMessage}
	}

	switch req.Kind {
	case domain.KindRule:
		return r.resolveRule(ctx, payload)
	case domain.KindText:
		return r.resolveText(payload), nil
	default:
		return nil, &domain.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown interaction kind %q", req.Kind)}
	}
}

func (r *StoreResolver) resolveRule(ctx context.Context, nodeID string) (domain.Resolution, error) {
	node, err := r.store.Get(ctx, nodeID)

	if nodeID == domain.ShowFormNodeID {
		msg := DefaultFormMessage
		if err == nil && strings.TrimSpace(node.Message) != "" && node.Message != domain.DefaultShowFormMessage {
			msg = node.Message
		}
		return domain.FormEscalation{Message: msg}, nil
	}

	if err != nil {
		if errors.Is(err, domain.ErrNodeNotFound) {
			r.logger.Debug("Unknown rule payload", "node_id", nodeID)
			return nil, &domain.ResolutionError{StatusCode: http.StatusNotFound, Message: InvalidOptionMsg, Cause: err}
		}
		return nil, fmt.Errorf("failed to load node %s: %w", nodeID, err)
	}
	return domain.ResolutionFromNode(node), nil
}

func (r *StoreResolver) resolveText(text string) domain.Resolution {
	faq, score, ok := r.matcher.Match(text)
	if !ok {
		r.logger.Debug("No confident FAQ match", "score", score)
		return domain.TextResponse{Answer: NoAnswerMessage}
	}
	r.logger.Debug("FAQ matched", "question", faq.Question, "score", score)
	return domain.TextResponse{Answer: faq.Answer}
}
