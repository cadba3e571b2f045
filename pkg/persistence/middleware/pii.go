package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/ports"
)

// Mask replaces the value of a redacted field.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SubmissionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks submission fields whose name
// (name, email, phone or message) matches one of the patterns before they are persisted.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SubmissionStore) ports.SubmissionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sub *domain.Submission) error {
	// Copy so the caller's submission (echoed back to the widget) keeps its values.
	masked := *sub
	fields := map[string]*string{
		"name":    &masked.Name,
		"email":   &masked.Email,
		"phone":   &masked.Phone,
		"message": &masked.Message,
	}
	for key, value := range fields {
		if *value != "" && m.matches(key) {
			*value = Mask
		}
	}
	return m.next.Save(ctx, &masked)
}

func (m *piiMiddleware) List(ctx context.Context) ([]*domain.Submission, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
