package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher(t *testing.T) {
	m := NewMatcher([]FAQ{
		{Question: "What are your opening hours?", Answer: "hours"},
		{Question: "How do I reset my password?", Answer: "reset"},
		{Question: "???", Answer: "ignored"},
	}, 0)
	assert.Equal(t, 2, m.Len())

	tests := []struct {
		question string
		want     string
		ok       bool
	}{
		{"opening hours", "hours", true},
		{"Reset password please", "reset", true},
		{"HOURS", "hours", true},
		{"weather tomorrow", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			faq, _, ok := m.Match(tt.question)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, faq.Answer)
		})
	}
}

func TestCosine(t *testing.T) {
	a := tokenize("reset password")
	assert.InDelta(t, 1.0, cosine(a, tokenize("Reset my password")), 1e-9)
	assert.InDelta(t, 1/1.4142135623730951, cosine(tokenize("reset"), a), 1e-9)
	assert.Zero(t, cosine(a, tokenize("hours")))
}
