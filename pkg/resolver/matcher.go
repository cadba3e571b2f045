package resolver

import (
	"math"
	"strings"
	"unicode"
)

// DefaultThreshold is the minimum similarity for a FAQ to be returned.
const DefaultThreshold = 0.5

// FAQ is a question the bot can answer from free text.
type FAQ struct {
	Question string `json:"question" yaml:"question" mapstructure:"question"`
	Answer   string `json:"answer" yaml:"answer" mapstructure:"answer"`
}

// Matcher finds the FAQ closest to a free-text question.
// Similarity is the cosine of the two questions' word sets.
type Matcher struct {
	faqs      []FAQ
	terms     []map[string]struct{}
	threshold float64
}

// NewMatcher indexes faqs. A threshold <= 0 selects DefaultThreshold.
func NewMatcher(faqs []FAQ, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	m := &Matcher{threshold: threshold}
	for _, f := range faqs {
		terms := tokenize(f.Question)
		if len(terms) == 0 {
			continue
		}
		m.faqs = append(m.faqs, f)
		m.terms = append(m.terms, terms)
	}
	return m
}

// Len returns the number of indexed FAQs.
func (m *Matcher) Len() int {
	return len(m.faqs)
}

// Match returns the best FAQ and its score. ok is false below the threshold.
// Ties keep the FAQ listed first.
func (m *Matcher) Match(question string) (best FAQ, score float64, ok bool) {
	query := tokenize(question)
	if len(query) == 0 {
		return FAQ{}, 0, false
	}

	bestIdx := -1
	for i, terms := range m.terms {
		s := cosine(query, terms)
		if s > score {
			score = s
			bestIdx = i
		}
	}
	if bestIdx < 0 || score < m.threshold {
		return FAQ{}, score, false
	}
	return m.faqs[bestIdx], score, true
}

func cosine(a, b map[string]struct{}) float64 {
	shared := 0
	for t := range a {
		if _, ok := b[t]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0
	}
	return float64(shared) / math.Sqrt(float64(len(a))*float64(len(b)))
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "do": {}, "does": {}, "you": {},
	"i": {}, "to": {}, "of": {}, "in": {}, "on": {}, "for": {}, "and": {}, "or": {},
	"what": {}, "how": {}, "can": {}, "my": {}, "your": {}, "me": {}, "it": {}, "we": {},
}

func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, stop := stopwords[f]; stop {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}
