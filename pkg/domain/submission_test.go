package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormFields_Validate(t *testing.T) {
	tests := []struct {
		name   string
		fields FormFields
		want   []string
	}{
		{"Valid", FormFields{Name: "Ada", Email: "ada@example.com", Message: "hi"}, nil},
		{"Phone Optional", FormFields{Name: "Ada", Email: "ada@example.com", Phone: "", Message: "hi"}, nil},
		{"All Missing", FormFields{}, []string{"name", "email", "message"}},
		{"Whitespace", FormFields{Name: "  ", Email: "a@b", Message: "\t"}, []string{"name", "message"}},
		{"Bad Email", FormFields{Name: "Ada", Email: "nope", Message: "hi"}, []string{"email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fields.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrValidation)
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.want, verrs.Fields())
		})
	}
}

func TestNewSubmission(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("x", 3600))
	sub := NewSubmission("tenant", FormFields{Name: " Ada ", Email: "ada@example.com", Message: "hi "}, now)

	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "tenant", sub.ClientID)
	assert.Equal(t, "Ada", sub.Name)
	assert.Equal(t, "hi", sub.Message)
	assert.Equal(t, time.UTC, sub.SubmittedAt.Location())
	assert.Equal(t, FormFields{Name: "Ada", Email: "ada@example.com", Message: "hi"}, sub.Fields())
}

func TestRuleRecord_RoundTrip(t *testing.T) {
	rich := richNode("pricing", "Plans", Option{Text: "Back", Payload: WelcomeNodeID})
	rec := RecordFromNode(rich)
	assert.Equal(t, RuleTypeOptions, rec.RuleData.Type)
	got, err := rec.Node()
	require.NoError(t, err)
	assert.Equal(t, rich, got)

	text := Node{ID: "hours", ResponseType: ResponseText, AnswerText: "9-5"}
	rec = RecordFromNode(text)
	assert.Equal(t, RuleTypeText, rec.RuleData.Type)
	got, err = rec.Node()
	require.NoError(t, err)
	assert.Equal(t, text, got)

	_, err = RuleRecord{NodeID: "x", RuleData: RuleData{Type: "video"}}.Node()
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = RuleRecord{}.Node()
	assert.ErrorIs(t, err, ErrValidation)
}

func TestResolutionFromNode(t *testing.T) {
	assert.Equal(t, TextResponse{Answer: "a"}, ResolutionFromNode(Node{ID: "x", ResponseType: ResponseText, AnswerText: "a"}))

	res := ResolutionFromNode(richNode("x", "m", Option{Text: "t", Payload: "p"}))
	assert.Equal(t, RichResponse{Message: "m", Options: []Option{{Text: "t", Payload: "p"}}}, res)
	assert.Equal(t, OutcomeRich, OutcomeOf(res))
	assert.Equal(t, OutcomeFailure, OutcomeOf(Failure{Err: ErrNetwork}))
}
