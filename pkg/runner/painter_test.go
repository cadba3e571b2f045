package runner

import (
	"bytes"
	"testing"

	"github.com/aretw0/chatter/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestPainter_Paint(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPainter(buf, func(s string) (string, error) { return "**" + s + "**\n", nil }, termenv.Ascii)

	typing := true
	opts := []domain.Option{{Text: "Yes", Payload: "y"}, {Text: "No", Payload: "n"}}
	p.Paint(&domain.SessionDiff{
		Appended: []domain.Entry{
			{Speaker: domain.SpeakerUser, Content: "hello"},
			{Speaker: domain.SpeakerBot, Content: "Pick", IsRich: true},
			{Speaker: domain.SpeakerBot, Content: "plain"},
		},
		Typing:  &typing,
		Options: &opts,
	})

	assert.Equal(t, "you hello\nbot **Pick**\nbot plain\n  ...typing\n  [1] Yes\n  [2] No\n", buf.String())
}

func TestPainter_Modes(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPainter(buf, nil, termenv.Ascii)

	form := domain.ModeForm
	p.Paint(&domain.SessionDiff{Mode: &form})
	closed := domain.ModeClosed
	p.Paint(&domain.SessionDiff{Mode: &closed})

	assert.Contains(t, buf.String(), "/form")
	assert.Contains(t, buf.String(), "Chat closed.")
}
