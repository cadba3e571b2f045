package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_TextAnswer(t *testing.T) {
	s := NewSession("s", fixedClock)

	require.NoError(t, s.BeginResolve(ResolveRequest{Kind: KindText, Payload: "hours"}, "hours"))
	assert.True(t, s.Typing)
	assert.Equal(t, PhaseResolving, s.Phase)
	require.NotNil(t, s.Pending)
	assert.Equal(t, "hours", s.Pending.Payload)

	require.NoError(t, s.CompleteResolve(TextResponse{Answer: "9 to 5"}))
	assert.False(t, s.Typing)
	assert.Nil(t, s.Pending)
	assert.Equal(t, PhaseAwaitingInput, s.Phase)

	require.Len(t, s.Transcript, 2)
	assert.Equal(t, Entry{Seq: 1, Speaker: SpeakerUser, Content: "hours", At: fixedClock()}, s.Transcript[0])
	assert.Equal(t, Entry{Seq: 2, Speaker: SpeakerBot, Content: "9 to 5", At: fixedClock()}, s.Transcript[1])
}

func TestSession_OneInFlight(t *testing.T) {
	s := NewSession("s", fixedClock)
	require.NoError(t, s.BeginResolve(ResolveRequest{Kind: KindRule, Payload: WelcomeNodeID}, ""))

	err := s.BeginResolve(ResolveRequest{Kind: KindText, Payload: "again"}, "again")
	assert.ErrorIs(t, err, ErrRequestInFlight)
	assert.Empty(t, s.Transcript, "rejected submit must not touch the transcript")
}

func TestSession_RichClearsAndReplacesOptions(t *testing.T) {
	s := NewSession("s", fixedClock)
	require.NoError(t, s.BeginResolve(ResolveRequest{Kind: KindRule, Payload: WelcomeNodeID}, ""))
	require.NoError(t, s.CompleteResolve(RichResponse{
		Message: "Hi",
		Options: []Option{{Text: "A", Payload: "a"}, {Text: "B", Payload: "b"}},
	}))
	assert.Len(t, s.Options, 2)

	require.NoError(t, s.BeginResolve(ResolveRequest{Kind: KindRule, Payload: "a"}, "A"))
	assert.Empty(t, s.Options)

	require.NoError(t, s.CompleteResolve(RichResponse{Message: "Dead end"}))
	assert.Empty(t, s.Options)
	assert.True(t, s.Transcript[len(s.Transcript)-1].IsRich)
}

func TestSession_FailureRecovers(t *testing.T) {
	s := NewSession("s", fixedClock)
	require.NoError(t, s.BeginResolve(ResolveRequest{Kind: KindText, Payload: "x"}, "x"))

	require.NoError(t, s.FailResolve("sorry"))
	assert.Equal(t, PhaseErrored, s.Phase)
	assert.False(t, s.Typing)

	s.Recover()
	assert.Equal(t, PhaseAwaitingInput, s.Phase)
	assert.Equal(t, "sorry", s.Transcript[len(s.Transcript)-1].Content)

	err := s.CompleteResolve(Failure{Err: ErrNetwork})
	assert.Error(t, err)
}

func TestSession_FormLifecycle(t *testing.T) {
	s := NewSession("s", fixedClock)
	require.NoError(t, s.BeginResolve(ResolveRequest{Kind: KindRule, Payload: ShowFormNodeID}, "Contact"))
	require.NoError(t, s.CompleteResolve(FormEscalation{Message: "Fill it"}))
	assert.Equal(t, ModeForm, s.Mode)
	assert.Equal(t, PhaseFormMode, s.Phase)

	err := s.BeginResolve(ResolveRequest{Kind: KindText, Payload: "hi"}, "hi")
	assert.ErrorIs(t, err, ErrInputSuppressed)

	fields := FormFields{Name: "A", Email: "a@b.c", Message: "hello"}
	require.NoError(t, s.BeginFormSubmit(fields))
	assert.ErrorIs(t, s.BeginFormSubmit(fields), ErrRequestInFlight)

	require.NoError(t, s.FailFormSubmit("try again"))
	assert.Equal(t, ModeForm, s.Mode)
	assert.Equal(t, fields, s.Form)

	require.NoError(t, s.BeginFormSubmit(fields))
	require.NoError(t, s.CompleteFormSubmit("thanks"))
	assert.Equal(t, ModeChat, s.Mode)
	assert.Equal(t, PhaseAwaitingInput, s.Phase)
	assert.Equal(t, "thanks", s.Transcript[len(s.Transcript)-1].Content)
}

func TestSession_CancelFormKeepsDraft(t *testing.T) {
	s := NewSession("s", fixedClock)
	assert.ErrorIs(t, s.CancelForm(), ErrNotInFormMode)

	require.NoError(t, s.BeginResolve(ResolveRequest{Kind: KindRule, Payload: ShowFormNodeID}, ""))
	require.NoError(t, s.CompleteResolve(FormEscalation{Message: "Fill it"}))
	require.NoError(t, s.SetFormDraft(FormFields{Name: "Ada"}))

	require.NoError(t, s.CancelForm())
	assert.Equal(t, ModeChat, s.Mode)
	assert.Equal(t, "Ada", s.Form.Name)
}

func TestSession_Closed(t *testing.T) {
	s := NewSession("s", fixedClock)
	require.NoError(t, s.BeginResolve(ResolveRequest{Kind: KindRule, Payload: WelcomeNodeID}, ""))
	s.Close()

	assert.True(t, s.Closed())
	assert.False(t, s.Typing)
	assert.Nil(t, s.Pending)

	err := s.CompleteResolve(TextResponse{Answer: "late"})
	assert.True(t, errors.Is(err, ErrSessionClosed))
	assert.Empty(t, s.Transcript)
}

func TestSession_SnapshotIsIndependent(t *testing.T) {
	s := NewSession("s", fixedClock)
	require.NoError(t, s.BeginResolve(ResolveRequest{Kind: KindRule, Payload: WelcomeNodeID}, ""))
	require.NoError(t, s.CompleteResolve(RichResponse{Message: "Hi", Options: []Option{{Text: "A", Payload: "a"}}}))

	snap := s.Snapshot()
	snap.Options[0].Text = "changed"
	snap.Transcript[0].Content = "changed"

	assert.Equal(t, "A", s.Options[0].Text)
	assert.Equal(t, "Hi", s.Transcript[0].Content)
}
