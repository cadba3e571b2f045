package domain

import (
	"fmt"
	"time"
)

// Speaker identifies who authored a transcript entry.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "bot"
)

// Entry is one durable transcript line.
type Entry struct {
	Seq     int       `json:"seq"`
	Speaker Speaker   `json:"speaker"`
	Content string    `json:"content"`
	IsRich  bool      `json:"is_rich,omitempty"`
	At      time.Time `json:"at"`
}

// Phase is the interpreter state of a session.
type Phase string

const (
	PhaseAwaitingInput Phase = "awaiting_input" // Idle, waiting for a user action
	PhaseResolving     Phase = "resolving"      // One interaction in flight
	PhaseFormMode      Phase = "form_mode"      // Lead form shown, chat input suppressed
	PhaseErrored       Phase = "errored"        // Transient, always followed by AwaitingInput
)

// UIMode is the surface the widget shows.
type UIMode string

const (
	ModeChat   UIMode = "chat"
	ModeForm   UIMode = "form"
	ModeClosed UIMode = "closed"
)

// Session is the runtime position of one open widget: transcript, quick replies, phase and mode.
// It performs no I/O. Every transition either succeeds completely or returns an error and
// leaves the session untouched. The transcript is append-only.
type Session struct {
	ID string `json:"id"`

	Transcript []Entry  `json:"transcript"`
	Options    []Option `json:"options,omitempty"`
	Typing     bool     `json:"typing"`
	Phase      Phase    `json:"phase"`
	Mode       UIMode   `json:"mode"`

	// Pending is the request currently resolving, if any.
	Pending *ResolveRequest `json:"pending,omitempty"`

	// Form keeps the last entered form values so the user never has to retype them.
	Form           FormFields `json:"form"`
	FormSubmitting bool       `json:"form_submitting"`

	clock func() time.Time
}

// NewSession creates a session in AwaitingInput, chat mode, with an empty transcript.
func NewSession(id string, clock func() time.Time) *Session {
	if clock == nil {
		clock = time.Now
	}
	return &Session{
		ID:         id,
		Transcript: []Entry{},
		Phase:      PhaseAwaitingInput,
		Mode:       ModeChat,
		clock:      clock,
	}
}

func (s *Session) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock()
}

func (s *Session) append(speaker Speaker, content string, rich bool) {
	s.Transcript = append(s.Transcript, Entry{
		Seq:     len(s.Transcript) + 1,
		Speaker: speaker,
		Content: content,
		IsRich:  rich,
		At:      s.now(),
	})
}

func (s *Session) checkOpen() error {
	if s.Mode == ModeClosed {
		return ErrSessionClosed
	}
	return nil
}

// BeginResolve moves the session into Resolving for req.
// When userText is not empty it is appended as a user entry first.
// Quick replies are cleared and the typing indicator is shown.
func (s *Session) BeginResolve(req ResolveRequest, userText string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	switch s.Phase {
	case PhaseResolving:
		return ErrRequestInFlight
	case PhaseFormMode:
		return ErrInputSuppressed
	}

	if userText != "" {
		s.append(SpeakerUser, userText, false)
	}
	s.Options = nil
	s.Typing = true
	pending := req
	s.Pending = &pending
	s.Phase = PhaseResolving
	return nil
}

// CompleteResolve applies successful content. Failures must go through FailResolve.
func (s *Session) CompleteResolve(res Resolution) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.Phase != PhaseResolving {
		return fmt.Errorf("complete resolve: unexpected phase %s", s.Phase)
	}

	switch r := res.(type) {
	case TextResponse:
		s.append(SpeakerBot, r.Answer, false)
		s.Phase = PhaseAwaitingInput
	case RichResponse:
		s.append(SpeakerBot, r.Message, true)
		if len(r.Options) > 0 {
			s.Options = append([]Option{}, r.Options...)
		}
		s.Phase = PhaseAwaitingInput
	case FormEscalation:
		s.append(SpeakerBot, r.Message, false)
		s.Mode = ModeForm
		s.Phase = PhaseFormMode
	case Failure:
		return fmt.Errorf("complete resolve: %w", r)
	default:
		return fmt.Errorf("complete resolve: unknown resolution %T", res)
	}

	s.Typing = false
	s.Pending = nil
	return nil
}

// FailResolve removes the typing indicator, appends the apology and marks the session Errored.
// Call Recover to return to AwaitingInput.
func (s *Session) FailResolve(apology string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.Phase != PhaseResolving {
		return fmt.Errorf("fail resolve: unexpected phase %s", s.Phase)
	}
	s.Typing = false
	s.Pending = nil
	s.append(SpeakerBot, apology, false)
	s.Phase = PhaseErrored
	return nil
}

// Recover moves an Errored session back to AwaitingInput. It is a no-op in any other phase.
func (s *Session) Recover() {
	if s.Phase == PhaseErrored {
		s.Phase = PhaseAwaitingInput
	}
}

// SetFormDraft stores entered form values without submitting them.
func (s *Session) SetFormDraft(f FormFields) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.Phase != PhaseFormMode {
		return ErrNotInFormMode
	}
	s.Form = f
	return nil
}

// BeginFormSubmit disables the submit control while the submission is in flight.
func (s *Session) BeginFormSubmit(f FormFields) error {
	if err := s.SetFormDraft(f); err != nil {
		return err
	}
	if s.FormSubmitting {
		return ErrRequestInFlight
	}
	s.FormSubmitting = true
	return nil
}

// CompleteFormSubmit leaves form mode and appends the thank-you entry.
func (s *Session) CompleteFormSubmit(thanks string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !s.FormSubmitting {
		return fmt.Errorf("complete form submit: no submission in flight")
	}
	s.FormSubmitting = false
	s.Form = FormFields{}
	s.Mode = ModeChat
	s.Phase = PhaseAwaitingInput
	s.append(SpeakerBot, thanks, false)
	return nil
}

// FailFormSubmit re-enables the submit control, keeps the entered values and appends the apology.
func (s *Session) FailFormSubmit(apology string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !s.FormSubmitting {
		return fmt.Errorf("fail form submit: no submission in flight")
	}
	s.FormSubmitting = false
	s.append(SpeakerBot, apology, false)
	return nil
}

// CancelForm hides the lead form and returns to chat. Entered values are kept.
func (s *Session) CancelForm() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.Phase != PhaseFormMode {
		return ErrNotInFormMode
	}
	if s.FormSubmitting {
		return ErrRequestInFlight
	}
	s.Mode = ModeChat
	s.Phase = PhaseAwaitingInput
	return nil
}

// Close discards the interactive surface. Closed sessions reject every further transition.
func (s *Session) Close() {
	s.Mode = ModeClosed
	s.Options = nil
	s.Typing = false
	s.Pending = nil
	s.FormSubmitting = false
}

// Closed reports whether the widget was closed.
func (s *Session) Closed() bool {
	return s.Mode == ModeClosed
}

// Snapshot returns a deep copy safe to hand to renderers.
func (s *Session) Snapshot() *Session {
	out := *s
	out.Transcript = append([]Entry{}, s.Transcript...)
	if s.Options != nil {
		out.Options = append([]Option{}, s.Options...)
	}
	if s.Pending != nil {
		p := *s.Pending
		out.Pending = &p
	}
	return &out
}
