package domain

// InteractionKind tells the resolver how to interpret a payload.
type InteractionKind string

const (
	// KindRule resolves the payload as a node id.
	KindRule InteractionKind = "rule"
	// KindText resolves the payload as free text.
	KindText InteractionKind = "text"
)

// Valid reports whether k is a known interaction kind.
func (k InteractionKind) Valid() bool {
	return k == KindRule || k == KindText
}

// ResolveRequest is a single requested transition.
type ResolveRequest struct {
	Kind     InteractionKind `json:"type"`
	Payload  string          `json:"payload"`
	ClientID string          `json:"-"`
}

// Resolution is the outcome of resolving a ResolveRequest.
// It is a closed set: TextResponse, RichResponse, FormEscalation and Failure.
type Resolution interface {
	isResolution()
}

// TextResponse is a plain bot answer without quick replies.
type TextResponse struct {
	Answer string
}

// RichResponse is a bot message followed by selectable options.
type RichResponse struct {
	Message string
	Options []Option
}

// FormEscalation moves the session into the lead-capture form.
type FormEscalation struct {
	Message string
}

// Failure is a resolution that could not produce content.
type Failure struct {
	Err error
}

func (TextResponse) isResolution()   {}
func (RichResponse) isResolution()   {}
func (FormEscalation) isResolution() {}
func (Failure) isResolution()        {}

func (f Failure) Error() string {
	if f.Err == nil {
		return ErrResolution.Error()
	}
	return f.Err.Error()
}

func (f Failure) Unwrap() error {
	if f.Err == nil {
		return ErrResolution
	}
	return f.Err
}

// ResolutionFromNode converts a stored node into the response a widget renders.
func ResolutionFromNode(n Node) Resolution {
	if n.ResponseType == ResponseText {
		return TextResponse{Answer: n.AnswerText}
	}
	opts := make([]Option, len(n.Options))
	copy(opts, n.Options)
	return RichResponse{Message: n.Message, Options: opts}
}
