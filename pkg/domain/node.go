package domain

// ResponseType defines how a node is rendered to the end user.
type ResponseType string

const (
	// ResponseText renders AnswerText as a single bot bubble.
	ResponseText ResponseType = "text"
	// ResponseRich renders Message followed by the node's Options as quick replies.
	ResponseRich ResponseType = "rich"
)

// Protected node identifiers. They are created on first load and can never be deleted.
const (
	// WelcomeNodeID is the entry point requested when a widget opens.
	WelcomeNodeID = "welcome_node"
	// ShowFormNodeID escalates the conversation to the lead-capture form.
	ShowFormNodeID = "show_form"
)

// Default messages of the self-healed core nodes.
const (
	DefaultWelcomeMessage  = "Welcome! How can I help you today?"
	DefaultShowFormMessage = "Please fill out this form."
)

// IsProtected reports whether id names one of the reserved core nodes.
func IsProtected(id string) bool {
	return id == WelcomeNodeID || id == ShowFormNodeID
}

// Option is a labeled transition out of a node.
// Options have no identity of their own; their position inside the parent node is the display order.
type Option struct {
	Text    string `json:"text" yaml:"text" mapstructure:"text"`
	Payload string `json:"payload" yaml:"payload" mapstructure:"payload"`
}

// Node represents one addressable point in the guided flow.
type Node struct {
	ID           string       `json:"node_id" yaml:"node_id"`
	ResponseType ResponseType `json:"response_type" yaml:"response_type"`

	// AnswerText is used when ResponseType is text.
	AnswerText string `json:"answer,omitempty" yaml:"answer,omitempty"`

	// Message and Options are used when ResponseType is rich.
	Message string   `json:"message,omitempty" yaml:"message,omitempty"`
	Options []Option `json:"options,omitempty" yaml:"options,omitempty"`
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	if n.Options != nil {
		out.Options = make([]Option, len(n.Options))
		copy(out.Options, n.Options)
	}
	return out
}

// Content returns the text shown for the node regardless of its response type.
func (n Node) Content() string {
	if n.ResponseType == ResponseText {
		return n.AnswerText
	}
	return n.Message
}

// NewWelcomeNode builds the default entry node.
func NewWelcomeNode() Node {
	return Node{
		ID:           WelcomeNodeID,
		ResponseType: ResponseRich,
		Message:      DefaultWelcomeMessage,
		Options:      []Option{},
	}
}

// NewShowFormNode builds the default escalation node.
func NewShowFormNode() Node {
	return Node{
		ID:           ShowFormNodeID,
		ResponseType: ResponseRich,
		Message:      DefaultShowFormMessage,
		Options:      []Option{},
	}
}
