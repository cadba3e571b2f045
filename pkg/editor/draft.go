package editor

import (
	"fmt"
	"strings"

	"github.com/aretw0/chatter/pkg/domain"
)

// Draft is the editable form of a node.
type Draft struct {
	ID           string
	ResponseType domain.ResponseType
	AnswerText   string
	Message      string
	Options      []domain.Option

	// Create marks a new node. Without it the draft updates an existing one.
	Create bool
}

// NewDraft returns the authoring default: a rich node with a single "Back" option to welcome_node.
func NewDraft(suggestedID string) Draft {
	return Draft{
		ID:           suggestedID,
		ResponseType: domain.ResponseRich,
		Options:      []domain.Option{{Text: "Back", Payload: domain.WelcomeNodeID}},
		Create:       true,
	}
}

// DraftFromNode prepares an update draft for an existing node.
func DraftFromNode(n domain.Node) Draft {
	n = n.Clone()
	return Draft{
		ID:           n.ID,
		ResponseType: n.ResponseType,
		AnswerText:   n.AnswerText,
		Message:      n.Message,
		Options:      n.Options,
	}
}

// build validates the draft and returns the node it describes.
func (d Draft) build() (domain.Node, error) {
	var errs domain.ValidationErrors

	id := strings.TrimSpace(d.ID)
	switch {
	case id == "":
		errs = append(errs, &domain.ValidationError{Field: "node_id", Reason: "is required"})
	case hasInnerSpace(id):
		errs = append(errs, &domain.ValidationError{Field: "node_id", Reason: "must not contain whitespace"})
	}

	node := domain.Node{ID: id, ResponseType: d.ResponseType}
	switch d.ResponseType {
	case domain.ResponseText:
		node.AnswerText = strings.TrimSpace(d.AnswerText)
		if node.AnswerText == "" {
			errs = append(errs, &domain.ValidationError{Field: "answer", Reason: "is required for text nodes"})
		}
	case domain.ResponseRich:
		node.Message = strings.TrimSpace(d.Message)
		node.Options = make([]domain.Option, 0, len(d.Options))
		for i, opt := range d.Options {
			opt = domain.Option{Text: strings.TrimSpace(opt.Text), Payload: strings.TrimSpace(opt.Payload)}
			if err := validateOption(i, opt); err != nil {
				errs = append(errs, err.(domain.ValidationErrors)...)
				continue
			}
			node.Options = append(node.Options, opt)
		}
		if d.Create && !domain.IsProtected(id) {
			if node.Message == "" {
				errs = append(errs, &domain.ValidationError{Field: "message", Reason: "is required for rich nodes"})
			}
			if len(d.Options) == 0 {
				errs = append(errs, &domain.ValidationError{Field: "options", Reason: "at least one option is required"})
			}
		}
	default:
		errs = append(errs, &domain.ValidationError{
			Field:  "response_type",
			Reason: fmt.Sprintf("must be %q or %q", domain.ResponseText, domain.ResponseRich),
		})
	}

	if len(errs) > 0 {
		return domain.Node{}, errs
	}
	return node, nil
}

func validateOption(i int, opt domain.Option) error {
	var errs domain.ValidationErrors
	if opt.Text == "" {
		errs = append(errs, &domain.ValidationError{Field: fmt.Sprintf("options[%d].text", i), Reason: "is required"})
	}
	if opt.Payload == "" {
		errs = append(errs, &domain.ValidationError{Field: fmt.Sprintf("options[%d].payload", i), Reason: "is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
