package api

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/chatter/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Reply shapes accepted from the interact endpoint.
const (
	shapeRich     = "rich"
	shapeOptions  = "options"
	shapeShowForm = "show_form"
)

// interactReply is the union of every field the widget protocol uses.
type interactReply struct {
	ResponseType string          `mapstructure:"response_type"`
	RichResponse *richPayload    `mapstructure:"rich_response"`
	Type         string          `mapstructure:"type"`
	Message      string          `mapstructure:"message"`
	Options      []domain.Option `mapstructure:"options"`
	Answer       *string         `mapstructure:"answer"`
}

type richPayload struct {
	Message string          `mapstructure:"message"`
	Options []domain.Option `mapstructure:"options"`
}

// DecodeResolution turns an interact reply body into a Resolution.
//
// Accepted, in order of precedence:
//
//	{"response_type": "rich", "rich_response": {"message", "options"}}
//	{"type": "options", "message", "options"}
//	{"type": "show_form", "message"}
//	{"answer"}
//
// Anything else wraps domain.ErrMalformedResponse.
func DecodeResolution(body []byte) (domain.Resolution, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	var reply interactReply
	if err := decodeLoose(raw, &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	switch {
	case reply.ResponseType == shapeRich && reply.RichResponse != nil:
		return domain.RichResponse{
			Message: reply.RichResponse.Message,
			Options: nonNil(reply.RichResponse.Options),
		}, nil
	case reply.Type == shapeOptions:
		return domain.RichResponse{Message: reply.Message, Options: nonNil(reply.Options)}, nil
	case reply.Type == shapeShowForm:
		return domain.FormEscalation{Message: reply.Message}, nil
	case reply.Answer != nil:
		return domain.TextResponse{Answer: *reply.Answer}, nil
	default:
		return nil, fmt.Errorf("%w: no known fields in reply", domain.ErrMalformedResponse)
	}
}

// decodeLoose maps a generic JSON object onto a tagged struct, ignoring unknown keys.
func decodeLoose(raw any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func nonNil(opts []domain.Option) []domain.Option {
	if opts == nil {
		return []domain.Option{}
	}
	return opts
}
