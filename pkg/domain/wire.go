package domain

import (
	"fmt"
	"time"
)

// Rule data types used by the rules wire format.
const (
	RuleTypeOptions = "options"
	RuleTypeText    = "text"
)

// RuleData is the payload of a rule record.
type RuleData struct {
	Type    string   `json:"type" yaml:"type" mapstructure:"type"`
	Message string   `json:"message,omitempty" yaml:"message,omitempty" mapstructure:"message"`
	Options []Option `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
	Answer  string   `json:"answer,omitempty" yaml:"answer,omitempty" mapstructure:"answer"`
}

// RuleRecord is how a node is exchanged with the rules API and persisted by stores.
type RuleRecord struct {
	ID        int64     `json:"id,omitempty" yaml:"-" mapstructure:"id"`
	NodeID    string    `json:"node_id" yaml:"node_id" mapstructure:"node_id"`
	RuleData  RuleData  `json:"rule_data" yaml:"rule_data" mapstructure:"rule_data"`
	UpdatedAt time.Time `json:"updated_at,omitzero" yaml:"-" mapstructure:"-"`
}

// RecordFromNode converts a node to its wire record.
func RecordFromNode(n Node) RuleRecord {
	rec := RuleRecord{NodeID: n.ID}
	if n.ResponseType == ResponseText {
		rec.RuleData = RuleData{Type: RuleTypeText, Answer: n.AnswerText}
		return rec
	}
	opts := make([]Option, len(n.Options))
	copy(opts, n.Options)
	rec.RuleData = RuleData{Type: RuleTypeOptions, Message: n.Message, Options: opts}
	return rec
}

// Node converts the record back to a node.
func (r RuleRecord) Node() (Node, error) {
	if r.NodeID == "" {
		return Node{}, &ValidationError{Field: "node_id", Reason: "is required"}
	}
	switch r.RuleData.Type {
	case RuleTypeText:
		return Node{ID: r.NodeID, ResponseType: ResponseText, AnswerText: r.RuleData.Answer}, nil
	case RuleTypeOptions, "":
		opts := make([]Option, len(r.RuleData.Options))
		copy(opts, r.RuleData.Options)
		return Node{ID: r.NodeID, ResponseType: ResponseRich, Message: r.RuleData.Message, Options: opts}, nil
	default:
		return Node{}, fmt.Errorf("%w: unknown rule type %q", ErrMalformedResponse, r.RuleData.Type)
	}
}
