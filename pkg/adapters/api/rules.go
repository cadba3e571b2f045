package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/ports"
)

// RuleStore is a ports.NodeStore backed by the rules endpoints of a remote server.
type RuleStore struct {
	c *Client
}

var _ ports.NodeStore = (*RuleStore)(nil)

// Rules returns a NodeStore that edits the client's tenant flow remotely.
func (c *Client) Rules() *RuleStore {
	return &RuleStore{c: c}
}

func rulePath(id string) string {
	return RulesPath + url.PathEscape(id) + "/"
}

// List fetches every rule in server order.
func (s *RuleStore) List(ctx context.Context) ([]domain.Node, error) {
	status, body, err := s.c.do(ctx, http.MethodGet, RulesPath, s.c.clientID, nil)
	if err != nil {
		return nil, err
	}
	if err := statusError(status, body); err != nil {
		return nil, err
	}

	var records []domain.RuleRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: rules: %v", domain.ErrMalformedResponse, err)
	}
	nodes := make([]domain.Node, 0, len(records))
	for _, rec := range records {
		n, err := rec.Node()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Get fetches one rule.
func (s *RuleStore) Get(ctx context.Context, id string) (domain.Node, error) {
	status, body, err := s.c.do(ctx, http.MethodGet, rulePath(id), s.c.clientID, nil)
	if err != nil {
		return domain.Node{}, err
	}
	if err := statusError(status, body); err != nil {
		return domain.Node{}, err
	}
	var rec domain.RuleRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return domain.Node{}, fmt.Errorf("%w: rule %s: %v", domain.ErrMalformedResponse, id, err)
	}
	return rec.Node()
}

// Create posts a new rule. 409 maps to domain.ErrDuplicateID.
func (s *RuleStore) Create(ctx context.Context, node domain.Node) error {
	status, body, err := s.c.do(ctx, http.MethodPost, RulesPath, s.c.clientID, domain.RecordFromNode(node))
	if err != nil {
		return err
	}
	return statusError(status, body)
}

// Update replaces a rule. 404 maps to domain.ErrNodeNotFound.
func (s *RuleStore) Update(ctx context.Context, node domain.Node) error {
	status, body, err := s.c.do(ctx, http.MethodPut, rulePath(node.ID), s.c.clientID, domain.RecordFromNode(node))
	if err != nil {
		return err
	}
	return statusError(status, body)
}

// Delete removes a rule. 403 maps to domain.ErrProtectedNode.
func (s *RuleStore) Delete(ctx context.Context, id string) error {
	status, body, err := s.c.do(ctx, http.MethodDelete, rulePath(id), s.c.clientID, nil)
	if err != nil {
		return err
	}
	return statusError(status, body)
}
