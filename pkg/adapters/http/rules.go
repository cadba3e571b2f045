package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/editor"
	"github.com/go-chi/chi/v5"
)

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	g, err := s.editor.Refresh(r.Context())
	if err != nil {
		s.writeEditorError(w, err)
		return
	}
	nodes := g.ListNodes()
	records := make([]domain.RuleRecord, len(nodes))
	for i, n := range nodes {
		records[i] = domain.RecordFromNode(n)
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) getRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "nodeID")
	g, err := s.editor.Refresh(r.Context())
	if err != nil {
		s.writeEditorError(w, err)
		return
	}
	n, ok := g.GetNode(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "node not found: " + id})
		return
	}
	writeJSON(w, http.StatusOK, domain.RecordFromNode(n))
}

func (s *Server) createRule(w http.ResponseWriter, r *http.Request) {
	s.saveRule(w, r, "", true)
}

func (s *Server) updateRule(w http.ResponseWriter, r *http.Request) {
	s.saveRule(w, r, chi.URLParam(r, "nodeID"), false)
}

// saveRule decodes a rule record and hands it to the editor. For updates the URL id wins
// over an empty body id and must match a non-empty one.
func (s *Server) saveRule(w http.ResponseWriter, r *http.Request, urlID string, create bool) {
	var rec domain.RuleRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if !create {
		if rec.NodeID != "" && rec.NodeID != urlID {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "node_id does not match the URL"})
			return
		}
		rec.NodeID = urlID
	}

	node, err := rec.Node()
	if err != nil {
		s.writeEditorError(w, err)
		return
	}
	draft := editor.DraftFromNode(node)
	draft.Create = create

	saved, err := s.editor.SaveNode(r.Context(), draft)
	if err != nil {
		s.writeEditorError(w, err)
		return
	}

	status := http.StatusOK
	if create {
		status = http.StatusCreated
	}
	writeJSON(w, status, domain.RecordFromNode(saved))
}

func (s *Server) deleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.DeleteNode(r.Context(), chi.URLParam(r, "nodeID")); err != nil {
		s.writeEditorError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeEditorError maps editor and store sentinels to status codes.
func (s *Server) writeEditorError(w http.ResponseWriter, err error) {
	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verrs.Error(), Fields: verrs.Fields()})
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrMalformedResponse):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrDuplicateID):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrNodeNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, domain.ErrProtectedNode):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	default:
		s.logger.Error("Rule operation failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
