package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aretw0/chatter/pkg/domain"
)

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.submissions.List(r.Context())
	if err != nil {
		s.logger.Error("Listing submissions failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// createSubmission handles POST /api/v1/submissions/ from the lead form.
func (s *Server) createSubmission(w http.ResponseWriter, r *http.Request) {
	var fields domain.FormFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	clientID := tenant(r)
	event := &domain.SubmissionEvent{Timestamp: s.now(), ClientID: clientID}
	defer func() {
		if s.hooks.OnSubmission != nil {
			s.hooks.OnSubmission(r.Context(), event)
		}
	}()

	if err := fields.Validate(); err != nil {
		event.Err = err
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: verrs.Error(), Fields: verrs.Fields()})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	sub := domain.NewSubmission(clientID, fields, s.now())
	if err := s.submissions.Save(r.Context(), sub); err != nil {
		event.Err = err
		s.logger.Error("Saving submission failed", "client_id", clientID, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	event.Success = true
	s.logger.Info("Lead captured", "client_id", clientID, "submission_id", sub.ID)
	writeJSON(w, http.StatusCreated, sub)
}
