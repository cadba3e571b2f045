package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/resolver"
	"github.com/aretw0/chatter/pkg/runner"
)

// ConfigErrorMessage is returned when a stored node cannot be turned into a reply.
const ConfigErrorMessage = "Error: Chatbot configuration is invalid."

type interactRequest struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// interactReply is the widget wire form of a Resolution.
type interactReply struct {
	Type    string          `json:"type,omitempty"`
	Message string          `json:"message,omitempty"`
	Options []domain.Option `json:"options,omitempty"`
	Answer  *string         `json:"answer,omitempty"`
}

func answer(s string) interactReply {
	return interactReply{Answer: &s}
}

// interact handles POST /api/v1/interact/.
func (s *Server) interact(w http.ResponseWriter, r *http.Request) {
	var body interactRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, answer("Invalid request body."))
		s.logger.Warn("Interact: invalid request body", "err", err)
		return
	}

	kind := domain.InteractionKind(strings.TrimSpace(body.Type))
	if kind == "" {
		kind = domain.KindText
	}
	if !kind.Valid() {
		writeJSON(w, http.StatusBadRequest, answer("Unknown interaction type."))
		return
	}

	payload, err := runner.SanitizeInput(body.Payload)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, answer("Invalid input."))
		s.logger.Warn("Interact: input rejected", "err", err, "size", len(body.Payload))
		return
	}
	if strings.TrimSpace(payload) == "" {
		writeJSON(w, http.StatusBadRequest, answer(resolver.NoInputMessage))
		return
	}

	req := domain.ResolveRequest{Kind: kind, Payload: payload, ClientID: tenant(r)}
	start := s.now()
	res, err := s.resolver.Resolve(r.Context(), req)
	if err == nil && res == nil {
		err = domain.ErrMalformedResponse
	}
	if f, ok := res.(domain.Failure); ok && err == nil {
		err = f
	}

	event := &domain.ResolveEvent{
		Timestamp: start,
		ClientID:  req.ClientID,
		Kind:      req.Kind,
		Payload:   req.Payload,
		Outcome:   domain.OutcomeFailure,
		Duration:  s.now().Sub(start),
		Err:       err,
	}
	if err == nil {
		event.Outcome = domain.OutcomeOf(res)
	}
	if s.hooks.OnResolve != nil {
		s.hooks.OnResolve(r.Context(), event)
	}

	if err != nil {
		s.writeResolveError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reply(res))
}

// reply converts a resolution to the wire, sanitizing every rendered string.
func (s *Server) reply(res domain.Resolution) interactReply {
	switch v := res.(type) {
	case domain.TextResponse:
		return answer(s.sanitize(v.Answer))
	case domain.RichResponse:
		opts := make([]domain.Option, len(v.Options))
		for i, o := range v.Options {
			opts[i] = domain.Option{Text: s.sanitize(o.Text), Payload: o.Payload}
		}
		return interactReply{Type: "options", Message: s.sanitize(v.Message), Options: opts}
	case domain.FormEscalation:
		return interactReply{Type: "show_form", Message: s.sanitize(v.Message)}
	default:
		return answer(ConfigErrorMessage)
	}
}

// sanitize strips unsafe markup. Strings without markup characters pass unchanged.
func (s *Server) sanitize(text string) string {
	if !strings.ContainsAny(text, "<>&") {
		return text
	}
	return s.policy.Sanitize(text)
}

func (s *Server) writeResolveError(w http.ResponseWriter, req domain.ResolveRequest, err error) {
	var resErr *domain.ResolutionError
	var valErr *domain.ValidationError
	switch {
	case errors.As(err, &resErr) && resErr.StatusCode != 0:
		msg := resErr.Message
		if msg == "" {
			msg = resolver.InvalidOptionMsg
		}
		writeJSON(w, resErr.StatusCode, answer(msg))
	case errors.Is(err, domain.ErrNodeNotFound):
		writeJSON(w, http.StatusNotFound, answer(resolver.InvalidOptionMsg))
	case errors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, answer(valErr.Reason))
	default:
		s.logger.Error("Interact failed", "kind", req.Kind, "payload", req.Payload, "err", err)
		writeJSON(w, http.StatusInternalServerError, answer(ConfigErrorMessage))
	}
}
