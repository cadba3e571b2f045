package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FormFields are the values entered in the lead-capture form.
type FormFields struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`
}

// Validate checks that name, email and message are present. Phone is optional.
func (f FormFields) Validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(f.Name) == "" {
		errs = append(errs, &ValidationError{Field: "name", Reason: "is required"})
	}
	email := strings.TrimSpace(f.Email)
	switch {
	case email == "":
		errs = append(errs, &ValidationError{Field: "email", Reason: "is required"})
	case !strings.Contains(email, "@"):
		errs = append(errs, &ValidationError{Field: "email", Reason: "must be an email address"})
	}
	if strings.TrimSpace(f.Message) == "" {
		errs = append(errs, &ValidationError{Field: "message", Reason: "is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Submission is a captured lead. It is owned by the submissions store.
type Submission struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id,omitempty"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewSubmission stamps validated form fields with an id and timestamp.
func NewSubmission(clientID string, f FormFields, now time.Time) *Submission {
	return &Submission{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		Name:        strings.TrimSpace(f.Name),
		Email:       strings.TrimSpace(f.Email),
		Phone:       strings.TrimSpace(f.Phone),
		Message:     strings.TrimSpace(f.Message),
		SubmittedAt: now.UTC(),
	}
}

// Fields returns the form values of the submission.
func (s *Submission) Fields() FormFields {
	return FormFields{Name: s.Name, Email: s.Email, Phone: s.Phone, Message: s.Message}
}
