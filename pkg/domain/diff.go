package domain

import (
	"slices"
)

// SessionDiff represents the changes between two session snapshots.
// It is serialized to JSON for partial updates on renderers.
type SessionDiff struct {
	SessionID string `json:"session_id"`

	// Appended contains transcript entries added since the old snapshot.
	Appended []Entry `json:"appended,omitempty"`

	// Options is set when quick replies changed. An empty slice means they were cleared.
	Options *[]Option `json:"options,omitempty"`

	Phase          *Phase  `json:"phase,omitempty"`
	Mode           *UIMode `json:"mode,omitempty"`
	Typing         *bool   `json:"typing,omitempty"`
	FormSubmitting *bool   `json:"form_submitting,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession.
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSession.ID}

	if oldSession == nil {
		diff.Appended = slices.Clone(newSession.Transcript)
		if len(newSession.Options) > 0 {
			opts := slices.Clone(newSession.Options)
			diff.Options = &opts
		}
		diff.Phase = &newSession.Phase
		diff.Mode = &newSession.Mode
		if newSession.Typing {
			diff.Typing = &newSession.Typing
		}
		if newSession.FormSubmitting {
			diff.FormSubmitting = &newSession.FormSubmitting
		}
		return diff
	}

	// The transcript is append-only.
	if len(newSession.Transcript) > len(oldSession.Transcript) {
		diff.Appended = slices.Clone(newSession.Transcript[len(oldSession.Transcript):])
	}
	if !slices.Equal(oldSession.Options, newSession.Options) {
		opts := slices.Clone(newSession.Options)
		if opts == nil {
			opts = []Option{}
		}
		diff.Options = &opts
	}
	if oldSession.Phase != newSession.Phase {
		diff.Phase = &newSession.Phase
	}
	if oldSession.Mode != newSession.Mode {
		diff.Mode = &newSession.Mode
	}
	if oldSession.Typing != newSession.Typing {
		diff.Typing = &newSession.Typing
	}
	if oldSession.FormSubmitting != newSession.FormSubmitting {
		diff.FormSubmitting = &newSession.FormSubmitting
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return len(d.Appended) == 0 &&
		d.Options == nil &&
		d.Phase == nil &&
		d.Mode == nil &&
		d.Typing == nil &&
		d.FormSubmitting == nil
}
