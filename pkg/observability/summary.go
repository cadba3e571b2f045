package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/chatter/pkg/ports"
)

// Summary is the dashboard analytics overview.
type Summary struct {
	TotalLeadsCaptured int64 `json:"totalLeadsCaptured"`
	LeadsCapturedToday int64 `json:"leadsCapturedToday"`
	ChatsStarted       int64 `json:"chatsStarted"`
	FAQsClicked        int64 `json:"faqsClicked"`
	ChatRedirects      int64 `json:"chatRedirects"`
}

// Summary combines the in-process tallies with the stored leads.
// "Today" is the calendar day of now in now's location.
func (m *Metrics) Summary(ctx context.Context, subs ports.SubmissionStore, now time.Time) (Summary, error) {
	all, err := subs.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list submissions: %w", err)
	}

	y, mo, d := now.Date()
	startOfDay := time.Date(y, mo, d, 0, 0, 0, 0, now.Location())

	s := Summary{
		TotalLeadsCaptured: int64(len(all)),
		ChatsStarted:       m.chats.Load(),
		FAQsClicked:        m.faqs.Load(),
		ChatRedirects:      m.redirects.Load(),
	}
	for _, sub := range all {
		if !sub.SubmittedAt.Before(startOfDay) {
			s.LeadsCapturedToday++
		}
	}
	return s, nil
}
