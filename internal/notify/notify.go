// Package notify mails generated drafts to the operator for review.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"innbox/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// DraftMailer sends each generated draft to the review inbox via SendGrid.
// Nothing here ever addresses a guest.
type DraftMailer struct {
	apiKey      string
	reviewEmail string
	senderEmail string
}

// NewDraftMailer creates a mailer. reviewEmail is the operator inbox that
// receives drafts.
func NewDraftMailer(apiKey, reviewEmail, senderEmail string) *DraftMailer {
	return &DraftMailer{
		apiKey:      apiKey,
		reviewEmail: reviewEmail,
		senderEmail: senderEmail,
	}
}

// NotifyDraft mails one generated draft for review
func (dm *DraftMailer) NotifyDraft(_ context.Context, draft *models.Draft) error {
	if dm.apiKey == "" {
		return fmt.Errorf("SendGrid API key not configured")
	}
	if dm.reviewEmail == "" {
		return fmt.Errorf("review email not configured")
	}

	from := mail.NewEmail("Innbox Draft Review", dm.senderEmail)
	to := mail.NewEmail("Operator", dm.reviewEmail)

	subject := fmt.Sprintf("Draft Reply: %s", subjectLabel(draft.Subject))

	var refs strings.Builder
	for _, m := range draft.Matches {
		refs.WriteString(fmt.Sprintf("  - thread %s (similarity %.3f)\n", m.ThreadID, m.Similarity))
	}

	body := fmt.Sprintf(`A draft reply is ready for review. It has NOT been sent.

Thread: %s
Generated: %s

Guest wrote:
%s

Suggested reply:
%s

Grounded on:
%s`, draft.ThreadID, time.Now().Format(time.RFC3339), draft.GuestText, draft.Text, refs.String())

	message := mail.NewSingleEmail(from, subject, to, body, body)

	client := sendgrid.NewSendClient(dm.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send draft email: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}

// subjectLabel normalizes a guest subject into a tidy title for the review
// inbox, falling back when the subject is empty.
func subjectLabel(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "Untitled Thread"
	}
	lower := strings.ToLower(subject)
	lower = strings.TrimPrefix(lower, "re:")
	lower = strings.TrimPrefix(lower, "fwd:")
	return titleCaser.String(strings.TrimSpace(lower))
}
