package email

import (
	"context"
	"fmt"
	"time"
)

// Message is one applicant-facing email. SendAt is zero for immediate
// sends and a future instant for deferred follow-ups.
type Message struct {
	To      string
	Name    string
	Subject string
	Body    string
	SendAt  time.Time
}

// Sender delivers a single email through the provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ConfirmationMessage is sent right after a submission completes.
func ConfirmationMessage(to, name string) Message {
	return Message{
		To:      to,
		Name:    name,
		Subject: "Application Received",
		Body: fmt.Sprintf("Dear %s,\n\nWe have received your application and CV. "+
			"You will hear from us shortly.\n\nBest regards,\nThe Hiring Team", name),
	}
}

// FollowUpMessage is the deferred under-review notice.
func FollowUpMessage(to, name string, sendAt time.Time) Message {
	return Message{
		To:      to,
		Name:    name,
		Subject: "Your Application is Under Review",
		Body: fmt.Sprintf("Dear %s,\n\nThank you for submitting your application. "+
			"Your CV is currently under review.\n\nBest regards,\nThe Hiring Team", name),
		SendAt: sendAt,
	}
}
