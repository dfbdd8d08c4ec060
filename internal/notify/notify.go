// Package notify delivers attendee notifications. Delivery is best effort:
// the Dispatcher runs sends in the background and only logs failures.
package notify

import (
	"context"
	"fmt"
)

// Message is one notification to one recipient.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

const (
	ConfirmationSubject = "Registration Confirmation"
	ApprovalSubject     = "Registration Approved"
)

// Confirmation is sent after a successful registration.
func Confirmation(to, eventName string) Message {
	return Message{
		To:      to,
		Subject: ConfirmationSubject,
		Body: fmt.Sprintf("You have been registered for %s! Check your registration status "+
			"in your profile to see if it got approved.", eventName),
	}
}

// Approval is sent when a registration becomes APPROVED. The event's own
// success message is used when it has one.
func Approval(to, eventName, successMessage string) Message {
	body := successMessage
	if body == "" {
		body = fmt.Sprintf("Your registration for %s has been approved. See you there!", eventName)
	}
	return Message{To: to, Subject: ApprovalSubject, Body: body}
}
