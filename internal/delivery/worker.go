// Package delivery attempts notification sends per channel. Failures are
// outcomes, not errors: a failed delivery is an expected, recoverable
// result recorded on the notification row.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkarlsen/stagewatch/internal/domain"
)

// Failure codes recorded on the notification row. Short and machine
// readable; the paired reason string is for operators.
const (
	CodeChannelUnconfigured = "channel_unconfigured"
	CodeContactLookupFailed = "contact_lookup_failed"
	CodeNoEmail             = "no_email"
	CodeNoPhone             = "no_phone"
	CodeNoPushToken         = "no_push_token"
	CodeProviderRejected    = "provider_rejected"
	CodeTimeout             = "delivery_timeout"
)

// Contact holds the delivery endpoints known for a recipient. Empty fields
// mean the channel has nothing on file.
type Contact struct {
	Email     string
	Phone     string
	PushToken string
}

// ContactResolver looks up delivery endpoints for a recipient. Recipient
// data lives outside the core; this is its port.
type ContactResolver interface {
	Resolve(ctx context.Context, recipientID string) (Contact, error)
}

// Sender delivers one notification over one channel.
type Sender interface {
	Send(ctx context.Context, n *domain.ScheduledNotification, contact Contact) error
}

// TaskCreator is the port to the external task/reminder system. It is
// invoked at most once per notification, only on the scheduled-to-sent
// transition.
type TaskCreator interface {
	CreateClientTask(ctx context.Context, n *domain.ScheduledNotification) error
}

// Outcome is the result of one delivery attempt.
type Outcome struct {
	Success       bool
	FailureCode   string
	FailureReason string
}

func failure(code, reason string) Outcome {
	return Outcome{FailureCode: code, FailureReason: reason}
}

// Worker attempts deliveries. One sender per channel; channels without a
// registered sender fail cleanly instead of panicking.
type Worker struct {
	senders  map[domain.Channel]Sender
	contacts ContactResolver
	timeout  time.Duration
}

// NewWorker creates a Worker with the given contact resolver and
// per-notification delivery timeout.
func NewWorker(contacts ContactResolver, timeout time.Duration) *Worker {
	return &Worker{
		senders:  make(map[domain.Channel]Sender),
		contacts: contacts,
		timeout:  timeout,
	}
}

// Register installs the sender for a channel, replacing any previous one.
func (w *Worker) Register(channel domain.Channel, sender Sender) {
	w.senders[channel] = sender
}

// Attempt delivers one notification. The attempt is bounded by the
// worker's timeout; a timeout is classified as a failed outcome with its
// own code rather than left ambiguous.
func (w *Worker) Attempt(ctx context.Context, n *domain.ScheduledNotification) Outcome {
	sender, ok := w.senders[n.Channel]
	if !ok {
		return failure(CodeChannelUnconfigured,
			fmt.Sprintf("no sender registered for channel %s", n.Channel))
	}

	contact, err := w.contacts.Resolve(ctx, n.RecipientID)
	if err != nil {
		return failure(CodeContactLookupFailed,
			fmt.Sprintf("resolving contact for %s: %v", n.RecipientID, err))
	}

	if out, ok := checkContact(n.Channel, contact); !ok {
		return out
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := sender.Send(sendCtx, n, contact); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failure(CodeTimeout,
				fmt.Sprintf("delivery exceeded %s", w.timeout))
		}
		return failure(CodeProviderRejected, err.Error())
	}
	return Outcome{Success: true}
}

func checkContact(channel domain.Channel, contact Contact) (Outcome, bool) {
	switch channel {
	case domain.ChannelEmail:
		if contact.Email == "" {
			return failure(CodeNoEmail, "recipient has no email on file"), false
		}
	case domain.ChannelSMS:
		if contact.Phone == "" {
			return failure(CodeNoPhone, "recipient has no phone number on file"), false
		}
	case domain.ChannelPush:
		if contact.PushToken == "" {
			return failure(CodeNoPushToken, "recipient has no push token on file"), false
		}
	}
	return Outcome{}, true
}
