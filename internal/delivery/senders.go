package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dkarlsen/stagewatch/internal/domain"
)

// LogSender records deliveries on a structured log instead of calling an
// external provider. It stands in for real email/SMS/push gateways in
// local and test deployments.
type LogSender struct {
	logger  *slog.Logger
	channel domain.Channel
}

func NewLogSender(w io.Writer, channel domain.Channel) *LogSender {
	return &LogSender{
		logger:  slog.New(slog.NewTextHandler(w, nil)),
		channel: channel,
	}
}

func (s *LogSender) Send(ctx context.Context, n *domain.ScheduledNotification, contact Contact) error {
	endpoint := ""
	switch s.channel {
	case domain.ChannelEmail:
		endpoint = contact.Email
	case domain.ChannelSMS:
		endpoint = contact.Phone
	case domain.ChannelPush:
		endpoint = contact.PushToken
	}
	s.logger.InfoContext(ctx, "notification delivered",
		"channel", string(s.channel),
		"notification_id", n.ID,
		"project_id", n.ProjectID,
		"recipient", n.RecipientID,
		"endpoint", endpoint,
	)
	return nil
}

// StaticContacts resolves recipients from an in-memory map. Unknown
// recipients resolve to an empty contact, which the worker reports as a
// missing-endpoint failure rather than an error.
type StaticContacts map[string]Contact

func (m StaticContacts) Resolve(ctx context.Context, recipientID string) (Contact, error) {
	return m[recipientID], nil
}

// LoadContactsFile reads a recipient-to-contact map from a JSON file.
// A missing path yields an empty map.
func LoadContactsFile(path string) (StaticContacts, error) {
	if path == "" {
		return StaticContacts{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return StaticContacts{}, nil
		}
		return nil, fmt.Errorf("reading contacts file: %w", err)
	}
	var contacts StaticContacts
	if err := json.Unmarshal(data, &contacts); err != nil {
		return nil, fmt.Errorf("parsing contacts file %s: %w", path, err)
	}
	return contacts, nil
}

// LogTaskCreator records client-task creation on a structured log. It
// stands in for the external task system.
type LogTaskCreator struct {
	logger *slog.Logger
}

func NewLogTaskCreator(w io.Writer) *LogTaskCreator {
	return &LogTaskCreator{logger: slog.New(slog.NewTextHandler(w, nil))}
}

func (t *LogTaskCreator) CreateClientTask(ctx context.Context, n *domain.ScheduledNotification) error {
	t.logger.InfoContext(ctx, "client task created",
		"notification_id", n.ID,
		"project_id", n.ProjectID,
		"recipient", n.RecipientID,
	)
	return nil
}
