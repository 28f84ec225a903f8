package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teamdocs/notifier/pkg/logger"
	"github.com/teamdocs/notifier/pkg/mailer"
	"github.com/teamdocs/notifier/pkg/notification"
	"github.com/teamdocs/notifier/pkg/sentlog"
)

const defaultFromName = "Notifications"

type message struct {
	subject string
	text    string
	html    string
}

// templateFor picks the message template for a notification kind. Custom
// notifications carry their own subject and text; the other kinds use
// built-in templates filled from tags.
func templateFor(n notification.Notification) message {
	switch n.Kind {
	case notification.KindCustom:
		return message{subject: n.Subject, text: n.Text, html: n.Text}
	case notification.KindPublish:
		return message{
			subject: "A new version of [[title]] was published",
			text:    "Hi [[name]],\n\n[[actor]] published a new version of [[title]].\n\nRead it here: [[reader_link]]",
		}
	case notification.KindReviewRequest:
		return message{
			subject: "Review requested for [[title]]",
			text:    "Hi [[name]],\n\n[[actor]] asked you to review [[title]].\n\nOpen the editor: [[editor_link]]",
		}
	case notification.KindPublishRequest:
		return message{
			subject: "Publish requested for [[title]]",
			text:    "Hi [[name]],\n\n[[actor]] asked to publish [[title]].\n\nOpen the editor: [[editor_link]]",
		}
	}
	return message{}
}

// Dispatcher orchestrates one notification send end to end.
type Dispatcher struct {
	resolver *TargetResolver
	users    UserDirectory
	items    ItemDirectory
	domains  DomainResolver
	sender   mailer.Sender
	records  sentlog.Repository
	log      *slog.Logger

	fromName string
	now      func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithFromName overrides the sender display name on outgoing mail.
func WithFromName(name string) DispatcherOption {
	return func(d *Dispatcher) { d.fromName = name }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher wires a dispatcher from its collaborators.
func NewDispatcher(
	resolver *TargetResolver,
	users UserDirectory,
	items ItemDirectory,
	domains DomainResolver,
	sender mailer.Sender,
	records sentlog.Repository,
	log *slog.Logger,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		resolver: resolver,
		users:    users,
		items:    items,
		domains:  domains,
		sender:   sender,
		records:  records,
		log:      log,
		fromName: defaultFromName,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch resolves recipients, renders template variables, sends one
// mail batch and appends a sent-notification record. Recipients without
// a mail address are recorded as sent but receive no mail. A missing
// target item surfaces as ErrTargetItemMissing so scheduled dispatch can
// discard instead of retry.
func (d *Dispatcher) Dispatch(ctx context.Context, n notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}

	recipients, err := d.resolver.Resolve(ctx, n)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		d.log.InfoContext(ctx, "notification has no recipients",
			logger.AccountID(n.AccountID), logger.Kind(string(n.Kind)))
		return nil
	}

	msg := templateFor(n)
	tagNames := FindTags(msg.subject, msg.text, msg.html)
	tags := NewTags(d.users, d.items, d.domains, n)

	sentToIDs := make([]string, 0, len(recipients))
	templateVars := make(map[string]map[string]string, len(recipients))
	mailRecipients := make([]mailer.Recipient, 0, len(recipients))
	for _, recipient := range recipients {
		vars := make(map[string]string, len(tagNames))
		for _, tag := range tagNames {
			value, err := tags.Resolve(ctx, tag, recipient)
			if err != nil {
				d.log.ErrorContext(ctx, "template tag resolution failed",
					logger.Error(err),
					logger.AccountID(n.AccountID),
					logger.Kind(string(n.Kind)),
					logger.UserID(recipient.ID))
				return fmt.Errorf("dispatch %s notification: %w", n.Kind, err)
			}
			vars[tag] = value
		}
		sentToIDs = append(sentToIDs, recipient.ID)
		if len(tagNames) > 0 {
			templateVars[recipient.ID] = vars
		}
		if recipient.Email != "" {
			mailRecipients = append(mailRecipients, mailer.Recipient{Email: recipient.Email, Variables: vars})
		}
	}

	if len(mailRecipients) > 0 {
		batch := mailer.Batch{
			FromName:   d.fromName,
			Subject:    msg.subject,
			Text:       msg.text,
			HTML:       msg.html,
			Tag:        string(n.Kind),
			Recipients: mailRecipients,
		}
		if err := d.sender.SendBatch(ctx, batch); err != nil {
			d.log.ErrorContext(ctx, "notification batch send failed",
				logger.Error(err),
				logger.AccountID(n.AccountID),
				logger.Kind(string(n.Kind)))
			return fmt.Errorf("dispatch %s notification: %w", n.Kind, err)
		}
	}

	record := sentlog.Record{
		ID:                uuid.NewString(),
		AccountID:         n.AccountID,
		Kind:              n.Kind,
		Message:           sentlog.MessageData{From: d.fromName, Subject: msg.subject, Text: msg.text, HTML: msg.html},
		SentAt:            d.now(),
		SentToIDs:         sentToIDs,
		Metadata:          sentlog.Metadata{ItemID: n.ItemID, ActorID: n.ActorID},
		TemplateVariables: templateVars,
	}
	if err := d.records.Insert(ctx, record); err != nil {
		d.log.ErrorContext(ctx, "sent-notification record insert failed",
			logger.Error(err), logger.AccountID(n.AccountID), logger.Kind(string(n.Kind)))
		return fmt.Errorf("dispatch %s notification: %w", n.Kind, err)
	}
	return nil
}
