package sentlog

import (
	"context"
	"time"

	"github.com/teamdocs/notifier/pkg/notification"
)

// MessageData is the rendered message template as it was handed to the
// mail transport, before per-recipient variable substitution.
type MessageData struct {
	From    string `bson:"from" json:"from"`
	Subject string `bson:"subject" json:"subject"`
	Text    string `bson:"text" json:"text"`
	HTML    string `bson:"html" json:"html"`
}

// Metadata captures the notification context the record was born from.
type Metadata struct {
	ItemID  string `bson:"itemId,omitempty" json:"itemId,omitempty"`
	ActorID string `bson:"actorId,omitempty" json:"actorId,omitempty"`
}

// Record is one sent notification.
type Record struct {
	ID        string            `bson:"_id" json:"id"`
	AccountID string            `bson:"accountId" json:"accountId"`
	Kind      notification.Kind `bson:"kind" json:"kind"`
	Message   MessageData       `bson:"messageData" json:"messageData"`
	SentAt    time.Time         `bson:"sentAt" json:"sentAt"`
	SentToIDs []string          `bson:"sentToIds" json:"sentToIds"`
	Metadata  Metadata          `bson:"notificationMetadata" json:"notificationMetadata"`
	// TemplateVariables maps user id to the variable values rendered for
	// that user, e.g. "[[actor]]" + {"actor": "Ada"} = "Ada".
	TemplateVariables map[string]map[string]string `bson:"templateVariables,omitempty" json:"templateVariables,omitempty"`
}

// Repository stores sent-notification records.
type Repository interface {
	Insert(ctx context.Context, record Record) error
	// Find returns the records for an account whose item is one of itemIDs.
	Find(ctx context.Context, accountID string, itemIDs []string) ([]Record, error)
	DeleteAllForAccount(ctx context.Context, accountID string) error
}
