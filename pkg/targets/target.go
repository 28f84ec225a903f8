package targets

import (
	"context"
	"errors"

	"github.com/teamdocs/notifier/pkg/notification"
)

var ErrTargetNotFound = errors.New("targets: notification target not found")

// Target registers one recipient for one notification kind.
// A nil ItemID makes the registration account-wide.
type Target struct {
	AccountID    string                    `bson:"accountId" json:"accountId"`
	NotifierKind notification.NotifierKind `bson:"notifierKind" json:"notifierKind"`
	TargetID     string                    `bson:"targetId" json:"targetId"`
	Kind         notification.Kind         `bson:"notificationKind" json:"notificationKind"`
	ItemID       *string                   `bson:"itemId,omitempty" json:"itemId,omitempty"`
}

// Filter narrows FindForAccount. Zero fields match everything.
type Filter struct {
	Kind    notification.Kind
	ItemIDs []string
}

// Repository stores notification targets.
type Repository interface {
	Insert(ctx context.Context, target Target) (Target, error)
	FindForAccount(ctx context.Context, accountID string, filter Filter) ([]Target, error)
	// Delete removes one registration. ItemID nil matches the
	// account-wide registration only.
	Delete(ctx context.Context, accountID, targetID string, kind notification.Kind, itemID *string) error
	// DeleteAllForTarget removes every registration of a target id,
	// optionally restricted to one account. Used when a user or group is
	// deleted.
	DeleteAllForTarget(ctx context.Context, targetID string, accountID string) error
	DeleteAllForAccount(ctx context.Context, accountID string) error
}
