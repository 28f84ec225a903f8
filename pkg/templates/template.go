package templates

import (
	"context"
	"errors"
	"time"

	"github.com/teamdocs/notifier/pkg/notification"
)

var ErrTemplateNotFound = errors.New("templates: notification template not found")

// Template is a named, partially filled custom notification.
// Data carries whatever subset of the custom notification fields the
// author saved; the caller completes it before dispatch.
type Template struct {
	ID            string                    `bson:"templateId" json:"templateId"`
	AccountID     string                    `bson:"accountId" json:"accountId"`
	Data          notification.Notification `bson:"templateData" json:"templateData"`
	Name          string                    `bson:"templateName" json:"templateName"`
	ScheduledDate *time.Time                `bson:"scheduledDate,omitempty" json:"scheduledDate,omitempty"`
	ScheduledTime *time.Time                `bson:"scheduledTime,omitempty" json:"scheduledTime,omitempty"`
}

// Repository stores notification templates.
type Repository interface {
	Insert(ctx context.Context, template Template) (Template, error)
	AllForAccount(ctx context.Context, accountID string) ([]Template, error)
	Delete(ctx context.Context, templateID string) error
	DeleteAllForAccount(ctx context.Context, accountID string) error
}
