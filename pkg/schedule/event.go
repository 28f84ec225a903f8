package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/teamdocs/notifier/pkg/notification"
)

var (
	ErrEventNotFound = errors.New("schedule: scheduled event not found")
	// ErrEventClaimed rejects updates to a record a sweep is dispatching.
	ErrEventClaimed = errors.New("schedule: scheduled event is claimed")
)

// Event is one scheduled notification.
type Event struct {
	ID           string                    `bson:"_id" json:"id"`
	AccountID    string                    `bson:"accountId" json:"accountId"`
	Kind         notification.Kind         `bson:"kind" json:"kind"`
	SendAt       time.Time                 `bson:"sendAt" json:"sendAt"`
	Created      time.Time                 `bson:"created" json:"created"`
	ClaimedAt    *time.Time                `bson:"claimedAt,omitempty" json:"claimedAt,omitempty"`
	Notification notification.Notification `bson:"notification" json:"notification"`
}

// Filter narrows Find. Zero fields match everything.
type Filter struct {
	AccountID string
	ItemID    string
	Kind      notification.Kind
	// SendAtBefore selects records due before the given moment.
	SendAtBefore *time.Time
	// ClaimedBefore selects records claimed before the given moment,
	// used to recover claims orphaned by a crashed sweep.
	ClaimedBefore *time.Time
}

// Repository stores scheduled events.
type Repository interface {
	Insert(ctx context.Context, event Event) (Event, error)
	GetByID(ctx context.Context, id string) (Event, error)
	Find(ctx context.Context, filter Filter) ([]Event, error)
	// Claim atomically marks the event as being dispatched. It reports
	// false when another sweep already holds the claim.
	Claim(ctx context.Context, id string) (bool, error)
	Unclaim(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	// Put replaces a pending event. A claimed event is refused with
	// ErrEventClaimed.
	Put(ctx context.Context, event Event) error
	DeleteAllForAccount(ctx context.Context, accountID string) error
}
