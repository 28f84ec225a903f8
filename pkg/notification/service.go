package notification

import (
	"encoding/json"
	"fmt"

	"github.com/teamdocs/notifier/pkg/routing"
)

// ServiceType tags a ServiceNotification pushed to live connections.
// The values are part of the client protocol.
type ServiceType int

const (
	TypeConnectionSuccess ServiceType = 0
	TypeRoutingKeysUpdate ServiceType = 10
	TypeKeyExpired        ServiceType = 20
	TypeAllLockedItems    ServiceType = 100
	TypeItemLocked        ServiceType = 150
	TypeOverrideItemLock  ServiceType = 160
	TypeItemReleased      ServiceType = 200
	TypeUserLoggedOff     ServiceType = 666
	TypeAlertChange       ServiceType = 700
)

// ServiceNotification is the envelope pushed over live connections and
// published on store channels. Body is kept raw so the bridge can fan out
// payloads it does not itself understand.
type ServiceNotification struct {
	Type       ServiceType     `json:"type"`
	Body       json.RawMessage `json:"body,omitempty"`
	WindowID   string          `json:"windowId,omitempty"`
	AdminsOnly bool            `json:"adminsOnly,omitempty"`
}

// NewServiceNotification marshals body into a service notification envelope.
func NewServiceNotification(t ServiceType, body any) (ServiceNotification, error) {
	if body == nil {
		return ServiceNotification{Type: t}, nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return ServiceNotification{}, fmt.Errorf("notification: marshal body: %w", err)
	}
	return ServiceNotification{Type: t, Body: raw}, nil
}

// HookResult is the outcome of a dispatch hook. The zero value lets the
// dispatch proceed unchanged. Interrupt suppresses the publish entirely;
// a non-nil Override replaces the payload that gets published.
type HookResult struct {
	Interrupt bool
	Override  *ServiceNotification
}

// MessageType tags inbound connection frames.
type MessageType int

const (
	MessageSubscribe   MessageType = 0
	MessageUnsubscribe MessageType = 1
	MessageDispatch    MessageType = 2
)

// Message is one inbound frame from a live connection.
type Message struct {
	Type MessageType     `json:"type"`
	Body json.RawMessage `json:"body"`
}

// Event pairs a service notification with the scope it travels on.
type Event struct {
	RoutingKey routing.Key         `json:"routingKey"`
	Body       ServiceNotification `json:"body"`
}

// LockUser identifies the holder of an item lock.
type LockUser struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"displayName"`
}

// ItemLock is the ITEM_LOCKED / OVERRIDE_ITEM_LOCK payload.
type ItemLock struct {
	ItemID                 string   `json:"itemId"`
	User                   LockUser `json:"user"`
	WindowID               string   `json:"windowId,omitempty"`
	LockVisibleByInitiator bool     `json:"lockVisibleByInitiator,omitempty"`
}

// ItemRelease is the ITEM_RELEASED payload.
type ItemRelease struct {
	ItemID                 string `json:"itemId"`
	UserID                 string `json:"userId,omitempty"`
	WindowID               string `json:"windowId,omitempty"`
	LockVisibleByInitiator bool   `json:"lockVisibleByInitiator,omitempty"`
}

// AllItemLocks is the ALL_LOCKED_ITEMS payload: the current lock snapshot
// pushed to a freshly subscribed connection.
type AllItemLocks struct {
	Edits []ItemLock `json:"edits"`
}

// KeyExpired is the KEY_EXPIRED payload synthesized from a store
// TTL-expiry event. Key is the raw expired key name.
type KeyExpired struct {
	Key string `json:"key"`
}
