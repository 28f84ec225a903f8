package notification

import "errors"

var ErrUnknownKind = errors.New("notification: unknown notification kind")

// Kind identifies a domain notification variant.
type Kind string

const (
	KindPublish        Kind = "publish"
	KindCustom         Kind = "custom"
	KindReviewRequest  Kind = "review"
	KindPublishRequest Kind = "publish-request"
)

// Valid reports whether the kind is one of the known variants.
func (k Kind) Valid() bool {
	switch k {
	case KindPublish, KindCustom, KindReviewRequest, KindPublishRequest:
		return true
	}
	return false
}

// NotifierKind selects the delivery mechanism of a notification target.
type NotifierKind string

const (
	NotifierUserEmail  NotifierKind = "user-email"
	NotifierGroupEmail NotifierKind = "group-email"
	// NotifierDummy never delivers anything and always reports success.
	NotifierDummy NotifierKind = "dummy"
)

// SimpleTarget is an explicit recipient reference on a custom notification.
type SimpleTarget struct {
	NotifierKind NotifierKind `json:"notifierKind"`
	TargetID     string       `json:"targetId"`
}

// Notification is the transient domain event handed to the dispatcher.
// It is a tagged union keyed by Kind: the custom fields are only set for
// KindCustom, the publication fields only for KindPublish. It is never
// persisted standalone; the scheduled dispatch queue embeds it.
type Notification struct {
	AccountID string `json:"accountId"`
	Kind      Kind   `json:"kind"`
	ActorID   string `json:"actorId,omitempty"`
	ItemID    string `json:"itemId,omitempty"`

	// Custom notification fields.
	Targets []SimpleTarget `json:"targets,omitempty"`
	Subject string         `json:"subject,omitempty"`
	Text    string         `json:"text,omitempty"`

	// Publish notification fields.
	PublicationID           string `json:"publicationId,omitempty"`
	PublicationTitle        string `json:"publicationTitle,omitempty"`
	PublicationLanguageCode string `json:"publicationLanguageCode,omitempty"`
}

// Validate checks the fields required by the notification's kind.
func (n Notification) Validate() error {
	if !n.Kind.Valid() {
		return ErrUnknownKind
	}
	if n.AccountID == "" {
		return errors.New("notification: accountId is required")
	}
	if n.Kind == KindCustom && len(n.Targets) == 0 {
		return errors.New("notification: custom notification requires targets")
	}
	if n.Kind != KindCustom && n.ItemID == "" {
		return errors.New("notification: itemId is required")
	}
	return nil
}
