package routing

import (
	"errors"
	"fmt"
	"strings"
)

// ChannelPrefix is shared by every routing-key channel. The fan-out loop
// pattern-subscribes on ChannelPrefix+"*" to cover all of them.
const ChannelPrefix = "notifications:"

var (
	ErrInvalidKey     = errors.New("routing: invalid routing key")
	ErrInvalidChannel = errors.New("routing: invalid channel name")
)

// Type discriminates the broadcast scope of a Key.
// The numeric values are part of the wire protocol.
type Type int

const (
	// TypeAll addresses every connected client regardless of account.
	TypeAll Type = 0
	// TypeAccount addresses the clients subscribed to one account.
	TypeAccount Type = 1
)

// Key identifies a logical broadcast channel.
// Value is empty for TypeAll and holds the account id for TypeAccount.
type Key struct {
	Type  Type    `json:"type"`
	Value *string `json:"value"`
}

// AllKey returns the key covering all accounts.
func AllKey() Key {
	return Key{Type: TypeAll}
}

// AccountKey returns the key scoped to a single account.
func AccountKey(accountID string) Key {
	return Key{Type: TypeAccount, Value: &accountID}
}

// AccountID returns the account id for account-scoped keys.
func (k Key) AccountID() string {
	if k.Type != TypeAccount || k.Value == nil {
		return ""
	}
	return *k.Value
}

// Valid reports whether the key is well formed.
func (k Key) Valid() bool {
	switch k.Type {
	case TypeAll:
		return true
	case TypeAccount:
		return k.Value != nil && *k.Value != ""
	default:
		return false
	}
}

// Channel maps the key onto its store channel name.
func (k Key) Channel() string {
	if k.Type == TypeAccount && k.Value != nil {
		return ChannelPrefix + "account:" + *k.Value
	}
	return ChannelPrefix + "all"
}

func (k Key) String() string {
	if k.Type == TypeAccount {
		return fmt.Sprintf("account(%s)", k.AccountID())
	}
	return "all"
}

// ParseChannel inverts Channel.
func ParseChannel(channel string) (Key, error) {
	rest, ok := strings.CutPrefix(channel, ChannelPrefix)
	if !ok {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}
	if rest == "all" {
		return AllKey(), nil
	}
	if accountID, ok := strings.CutPrefix(rest, "account:"); ok && accountID != "" {
		return AccountKey(accountID), nil
	}
	return Key{}, fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
}
