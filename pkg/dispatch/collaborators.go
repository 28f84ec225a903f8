package dispatch

import (
	"context"

	"github.com/teamdocs/notifier/pkg/notification"
	"github.com/teamdocs/notifier/pkg/targets"
)

// User is a resolved recipient identity.
type User struct {
	ID          string
	Login       string
	DisplayName string
	Email       string
}

// Name prefers the display name and falls back to the login.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Login
}

// AccountDirectory exposes account membership.
type AccountDirectory interface {
	Members(ctx context.Context, accountID string) ([]string, error)
	Groups(ctx context.Context, accountID string) ([]string, error)
}

// UserDirectory resolves user ids to identities. Unknown ids are
// silently absent from the result.
type UserDirectory interface {
	Users(ctx context.Context, ids []string) ([]User, error)
}

// ItemDirectory exposes the item hierarchy. Ancestors returns the item
// itself plus its full ancestor chain; a missing item yields
// ErrTargetItemMissing.
type ItemDirectory interface {
	Ancestors(ctx context.Context, itemID string) ([]string, error)
	Descendants(ctx context.Context, itemID string) ([]string, error)
	Title(ctx context.Context, itemID string) (string, error)
}

// DomainResolver yields the public read domain of an account, used to
// build reader and editor links.
type DomainResolver interface {
	ReadDomain(ctx context.Context, accountID string) (string, error)
}

// TargetFinder looks up durable notification targets. Satisfied by
// targets.Repository via TargetRepositoryFinder.
type TargetFinder interface {
	FindForItems(ctx context.Context, accountID string, kind notification.Kind, itemIDs []string) ([]targets.Target, error)
}

// TargetRepositoryFinder adapts a targets.Repository to TargetFinder.
type TargetRepositoryFinder struct {
	Repo targets.Repository
}

func (f TargetRepositoryFinder) FindForItems(ctx context.Context, accountID string, kind notification.Kind, itemIDs []string) ([]targets.Target, error) {
	return f.Repo.FindForAccount(ctx, accountID, targets.Filter{Kind: kind, ItemIDs: itemIDs})
}
