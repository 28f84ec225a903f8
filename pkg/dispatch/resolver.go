package dispatch

import (
	"context"
	"fmt"

	"github.com/teamdocs/notifier/pkg/notification"
)

// TargetResolver turns a notification plus account context into the
// concrete recipient list.
type TargetResolver struct {
	accounts AccountDirectory
	users    UserDirectory
	items    ItemDirectory
	finder   TargetFinder
}

// NewTargetResolver wires the resolver's collaborators.
func NewTargetResolver(accounts AccountDirectory, users UserDirectory, items ItemDirectory, finder TargetFinder) *TargetResolver {
	return &TargetResolver{accounts: accounts, users: users, items: items, finder: finder}
}

// Resolve produces the recipients of a notification. Account membership
// is fetched once per call. Custom notifications carry their targets
// explicitly, filtered to ids that are still members or groups of the
// account; every other kind looks durable targets up by the item's full
// ancestor chain, dropping dummy-notifier registrations. Duplicate
// target ids collapse to one recipient.
func (r *TargetResolver) Resolve(ctx context.Context, n notification.Notification) ([]User, error) {
	memberIDs, err := r.accounts.Members(ctx, n.AccountID)
	if err != nil {
		return nil, fmt.Errorf("resolve members: %w", err)
	}
	groupIDs, err := r.accounts.Groups(ctx, n.AccountID)
	if err != nil {
		return nil, fmt.Errorf("resolve groups: %w", err)
	}

	var targetIDs []string
	if n.Kind == notification.KindCustom {
		known := make(map[string]struct{}, len(memberIDs)+len(groupIDs))
		for _, id := range memberIDs {
			known[id] = struct{}{}
		}
		for _, id := range groupIDs {
			known[id] = struct{}{}
		}
		for _, t := range n.Targets {
			if _, ok := known[t.TargetID]; ok {
				targetIDs = append(targetIDs, t.TargetID)
			}
		}
	} else {
		chain, err := r.items.Ancestors(ctx, n.ItemID)
		if err != nil {
			return nil, err
		}
		found, err := r.finder.FindForItems(ctx, n.AccountID, n.Kind, chain)
		if err != nil {
			return nil, fmt.Errorf("resolve targets: %w", err)
		}
		for _, t := range found {
			if t.NotifierKind == notification.NotifierDummy {
				continue
			}
			targetIDs = append(targetIDs, t.TargetID)
		}
	}

	targetIDs = dedupe(targetIDs)
	if len(targetIDs) == 0 {
		return nil, nil
	}
	users, err := r.users.Users(ctx, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve users: %w", err)
	}
	return users, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
