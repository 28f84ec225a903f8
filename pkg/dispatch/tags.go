package dispatch

import (
	"context"
	"fmt"
	"regexp"

	"github.com/teamdocs/notifier/pkg/notification"
)

// Supported template tags.
const (
	TagActor      = "actor"
	TagEditorLink = "editor_link"
	TagReaderLink = "reader_link"
	TagTitle      = "title"
	TagName       = "name"
)

var tagPattern = regexp.MustCompile(`\[\[([a-z_]+)\]\]`)

// FindTags scans raw template strings for [[tag]] occurrences and returns
// the union of tag names, in first-seen order.
func FindTags(texts ...string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
			if _, ok := seen[m[1]]; ok {
				continue
			}
			seen[m[1]] = struct{}{}
			out = append(out, m[1])
		}
	}
	return out
}

// Tags resolves template tag values for one dispatch. The actor, title
// and link tags are computed once and reused for every recipient in the
// batch; name is recomputed per recipient because caching it would leak
// one recipient's name to all others. Create a fresh Tags per dispatch.
type Tags struct {
	users   UserDirectory
	items   ItemDirectory
	domains DomainResolver
	n       notification.Notification

	memo   map[string]string
	domain *string
}

// NewTags creates the per-dispatch tag resolver.
func NewTags(users UserDirectory, items ItemDirectory, domains DomainResolver, n notification.Notification) *Tags {
	return &Tags{
		users:   users,
		items:   items,
		domains: domains,
		n:       n,
		memo:    make(map[string]string),
	}
}

// Resolve returns the value of one tag for one recipient.
func (t *Tags) Resolve(ctx context.Context, tag string, recipient User) (string, error) {
	if tag == TagName {
		return recipient.Name(), nil
	}
	if v, ok := t.memo[tag]; ok {
		return v, nil
	}
	var (
		v   string
		err error
	)
	switch tag {
	case TagActor:
		v, err = t.actor(ctx)
	case TagTitle:
		v, err = t.items.Title(ctx, t.n.ItemID)
	case TagEditorLink:
		var domain string
		if domain, err = t.readDomain(ctx); err == nil {
			v = fmt.Sprintf("https://%s/editor/documents/%s", domain, t.n.ItemID)
		}
	case TagReaderLink:
		var domain string
		if domain, err = t.readDomain(ctx); err == nil {
			v = fmt.Sprintf("https://%s/read/%s", domain, t.n.ItemID)
		}
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedTag, tag)
	}
	if err != nil {
		return "", fmt.Errorf("resolve tag %q: %w", tag, err)
	}
	t.memo[tag] = v
	return v, nil
}

func (t *Tags) actor(ctx context.Context) (string, error) {
	if t.n.ActorID == "" {
		return "", nil
	}
	users, err := t.users.Users(ctx, []string{t.n.ActorID})
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", nil
	}
	return users[0].Name(), nil
}

// readDomain is fetched once and shared by both link tags.
func (t *Tags) readDomain(ctx context.Context) (string, error) {
	if t.domain != nil {
		return *t.domain, nil
	}
	domain, err := t.domains.ReadDomain(ctx, t.n.AccountID)
	if err != nil {
		return "", err
	}
	t.domain = &domain
	return domain, nil
}
