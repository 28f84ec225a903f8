package mailer

import (
	"context"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Recipient is one addressee in a batch, with the variables substituted
// into the message for this recipient only.
type Recipient struct {
	Email     string
	Variables map[string]string
}

// Batch is one templated send to many recipients.
type Batch struct {
	FromName   string
	Subject    string
	Text       string
	HTML       string
	Tag        string
	Recipients []Recipient
}

// Validate checks the batch before contacting the transport.
func (b Batch) Validate() error {
	if len(b.Recipients) == 0 {
		return ErrNoRecipients
	}
	if b.Subject == "" {
		return ErrEmptySubject
	}
	for _, r := range b.Recipients {
		if !emailRegex.MatchString(r.Email) {
			return ErrInvalidRecipient
		}
	}
	return nil
}

// Sender delivers notification mail. Implementations must treat the batch
// as best-effort: a failed batch may be retried by the caller, so sends
// should be idempotent from the recipient's point of view where possible.
type Sender interface {
	SendBatch(ctx context.Context, batch Batch) error
}

// Render substitutes [[name]] placeholders in the template with the given
// variables. Unknown placeholders are left untouched.
func Render(template string, variables map[string]string) string {
	if len(variables) == 0 {
		return template
	}
	pairs := make([]string, 0, len(variables)*2)
	for name, value := range variables {
		pairs = append(pairs, "[["+name+"]]", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
