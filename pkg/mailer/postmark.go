package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

type postmarkSender struct {
	client *postmark.Client
	config Config
}

// NewPostmarkSender creates a Postmark-backed batch sender. All tokens and
// addresses are validated up front; a broken mail configuration should stop
// the process before it starts serving.
func NewPostmarkSender(cfg Config) (Sender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: PostmarkAccountToken is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}
	return &postmarkSender{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		config: cfg,
	}, nil
}

// MustNewPostmarkSender is NewPostmarkSender that panics on invalid config.
func MustNewPostmarkSender(cfg Config) Sender {
	sender, err := NewPostmarkSender(cfg)
	if err != nil {
		panic(err)
	}
	return sender
}

// SendBatch renders the message per recipient and delivers it through
// Postmark's batch API. One failed message fails the whole batch so the
// caller can log and, for scheduled sends, retry.
func (s *postmarkSender) SendBatch(ctx context.Context, batch Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}

	from := s.config.SenderEmail
	if batch.FromName != "" {
		from = fmt.Sprintf("%s <%s>", batch.FromName, s.config.SenderEmail)
	}

	emails := make([]postmark.Email, 0, len(batch.Recipients))
	for _, r := range batch.Recipients {
		emails = append(emails, postmark.Email{
			From:     from,
			ReplyTo:  s.config.SupportEmail,
			To:       r.Email,
			Subject:  Render(batch.Subject, r.Variables),
			TextBody: Render(batch.Text, r.Variables),
			HTMLBody: Render(batch.HTML, r.Variables),
			Tag:      batch.Tag,
		})
	}

	responses, err := s.client.SendEmailBatch(ctx, emails)
	if err != nil {
		return errors.Join(ErrFailedToSend, err)
	}
	for _, resp := range responses {
		if resp.ErrorCode > 0 {
			return errors.Join(
				ErrFailedToSend,
				fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
			)
		}
	}
	return nil
}
