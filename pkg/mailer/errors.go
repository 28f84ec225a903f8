package mailer

import "errors"

var (
	ErrInvalidConfig    = errors.New("mailer: invalid configuration")
	ErrNoRecipients     = errors.New("mailer: batch has no recipients")
	ErrEmptySubject     = errors.New("mailer: subject cannot be empty")
	ErrInvalidRecipient = errors.New("mailer: invalid recipient email address")
	ErrFailedToSend     = errors.New("mailer: failed to send email")
)
