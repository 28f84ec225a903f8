package mailer

import (
	"context"
	"log/slog"
)

// DevSender logs batches instead of delivering them.
type DevSender struct {
	log *slog.Logger
}

// NewDevSender creates a logging sender for development environments.
func NewDevSender(log *slog.Logger) *DevSender {
	if log == nil {
		log = slog.Default()
	}
	return &DevSender{log: log}
}

func (s *DevSender) SendBatch(ctx context.Context, batch Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}
	for _, r := range batch.Recipients {
		s.log.LogAttrs(ctx, slog.LevelInfo, "dev mail",
			slog.String("to", r.Email),
			slog.String("subject", Render(batch.Subject, r.Variables)),
			slog.String("text", Render(batch.Text, r.Variables)),
		)
	}
	return nil
}
