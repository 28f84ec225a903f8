package mailer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teamdocs/notifier/pkg/mailer"
)

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		template  string
		variables map[string]string
		want      string
	}{
		{
			name:      "substitutes known tags",
			template:  "Hi [[name]], [[actor]] published [[title]]",
			variables: map[string]string{"name": "Ada", "actor": "Grace", "title": "Manual"},
			want:      "Hi Ada, Grace published Manual",
		},
		{
			name:      "unknown tags untouched",
			template:  "See [[reader_link]]",
			variables: map[string]string{"name": "Ada"},
			want:      "See [[reader_link]]",
		},
		{
			name:     "nil variables",
			template: "plain text",
			want:     "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, mailer.Render(tt.template, tt.variables))
		})
	}
}

func TestBatch_Validate(t *testing.T) {
	t.Parallel()

	valid := mailer.Batch{
		Subject:    "hello",
		Recipients: []mailer.Recipient{{Email: "ada@example.com"}},
	}
	assert.NoError(t, valid.Validate())

	empty := mailer.Batch{Subject: "hello"}
	assert.ErrorIs(t, empty.Validate(), mailer.ErrNoRecipients)

	noSubject := mailer.Batch{Recipients: valid.Recipients}
	assert.ErrorIs(t, noSubject.Validate(), mailer.ErrEmptySubject)

	badEmail := mailer.Batch{Subject: "x", Recipients: []mailer.Recipient{{Email: "not-an-email"}}}
	assert.ErrorIs(t, badEmail.Validate(), mailer.ErrInvalidRecipient)
}

func TestNewPostmarkSender_ConfigValidation(t *testing.T) {
	t.Parallel()

	_, err := mailer.NewPostmarkSender(mailer.Config{})
	assert.ErrorIs(t, err, mailer.ErrInvalidConfig)

	_, err = mailer.NewPostmarkSender(mailer.Config{
		PostmarkServerToken:  "srv",
		PostmarkAccountToken: "acc",
		SenderEmail:          "noreply@example.com",
		SupportEmail:         "support@example.com",
	})
	assert.NoError(t, err)
}
