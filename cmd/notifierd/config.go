package main

import (
	"time"

	"github.com/teamdocs/notifier/pkg/httpserver"
	"github.com/teamdocs/notifier/pkg/logger"
	"github.com/teamdocs/notifier/pkg/mailer"
	"github.com/teamdocs/notifier/pkg/mongo"
	"github.com/teamdocs/notifier/pkg/store"
)

type appConfig struct {
	Log    logger.Config
	Redis  store.Config
	Mongo  mongo.Config
	HTTP   httpserver.Config
	Mailer mailer.Config

	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"notifier"`

	// DirectoryURL is the base URL of the upstream directory service
	// resolving accounts, users, items and domains.
	DirectoryURL string `env:"DIRECTORY_URL,required"`

	// MailFromName is the display name on outgoing notification mail.
	MailFromName string `env:"MAIL_FROM_NAME" envDefault:"Notifications"`

	// SweepReclaimAfter, when positive, lets a sweep recover scheduled
	// events claimed by a process that crashed mid-dispatch.
	SweepReclaimAfter time.Duration `env:"SWEEP_RECLAIM_AFTER" envDefault:"0"`
}
