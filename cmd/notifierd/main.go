package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/teamdocs/notifier/pkg/alerts"
	"github.com/teamdocs/notifier/pkg/bridge"
	"github.com/teamdocs/notifier/pkg/config"
	"github.com/teamdocs/notifier/pkg/dispatch"
	"github.com/teamdocs/notifier/pkg/httpserver"
	"github.com/teamdocs/notifier/pkg/locks"
	"github.com/teamdocs/notifier/pkg/logger"
	"github.com/teamdocs/notifier/pkg/mailer"
	"github.com/teamdocs/notifier/pkg/mongo"
	"github.com/teamdocs/notifier/pkg/notifier"
	"github.com/teamdocs/notifier/pkg/schedule"
	"github.com/teamdocs/notifier/pkg/sentlog"
	"github.com/teamdocs/notifier/pkg/store"
	"github.com/teamdocs/notifier/pkg/targets"
	"github.com/teamdocs/notifier/pkg/templates"
)

func main() {
	if err := run(); err != nil {
		slog.Error("notifierd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.NewFromConfig(cfg.Log, "notifierd")
	slog.SetDefault(log)

	redisStore, err := store.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisStore.Close()

	mongoClient, err := mongo.New(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.MongoDatabase)

	directory := newDirectoryClient(cfg.DirectoryURL)

	var sender mailer.Sender
	if cfg.Mailer.PostmarkServerToken != "" {
		sender = mailer.MustNewPostmarkSender(cfg.Mailer)
	} else {
		log.Warn("postmark token not set, mail goes to the log only")
		sender = mailer.NewDevSender(log)
	}

	b := bridge.New(redisStore,
		bridge.WithLogger(log),
		bridge.WithAdminChecker(directory.IsAdmin),
	)

	targetRepo := targets.NewMongoRepository(db)
	sentRepo := sentlog.NewMongoRepository(db)

	dispatcher := dispatch.NewDispatcher(
		dispatch.NewTargetResolver(directory, directory, directory, dispatch.TargetRepositoryFinder{Repo: targetRepo}),
		directory, directory, directory,
		sender, sentRepo, log,
		dispatch.WithFromName(cfg.MailFromName),
	)

	svc, err := notifier.New(notifier.Config{
		Bridge:       b,
		Locks:        locks.NewManager(redisStore, locks.WithLogger(log)),
		Dispatcher:   dispatcher,
		Events:       schedule.NewMongoRepository(db),
		Targets:      targetRepo,
		Templates:    templates.NewMongoRepository(db),
		SentLog:      sentRepo,
		Alerts:       alerts.NewMongoRepository(db),
		Items:        directory,
		Admin:        directory.IsAdmin,
		Logger:       log,
		ReclaimAfter: cfg.SweepReclaimAfter,
	})
	if err != nil {
		return err
	}

	go func() {
		if err := b.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("bridge stopped", logger.Error(err))
		}
	}()

	health := httpserver.HealthCheckHandler(ctx, log)
	ready := httpserver.HealthCheckHandler(ctx, log,
		redisStore.Healthcheck(),
		mongo.Healthcheck(mongoClient),
	)
	router := newRouter(&api{svc: svc, log: log}, connectHandler(svc, log), health, ready)

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, router)
}
