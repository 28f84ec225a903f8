// Package logger builds configured *slog.Logger instances and provides
// attribute constructors for the identifiers that recur across the
// notification core (accounts, users, items, connections).
//
// Components receive a logger through their options and default to
// slog.Default(), so the factory only needs to run once at startup:
//
//	log := logger.New(logger.WithProduction("notifierd"))
//	slog.SetDefault(log)
package logger
