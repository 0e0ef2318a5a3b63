// Package logger builds slog loggers from environment configuration and
// provides nil-safe attribute helpers for common logging patterns.
//
//	log := logger.New(logger.Config{Level: "debug", Format: "json"})
//	log.Info("certificate issued", logger.Component("keeper"), logger.Error(err))
package logger
