package app

import (
	"github.com/feanor306/task-app-api/internal/config"
	"github.com/feanor306/task-app-api/internal/mail"
)

var globalMailer *mail.Mailer

func MustStartMailer() {
	cfg := config.Global().Mail

	globalMailer = mail.New(globalLogger, mail.Config{
		APIKey:      cfg.APIKey,
		FromName:    cfg.FromName,
		FromAddress: cfg.FromAddress,
		QueueSize:   cfg.QueueSize,
	})
	globalMailer.Start()

	globalLogger.Info().Msg("started mailer")
}

func StopMailer() {
	globalMailer.Stop()
	globalLogger.Info().Msg("stopped mailer")
}
