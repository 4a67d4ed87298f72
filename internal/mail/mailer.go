// Package mail is the account lifecycle notification sink. Delivery is
// at-most-once and best-effort: messages are queued to a background
// worker, a full queue drops the message and delivery errors are logged
// and swallowed. Account mutations never wait on, or fail because of,
// an email.
package mail

import (
	"github.com/rs/zerolog"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Config struct {
	APIKey      string
	FromName    string
	FromAddress string
	QueueSize   int
}

// Sender is satisfied by *sendgrid.Client.
type Sender interface {
	Send(email *sgmail.SGMailV3) (*rest.Response, error)
}

type message struct {
	toName    string
	toAddress string
	subject   string
	body      string
}

type Mailer struct {
	logger zerolog.Logger
	sender Sender
	from   *sgmail.Email
	queue  chan message
	done   chan struct{}
}

func New(logger zerolog.Logger, cfg Config) *Mailer {
	return NewWithSender(logger, cfg, sendgrid.NewSendClient(cfg.APIKey))
}

func NewWithSender(logger zerolog.Logger, cfg Config, sender Sender) *Mailer {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}

	return &Mailer{
		logger: logger,
		sender: sender,
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		queue:  make(chan message, queueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the delivery worker. It must be called once, before
// any message is queued.
func (m *Mailer) Start() {
	go m.deliver()
}

// Stop closes the queue and waits for the worker to drain what is
// still pending.
func (m *Mailer) Stop() {
	close(m.queue)
	<-m.done
}

func (m *Mailer) SendWelcome(email, name string) {
	m.enqueue(message{
		toName:    name,
		toAddress: email,
		subject:   "Welcome to the task app!",
		body:      "Welcome to the app, " + name + ". Let us know if you like it!",
	})
}

func (m *Mailer) SendCancellation(email, name string) {
	m.enqueue(message{
		toName:    name,
		toAddress: email,
		subject:   "Goodbye!",
		body:      "Goodbye, " + name + ". Let us know why you left!",
	})
}

func (m *Mailer) enqueue(msg message) {
	select {
	case m.queue <- msg:
	default:
		m.logger.Warn().
			Str("subject", msg.subject).
			Msg("mail queue full, dropping message")
	}
}

func (m *Mailer) deliver() {
	defer close(m.done)

	for msg := range m.queue {
		to := sgmail.NewEmail(msg.toName, msg.toAddress)
		email := sgmail.NewSingleEmail(m.from, msg.subject, to, msg.body, msg.body)

		resp, err := m.sender.Send(email)
		if err != nil {
			m.logger.Warn().
				Err(err).
				Str("subject", msg.subject).
				Msg("failed to send mail")
			continue
		}
		if resp.StatusCode >= 400 {
			m.logger.Warn().
				Int("status", resp.StatusCode).
				Str("subject", msg.subject).
				Msg("mail rejected")
			continue
		}

		m.logger.Debug().
			Str("subject", msg.subject).
			Msg("sent mail")
	}
}
