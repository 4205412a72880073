// Package mailer delivers transactional email.  The HTTP process never
// talks SMTP: messages are queued on RabbitMQ for a separate sender.
package mailer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/queue"
)

// Message is one outgoing email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// JSONPublisher is the part of queue.Publisher the queue mailer needs.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, exchange, key string, v any) error
}

// QueueMailer publishes messages to the mail.outgoing queue.
type QueueMailer struct {
	pub JSONPublisher
}

func NewQueueMailer(pub JSONPublisher) *QueueMailer { return &QueueMailer{pub: pub} }

func (m *QueueMailer) Send(ctx context.Context, msg Message) error {
	// default exchange: routing key is the queue name
	return m.pub.PublishJSON(ctx, "", queue.MailQueue, msg)
}

// LogMailer writes messages to the log instead of sending them.  Used in
// development and when no broker is configured.
type LogMailer struct {
	log logrus.FieldLogger
}

func NewLogMailer(log logrus.FieldLogger) *LogMailer { return &LogMailer{log: log} }

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info(msg.Body)
	return nil
}
