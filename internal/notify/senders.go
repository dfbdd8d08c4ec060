package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPConfig configures the mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends plain-text mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender builds a sender; no connection is opened until Send.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) message(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return m
}

// Send dials the relay and delivers msg.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.message(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// Publisher is the subset of the redis client used for publishing.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Envelope wraps a published notification.
type Envelope struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Message   `json:"payload"`
}

// RedisPublisher hands notifications to a mail worker over Redis pub/sub.
type RedisPublisher struct {
	client  Publisher
	channel string
}

// NewRedisPublisher publishes on channel.
func NewRedisPublisher(client Publisher, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Send publishes msg as a JSON envelope.
func (p *RedisPublisher) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(Envelope{
		ID:        uuid.NewString(),
		Type:      "notification",
		Timestamp: time.Now().UTC(),
		Payload:   msg,
	})
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}

// LogSender writes notifications to the log instead of delivering them.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender returns a LogSender.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("notification",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
