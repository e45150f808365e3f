package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Mail topics consumed by the mailer service.
const (
	TopicSendWelcomeMail       = "send-welcome-mail"
	TopicSendResetPasswordMail = "send-reset-password-mail"
)

// WelcomeMail is the payload published on first-login account creation.
type WelcomeMail struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetPasswordMail is the payload published on a forgot-password request.
type ResetPasswordMail struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

const publishTimeout = 10 * time.Second

// Emitter publishes notification events to Kafka. Publishes are asynchronous
// and at-most-once: the caller never blocks on or observes the outcome, and
// failures are only logged.
type Emitter struct {
	writer *kafka.Writer
}

// NewEmitter creates a Kafka emitter for the given broker address.
func NewEmitter(brokerAddress, clientId string) *Emitter {
	return &Emitter{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokerAddress),
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireNone,
			Transport:    &kafka.Transport{ClientID: clientId},
		},
	}
}

// Emit serializes the payload and publishes it to the topic in a background
// goroutine. It returns immediately; publish errors are logged, never surfaced.
func (e *Emitter) Emit(topic string, payload any) {
	value, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[notify] failed to marshal payload for %s: %v", topic, err)
		return
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(uuid.NewString()),
		Value: value,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := e.writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("[notify] failed to publish to %s: %v", topic, err)
			return
		}
		log.Printf("[notify] published event to %s", topic)
	}()
}

// Close flushes and closes the underlying Kafka writer.
func (e *Emitter) Close() error {
	return e.writer.Close()
}
