// Package audit publishes auth and account lifecycle events to Kafka. The
// writer sits behind a circuit breaker; audit failures are logged and never
// fail the request that produced them.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"

	"github.com/milan604/ops-admin/pkg/logger"
)

// Event types.
const (
	EventSignin         = "auth.signin"
	EventSignout        = "auth.signout"
	EventRefresh        = "auth.refresh"
	EventAccountCreated = "account.created"
	EventAccountUpdated = "account.updated"
	EventAccountDeleted = "account.deleted"
)

// Event is one audit record.
type Event struct {
	Type      string    `json:"type"`
	ActorID   uint      `json:"actorId"`
	SubjectID uint      `json:"subjectId,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher emits audit events. Implementations must be non-blocking enough
// for the request path.
type Publisher interface {
	Publish(ctx context.Context, e Event)
	Close() error
}

// messageWriter is the slice of kafka.Writer we use; tests swap it.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to one topic through a circuit breaker so a
// dead broker degrades to log-only instead of stalling requests.
type KafkaPublisher struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker[any]
	log     logger.LogManager
}

// Config for the Kafka publisher.
type Config struct {
	Brokers []string
	Topic   string
}

// NewKafkaPublisher connects a publisher to the given brokers and topic.
func NewKafkaPublisher(cfg Config, log logger.LogManager) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		WriteTimeout: 3 * time.Second,
	}
	return newKafkaPublisher(w, log)
}

func newKafkaPublisher(w messageWriter, log logger.LogManager) *KafkaPublisher {
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "audit-kafka",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WarnF("audit: breaker %s: %s -> %s", name, from, to)
		},
	})
	return &KafkaPublisher{writer: w, breaker: breaker, log: log}
}

// Publish sends the event. Errors are swallowed after logging; the breaker
// short-circuits while the broker is down.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	body, err := json.Marshal(e)
	if err != nil {
		p.log.ErrorFCtx(ctx, "audit: marshal event %s: %v", e.Type, err)
		return
	}
	_, err = p.breaker.Execute(func() (any, error) {
		return nil, p.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(e.Type),
			Value: body,
		})
	})
	if err != nil {
		p.log.WarnFCtx(ctx, "audit: publish %s: %v", e.Type, err)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher discards events. Used when auditing is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}

func (NopPublisher) Close() error { return nil }
