package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/milan604/ops-admin/pkg/logger"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublishEncodesEvent(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, logger.NewNop())

	p.Publish(context.Background(), Event{Type: EventSignin, ActorID: 7})

	require.Len(t, w.messages, 1)
	require.Equal(t, []byte(EventSignin), w.messages[0].Key)

	var e Event
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &e))
	require.Equal(t, EventSignin, e.Type)
	require.EqualValues(t, 7, e.ActorID)
	require.False(t, e.At.IsZero())
}

func TestPublishSwallowsBrokerErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w, logger.NewNop())

	// never panics or returns; repeated failures trip the breaker
	for i := 0; i < 5; i++ {
		p.Publish(context.Background(), Event{Type: EventSignout, ActorID: 1})
	}

	// breaker is open now; a recovered writer is not reached until the
	// breaker times out
	w.err = nil
	p.Publish(context.Background(), Event{Type: EventSignout, ActorID: 1})
	require.Empty(t, w.messages)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	p.Publish(context.Background(), Event{Type: EventRefresh})
	require.NoError(t, p.Close())
}
