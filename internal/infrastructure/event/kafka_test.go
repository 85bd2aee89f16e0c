package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestMarshalEnvelope(t *testing.T) {
	e := newTestEvent("OrderPlaced")
	data, err := Marshal(e)
	require.NoError(t, err)

	env, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, e.EventID(), env.ID)
	assert.Equal(t, "OrderPlaced", env.Type)
	assert.Equal(t, e.AggregateID(), env.AggregateID)
	assert.Equal(t, "Order", env.AggregateType)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "payload", payload["data"])

	_, err = Unmarshal([]byte(`{"id":"00000000-0000-0000-0000-000000000000"}`))
	assert.Error(t, err)
	_, err = Unmarshal([]byte(`not json`))
	assert.Error(t, err)
}

func TestKafkaForwarder_Handle(t *testing.T) {
	w := &fakeWriter{}
	f := NewKafkaForwarder(w, zaptest.NewLogger(t), "OrderPlaced")
	assert.Equal(t, []string{"OrderPlaced"}, f.EventTypes())

	e := newTestEvent("OrderPlaced")
	require.NoError(t, f.Handle(context.Background(), e))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, e.AggregateID().String(), string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, "OrderPlaced", string(msg.Headers[0].Value))
	assert.Equal(t, "order", string(msg.Headers[1].Value))

	env, err := Unmarshal(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, e.EventID(), env.ID)

	require.NoError(t, f.Close())
	assert.True(t, w.closed)
}

func TestKafkaForwarder_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	err := NewKafkaForwarder(w, nil).Handle(context.Background(), newTestEvent("OrderPlaced"))
	assert.ErrorContains(t, err, "broker unavailable")
}

func TestNewKafkaWriter(t *testing.T) {
	_, err := NewKafkaWriter(config.KafkaConfig{})
	assert.Error(t, err)

	w, err := NewKafkaWriter(config.KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "storefront.events"})
	require.NoError(t, err)
	assert.Equal(t, "storefront.events", w.Topic)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}
