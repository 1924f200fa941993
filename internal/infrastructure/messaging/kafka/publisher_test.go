package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/fitness-backend/internal/domain/order"
	"github.com/your-org/fitness-backend/internal/pkg/logger"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublishEncodesEvent(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, logger.Discard())

	o := &order.Order{
		ID:            17,
		OrderNumber:   "ORD-17",
		UserID:        3,
		Status:        order.OrderStatusConfirmed,
		PaymentStatus: order.PaymentStatusPaid,
		TotalAmount:   decimal.RequireFromString("81.00"),
	}
	require.NoError(t, p.Publish(context.Background(), order.NewEvent(order.EventOrderCreated, o)))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "17", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, order.EventOrderCreated, string(msg.Headers[0].Value))

	var got order.Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "ORD-17", got.OrderNumber)
	assert.Equal(t, order.OrderStatusConfirmed, got.Status)
	assert.True(t, got.TotalAmount.Equal(o.TotalAmount))
	assert.NotEmpty(t, got.ID)
}

func TestPublishWrapsWriterErrors(t *testing.T) {
	p := newPublisher(&fakeWriter{err: errors.New("leader not available")}, logger.Discard())

	err := p.Publish(context.Background(), order.NewEvent(order.EventOrderCancelled, &order.Order{ID: 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}
