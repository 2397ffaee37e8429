package consumer

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Devkz19/Take-Home-inventory/internal/db"
	"github.com/Devkz19/Take-Home-inventory/internal/models"
)

type settlement struct {
	ack     bool
	requeue bool
}

type fakeAcknowledger struct {
	settled map[uint64]settlement
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.settled[tag] = settlement{ack: true}
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.settled[tag] = settlement{requeue: requeue}
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

type fakeAdjuster struct {
	results map[string]error
	calls   []string
}

func (f *fakeAdjuster) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	f.calls = append(f.calls, id)
	if err := f.results[id]; err != nil {
		return nil, err
	}
	return &models.Product{ID: id, Quantity: 10 + delta}, nil
}

type outcomes []string

func (o *outcomes) MessageConsumed(queue, outcome string) { *o = append(*o, outcome) }

func TestProcessStockAdjusted(t *testing.T) {
	ack := &fakeAcknowledger{settled: map[uint64]settlement{}}
	adjuster := &fakeAdjuster{results: map[string]error{
		"gone":  db.ErrAdjustRejected,
		"flaky": errors.New("connection reset"),
	}}
	var recorded outcomes

	bodies := []string{
		`{"productId":"p1","delta":-3,"reason":"sale"}`,
		`not json`,
		`{"productId":"gone","delta":-1}`,
		`{"productId":"flaky","delta":2}`,
		`{"delta":2}`,
	}

	messages := make(chan amqp.Delivery, len(bodies))
	for i, body := range bodies {
		messages <- amqp.Delivery{Acknowledger: ack, DeliveryTag: uint64(i + 1), Body: []byte(body)}
	}
	close(messages)

	c := NewStockConsumer(adjuster, &recorded, zap.NewNop())
	c.ProcessStockAdjusted(context.Background(), messages)

	assert.Equal(t, settlement{ack: true}, ack.settled[1])
	assert.Equal(t, settlement{}, ack.settled[2])
	assert.Equal(t, settlement{}, ack.settled[3])
	assert.Equal(t, settlement{requeue: true}, ack.settled[4])
	assert.Equal(t, settlement{}, ack.settled[5])
	assert.Len(t, ack.settled, 5)

	assert.Equal(t, []string{"p1", "gone", "flaky"}, adjuster.calls)
	assert.Equal(t, outcomes{"ack", "invalid", "rejected", "requeued", "invalid"}, recorded)
}

func TestProcessStockAdjustedStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		NewStockConsumer(&fakeAdjuster{}, nil, zap.NewNop()).ProcessStockAdjusted(ctx, make(chan amqp.Delivery))
		close(done)
	}()
	<-done
}
