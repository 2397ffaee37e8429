package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Devkz19/Take-Home-inventory/internal/models"
)

type recordingQueue struct {
	declared   []string
	published  map[string][][]byte
	declareErr error
}

func (q *recordingQueue) DeclareQueue(name string) error {
	q.declared = append(q.declared, name)
	return q.declareErr
}

func (q *recordingQueue) Publish(ctx context.Context, queue string, message []byte) error {
	if q.published == nil {
		q.published = map[string][][]byte{}
	}
	q.published[queue] = append(q.published[queue], message)
	return nil
}

func TestPublishProductEvent(t *testing.T) {
	q := &recordingQueue{}
	p, err := NewProductPublisher(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"product.events"}, q.declared)

	product := &models.Product{ID: "p1", Owner: "alice", Name: "Pen", Category: "Stationery", Quantity: 10, Price: 2}
	require.NoError(t, p.PublishProductEvent(context.Background(), models.NewProductEvent(models.ProductCreated, product)))

	require.Len(t, q.published["product.events"], 1)
	var got models.ProductEvent
	require.NoError(t, json.Unmarshal(q.published["product.events"][0], &got))
	assert.Equal(t, "product.created", got.Type)
	assert.Equal(t, "p1", got.ProductID)
	assert.Equal(t, "alice", got.Owner)
	assert.Equal(t, 10, got.Quantity)
}

func TestNewProductPublisherDeclareFailure(t *testing.T) {
	_, err := NewProductPublisher(&recordingQueue{declareErr: errors.New("channel closed")})
	assert.Error(t, err)
}
