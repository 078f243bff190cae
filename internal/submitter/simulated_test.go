package submitter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOrder() domain.Order {
	return domain.Order{
		ID:        "0b9c5e2a-41f7-4c8e-9d0a-6f1e2b3c4d5e",
		SessionID: "s1",
		Lines: []domain.CartLine{
			{ID: "1", Name: "Artisanal Tempeh", UnitPrice: 1299, Quantity: 2},
		},
		ItemCount:   2,
		Subtotal:    2598,
		ShippingFee: 500,
		Total:       3098,
	}
}

func TestReference(t *testing.T) {
	assert.Equal(t, "FFH-0B9C5E2A", Reference("0b9c5e2a-41f7-4c8e-9d0a-6f1e2b3c4d5e"))
	assert.Equal(t, "FFH-AB", Reference("ab"))
}

func TestSimulated_AcknowledgesAfterDelay(t *testing.T) {
	s := NewSimulated(20*time.Millisecond, testLogger())

	start := time.Now()
	receipt, err := s.Submit(context.Background(), testOrder())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, testOrder().ID, receipt.OrderID)
	assert.Equal(t, "FFH-0B9C5E2A", receipt.Reference)
	assert.False(t, receipt.AcceptedAt.IsZero())
}

func TestSimulated_ZeroDelay(t *testing.T) {
	receipt, err := NewSimulated(0, testLogger()).Submit(context.Background(), testOrder())
	require.NoError(t, err)
	assert.NotNil(t, receipt)
}

func TestSimulated_Canceled(t *testing.T) {
	s := NewSimulated(time.Minute, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	receipt, err := s.Submit(ctx, testOrder())
	assert.Nil(t, receipt)
	assert.True(t, errors.Is(err, context.Canceled))
}
