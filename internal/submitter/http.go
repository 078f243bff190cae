package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/httpclient"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/logger"
)

// HTTPDoer executes outbound requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// backendName qualifies errors returned by the order backend.
const backendName = "order backend"

// HTTP posts orders as JSON to an order backend.
type HTTP struct {
	client   HTTPDoer
	endpoint string
	logger   *slog.Logger
}

// NewHTTP creates a submitter posting to endpoint.
func NewHTTP(client HTTPDoer, endpoint string, logger *slog.Logger) *HTTP {
	return &HTTP{client: client, endpoint: endpoint, logger: logger}
}

// Submit posts order and decodes the receipt from a 2xx response. Any other
// status is translated through httpclient.ParseResponseError.
func (h *HTTP) Submit(ctx context.Context, order domain.Order) (*domain.OrderReceipt, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	// Retries reuse the key so the backend can drop duplicates.
	key := order.IdempotencyKey
	if key == "" {
		key = order.ID
	}
	req.Header.Set("Idempotency-Key", key)
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}

	resp, err := h.client.Do(ctx, req)
	if err != nil {
		if errors.Is(err, httpclient.ErrCircuitOpen) || errors.Is(err, httpclient.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s unavailable: %w", backendName, err)
		}
		return nil, fmt.Errorf("call %s: %w", backendName, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if httpclient.IsClientError(resp.StatusCode) {
			h.logger.WarnContext(ctx, "order rejected by backend",
				slog.String("order_id", order.ID),
				slog.Int("status", resp.StatusCode),
			)
		}
		return nil, httpclient.ParseResponseError(resp, backendName)
	}
	defer resp.Body.Close()

	var receipt domain.OrderReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("decode order receipt: %w", err)
	}
	if receipt.OrderID == "" {
		receipt.OrderID = order.ID
	}
	if receipt.Reference == "" {
		receipt.Reference = Reference(receipt.OrderID)
	}
	if receipt.AcceptedAt.IsZero() {
		receipt.AcceptedAt = time.Now().UTC()
	}

	h.logger.InfoContext(ctx, "order accepted by backend",
		slog.String("order_id", receipt.OrderID),
		slog.String("reference", receipt.Reference),
		slog.Int("status", resp.StatusCode),
	)
	return &receipt, nil
}
