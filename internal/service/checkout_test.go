package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/pricing"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/repository"
	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/validator"
)

// --- Test Doubles ---

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, order domain.Order) (*domain.OrderReceipt, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderReceipt), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) PublishOrderPlaced(ctx context.Context, evt domain.OrderPlaced) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// blockingSubmitter waits for release or cancellation.
type blockingSubmitter struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingSubmitter() *blockingSubmitter {
	return &blockingSubmitter{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingSubmitter) Submit(ctx context.Context, order domain.Order) (*domain.OrderReceipt, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
		return &domain.OrderReceipt{OrderID: order.ID, Reference: "REF-1", AcceptedAt: time.Now()}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// gatedStore holds snapshot writes once armed until release is closed.
type gatedStore struct {
	*countingStore
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{countingStore: newCountingStore(), entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gatedStore) hold() {
	if !g.armed.Load() {
		return
	}
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
}

func (g *gatedStore) Save(ctx context.Context, sessionID string, lines []domain.CartLine) error {
	g.hold()
	return g.countingStore.Save(ctx, sessionID, lines)
}

func (g *gatedStore) Delete(ctx context.Context, sessionID string) error {
	g.hold()
	return g.countingStore.Delete(ctx, sessionID)
}

// --- Test Helpers ---

func validShipping() domain.ShippingDetails {
	return domain.ShippingDetails{
		Name:       "Ada Lovelace",
		Email:      "ada@example.com",
		Address:    "12 Analytical Row",
		City:       "London",
		PostalCode: "N1 9GU",
		Country:    "UK",
		Phone:      "+44 20 7946 0000",
	}
}

func newTestCheckout(t *testing.T, submitter OrderSubmitter, notifier OrderNotifier) (*CheckoutService, *CartService) {
	t.Helper()
	return newTestCheckoutWithStore(t, newCountingStore(), submitter, notifier)
}

func newTestCheckoutWithStore(t *testing.T, store repository.CartStore, submitter OrderSubmitter, notifier OrderNotifier) (*CheckoutService, *CartService) {
	t.Helper()
	carts := NewCartService(store, newTestCatalog(t), nil, 0, newTestLogger())
	return NewCheckoutService(carts, submitter, notifier, DefaultShippingFee, newTestLogger()), carts
}

func fillCart(t *testing.T, carts *CartService) {
	t.Helper()
	ctx := context.Background()
	_, err := carts.AddProduct(ctx, "s1", "1", 2)
	require.NoError(t, err)
	_, err = carts.AddProduct(ctx, "s1", "2", 1)
	require.NoError(t, err)
}

func receipt() *domain.OrderReceipt {
	return &domain.OrderReceipt{OrderID: "o-1", Reference: "FFH-0001", AcceptedAt: time.Now()}
}

// --- Tests ---

func TestComputeTotal(t *testing.T) {
	svc, _ := newTestCheckout(t, new(mockSubmitter), nil)
	assert.Equal(t, pricing.Cents(3948), svc.ComputeTotal(3448))
	assert.Equal(t, pricing.Cents(500), svc.ComputeTotal(0))
}

func TestQuote_EmptyCart(t *testing.T) {
	svc, _ := newTestCheckout(t, new(mockSubmitter), nil)

	q, err := svc.Quote(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, q.Empty)
	assert.Equal(t, domain.CheckoutEditing, q.State)
	assert.Zero(t, q.Total)
	assert.Zero(t, q.ShippingFee)
}

func TestQuote_WithLines(t *testing.T) {
	svc, carts := newTestCheckout(t, new(mockSubmitter), nil)
	fillCart(t, carts)

	q, err := svc.Quote(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, q.Empty)
	assert.Equal(t, 3, q.ItemCount)
	assert.Equal(t, pricing.Cents(3448), q.Subtotal)
	assert.Equal(t, pricing.Cents(3948), q.Total)
}

func TestSubmit_Success(t *testing.T) {
	submitter := new(mockSubmitter)
	notifier := new(mockNotifier)
	svc, carts := newTestCheckout(t, submitter, notifier)
	fillCart(t, carts)
	ctx := context.Background()

	submitter.On("Submit", mock.Anything, mock.MatchedBy(func(o domain.Order) bool {
		return o.SessionID == "s1" && o.ItemCount == 3 && o.Total == 3948 && len(o.Lines) == 2
	})).Return(receipt(), nil).Once()
	notifier.On("PublishOrderPlaced", mock.Anything, mock.MatchedBy(func(e domain.OrderPlaced) bool {
		return e.Total == 3948 && e.ItemCount == 3 && e.Reference == "FFH-0001"
	})).Return(nil).Once()

	result, err := svc.Submit(ctx, "s1", SubmitInput{Shipping: validShipping(), CustomerEmail: "ada@example.com"})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeAcknowledged, result.Outcome)
	assert.Equal(t, OrderPlacedMessage, result.Message)
	assert.Equal(t, OrderPlacedDescription, result.Description)
	assert.Equal(t, "/", result.Redirect)
	assert.Equal(t, "FFH-0001", result.Reference)
	assert.Contains(t, result.Greeting, "ada@example.com")
	for _, step := range result.Steps {
		assert.Equal(t, domain.SagaStepCompleted, step.Status, step.Name)
	}

	snap, err := carts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
	assert.Equal(t, domain.CheckoutSucceeded, svc.Status("s1").State)

	submitter.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSubmit_ValidationError(t *testing.T) {
	submitter := new(mockSubmitter)
	svc, carts := newTestCheckout(t, submitter, nil)
	fillCart(t, carts)

	shipping := validShipping()
	shipping.City = "  "
	shipping.Email = "not-an-email"

	_, err := svc.Submit(context.Background(), "s1", SubmitInput{Shipping: shipping})
	var verr *validator.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields(), "city")
	assert.Contains(t, verr.Fields(), "email")

	snap, err := carts.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, snap.ItemCount)
	submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestSubmit_EmptyCart(t *testing.T) {
	submitter := new(mockSubmitter)
	svc, _ := newTestCheckout(t, submitter, nil)

	_, err := svc.Submit(context.Background(), "s1", SubmitInput{Shipping: validShipping()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, domain.CheckoutEditing, svc.Status("s1").State)
	submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestSubmit_FailureKeepsCart(t *testing.T) {
	submitter := new(mockSubmitter)
	notifier := new(mockNotifier)
	svc, carts := newTestCheckout(t, submitter, notifier)
	fillCart(t, carts)
	ctx := context.Background()

	submitter.On("Submit", mock.Anything, mock.Anything).Return(nil, errors.New("backend down")).Once()

	_, err := svc.Submit(ctx, "s1", SubmitInput{Shipping: validShipping()})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ORDER_SUBMISSION_FAILED", appErr.Code)
	assert.Equal(t, 502, apperrors.HTTPStatus(err))

	snap, err := carts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{tempeh(2), chocolate(1)}, snap.Lines)

	status := svc.Status("s1")
	assert.Equal(t, domain.CheckoutFailed, status.State)
	require.NotNil(t, status.LastResult)
	assert.Equal(t, domain.OutcomeFailed, status.LastResult.Outcome)
	assert.Equal(t, domain.SagaStepFailed, status.LastResult.Steps[0].Status)
	assert.Equal(t, "backend down", status.LastResult.Steps[0].Error)
	assert.Equal(t, domain.SagaStepPending, status.LastResult.Steps[1].Status)

	notifier.AssertNotCalled(t, "PublishOrderPlaced", mock.Anything, mock.Anything)
}

func TestSubmit_FailedIsRetryable(t *testing.T) {
	submitter := new(mockSubmitter)
	svc, carts := newTestCheckout(t, submitter, nil)
	fillCart(t, carts)
	ctx := context.Background()

	submitter.On("Submit", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
	submitter.On("Submit", mock.Anything, mock.Anything).Return(receipt(), nil).Once()

	_, err := svc.Submit(ctx, "s1", SubmitInput{Shipping: validShipping()})
	require.Error(t, err)

	result, err := svc.Submit(ctx, "s1", SubmitInput{Shipping: validShipping()})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ItemCount)
	submitter.AssertExpectations(t)
}

func TestSubmit_DoubleSubmitRejected(t *testing.T) {
	submitter := newBlockingSubmitter()
	svc, carts := newTestCheckout(t, submitter, nil)
	fillCart(t, carts)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, "s1", SubmitInput{Shipping: validShipping()})
		done <- err
	}()
	<-submitter.started

	_, err := svc.Submit(ctx, "s1", SubmitInput{Shipping: validShipping()})
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CHECKOUT_IN_PROGRESS", appErr.Code)
	assert.Equal(t, 409, appErr.Status)
	assert.Equal(t, domain.CheckoutSubmitting, svc.Status("s1").State)
	assert.Nil(t, svc.Status("s1").LastResult)

	close(submitter.release)
	require.NoError(t, <-done)
}

func TestSubmit_CartStaysVisibleWhileSubmitting(t *testing.T) {
	submitter := newBlockingSubmitter()
	store := newCountingStore()
	svc, carts := newTestCheckoutWithStore(t, store, submitter, nil)
	fillCart(t, carts)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, "s1", SubmitInput{Shipping: validShipping()})
		done <- err
	}()
	<-submitter.started

	q, err := svc.Quote(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutSubmitting, q.State)
	assert.False(t, q.Empty)
	assert.Equal(t, 3, q.ItemCount)
	assert.Equal(t, pricing.Cents(3948), q.Total)

	stored, err := store.CartStore.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{tempeh(2), chocolate(1)}, stored)

	close(submitter.release)
	require.NoError(t, <-done)

	q, err = svc.Quote(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, q.Empty)
	_, err = store.CartStore.Load(ctx, "s1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestSubmit_KeepsUnitsAddedWhileSubmitting(t *testing.T) {
	submitter := newBlockingSubmitter()
	svc, carts := newTestCheckout(t, submitter, nil)
	fillCart(t, carts)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, "s1", SubmitInput{Shipping: validShipping()})
		done <- err
	}()
	<-submitter.started

	_, err := carts.AddProduct(ctx, "s1", "2", 2)
	require.NoError(t, err)

	close(submitter.release)
	require.NoError(t, <-done)

	snap, err := carts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{chocolate(2)}, snap.Lines)
}

func TestSubmit_SlowStoreDoesNotBlockOtherSessions(t *testing.T) {
	submitter := new(mockSubmitter)
	store := newGatedStore()
	svc, carts := newTestCheckoutWithStore(t, store, submitter, nil)
	fillCart(t, carts)
	ctx := context.Background()

	submitter.On("Submit", mock.Anything, mock.Anything).Return(receipt(), nil).Once()
	store.armed.Store(true)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, "s1", SubmitInput{Shipping: validShipping()})
		done <- err
	}()
	<-store.entered

	status := make(chan CheckoutStatus, 1)
	go func() { status <- svc.Status("other-session") }()
	select {
	case st := <-status:
		assert.Equal(t, domain.CheckoutEditing, st.State)
	case <-time.After(time.Second):
		t.Fatal("status of another session waited on a cart write")
	}
	assert.False(t, svc.Cancel("other-session"))

	close(store.release)
	require.NoError(t, <-done)
}

func TestSubmit_PendingCartWriteDoesNotBlockOtherSessions(t *testing.T) {
	submitter := new(mockSubmitter)
	store := newGatedStore()
	svc, carts := newTestCheckoutWithStore(t, store, submitter, nil)
	fillCart(t, carts)
	ctx := context.Background()

	submitter.On("Submit", mock.Anything, mock.Anything).Return(receipt(), nil).Once()
	store.armed.Store(true)

	added := make(chan error, 1)
	go func() {
		_, err := carts.AddProduct(ctx, "s1", "1", 1)
		added <- err
	}()
	<-store.entered

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, "s1", SubmitInput{Shipping: validShipping()})
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)

	status := make(chan CheckoutStatus, 1)
	go func() { status <- svc.Status("other-session") }()
	select {
	case st := <-status:
		assert.Equal(t, domain.CheckoutEditing, st.State)
	case <-time.After(time.Second):
		t.Fatal("status of another session waited on a cart write")
	}

	close(store.release)
	require.NoError(t, <-added)
	require.NoError(t, <-done)
	submitter.AssertExpectations(t)
}

func TestCheckoutService_ForgetsIdleSessions(t *testing.T) {
	carts := NewCartService(newCountingStore(), newTestCatalog(t), nil, time.Hour, newTestLogger())
	svc := NewCheckoutService(carts, new(mockSubmitter), nil, DefaultShippingFee, newTestLogger())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		_, err := svc.Submit(ctx, id, SubmitInput{Shipping: validShipping()})
		require.Error(t, err)
	}
	assert.Equal(t, 2, svc.SessionCount())

	now = now.Add(2 * time.Hour)
	_, err := svc.Submit(ctx, "c", SubmitInput{Shipping: validShipping()})
	require.Error(t, err)
	assert.Equal(t, 1, svc.SessionCount())
	assert.Equal(t, domain.CheckoutEditing, svc.Status("a").State)
}

func TestSubmit_CancelKeepsCart(t *testing.T) {
	submitter := newBlockingSubmitter()
	svc, carts := newTestCheckout(t, submitter, nil)
	fillCart(t, carts)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, "s1", SubmitInput{Shipping: validShipping()})
		done <- err
	}()
	<-submitter.started

	assert.True(t, svc.Cancel("s1"))
	err := <-done

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CHECKOUT_CANCELED", appErr.Code)

	snap, err := carts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, snap.ItemCount)
	assert.Equal(t, domain.CheckoutFailed, svc.Status("s1").State)
	assert.False(t, svc.Cancel("s1"))
}

func TestSubmit_RequestContextCanceled(t *testing.T) {
	submitter := newBlockingSubmitter()
	svc, carts := newTestCheckout(t, submitter, nil)
	fillCart(t, carts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(ctx, "s1", SubmitInput{Shipping: validShipping()})
		done <- err
	}()
	<-submitter.started
	cancel()

	err := <-done
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CHECKOUT_CANCELED", appErr.Code)

	snap, err := carts.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, snap.ItemCount)
}

func TestSubmit_IdempotencyKeyReplays(t *testing.T) {
	submitter := new(mockSubmitter)
	notifier := new(mockNotifier)
	svc, carts := newTestCheckout(t, submitter, notifier)
	fillCart(t, carts)
	ctx := context.Background()

	submitter.On("Submit", mock.Anything, mock.Anything).Return(receipt(), nil).Once()
	notifier.On("PublishOrderPlaced", mock.Anything, mock.Anything).Return(nil).Once()

	in := SubmitInput{Shipping: validShipping(), IdempotencyKey: "key-1"}
	first, err := svc.Submit(ctx, "s1", in)
	require.NoError(t, err)

	second, err := svc.Submit(ctx, "s1", in)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.OrderID, second.OrderID)

	submitter.AssertNumberOfCalls(t, "Submit", 1)
	notifier.AssertNumberOfCalls(t, "PublishOrderPlaced", 1)
}

func TestSubmit_NotifyFailureKeepsOrder(t *testing.T) {
	submitter := new(mockSubmitter)
	notifier := new(mockNotifier)
	svc, carts := newTestCheckout(t, submitter, notifier)
	fillCart(t, carts)

	submitter.On("Submit", mock.Anything, mock.Anything).Return(receipt(), nil).Once()
	notifier.On("PublishOrderPlaced", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	result, err := svc.Submit(context.Background(), "s1", SubmitInput{Shipping: validShipping()})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAcknowledged, result.Outcome)
	assert.Equal(t, domain.SagaStepFailed, result.Steps[2].Status)
	assert.Equal(t, domain.CheckoutSucceeded, svc.Status("s1").State)
}

func TestSubmit_NilReceiptIsFailure(t *testing.T) {
	submitter := new(mockSubmitter)
	svc, carts := newTestCheckout(t, submitter, nil)
	fillCart(t, carts)

	submitter.On("Submit", mock.Anything, mock.Anything).Return(nil, nil).Once()

	_, err := svc.Submit(context.Background(), "s1", SubmitInput{Shipping: validShipping()})
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
}

func TestCancel_NothingInFlight(t *testing.T) {
	svc, _ := newTestCheckout(t, new(mockSubmitter), nil)
	assert.False(t, svc.Cancel("s1"))
}
