package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/pricing"
	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/validator"
)

// DefaultShippingFee is the flat fee added to every order.
const DefaultShippingFee pricing.Cents = 500

// Messages shown after an acknowledged order.
const (
	OrderPlacedMessage     = "Order Placed Successfully"
	OrderPlacedDescription = "You will receive a confirmation email shortly."
	OrderPlacedRedirect    = "/"
)

// OrderSubmitter hands an order to whatever accepts it.
type OrderSubmitter interface {
	Submit(ctx context.Context, order domain.Order) (*domain.OrderReceipt, error)
}

// OrderNotifier announces acknowledged orders.
type OrderNotifier interface {
	PublishOrderPlaced(ctx context.Context, evt domain.OrderPlaced) error
}

// SubmitInput holds the parameters of a checkout submission.
type SubmitInput struct {
	Shipping       domain.ShippingDetails
	IdempotencyKey string
	CustomerEmail  string
}

// SubmitResult describes a finished submission.
type SubmitResult struct {
	Outcome     domain.SubmitOutcome `json:"outcome"`
	OrderID     string               `json:"order_id,omitempty"`
	Reference   string               `json:"reference,omitempty"`
	ItemCount   int                  `json:"item_count"`
	Subtotal    pricing.Cents        `json:"subtotal"`
	ShippingFee pricing.Cents        `json:"shipping_fee"`
	Total       pricing.Cents        `json:"total"`
	Message     string               `json:"message,omitempty"`
	Description string               `json:"description,omitempty"`
	Greeting    string               `json:"greeting,omitempty"`
	Redirect    string               `json:"redirect,omitempty"`
	Error       string               `json:"error,omitempty"`
	Replayed    bool                 `json:"replayed,omitempty"`
	Steps       []domain.SagaStep    `json:"steps"`
}

// Quote is the checkout view of a session cart.
type Quote struct {
	SessionID   string               `json:"session_id"`
	State       domain.CheckoutState `json:"state"`
	Empty       bool                 `json:"empty"`
	Lines       []domain.CartLine    `json:"lines"`
	ItemCount   int                  `json:"item_count"`
	Subtotal    pricing.Cents        `json:"subtotal"`
	ShippingFee pricing.Cents        `json:"shipping_fee"`
	Total       pricing.Cents        `json:"total"`
}

// CheckoutStatus is the state machine position of a session.
type CheckoutStatus struct {
	State      domain.CheckoutState `json:"state"`
	LastResult *SubmitResult        `json:"last_result,omitempty"`
	LastError  string               `json:"last_error,omitempty"`
}

type checkoutSession struct {
	state      domain.CheckoutState
	cancel     context.CancelFunc
	lastKey    string
	lastResult *SubmitResult
	lastError  string
	lastSeen   time.Time
}

// CheckoutService runs the per-session checkout state machine.
type CheckoutService struct {
	carts       *CartService
	submitter   OrderSubmitter
	notifier    OrderNotifier
	logger      *slog.Logger
	shippingFee pricing.Cents
	now         func() time.Time

	mu        sync.Mutex
	sessions  map[string]*checkoutSession
	lastSweep time.Time
}

// NewCheckoutService creates a checkout service. notifier may be nil.
func NewCheckoutService(
	carts *CartService,
	submitter OrderSubmitter,
	notifier OrderNotifier,
	shippingFee pricing.Cents,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:       carts,
		submitter:   submitter,
		notifier:    notifier,
		logger:      logger,
		shippingFee: shippingFee,
		now:         time.Now,
		sessions:    make(map[string]*checkoutSession),
	}
}

// ComputeTotal returns subtotal plus the shipping fee.
func (s *CheckoutService) ComputeTotal(subtotal pricing.Cents) pricing.Cents {
	return subtotal + s.shippingFee
}

// ShippingFee returns the flat shipping fee.
func (s *CheckoutService) ShippingFee() pricing.Cents {
	return s.shippingFee
}

// Quote prices the session cart. An empty cart yields an empty quote with
// zero totals.
func (s *CheckoutService) Quote(ctx context.Context, sessionID string) (*Quote, error) {
	snap, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		SessionID: sessionID,
		State:     s.Status(sessionID).State,
		Empty:     snap.IsEmpty(),
		Lines:     snap.Lines,
		ItemCount: snap.ItemCount,
		Subtotal:  snap.Subtotal,
	}
	if !q.Empty {
		q.ShippingFee = s.shippingFee
		q.Total = s.ComputeTotal(snap.Subtotal)
	}
	return q, nil
}

// Submit validates the shipping details and hands a by-value snapshot of
// the cart to the submitter. The cart keeps its lines until the order is
// acknowledged; only then are the submitted quantities taken out of it.
func (s *CheckoutService) Submit(ctx context.Context, sessionID string, in SubmitInput) (*SubmitResult, error) {
	if err := validator.Validate(in.Shipping); err != nil {
		return nil, err
	}

	cart, err := s.carts.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// A pending write on this cart holds its lock, so read it before s.mu.
	snap := cart.Snapshot()

	// Only in-memory work happens under s.mu; no store I/O.
	s.mu.Lock()
	sess := s.session(sessionID)
	if sess.state == domain.CheckoutSubmitting {
		s.mu.Unlock()
		return nil, apperrors.Conflict("a checkout is already being submitted").WithCode("CHECKOUT_IN_PROGRESS")
	}
	if in.IdempotencyKey != "" && sess.state == domain.CheckoutSucceeded &&
		sess.lastKey == in.IdempotencyKey && sess.lastResult != nil {
		replay := *sess.lastResult
		replay.Replayed = true
		s.mu.Unlock()
		return &replay, nil
	}

	if snap.IsEmpty() {
		s.mu.Unlock()
		return nil, apperrors.InvalidInput("cart is empty")
	}

	submitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sess.state = domain.CheckoutSubmitting
	sess.cancel = cancel
	s.mu.Unlock()

	steps := domain.CheckoutSaga()
	order := s.buildOrder(sessionID, snap, in)
	log := s.logger.With(
		slog.String("session_id", sessionID),
		slog.String("order_id", order.ID),
	)

	start := time.Now()
	receipt, err := s.submitter.Submit(submitCtx, order)
	checkoutSubmitDuration.Observe(time.Since(start).Seconds())
	if err == nil && receipt == nil {
		err = errors.New("submitter returned no receipt")
	}
	if err != nil {
		steps[0].Fail(err.Error())
		return nil, s.fail(ctx, log, sessionID, order, steps, err, submitCtx.Err() != nil)
	}
	steps[0].Complete()

	cart.Settle(ctx, snap.Lines)
	steps[1].Complete()

	s.notify(ctx, log, &steps[2], domain.OrderPlaced{
		OrderID:       order.ID,
		SessionID:     sessionID,
		Reference:     receipt.Reference,
		Total:         order.Total,
		ItemCount:     order.ItemCount,
		CustomerEmail: order.Shipping.Email,
		PlacedAt:      s.now().UTC(),
	})

	result := &SubmitResult{
		Outcome:     domain.OutcomeAcknowledged,
		OrderID:     order.ID,
		Reference:   receipt.Reference,
		ItemCount:   order.ItemCount,
		Subtotal:    order.Subtotal,
		ShippingFee: order.ShippingFee,
		Total:       order.Total,
		Message:     OrderPlacedMessage,
		Description: OrderPlacedDescription,
		Redirect:    OrderPlacedRedirect,
		Steps:       steps,
	}
	if in.CustomerEmail != "" {
		result.Greeting = "Thanks for your order, " + in.CustomerEmail
	}

	s.mu.Lock()
	sess = s.session(sessionID)
	sess.state = domain.CheckoutSucceeded
	sess.cancel = nil
	sess.lastKey = in.IdempotencyKey
	recorded := *result
	sess.lastResult = &recorded
	sess.lastError = ""
	s.mu.Unlock()

	checkoutSubmissionsTotal.WithLabelValues(string(domain.OutcomeAcknowledged)).Inc()
	log.InfoContext(ctx, "order placed",
		slog.String("reference", receipt.Reference),
		slog.Int("item_count", order.ItemCount),
		slog.String("total", pricing.FormatCurrency(order.Total)),
	)

	return result, nil
}

func (s *CheckoutService) fail(
	ctx context.Context,
	log *slog.Logger,
	sessionID string,
	order domain.Order,
	steps []domain.SagaStep,
	cause error,
	canceled bool,
) error {
	var appErr *apperrors.AppError
	if canceled {
		appErr = apperrors.Conflict("checkout was canceled").WithCode("CHECKOUT_CANCELED")
	} else {
		appErr = apperrors.Upstream("order submission failed", cause).WithCode("ORDER_SUBMISSION_FAILED")
	}

	s.mu.Lock()
	sess := s.session(sessionID)
	sess.state = domain.CheckoutFailed
	sess.cancel = nil
	sess.lastError = appErr.Message
	sess.lastResult = &SubmitResult{
		Outcome:     domain.OutcomeFailed,
		OrderID:     order.ID,
		ItemCount:   order.ItemCount,
		Subtotal:    order.Subtotal,
		ShippingFee: order.ShippingFee,
		Total:       order.Total,
		Error:       appErr.Message,
		Steps:       steps,
	}
	s.mu.Unlock()

	checkoutSubmissionsTotal.WithLabelValues(string(domain.OutcomeFailed)).Inc()
	log.WarnContext(ctx, "order submission failed, cart kept",
		slog.Bool("canceled", canceled),
		slog.String("error", cause.Error()),
	)
	return appErr
}

func (s *CheckoutService) notify(ctx context.Context, log *slog.Logger, step *domain.SagaStep, evt domain.OrderPlaced) {
	if s.notifier == nil {
		step.Complete()
		return
	}
	if err := s.notifier.PublishOrderPlaced(context.WithoutCancel(ctx), evt); err != nil {
		step.Fail(err.Error())
		log.ErrorContext(ctx, "failed to publish order placed notification",
			slog.String("error", err.Error()),
		)
		return
	}
	step.Complete()
}

func (s *CheckoutService) buildOrder(sessionID string, snap CartSnapshot, in SubmitInput) domain.Order {
	return domain.Order{
		ID:             uuid.New().String(),
		SessionID:      sessionID,
		Lines:          snap.Lines,
		ItemCount:      snap.ItemCount,
		Subtotal:       snap.Subtotal,
		ShippingFee:    s.shippingFee,
		Total:          s.ComputeTotal(snap.Subtotal),
		Shipping:       in.Shipping,
		CustomerEmail:  in.CustomerEmail,
		IdempotencyKey: in.IdempotencyKey,
		CreatedAt:      s.now().UTC(),
	}
}

// Cancel aborts the in-flight submission of a session and reports whether
// one was running.
func (s *CheckoutService) Cancel(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.state != domain.CheckoutSubmitting || sess.cancel == nil {
		return false
	}
	sess.cancel()
	return true
}

// Status returns the state machine position of a session.
func (s *CheckoutService) Status(sessionID string) CheckoutStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return CheckoutStatus{State: domain.CheckoutEditing}
	}
	st := CheckoutStatus{State: sess.state}
	// A submission in flight hides the outcome of the previous one.
	if !sess.state.IsTerminal() {
		return st
	}
	st.LastError = sess.lastError
	if sess.lastResult != nil {
		r := *sess.lastResult
		st.LastResult = &r
	}
	return st
}

// session returns the state of sessionID, creating it. Sessions idle for
// longer than the cart idle TTL are forgotten unless a submission is in
// flight. Callers hold s.mu.
func (s *CheckoutService) session(sessionID string) *checkoutSession {
	now := s.now()
	if ttl := s.carts.idleTTL; ttl > 0 && now.Sub(s.lastSweep) >= ttl {
		for id, sess := range s.sessions {
			if sess.state != domain.CheckoutSubmitting && now.Sub(sess.lastSeen) > ttl {
				delete(s.sessions, id)
			}
		}
		s.lastSweep = now
	}

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &checkoutSession{state: domain.CheckoutEditing}
		s.sessions[sessionID] = sess
	}
	sess.lastSeen = now
	return sess
}

// SessionCount returns the number of sessions with checkout state.
func (s *CheckoutService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
