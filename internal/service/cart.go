package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/pricing"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/repository"
	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
)

// MaxQuantityPerLine is the largest quantity a single cart line may hold.
const MaxQuantityPerLine = 99

// defaultLoadTimeout bounds a snapshot read during hydration.
const defaultLoadTimeout = 3 * time.Second

// errSkipPersist aborts a mutation without writing a snapshot.
var errSkipPersist = errors.New("skip persist")

// CartEvents receives best-effort cart change notifications.
type CartEvents interface {
	PublishCartUpdated(ctx context.Context, sessionID string, itemCount int, subtotal pricing.Cents) error
	PublishCartCleared(ctx context.Context, sessionID string) error
}

// ProductCatalog resolves products added to a cart.
type ProductCatalog interface {
	Get(id domain.ProductID) (domain.Product, error)
}

// CartSnapshot is a by-value view of a cart at one point in time.
type CartSnapshot struct {
	SessionID string            `json:"session_id"`
	Lines     []domain.CartLine `json:"lines"`
	ItemCount int               `json:"item_count"`
	Subtotal  pricing.Cents     `json:"subtotal"`
}

// Total returns the formatted subtotal.
func (s CartSnapshot) Total() string {
	return pricing.FormatCurrency(s.Subtotal)
}

// IsEmpty reports whether the snapshot has no lines.
func (s CartSnapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Cart is the live state container of one session. Every mutation writes the
// full line collection to the store; write failures are logged and dropped.
type Cart struct {
	sessionID string
	store     repository.CartStore
	events    CartEvents
	logger    *slog.Logger

	mu   sync.Mutex
	cart *domain.Cart
}

func newCart(sessionID string, lines []domain.CartLine, store repository.CartStore, events CartEvents, logger *slog.Logger) *Cart {
	return &Cart{
		sessionID: sessionID,
		store:     store,
		events:    events,
		logger:    logger.With(slog.String("session_id", sessionID)),
		cart:      domain.NewCart(lines),
	}
}

// SessionID returns the session owning the cart.
func (c *Cart) SessionID() string {
	return c.sessionID
}

// AddItem merges line into the cart.
func (c *Cart) AddItem(ctx context.Context, line domain.CartLine) CartSnapshot {
	snap, _ := c.mutate(ctx, opAdd, func(dc *domain.Cart) error {
		dc.AddItem(line)
		return nil
	})
	return snap
}

// UpdateQuantity sets the quantity of line id; zero or less removes it. It
// reports whether a line matched.
func (c *Cart) UpdateQuantity(ctx context.Context, id domain.ProductID, qty int) (CartSnapshot, bool) {
	var matched bool
	snap, _ := c.mutate(ctx, opUpdate, func(dc *domain.Cart) error {
		matched = dc.UpdateQuantity(id, qty)
		return nil
	})
	return snap, matched
}

// RemoveItem deletes line id and reports whether it was present.
func (c *Cart) RemoveItem(ctx context.Context, id domain.ProductID) (CartSnapshot, bool) {
	var removed bool
	snap, _ := c.mutate(ctx, opRemove, func(dc *domain.Cart) error {
		removed = dc.RemoveItem(id)
		return nil
	})
	return snap, removed
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) CartSnapshot {
	snap, _ := c.mutate(ctx, opClear, func(dc *domain.Cart) error {
		dc.Clear()
		return nil
	})
	return snap
}

// Settle takes the quantities of an accepted order out of the cart. Units
// added while the order was in flight stay in the cart.
func (c *Cart) Settle(ctx context.Context, lines []domain.CartLine) CartSnapshot {
	snap, _ := c.mutate(ctx, opSettle, func(dc *domain.Cart) error {
		if len(lines) == 0 {
			return errSkipPersist
		}
		for _, l := range lines {
			if cur, ok := dc.Find(l.ID); ok {
				dc.UpdateQuantity(l.ID, cur.Quantity-l.Quantity)
			}
		}
		return nil
	})
	return snap
}

// Adjust moves the quantity of line id by delta, clamped to [floor, limit].
// An absent line is apperrors.ErrNotFound.
func (c *Cart) Adjust(ctx context.Context, id domain.ProductID, delta, floor, limit int) (CartSnapshot, error) {
	return c.mutate(ctx, opUpdate, func(dc *domain.Cart) error {
		l, ok := dc.Find(id)
		if !ok {
			return apperrors.NotFound("cart item", id.String())
		}
		qty := min(max(l.Quantity+delta, floor), limit)
		if qty == l.Quantity {
			return errSkipPersist
		}
		dc.UpdateQuantity(id, qty)
		return nil
	})
}

// addLimited adds line unless the merged quantity would exceed limit.
func (c *Cart) addLimited(ctx context.Context, line domain.CartLine, limit int) (CartSnapshot, error) {
	return c.mutate(ctx, opAdd, func(dc *domain.Cart) error {
		if existing, ok := dc.Find(line.ID); ok && existing.Quantity+line.Quantity > limit {
			return apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", limit))
		}
		dc.AddItem(line)
		return nil
	})
}

// Snapshot returns the current contents by value.
func (c *Cart) Snapshot() CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotOf(c.cart)
}

// Lines returns a copy of the current lines.
func (c *Cart) Lines() []domain.CartLine {
	return c.Snapshot().Lines
}

// ItemCount returns the sum of all line quantities.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.ItemCount()
}

// Subtotal returns the sum of all line totals.
func (c *Cart) Subtotal() pricing.Cents {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Subtotal()
}

// Total returns the formatted subtotal.
func (c *Cart) Total() string {
	return pricing.FormatCurrency(c.Subtotal())
}

// Quantity returns the quantity of line id, or zero when absent.
func (c *Cart) Quantity(id domain.ProductID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.cart.Find(id); ok {
		return l.Quantity
	}
	return 0
}

func (c *Cart) snapshotOf(dc *domain.Cart) CartSnapshot {
	return CartSnapshot{
		SessionID: c.sessionID,
		Lines:     dc.Lines(),
		ItemCount: dc.ItemCount(),
		Subtotal:  dc.Subtotal(),
	}
}

// mutate applies fn and persists the result while holding the lock so that
// snapshot writes land in mutation order. A non-nil error from fn skips the
// write; errSkipPersist is swallowed.
func (c *Cart) mutate(ctx context.Context, op string, fn func(*domain.Cart) error) (CartSnapshot, error) {
	c.mu.Lock()
	if err := fn(c.cart); err != nil {
		snap := c.snapshotOf(c.cart)
		c.mu.Unlock()
		if errors.Is(err, errSkipPersist) {
			return snap, nil
		}
		return snap, err
	}
	snap := c.snapshotOf(c.cart)
	c.persist(ctx, op, snap.Lines)
	c.mu.Unlock()

	cartMutationsTotal.WithLabelValues(op).Inc()
	c.publish(ctx, op, snap)
	return snap, nil
}

// persist writes lines, deleting the snapshot once the cart is empty.
func (c *Cart) persist(ctx context.Context, op string, lines []domain.CartLine) {
	ctx = context.WithoutCancel(ctx)
	var err error
	if len(lines) == 0 {
		err = c.store.Delete(ctx, c.sessionID)
	} else {
		err = c.store.Save(ctx, c.sessionID, lines)
	}
	if err != nil {
		cartPersistFailuresTotal.Inc()
		c.logger.WarnContext(ctx, "failed to persist cart snapshot",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Cart) publish(ctx context.Context, op string, snap CartSnapshot) {
	if c.events == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	var err error
	if snap.IsEmpty() && (op == opClear || op == opSettle) {
		err = c.events.PublishCartCleared(ctx, c.sessionID)
	} else {
		err = c.events.PublishCartUpdated(ctx, c.sessionID, snap.ItemCount, snap.Subtotal)
	}
	if err != nil {
		c.logger.WarnContext(ctx, "failed to publish cart event",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}
}

type cartEntry struct {
	cart     *Cart
	lastSeen time.Time
}

// CartService owns the live cart of every session and hydrates each one from
// the store at most once while it stays live. A cart unused for idleTTL is
// dropped from memory; its stored snapshot is kept.
type CartService struct {
	store       repository.CartStore
	catalog     ProductCatalog
	events      CartEvents
	logger      *slog.Logger
	loadTimeout time.Duration
	idleTTL     time.Duration
	now         func() time.Time

	mu        sync.Mutex
	carts     map[string]*cartEntry
	lastSweep time.Time
	group     singleflight.Group
}

// NewCartService creates a cart service. events may be nil and a zero
// idleTTL keeps live carts forever.
func NewCartService(store repository.CartStore, catalog ProductCatalog, events CartEvents, idleTTL time.Duration, logger *slog.Logger) *CartService {
	return &CartService{
		store:       store,
		catalog:     catalog,
		events:      events,
		logger:      logger,
		loadTimeout: defaultLoadTimeout,
		idleTTL:     idleTTL,
		now:         time.Now,
		carts:       make(map[string]*cartEntry),
	}
}

// Open returns the live cart of a session, hydrating it on first use.
func (s *CartService) Open(ctx context.Context, sessionID string) (*Cart, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	if c := s.lookup(sessionID); c != nil {
		return c, nil
	}

	v, _, _ := s.group.Do(sessionID, func() (any, error) {
		if c := s.lookup(sessionID); c != nil {
			return c, nil
		}
		return s.adopt(sessionID, s.loadLines(ctx, sessionID)), nil
	})
	return v.(*Cart), nil
}

// lookup returns the live cart of a session and marks it used.
func (s *CartService) lookup(sessionID string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	e, ok := s.carts[sessionID]
	if !ok {
		return nil
	}
	e.lastSeen = now
	return e.cart
}

// adopt registers a cart hydrated from lines unless one went live meanwhile.
func (s *CartService) adopt(sessionID string, lines []domain.CartLine) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.carts[sessionID]; ok {
		return e.cart
	}
	c := newCart(sessionID, lines, s.store, s.events, s.logger)
	s.carts[sessionID] = &cartEntry{cart: c, lastSeen: s.now()}
	return c
}

// sweep drops idle carts at most once per idleTTL. Callers hold s.mu.
func (s *CartService) sweep(now time.Time) {
	if s.idleTTL <= 0 || now.Sub(s.lastSweep) < s.idleTTL {
		return
	}
	for id, e := range s.carts {
		if now.Sub(e.lastSeen) > s.idleTTL {
			delete(s.carts, id)
			cartEvictionsTotal.Inc()
		}
	}
	s.lastSweep = now
}

// loadLines reads the stored lines of a session. Absent, corrupt and
// unreachable snapshots all hydrate an empty cart.
func (s *CartService) loadLines(ctx context.Context, sessionID string) []domain.CartLine {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
	defer cancel()

	lines, err := s.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		cartHydrationsTotal.WithLabelValues("restored").Inc()
		return lines
	case errors.Is(err, apperrors.ErrNotFound):
		cartHydrationsTotal.WithLabelValues("absent").Inc()
	case errors.Is(err, repository.ErrCorruptSnapshot):
		cartHydrationsTotal.WithLabelValues("corrupt").Inc()
		s.logger.WarnContext(ctx, "discarding corrupt cart snapshot",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	default:
		cartHydrationsTotal.WithLabelValues("unavailable").Inc()
		s.logger.WarnContext(ctx, "cart store unavailable, starting with an empty cart",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// AddProduct resolves productID from the catalog and adds qty units of it.
func (s *CartService) AddProduct(ctx context.Context, sessionID string, productID domain.ProductID, qty int) (CartSnapshot, error) {
	if qty < 1 {
		return CartSnapshot{}, apperrors.InvalidInput("quantity must be at least 1")
	}
	if qty > MaxQuantityPerLine {
		return CartSnapshot{}, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	product, err := s.catalog.Get(productID)
	if err != nil {
		return CartSnapshot{}, err
	}
	if !product.InStock {
		return CartSnapshot{}, apperrors.InvalidInput(fmt.Sprintf("%s is out of stock", product.Name))
	}

	cart, err := s.Open(ctx, sessionID)
	if err != nil {
		return CartSnapshot{}, err
	}
	return cart.addLimited(ctx, product.Line(qty), MaxQuantityPerLine)
}

// SetQuantity sets the quantity of a line. Zero or less removes it and an
// unknown id leaves the cart unchanged.
func (s *CartService) SetQuantity(ctx context.Context, sessionID string, id domain.ProductID, qty int) (CartSnapshot, error) {
	if qty > MaxQuantityPerLine {
		return CartSnapshot{}, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	cart, err := s.Open(ctx, sessionID)
	if err != nil {
		return CartSnapshot{}, err
	}
	snap, _ := cart.UpdateQuantity(ctx, id, qty)
	return snap, nil
}

// Adjust moves the quantity of a line by delta without dropping it below one.
func (s *CartService) Adjust(ctx context.Context, sessionID string, id domain.ProductID, delta int) (CartSnapshot, error) {
	cart, err := s.Open(ctx, sessionID)
	if err != nil {
		return CartSnapshot{}, err
	}
	return cart.Adjust(ctx, id, delta, 1, MaxQuantityPerLine)
}

// Remove deletes a line.
func (s *CartService) Remove(ctx context.Context, sessionID string, id domain.ProductID) (CartSnapshot, error) {
	cart, err := s.Open(ctx, sessionID)
	if err != nil {
		return CartSnapshot{}, err
	}
	snap, _ := cart.RemoveItem(ctx, id)
	return snap, nil
}

// Clear empties the cart of a session.
func (s *CartService) Clear(ctx context.Context, sessionID string) (CartSnapshot, error) {
	cart, err := s.Open(ctx, sessionID)
	if err != nil {
		return CartSnapshot{}, err
	}
	return cart.Clear(ctx), nil
}

// Get returns the current contents of a session cart. A session with
// nothing stored reads as empty without going live.
func (s *CartService) Get(ctx context.Context, sessionID string) (CartSnapshot, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartSnapshot{}, apperrors.InvalidInput("session id is required")
	}
	if c := s.lookup(sessionID); c != nil {
		return c.Snapshot(), nil
	}

	lines := s.loadLines(ctx, sessionID)
	if len(lines) == 0 {
		return CartSnapshot{SessionID: sessionID, Lines: []domain.CartLine{}}, nil
	}
	return s.adopt(sessionID, lines).Snapshot(), nil
}

// SessionCount returns the number of live carts.
func (s *CartService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}
