// Package catalog serves the static product feed carts are filled from.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
)

// AllCategories is the category filter that matches every product.
const AllCategories = "All"

//go:embed products.json
var defaultFeed []byte

// Filter narrows List. Zero values match everything.
type Filter struct {
	Category string
	Query    string
	Featured *bool
}

// Catalog is an in-memory product feed that can be reloaded atomically.
type Catalog struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	products []domain.Product
	byID     map[domain.ProductID]int
}

// New loads the feed at path, or the embedded storefront feed when path is empty.
func New(path string, logger *slog.Logger) (*Catalog, error) {
	c := &Catalog{path: path, logger: logger}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the feed and swaps it in. On error the current feed is kept.
func (c *Catalog) Reload() error {
	data := defaultFeed
	if c.path != "" {
		b, err := os.ReadFile(c.path)
		if err != nil {
			return fmt.Errorf("read catalog %s: %w", c.path, err)
		}
		data = b
	}

	products, err := Decode(data)
	if err != nil {
		return err
	}

	byID := make(map[domain.ProductID]int, len(products))
	for i, p := range products {
		if p.UnitPrice() <= 0 {
			c.logger.Warn("catalog product has no usable price",
				slog.String("product_id", p.ID.String()),
				slog.String("price", p.Price),
			)
		}
		byID[p.ID] = i
	}

	c.mu.Lock()
	c.products = products
	c.byID = byID
	c.mu.Unlock()

	c.logger.Info("catalog loaded", slog.Int("products", len(products)), slog.String("source", c.source()))
	return nil
}

func (c *Catalog) source() string {
	if c.path == "" {
		return "embedded"
	}
	return c.path
}

// Decode parses a JSON array of products, rejecting blank or duplicate IDs.
func Decode(data []byte) ([]domain.Product, error) {
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[domain.ProductID]struct{}, len(products))
	for i, p := range products {
		if strings.TrimSpace(string(p.ID)) == "" {
			return nil, fmt.Errorf("decode catalog: product %d has no id", i)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("decode catalog: duplicate product id %s", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return products, nil
}

// Get returns product id.
func (c *Catalog) Get(id domain.ProductID) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", id.String())
	}
	return c.products[i], nil
}

// List returns the products matching f in feed order. The query matches the
// name or description case-insensitively.
func (c *Catalog) List(f Filter) []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if f.Category != "" && f.Category != AllCategories && p.Category != f.Category {
			continue
		}
		if f.Featured != nil && p.Featured != *f.Featured {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Categories returns "All" followed by the distinct categories in feed order.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []string{AllCategories}
	seen := make(map[string]struct{})
	for _, p := range c.products {
		if _, ok := seen[p.Category]; ok || p.Category == "" {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}
