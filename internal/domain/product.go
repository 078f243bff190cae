package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/pricing"
)

// ProductID identifies a catalog product. Feeds and legacy snapshots carry it
// as a JSON number or string; it is always written back as a string.
type ProductID string

// UnmarshalJSON accepts both 3 and "3".
func (id *ProductID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("product id must be an integer: %s", n)
	}
	*id = ProductID(n.String())
	return nil
}

func (id ProductID) String() string {
	return string(id)
}

// Product is one entry of the catalog feed.
type Product struct {
	ID          ProductID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	InStock     bool      `json:"in_stock"`
	Details     string    `json:"details"`
	Featured    bool      `json:"featured"`
}

// UnitPrice parses the display price. Malformed prices are zero.
func (p Product) UnitPrice() pricing.Cents {
	return pricing.ParseCurrency(p.Price)
}

// Line builds the cart line added when qty units of p are put in the cart.
func (p Product) Line(qty int) CartLine {
	return CartLine{
		ID:        p.ID,
		Name:      p.Name,
		UnitPrice: p.UnitPrice(),
		Image:     p.Image,
		Quantity:  qty,
		Category:  p.Category,
	}
}
