package domain

import "github.com/FutureFoodz/fuss-free-foodie-hub/internal/pricing"

// CartLine is one product in a cart.
type CartLine struct {
	ID        ProductID     `json:"id"`
	Name      string        `json:"name"`
	UnitPrice pricing.Cents `json:"unit_price"`
	Image     string        `json:"image"`
	Quantity  int           `json:"quantity"`
	Category  string        `json:"category"`
}

// LineTotal returns quantity × unit price.
func (l CartLine) LineTotal() pricing.Cents {
	return l.UnitPrice.Mul(l.Quantity)
}

// Cart is the ordered line collection of one session. Line IDs are unique and
// every line has a quantity of at least one.
type Cart struct {
	lines []CartLine
}

// NewCart builds a cart from previously stored lines, merging duplicate IDs
// and dropping lines with a non-positive quantity.
func NewCart(lines []CartLine) *Cart {
	c := &Cart{lines: make([]CartLine, 0, len(lines))}
	for _, l := range lines {
		c.AddItem(l)
	}
	return c
}

func (c *Cart) indexOf(id ProductID) int {
	for i := range c.lines {
		if c.lines[i].ID == id {
			return i
		}
	}
	return -1
}

// AddItem increments the quantity of the line with the same ID, keeping its
// other fields, or appends line. Lines with quantity < 1 are ignored.
func (c *Cart) AddItem(line CartLine) {
	if line.Quantity < 1 {
		return
	}
	if i := c.indexOf(line.ID); i >= 0 {
		c.lines[i].Quantity += line.Quantity
		return
	}
	c.lines = append(c.lines, line)
}

// UpdateQuantity sets the quantity of line id. A quantity of zero or less
// removes the line. It reports whether a line matched.
func (c *Cart) UpdateQuantity(id ProductID, qty int) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		c.removeAt(i)
		return true
	}
	c.lines[i].Quantity = qty
	return true
}

// RemoveItem deletes line id and reports whether it was present.
func (c *Cart) RemoveItem(id ProductID) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = c.lines[:0]
}

// Find returns line id.
func (c *Cart) Find(id ProductID) (CartLine, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.lines[i], true
	}
	return CartLine{}, false
}

// Lines returns a copy of the line collection.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// ItemCount returns the sum of all line quantities.
func (c *Cart) ItemCount() int {
	var n int
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Subtotal returns the sum of all line totals.
func (c *Cart) Subtotal() pricing.Cents {
	var total pricing.Cents
	for _, l := range c.lines {
		total += l.LineTotal()
	}
	return total
}

// Total returns the formatted subtotal.
func (c *Cart) Total() string {
	return pricing.FormatCurrency(c.Subtotal())
}
