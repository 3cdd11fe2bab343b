package match

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Order is the single source of truth for one order's state.
// While resting it is reachable from the book's id index and, through the
// intrusive prev/next links, from exactly one price level.
type Order struct {
	ID        uint64          `json:"id"`
	Type      OrderType       `json:"type"`
	Side      Side            `json:"side"`
	Price     decimal.Decimal `json:"price"` // Zero for Market orders
	Size      decimal.Decimal `json:"size"`  // Initial size
	Timestamp int64           `json:"timestamp"`

	remaining decimal.Decimal

	// Queue handle (ignored by JSON)
	unit *priceUnit
	next *Order
	prev *Order
}

// NewOrder creates an order with its full size remaining.
func NewOrder(id uint64, orderType OrderType, side Side, price decimal.Decimal, size decimal.Decimal) *Order {
	return &Order{
		ID:        id,
		Type:      orderType,
		Side:      side,
		Price:     price,
		Size:      size,
		remaining: size,
	}
}

// NewMarketOrder creates a Market order. It carries no price.
func NewMarketOrder(id uint64, side Side, size decimal.Decimal) *Order {
	return NewOrder(id, Market, side, decimal.Zero, size)
}

// Remaining returns the unfilled size.
func (o *Order) Remaining() decimal.Decimal {
	return o.remaining
}

// Filled returns the size filled so far.
func (o *Order) Filled() decimal.Decimal {
	return o.Size.Sub(o.remaining)
}

// IsFilled reports whether nothing remains to be filled.
func (o *Order) IsFilled() bool {
	return o.remaining.IsZero()
}

// Fill reduces the remaining size. The order is left untouched on error.
func (o *Order) Fill(size decimal.Decimal) error {
	if !size.IsPositive() || size.GreaterThan(o.remaining) {
		return fmt.Errorf("order %d: fill %s with %s remaining: %w", o.ID, size, o.remaining, ErrOverfill)
	}
	o.remaining = o.remaining.Sub(size)
	return nil
}

// isResting reports whether the order is linked into a price level.
func (o *Order) isResting() bool {
	return o.unit != nil
}
