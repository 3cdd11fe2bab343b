package protocol

// Side represents the order side (Buy/Sell).
type Side int8

const (
	SideBuy  Side = 1
	SideSell Side = 2
)

// String returns the lower case name of the side.
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	}
	return "unknown"
}

// OrderType represents the type of order.
type OrderType string

const (
	OrderTypeLimit       OrderType = "limit"
	OrderTypeMarket      OrderType = "market"
	OrderTypeFillAndKill OrderType = "fak" // Fill And Kill: match what is possible now, cancel the rest
)

// LogType represents the type of event log.
type LogType string

const (
	LogTypeOpen   LogType = "open"
	LogTypeMatch  LogType = "match"
	LogTypeCancel LogType = "cancel"
	LogTypeReject LogType = "reject"
)

// RejectReason represents the reason why an order was rejected.
type RejectReason string

const (
	RejectReasonNone          RejectReason = ""
	RejectReasonNoLiquidity   RejectReason = "no_liquidity"   // Market/FAK: No orders available to match
	RejectReasonPriceMismatch RejectReason = "price_mismatch" // FAK: Best opposite price does not cross
	RejectReasonDuplicateID   RejectReason = "duplicate_order_id"
	RejectReasonInvalidSize   RejectReason = "invalid_size"  // Nothing left to fill
	RejectReasonUnknownOrder  RejectReason = "unknown_order" // Cancel/Modify: id is not resting
)

// DepthItem is one aggregated price level on the wire.
type DepthItem struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// GetDepthResponse represents the aggregated state of both sides of the book.
type GetDepthResponse struct {
	Asks []*DepthItem `json:"asks"`
	Bids []*DepthItem `json:"bids"`
}
