package match

import (
	"github.com/0x5487/orderbook/protocol"
	"github.com/shopspring/decimal"
)

type Side = protocol.Side

const (
	Buy  Side = protocol.SideBuy
	Sell Side = protocol.SideSell
)

type OrderType = protocol.OrderType

const (
	Limit       OrderType = protocol.OrderTypeLimit
	Market      OrderType = protocol.OrderTypeMarket
	FillAndKill OrderType = protocol.OrderTypeFillAndKill
)

type LogType = protocol.LogType

const (
	LogTypeOpen   LogType = protocol.LogTypeOpen
	LogTypeMatch  LogType = protocol.LogTypeMatch
	LogTypeCancel LogType = protocol.LogTypeCancel
	LogTypeReject LogType = protocol.LogTypeReject
)

type RejectReason = protocol.RejectReason

const (
	RejectReasonNone          RejectReason = protocol.RejectReasonNone
	RejectReasonNoLiquidity   RejectReason = protocol.RejectReasonNoLiquidity
	RejectReasonPriceMismatch RejectReason = protocol.RejectReasonPriceMismatch
	RejectReasonDuplicateID   RejectReason = protocol.RejectReasonDuplicateID
	RejectReasonInvalidSize   RejectReason = protocol.RejectReasonInvalidSize
	RejectReasonUnknownOrder  RejectReason = protocol.RejectReasonUnknownOrder
)

// OrderModify describes a replace request: the resting order is canceled and
// a new order with the same id and type is added from these fields.
type OrderModify struct {
	ID    uint64          `json:"id"`
	Side  Side            `json:"side"`
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// toOrder builds the replacement order, keeping the type of the order it replaces.
func (m OrderModify) toOrder(orderType OrderType) *Order {
	return NewOrder(m.ID, orderType, m.Side, m.Price, m.Size)
}

// TradeInfo is one leg of a trade. Price is the leg's own order price.
type TradeInfo struct {
	OrderID uint64          `json:"order_id"`
	Price   decimal.Decimal `json:"price"`
	Size    decimal.Decimal `json:"size"`
}

// Trade records a single fill between a bid and an ask.
type Trade struct {
	Bid TradeInfo `json:"bid"`
	Ask TradeInfo `json:"ask"`
}

// LevelInfo is the total remaining size resting at one price.
type LevelInfo struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// AggregatedOrderbook is a point-in-time view of both sides, best price first.
type AggregatedOrderbook struct {
	Bids []LevelInfo `json:"bids"`
	Asks []LevelInfo `json:"asks"`
}

// ToDepthResponse converts the view to its wire form.
func (ob *AggregatedOrderbook) ToDepthResponse() *protocol.GetDepthResponse {
	convert := func(levels []LevelInfo) []*protocol.DepthItem {
		items := make([]*protocol.DepthItem, 0, len(levels))
		for _, lvl := range levels {
			items = append(items, &protocol.DepthItem{Price: lvl.Price.String(), Size: lvl.Size.String()})
		}
		return items
	}

	return &protocol.GetDepthResponse{
		Bids: convert(ob.Bids),
		Asks: convert(ob.Asks),
	}
}

// BookStats contains statistics about the order book queues
type BookStats struct {
	AskDepthCount int64 `json:"ask_depth_count"`
	AskOrderCount int64 `json:"ask_order_count"`
	BidDepthCount int64 `json:"bid_depth_count"`
	BidOrderCount int64 `json:"bid_order_count"`
}

// DepthChange represents a change in the order book depth.
type DepthChange struct {
	Side     Side
	Price    decimal.Decimal
	SizeDiff decimal.Decimal
}

// PlaceOrderCommand is the input command for placing an order through the MatchingEngine.
// Price is ignored for Market orders.
type PlaceOrderCommand struct {
	ID    uint64          `json:"id"`
	Side  Side            `json:"side"`
	Type  OrderType       `json:"type"`
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// PlaceOrderResult is the outcome of a PlaceOrderCommand.
// RejectReason is empty when the order was accepted.
type PlaceOrderResult struct {
	Trades       []Trade         `json:"trades"`
	RejectReason RejectReason    `json:"reject_reason,omitempty"`
	Remaining    decimal.Decimal `json:"remaining"`
	Filled       decimal.Decimal `json:"filled"`
	Resting      bool            `json:"resting"`
}

// Accepted reports whether the book took the order.
func (r *PlaceOrderResult) Accepted() bool {
	return r.RejectReason == RejectReasonNone
}

// CancelOrderResult is the outcome of a cancel through the MatchingEngine.
// Filled is what the order had executed before it was canceled.
type CancelOrderResult struct {
	RejectReason RejectReason    `json:"reject_reason,omitempty"`
	Filled       decimal.Decimal `json:"filled"`
	Canceled     decimal.Decimal `json:"canceled"`
}

// Accepted reports whether a resting order was canceled.
func (r *CancelOrderResult) Accepted() bool {
	return r.RejectReason == RejectReasonNone
}

// ModifyOrderResult is the outcome of a modify through the MatchingEngine.
// Filled and Remaining describe the replacement order.
type ModifyOrderResult struct {
	Trades       []Trade         `json:"trades"`
	RejectReason RejectReason    `json:"reject_reason,omitempty"`
	Remaining    decimal.Decimal `json:"remaining"`
	Filled       decimal.Decimal `json:"filled"`
	Resting      bool            `json:"resting"`
}

// Accepted reports whether a resting order was replaced.
func (r *ModifyOrderResult) Accepted() bool {
	return r.RejectReason == RejectReasonNone
}
