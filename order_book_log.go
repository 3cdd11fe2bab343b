package match

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// BookLog represents an event in the order book.
// SequenceID is an increasing ID for every event, used for ordering,
// deduplication, and rebuild synchronization in downstream systems.
// Use Type to determine if the event affects order book state:
// - Open, Match, Cancel: affect order book state
// - Reject: does not affect order book state
type BookLog struct {
	SequenceID   uint64          `json:"seq_id"`
	TradeID      uint64          `json:"trade_id,omitempty"` // Sequential trade ID, only set for Match events
	Type         LogType         `json:"type"`
	Side         Side            `json:"side"`
	Price        decimal.Decimal `json:"price"`
	Size         decimal.Decimal `json:"size"`
	OrderID      uint64          `json:"order_id"`
	OrderType    OrderType       `json:"order_type,omitempty"`
	MakerOrderID uint64          `json:"maker_order_id,omitempty"`
	RejectReason RejectReason    `json:"reject_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

var bookLogPool = sync.Pool{
	New: func() any {
		return new(BookLog)
	},
}

func acquireBookLog() *BookLog {
	return bookLogPool.Get().(*BookLog)
}

func releaseBookLog(log *BookLog) {
	// For decimal.Decimal, the zero value represents 0, which is valid.
	*log = BookLog{}
	bookLogPool.Put(log)
}

// newOpenLog records an order that now rests with its remaining size.
func newOpenLog(seqID uint64, order *Order, now time.Time) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeOpen
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.Remaining()
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.CreatedAt = now
	return log
}

// newMatchLog records a fill. Side is the taker's side and Price is the maker's price.
func newMatchLog(seqID uint64, tradeID uint64, taker *Order, maker *Order, size decimal.Decimal, now time.Time) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.TradeID = tradeID
	log.Type = LogTypeMatch
	log.Side = taker.Side
	log.Price = maker.Price
	log.Size = size
	log.OrderID = taker.ID
	log.OrderType = taker.Type
	log.MakerOrderID = maker.ID
	log.CreatedAt = now
	return log
}

// newCancelLog records the removal of a resting order with the size it still had.
func newCancelLog(seqID uint64, order *Order, now time.Time) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeCancel
	log.Side = order.Side
	log.Price = order.Price
	log.Size = order.Remaining()
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.CreatedAt = now
	return log
}

// newRejectLog records size that never entered the book.
func newRejectLog(seqID uint64, order *Order, size decimal.Decimal, reason RejectReason, now time.Time) *BookLog {
	log := acquireBookLog()
	log.SequenceID = seqID
	log.Type = LogTypeReject
	log.Side = order.Side
	log.Price = order.Price
	log.Size = size
	log.OrderID = order.ID
	log.OrderType = order.Type
	log.RejectReason = reason
	log.CreatedAt = now
	return log
}
