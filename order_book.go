package match

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderBookOption configures an OrderBook.
type OrderBookOption func(*OrderBook)

// WithPublishLog sets the sink receiving the book's logs.
func WithPublishLog(publishLog PublishLog) OrderBookOption {
	return func(book *OrderBook) {
		if publishLog != nil {
			book.publishLog = publishLog
		}
	}
}

// OrderBook is the matching engine for a single instrument.
//
// It is not safe for concurrent use: every method runs to completion on the
// caller's goroutine. Use MatchingEngine to share a book between goroutines.
type OrderBook struct {
	seqID      uint64 // Increasing sequence ID for BookLog production
	tradeID    uint64 // Sequential trade ID counter, only incremented for Match events
	bidQueue   *queue
	askQueue   *queue
	orders     map[uint64]*Order
	publishLog PublishLog
	pending    []*BookLog
}

// NewOrderBook creates a new, empty order book.
func NewOrderBook(opts ...OrderBookOption) *OrderBook {
	book := &OrderBook{
		bidQueue:   NewBuyerQueue(),
		askQueue:   NewSellerQueue(),
		orders:     make(map[uint64]*Order),
		publishLog: NewDiscardPublishLog(),
		pending:    make([]*BookLog, 0, 8),
	}

	for _, opt := range opts {
		opt(book)
	}

	return book
}

// AddOrder inserts the order and runs the matching loop.
// A rejected order (duplicate id, nothing left to fill, Fill And Kill that
// cannot match, Market order facing an empty book) returns no trades and
// leaves the book unchanged.
func (book *OrderBook) AddOrder(order *Order) []Trade {
	trades, _ := book.addOrder(order)
	return trades
}

// CancelOrder removes a resting order. Unknown ids are ignored.
func (book *OrderBook) CancelOrder(id uint64) {
	order, ok := book.orders[id]
	if !ok {
		return
	}

	book.cancelOrder(order, time.Now().UTC())
	book.flush()
}

// ModifyOrder replaces a resting order by canceling it and adding a new order
// built from mod with the original order type. The order loses its time priority.
func (book *OrderBook) ModifyOrder(mod OrderModify) []Trade {
	order, ok := book.orders[mod.ID]
	if !ok {
		return nil
	}

	orderType := order.Type
	book.CancelOrder(mod.ID)
	return book.AddOrder(mod.toOrder(orderType))
}

// OrderInfo aggregates the remaining size per price level on both sides.
func (book *OrderBook) OrderInfo() *AggregatedOrderbook {
	return &AggregatedOrderbook{
		Bids: book.bidQueue.levels(),
		Asks: book.askQueue.levels(),
	}
}

// Order returns the resting order with the given id.
func (book *OrderBook) Order(id uint64) (*Order, bool) {
	order, ok := book.orders[id]
	return order, ok
}

// Stats returns usage statistics for the order book.
func (book *OrderBook) Stats() *BookStats {
	return &BookStats{
		AskDepthCount: book.askQueue.depthCount(),
		AskOrderCount: book.askQueue.orderCount(),
		BidDepthCount: book.bidQueue.depthCount(),
		BidOrderCount: book.bidQueue.orderCount(),
	}
}

// BestBid returns the highest resting buy price.
func (book *OrderBook) BestBid() (decimal.Decimal, bool) {
	return book.bidQueue.bestPrice()
}

// BestAsk returns the lowest resting sell price.
func (book *OrderBook) BestAsk() (decimal.Decimal, bool) {
	return book.askQueue.bestPrice()
}

// SequenceID returns the sequence ID of the last published log.
func (book *OrderBook) SequenceID() uint64 {
	return book.seqID
}

// addOrder is AddOrder that also reports why an order was turned away.
func (book *OrderBook) addOrder(order *Order) ([]Trade, RejectReason) {
	defer book.flush()

	now := time.Now().UTC()

	if _, ok := book.orders[order.ID]; ok {
		book.reject(order, order.Remaining(), RejectReasonDuplicateID, now)
		return nil, RejectReasonDuplicateID
	}

	if !order.Remaining().IsPositive() {
		book.reject(order, order.Remaining(), RejectReasonInvalidSize, now)
		return nil, RejectReasonInvalidSize
	}

	order.Timestamp = now.UnixNano()

	switch order.Type {
	case Market:
		return book.handleMarketOrder(order, now)
	case FillAndKill:
		if reason := book.canMatch(order); reason != RejectReasonNone {
			book.reject(order, order.Remaining(), reason, now)
			return nil, reason
		}
	}

	book.queueOf(order.Side).insertOrder(order)
	book.orders[order.ID] = order

	trades := book.match(order, now)

	if order.isResting() {
		if order.Type == FillAndKill {
			// the residue never opened, so it is rejected rather than canceled
			book.removeOrder(order)
			book.reject(order, order.Remaining(), RejectReasonNoLiquidity, now)
		} else {
			book.emit(newOpenLog(book.nextSeqID(), order, now))
		}
	}

	return trades, RejectReasonNone
}

// match crosses the best bid and best ask until they no longer overlap.
// Within a price level orders are consumed from the head, so fills follow
// price priority first and arrival order second.
func (book *OrderBook) match(taker *Order, now time.Time) []Trade {
	var trades []Trade

	for {
		bid := book.bidQueue.peekHeadOrder()
		ask := book.askQueue.peekHeadOrder()
		if bid == nil || ask == nil {
			break
		}

		if bid.Price.LessThan(ask.Price) {
			break
		}

		size := decimal.Min(bid.Remaining(), ask.Remaining())
		mustFill(bid, size)
		mustFill(ask, size)

		trades = append(trades, Trade{
			Bid: TradeInfo{OrderID: bid.ID, Price: bid.Price, Size: size},
			Ask: TradeInfo{OrderID: ask.ID, Price: ask.Price, Size: size},
		})

		maker := ask
		if taker == ask {
			maker = bid
		}
		book.emit(newMatchLog(book.nextSeqID(), book.nextTradeID(), taker, maker, size, now))

		if bid.IsFilled() {
			book.removeOrder(bid)
		}
		if ask.IsFilled() {
			book.removeOrder(ask)
		}
	}

	return trades
}

// handleMarketOrder fills a Market order against the opposite side, best price
// first, and discards whatever cannot be filled. Market orders never rest.
func (book *OrderBook) handleMarketOrder(order *Order, now time.Time) ([]Trade, RejectReason) {
	targetQueue := book.bidQueue
	if order.Side == Buy {
		targetQueue = book.askQueue
	}

	var trades []Trade

	for !order.IsFilled() {
		maker := targetQueue.peekHeadOrder()
		if maker == nil {
			break
		}

		size := decimal.Min(order.Remaining(), maker.Remaining())
		mustFill(order, size)
		mustFill(maker, size)

		// the market leg executes at the maker's price
		taken := TradeInfo{OrderID: order.ID, Price: maker.Price, Size: size}
		made := TradeInfo{OrderID: maker.ID, Price: maker.Price, Size: size}
		if order.Side == Buy {
			trades = append(trades, Trade{Bid: taken, Ask: made})
		} else {
			trades = append(trades, Trade{Bid: made, Ask: taken})
		}

		book.emit(newMatchLog(book.nextSeqID(), book.nextTradeID(), order, maker, size, now))

		if maker.IsFilled() {
			book.removeOrder(maker)
		}
	}

	if !order.IsFilled() {
		book.reject(order, order.Remaining(), RejectReasonNoLiquidity, now)
		if len(trades) == 0 {
			return nil, RejectReasonNoLiquidity
		}
	}

	return trades, RejectReasonNone
}

// canMatch checks a Fill And Kill order against the best opposite price.
func (book *OrderBook) canMatch(order *Order) RejectReason {
	if order.Side == Buy {
		bestAsk, ok := book.askQueue.bestPrice()
		if !ok {
			return RejectReasonNoLiquidity
		}
		if order.Price.LessThan(bestAsk) {
			return RejectReasonPriceMismatch
		}
		return RejectReasonNone
	}

	bestBid, ok := book.bidQueue.bestPrice()
	if !ok {
		return RejectReasonNoLiquidity
	}
	if order.Price.GreaterThan(bestBid) {
		return RejectReasonPriceMismatch
	}
	return RejectReasonNone
}

func (book *OrderBook) queueOf(side Side) *queue {
	if side == Buy {
		return book.bidQueue
	}
	return book.askQueue
}

// removeOrder drops a filled order from its level and the id index.
func (book *OrderBook) removeOrder(order *Order) {
	book.queueOf(order.Side).removeOrder(order)
	delete(book.orders, order.ID)
}

func (book *OrderBook) cancelOrder(order *Order, now time.Time) {
	book.removeOrder(order)
	book.emit(newCancelLog(book.nextSeqID(), order, now))
}

func (book *OrderBook) reject(order *Order, size decimal.Decimal, reason RejectReason, now time.Time) {
	book.emit(newRejectLog(book.nextSeqID(), order, size, reason, now))
}

func (book *OrderBook) nextSeqID() uint64 {
	book.seqID++
	return book.seqID
}

func (book *OrderBook) nextTradeID() uint64 {
	book.tradeID++
	return book.tradeID
}

func (book *OrderBook) emit(log *BookLog) {
	book.pending = append(book.pending, log)
}

// flush publishes the logs of the current operation and recycles them.
func (book *OrderBook) flush() {
	if len(book.pending) == 0 {
		return
	}

	book.publishLog.Publish(book.pending...)
	for i, log := range book.pending {
		releaseBookLog(log)
		book.pending[i] = nil
	}
	book.pending = book.pending[:0]
}

// mustFill applies a fill the matching loop has already sized. An error here
// is an engine defect, so it panics instead of returning.
func mustFill(order *Order, size decimal.Decimal) {
	if err := order.Fill(size); err != nil {
		panic(err)
	}
}
