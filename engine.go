package match

import (
	"context"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// CommandType identifies a request travelling through the engine's mailbox.
type CommandType uint8

const (
	CmdUnknown CommandType = iota
	CmdPlaceOrder
	CmdCancelOrder
	CmdModifyOrder
	CmdOrderInfo
	CmdGetStats
)

// InputEvent is the mailbox slot. Resp receives exactly one reply.
type InputEvent struct {
	Type    CommandType
	Place   *PlaceOrderCommand
	OrderID uint64
	Modify  OrderModify
	Resp    chan any
}

type engineOptions struct {
	ringBufferSize int64
	metrics        *MetricsPublishLog
}

// EngineOption configures a MatchingEngine.
type EngineOption func(*engineOptions)

// WithRingBufferSize sets the mailbox capacity. size must be a power of 2.
func WithRingBufferSize(size int64) EngineOption {
	return func(opts *engineOptions) {
		opts.ringBufferSize = size
	}
}

// WithMetrics publishes book logs to m and keeps its depth gauges current.
func WithMetrics(m *MetricsPublishLog) EngineOption {
	return func(opts *engineOptions) {
		opts.metrics = m
	}
}

// MatchingEngine owns one OrderBook and serializes every caller onto it.
// All commands go through a ring buffer drained by a single goroutine (Run),
// so the book is never touched concurrently and a snapshot never observes a
// half applied match.
type MatchingEngine struct {
	isShutdown atomic.Bool
	book       *OrderBook
	ring       *RingBuffer[InputEvent]
	metrics    *MetricsPublishLog
}

// NewMatchingEngine creates a matching engine publishing book logs to publishLog.
func NewMatchingEngine(publishLog PublishLog, opts ...EngineOption) *MatchingEngine {
	options := engineOptions{
		ringBufferSize: defaultRingBufferSize,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if publishLog == nil {
		publishLog = NewDiscardPublishLog()
	}
	if options.metrics != nil {
		publishLog = NewMultiPublishLog(publishLog, options.metrics)
	}

	engine := &MatchingEngine{
		book:    NewOrderBook(WithPublishLog(publishLog)),
		metrics: options.metrics,
	}
	engine.ring = NewRingBuffer[InputEvent](options.ringBufferSize, engine)

	return engine
}

// Run processes commands until Shutdown is called and the mailbox is drained.
func (engine *MatchingEngine) Run() {
	logger.Info("matching engine started", "version", EngineVersion)
	engine.ring.Run()
	logger.Info("matching engine stopped")
}

// Shutdown stops accepting commands and waits for pending ones to be processed.
// Returns ctx.Err() if the context ends first.
func (engine *MatchingEngine) Shutdown(ctx context.Context) error {
	engine.isShutdown.Store(true)
	return engine.ring.Shutdown(ctx)
}

// PlaceOrder validates cmd, adds the order and returns the outcome.
// A rejection by the book is reported in the result, not as an error.
//
// ErrTimeout leaves the outcome unknown: the command is already queued and
// still runs, so the order may rest or trade after the caller gave up.
func (engine *MatchingEngine) PlaceOrder(ctx context.Context, cmd *PlaceOrderCommand) (*PlaceOrderResult, error) {
	if err := validatePlaceOrder(cmd); err != nil {
		return nil, err
	}

	resp, err := engine.send(ctx, InputEvent{Type: CmdPlaceOrder, Place: cmd})
	if err != nil {
		return nil, err
	}

	result, _ := resp.(*PlaceOrderResult)
	return result, nil
}

// CancelOrder cancels a resting order. An id that is not resting is
// rejected with RejectReasonUnknownOrder.
func (engine *MatchingEngine) CancelOrder(ctx context.Context, id uint64) (*CancelOrderResult, error) {
	resp, err := engine.send(ctx, InputEvent{Type: CmdCancelOrder, OrderID: id})
	if err != nil {
		return nil, err
	}

	result, _ := resp.(*CancelOrderResult)
	return result, nil
}

// ModifyOrder replaces a resting order. An id that is not resting is
// rejected with RejectReasonUnknownOrder and the book is left untouched.
func (engine *MatchingEngine) ModifyOrder(ctx context.Context, mod OrderModify) (*ModifyOrderResult, error) {
	if !isValidSide(mod.Side) || !mod.Size.IsPositive() || !mod.Price.IsPositive() {
		return nil, ErrInvalidParam
	}

	resp, err := engine.send(ctx, InputEvent{Type: CmdModifyOrder, Modify: mod})
	if err != nil {
		return nil, err
	}

	result, _ := resp.(*ModifyOrderResult)
	return result, nil
}

// OrderInfo returns the aggregated book.
func (engine *MatchingEngine) OrderInfo(ctx context.Context) (*AggregatedOrderbook, error) {
	resp, err := engine.send(ctx, InputEvent{Type: CmdOrderInfo})
	if err != nil {
		return nil, err
	}

	info, _ := resp.(*AggregatedOrderbook)
	return info, nil
}

// Stats returns usage statistics for the order book.
func (engine *MatchingEngine) Stats(ctx context.Context) (*BookStats, error) {
	resp, err := engine.send(ctx, InputEvent{Type: CmdGetStats})
	if err != nil {
		return nil, err
	}

	stats, _ := resp.(*BookStats)
	return stats, nil
}

// OnEvent runs on the consumer goroutine. It is the only code touching the book.
func (engine *MatchingEngine) OnEvent(ev *InputEvent) {
	var resp any

	switch ev.Type {
	case CmdPlaceOrder:
		resp = engine.placeOrder(ev.Place)
	case CmdCancelOrder:
		resp = engine.cancelOrder(ev.OrderID)
	case CmdModifyOrder:
		resp = engine.modifyOrder(ev.Modify)
	case CmdOrderInfo:
		resp = engine.book.OrderInfo()
	case CmdGetStats:
		resp = engine.book.Stats()
	default:
		logger.Error("unknown command type", "type", ev.Type)
	}

	switch ev.Type {
	case CmdPlaceOrder, CmdCancelOrder, CmdModifyOrder:
		if engine.metrics != nil {
			engine.metrics.ObserveStats(engine.book.Stats())
		}
	}

	if ev.Resp != nil {
		ev.Resp <- resp
	}

	// drop references held by the reused slot
	*ev = InputEvent{}
}

func (engine *MatchingEngine) placeOrder(cmd *PlaceOrderCommand) *PlaceOrderResult {
	var order *Order
	if cmd.Type == Market {
		order = NewMarketOrder(cmd.ID, cmd.Side, cmd.Size)
	} else {
		order = NewOrder(cmd.ID, cmd.Type, cmd.Side, cmd.Price, cmd.Size)
	}

	trades, reason := engine.book.addOrder(order)

	return &PlaceOrderResult{
		Trades:       trades,
		RejectReason: reason,
		Remaining:    order.Remaining(),
		Filled:       order.Filled(),
		Resting:      order.isResting(),
	}
}

func (engine *MatchingEngine) cancelOrder(id uint64) *CancelOrderResult {
	order, ok := engine.book.Order(id)
	if !ok {
		return &CancelOrderResult{RejectReason: RejectReasonUnknownOrder}
	}

	result := &CancelOrderResult{
		Filled:   order.Filled(),
		Canceled: order.Remaining(),
	}
	engine.book.CancelOrder(id)
	return result
}

func (engine *MatchingEngine) modifyOrder(mod OrderModify) *ModifyOrderResult {
	if _, ok := engine.book.Order(mod.ID); !ok {
		return &ModifyOrderResult{RejectReason: RejectReasonUnknownOrder}
	}

	trades := engine.book.ModifyOrder(mod)

	filled := decimal.Zero
	for _, trade := range trades {
		if mod.Side == Buy {
			filled = filled.Add(trade.Bid.Size)
		} else {
			filled = filled.Add(trade.Ask.Size)
		}
	}

	result := &ModifyOrderResult{
		Trades:    trades,
		Filled:    filled,
		Remaining: decimal.Zero,
	}
	if order, ok := engine.book.Order(mod.ID); ok {
		result.Remaining = order.Remaining()
		result.Resting = true
	}
	return result
}

// send enqueues ev and waits for its reply. Once published, ev runs even if
// ctx ends first.
func (engine *MatchingEngine) send(ctx context.Context, ev InputEvent) (any, error) {
	if engine.isShutdown.Load() {
		return nil, ErrShutdown
	}

	ev.Resp = make(chan any, 1)
	if !engine.ring.Publish(ev) {
		return nil, ErrShutdown
	}

	select {
	case resp := <-ev.Resp:
		return resp, nil
	case <-ctx.Done():
		return nil, ErrTimeout
	}
}

func validatePlaceOrder(cmd *PlaceOrderCommand) error {
	if cmd == nil || cmd.ID == 0 || !isValidSide(cmd.Side) || !cmd.Size.IsPositive() {
		return ErrInvalidParam
	}

	switch cmd.Type {
	case Market:
		return nil
	case Limit, FillAndKill:
		if !cmd.Price.IsPositive() {
			return ErrInvalidParam
		}
		return nil
	}

	return ErrInvalidParam
}

func isValidSide(side Side) bool {
	return side == Buy || side == Sell
}

