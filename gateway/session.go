// Package gateway adapts session messages (new order, cancel, replace) to a
// matching engine and answers each of them with an execution report.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	match "github.com/0x5487/orderbook"
	"github.com/0x5487/orderbook/protocol"
	"github.com/rs/xid"
	"github.com/shopspring/decimal"
)

var (
	ErrMalformedMessage   = errors.New("malformed message")
	ErrUnsupportedMsgType = errors.New("unsupported message type")

	// ErrOutcomeUnknown wraps match.ErrTimeout. The request may still have
	// been applied, so no report is produced for it.
	ErrOutcomeUnknown = errors.New("outcome unknown")
)

// Engine is the part of match.MatchingEngine a Session drives.
type Engine interface {
	PlaceOrder(ctx context.Context, cmd *match.PlaceOrderCommand) (*match.PlaceOrderResult, error)
	CancelOrder(ctx context.Context, id uint64) (*match.CancelOrderResult, error)
	ModifyOrder(ctx context.Context, mod match.OrderModify) (*match.ModifyOrderResult, error)
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSerializer sets the codec used by Handle.
func WithSerializer(serializer protocol.Serializer) SessionOption {
	return func(s *Session) {
		s.serializer = serializer
	}
}

// Session serves one counterparty trading one symbol.
type Session struct {
	symbol     string
	engine     Engine
	serializer protocol.Serializer
}

// NewSession creates a session for symbol on top of engine.
func NewSession(symbol string, engine Engine, opts ...SessionOption) *Session {
	s := &Session{
		symbol:     symbol,
		engine:     engine,
		serializer: &protocol.DefaultJSONSerializer{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle decodes one message, processes it and encodes the execution report.
func (s *Session) Handle(ctx context.Context, data []byte) ([]byte, error) {
	msg := &protocol.Message{}
	if err := s.serializer.Unmarshal(data, msg); err != nil {
		logger.Warn("failed to decode message", "error", err)
		return nil, fmt.Errorf("decode: %w: %w", ErrMalformedMessage, err)
	}

	report, err := s.HandleMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	return s.serializer.Marshal(report)
}

// HandleMessage processes one decoded message.
// Malformed messages return ErrMalformedMessage and never reach the engine.
// Orders the book turns away are answered with a Rejected report.
func (s *Session) HandleMessage(ctx context.Context, msg *protocol.Message) (*protocol.ExecutionReport, error) {
	switch msg.MsgType {
	case protocol.MsgTypeNewOrderSingle:
		return s.newOrder(ctx, msg)
	case protocol.MsgTypeOrderCancelRequest:
		return s.cancelOrder(ctx, msg)
	case protocol.MsgTypeOrderCancelReplaceRequest:
		return s.replaceOrder(ctx, msg)
	}

	logger.Warn("unsupported message type", "msg_type", msg.MsgType, "cl_ord_id", msg.ClOrdID)
	return nil, fmt.Errorf("%q: %w", msg.MsgType, ErrUnsupportedMsgType)
}

func (s *Session) newOrder(ctx context.Context, msg *protocol.Message) (*protocol.ExecutionReport, error) {
	id, err := parseOrderID(msg)
	if err != nil {
		return nil, err
	}

	ordType := msg.OrdType
	if ordType == "" {
		ordType = protocol.OrderTypeLimit
	}

	size, err := parseDecimal("order_qty", msg.OrderQty)
	if err != nil {
		return nil, err
	}

	price := decimal.Zero
	if ordType != protocol.OrderTypeMarket {
		price, err = parseDecimal("price", msg.Price)
		if err != nil {
			return nil, err
		}
	}

	result, err := s.engine.PlaceOrder(ctx, &match.PlaceOrderCommand{
		ID:    id,
		Side:  msg.Side,
		Type:  ordType,
		Price: price,
		Size:  size,
	})
	if errors.Is(err, match.ErrInvalidParam) {
		return s.rejected(msg, err.Error()), nil
	}
	if err != nil {
		return nil, engineError(msg, err)
	}

	if !result.Accepted() {
		logger.Info("order rejected", "cl_ord_id", msg.ClOrdID, "reason", result.RejectReason)
		return s.rejected(msg, string(result.RejectReason)), nil
	}

	report := s.report(msg, protocol.ExecTypeNew, protocol.OrdStatusNew)
	report.LeavesQty = decimal.Zero.String()
	if result.Resting {
		report.LeavesQty = result.Remaining.String()
	}
	report.CumQty = result.Filled.String()

	switch {
	case result.Resting && !result.Filled.IsZero():
		report.ExecType, report.OrdStatus = protocol.ExecTypePartiallyFilled, protocol.OrdStatusPartiallyFilled
	case result.Resting:
		// resting untouched, stays New
	case result.Remaining.IsZero():
		report.ExecType, report.OrdStatus = protocol.ExecTypeFilled, protocol.OrdStatusFilled
	default:
		// unfilled remainder of a Market or Fill And Kill order was discarded
		report.ExecType, report.OrdStatus = protocol.ExecTypeCanceled, protocol.OrdStatusCanceled
	}

	setLastFill(report, id, result.Trades)
	return report, nil
}

func (s *Session) cancelOrder(ctx context.Context, msg *protocol.Message) (*protocol.ExecutionReport, error) {
	id, err := parseOrderID(msg)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.CancelOrder(ctx, id)
	if err != nil {
		return nil, engineError(msg, err)
	}

	if !result.Accepted() {
		logger.Info("cancel rejected", "cl_ord_id", msg.ClOrdID, "reason", result.RejectReason)
		return s.rejected(msg, string(result.RejectReason)), nil
	}

	report := s.report(msg, protocol.ExecTypeCanceled, protocol.OrdStatusCanceled)
	report.LeavesQty = decimal.Zero.String()
	report.CumQty = result.Filled.String()
	return report, nil
}

func (s *Session) replaceOrder(ctx context.Context, msg *protocol.Message) (*protocol.ExecutionReport, error) {
	id, err := parseOrderID(msg)
	if err != nil {
		return nil, err
	}

	size, err := parseDecimal("order_qty", msg.OrderQty)
	if err != nil {
		return nil, err
	}

	price, err := parseDecimal("price", msg.Price)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.ModifyOrder(ctx, match.OrderModify{
		ID:    id,
		Side:  msg.Side,
		Price: price,
		Size:  size,
	})
	if errors.Is(err, match.ErrInvalidParam) {
		return s.rejected(msg, err.Error()), nil
	}
	if err != nil {
		return nil, engineError(msg, err)
	}

	if !result.Accepted() {
		logger.Info("replace rejected", "cl_ord_id", msg.ClOrdID, "reason", result.RejectReason)
		return s.rejected(msg, string(result.RejectReason)), nil
	}

	report := s.report(msg, protocol.ExecTypeReplaced, protocol.OrdStatusReplaced)
	report.LeavesQty = result.Remaining.String()
	report.CumQty = result.Filled.String()
	setLastFill(report, id, result.Trades)
	return report, nil
}

func (s *Session) report(msg *protocol.Message, execType protocol.ExecType, status protocol.OrdStatus) *protocol.ExecutionReport {
	return &protocol.ExecutionReport{
		MsgType:   protocol.MsgTypeExecutionReport,
		OrderID:   "EX" + msg.ClOrdID,
		ClOrdID:   msg.ClOrdID,
		ExecID:    xid.New().String(),
		ExecType:  execType,
		OrdStatus: status,
		Symbol:    s.symbol,
		Side:      msg.Side,
		Price:     msg.Price,
	}
}

func (s *Session) rejected(msg *protocol.Message, text string) *protocol.ExecutionReport {
	report := s.report(msg, protocol.ExecTypeRejected, protocol.OrdStatusRejected)
	report.LeavesQty = decimal.Zero.String()
	report.CumQty = decimal.Zero.String()
	report.Text = text
	return report
}

// setLastFill copies the last fill of order id into the report.
func setLastFill(report *protocol.ExecutionReport, id uint64, trades []match.Trade) {
	if len(trades) == 0 {
		return
	}

	leg := legOf(trades[len(trades)-1], id)
	report.LastQty = leg.Size.String()
	report.LastPx = leg.Price.String()
}

// legOf returns the side of the trade that belongs to order id.
func legOf(trade match.Trade, id uint64) match.TradeInfo {
	if trade.Bid.OrderID == id {
		return trade.Bid
	}
	return trade.Ask
}

// engineError marks a timed out request as having an unknown outcome.
func engineError(msg *protocol.Message, err error) error {
	if errors.Is(err, match.ErrTimeout) {
		logger.Warn("engine request timed out", "cl_ord_id", msg.ClOrdID, "msg_type", msg.MsgType)
		return fmt.Errorf("cl_ord_id %q: %w: %w", msg.ClOrdID, ErrOutcomeUnknown, err)
	}
	return err
}

func parseOrderID(msg *protocol.Message) (uint64, error) {
	id, err := strconv.ParseUint(msg.ClOrdID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cl_ord_id %q: %w", msg.ClOrdID, ErrMalformedMessage)
	}
	return id, nil
}

func parseDecimal(field string, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %w", field, value, ErrMalformedMessage)
	}
	return d, nil
}
