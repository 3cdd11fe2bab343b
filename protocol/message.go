package protocol

// MsgType identifies a session message. Values follow the FIX tag 35 codes.
type MsgType string

const (
	MsgTypeNewOrderSingle            MsgType = "D"
	MsgTypeOrderCancelRequest        MsgType = "F"
	MsgTypeOrderCancelReplaceRequest MsgType = "G"
	MsgTypeExecutionReport           MsgType = "8"
)

// ExecType describes the event an ExecutionReport reports on.
type ExecType string

const (
	ExecTypeNew             ExecType = "0"
	ExecTypePartiallyFilled ExecType = "1"
	ExecTypeFilled          ExecType = "2"
	ExecTypeCanceled        ExecType = "4"
	ExecTypeReplaced        ExecType = "5"
	ExecTypeRejected        ExecType = "8"
)

// OrdStatus is the state of the order after the reported event.
type OrdStatus string

const (
	OrdStatusNew             OrdStatus = "0"
	OrdStatusPartiallyFilled OrdStatus = "1"
	OrdStatusFilled          OrdStatus = "2"
	OrdStatusCanceled        OrdStatus = "4"
	OrdStatusReplaced        OrdStatus = "5"
	OrdStatusRejected        OrdStatus = "8"
)

// Message is an inbound session request.
// ClOrdID carries the client assigned order id; it must parse as an unsigned integer.
type Message struct {
	MsgType  MsgType   `json:"msg_type"`
	ClOrdID  string    `json:"cl_ord_id"`
	Side     Side      `json:"side,omitempty"`
	OrdType  OrderType `json:"ord_type,omitempty"`
	Price    string    `json:"price,omitempty"` // Using string to prevent precision loss in JSON
	OrderQty string    `json:"order_qty,omitempty"`
}

// ExecutionReport acknowledges a Message back to the originator.
type ExecutionReport struct {
	MsgType   MsgType   `json:"msg_type"`
	OrderID   string    `json:"order_id"`
	ClOrdID   string    `json:"cl_ord_id"`
	ExecID    string    `json:"exec_id"`
	ExecType  ExecType  `json:"exec_type"`
	OrdStatus OrdStatus `json:"ord_status"`
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side,omitempty"`
	Price     string    `json:"price,omitempty"`
	LeavesQty string    `json:"leaves_qty"`
	CumQty    string    `json:"cum_qty"`
	LastQty   string    `json:"last_qty,omitempty"`
	LastPx    string    `json:"last_px,omitempty"`
	Text      string    `json:"text,omitempty"`
}
