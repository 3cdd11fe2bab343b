package match

import (
	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"
)

// priceUnit is the FIFO of orders resting at one price.
type priceUnit struct {
	price decimal.Decimal
	head  *Order
	tail  *Order
	count int64
	elem  *skiplist.Element
}

// queue is one side of the book: price levels ordered best first.
type queue struct {
	side        Side
	totalOrders int64
	depths      int64
	depthList   *skiplist.SkipList
}

// priceComparator orders prices so that the best price for side comes first:
// descending for bids, ascending for asks.
func priceComparator(side Side) skiplist.GreaterThanFunc {
	return func(lhs, rhs any) int {
		d1, _ := lhs.(decimal.Decimal)
		d2, _ := rhs.(decimal.Decimal)

		cmp := d1.Cmp(d2)
		if side == Buy {
			return -cmp
		}
		return cmp
	}
}

func newQueue(side Side) *queue {
	return &queue{
		side:      side,
		depthList: skiplist.New(priceComparator(side)),
	}
}

// NewBuyerQueue creates a new queue for buy orders (bids).
// The orders are sorted by price in descending order (highest price first).
func NewBuyerQueue() *queue {
	return newQueue(Buy)
}

// NewSellerQueue creates a new queue for sell orders (asks).
// The orders are sorted by price in ascending order (lowest price first).
func NewSellerQueue() *queue {
	return newQueue(Sell)
}

// insertOrder appends the order at the tail of its price level, creating the level if needed.
func (q *queue) insertOrder(order *Order) {
	var unit *priceUnit
	if el := q.depthList.Get(order.Price); el != nil {
		unit, _ = el.Value.(*priceUnit)
	} else {
		unit = &priceUnit{price: order.Price}
		unit.elem = q.depthList.Set(order.Price, unit)
		q.depths++
	}

	order.prev = unit.tail
	order.next = nil
	if unit.tail != nil {
		unit.tail.next = order
	}
	unit.tail = order
	if unit.head == nil {
		unit.head = order
	}
	order.unit = unit

	unit.count++
	q.totalOrders++
}

// removeOrder unlinks the order from its price level in O(1) using the order's handle.
// An emptied level is dropped from the depth list.
func (q *queue) removeOrder(order *Order) {
	unit := order.unit
	if unit == nil {
		return
	}

	if order.prev != nil {
		order.prev.next = order.next
	} else {
		unit.head = order.next
	}

	if order.next != nil {
		order.next.prev = order.prev
	} else {
		unit.tail = order.prev
	}

	order.next = nil
	order.prev = nil
	order.unit = nil

	unit.count--
	q.totalOrders--

	if unit.count == 0 {
		q.depthList.RemoveElement(unit.elem)
		q.depths--
	}
}

// peekHeadOrder returns the oldest order at the best price without removing it.
func (q *queue) peekHeadOrder() *Order {
	el := q.depthList.Front()
	if el == nil {
		return nil
	}

	unit, _ := el.Value.(*priceUnit)
	return unit.head
}

// bestPrice returns the best price on this side.
func (q *queue) bestPrice() (decimal.Decimal, bool) {
	ord := q.peekHeadOrder()
	if ord == nil {
		return decimal.Zero, false
	}
	return ord.Price, true
}

// orderCount returns the total number of orders in the queue.
func (q *queue) orderCount() int64 {
	return q.totalOrders
}

// depthCount returns the number of price levels in the queue.
func (q *queue) depthCount() int64 {
	return q.depths
}

// levels sums the remaining size of every price level, best price first.
func (q *queue) levels() []LevelInfo {
	result := make([]LevelInfo, 0, q.depths)

	for el := q.depthList.Front(); el != nil; el = el.Next() {
		unit, _ := el.Value.(*priceUnit)

		total := decimal.Zero
		for order := unit.head; order != nil; order = order.next {
			total = total.Add(order.Remaining())
		}

		result = append(result, LevelInfo{
			Price: unit.price,
			Size:  total,
		})
	}

	return result
}

// orders returns the resting orders in priority order.
func (q *queue) orders() []*Order {
	result := make([]*Order, 0, q.totalOrders)

	for el := q.depthList.Front(); el != nil; el = el.Next() {
		unit, _ := el.Value.(*priceUnit)
		for order := unit.head; order != nil; order = order.next {
			result = append(result, order)
		}
	}

	return result
}
