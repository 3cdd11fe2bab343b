package match

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(id uint64, side Side, price int64, size int64) *Order {
	return NewOrder(id, Limit, side, decimal.NewFromInt(price), decimal.NewFromInt(size))
}

func TestBuyerQueue(t *testing.T) {
	q := NewBuyerQueue()

	q.insertOrder(newTestOrder(101, Buy, 10, 1))
	q.insertOrder(newTestOrder(201, Buy, 20, 10))
	q.insertOrder(newTestOrder(301, Buy, 30, 10))
	q.insertOrder(newTestOrder(202, Buy, 20, 100))

	assert.Equal(t, int64(4), q.orderCount())
	assert.Equal(t, int64(3), q.depthCount())

	price, ok := q.bestPrice()
	require.True(t, ok)
	assert.Equal(t, "30", price.String())

	var ids []uint64
	for _, ord := range q.orders() {
		ids = append(ids, ord.ID)
	}
	assert.Equal(t, []uint64{301, 201, 202, 101}, ids)

	levels := q.levels()
	require.Len(t, levels, 3)
	assert.Equal(t, "30", levels[0].Price.String())
	assert.Equal(t, "10", levels[0].Size.String())
	assert.Equal(t, "20", levels[1].Price.String())
	assert.Equal(t, "110", levels[1].Size.String())
	assert.Equal(t, "10", levels[2].Price.String())
	assert.Equal(t, "1", levels[2].Size.String())
}

func TestSellerQueue(t *testing.T) {
	q := NewSellerQueue()

	q.insertOrder(newTestOrder(101, Sell, 10, 1))
	q.insertOrder(newTestOrder(201, Sell, 20, 10))
	q.insertOrder(newTestOrder(301, Sell, 30, 10))
	q.insertOrder(newTestOrder(102, Sell, 10, 5))

	assert.Equal(t, int64(4), q.orderCount())
	assert.Equal(t, int64(3), q.depthCount())

	head := q.peekHeadOrder()
	require.NotNil(t, head)
	assert.Equal(t, uint64(101), head.ID)

	var ids []uint64
	for _, ord := range q.orders() {
		ids = append(ids, ord.ID)
	}
	assert.Equal(t, []uint64{101, 102, 201, 301}, ids)
}

func TestQueueRemoveOrder(t *testing.T) {
	t.Run("middle of a level", func(t *testing.T) {
		q := NewSellerQueue()
		a := newTestOrder(1, Sell, 10, 1)
		b := newTestOrder(2, Sell, 10, 2)
		c := newTestOrder(3, Sell, 10, 3)
		q.insertOrder(a)
		q.insertOrder(b)
		q.insertOrder(c)

		q.removeOrder(b)

		assert.False(t, b.isResting())
		assert.Equal(t, int64(2), q.orderCount())
		assert.Equal(t, int64(1), q.depthCount())
		assert.Same(t, c, a.next)
		assert.Same(t, a, c.prev)

		levels := q.levels()
		require.Len(t, levels, 1)
		assert.Equal(t, "4", levels[0].Size.String())
	})

	t.Run("head and tail", func(t *testing.T) {
		q := NewBuyerQueue()
		a := newTestOrder(1, Buy, 10, 1)
		b := newTestOrder(2, Buy, 10, 2)
		q.insertOrder(a)
		q.insertOrder(b)

		q.removeOrder(a)
		assert.Same(t, b, q.peekHeadOrder())

		q.removeOrder(b)
		assert.Nil(t, q.peekHeadOrder())
	})

	t.Run("empty level is dropped", func(t *testing.T) {
		q := NewBuyerQueue()
		a := newTestOrder(1, Buy, 30, 1)
		b := newTestOrder(2, Buy, 20, 1)
		q.insertOrder(a)
		q.insertOrder(b)

		q.removeOrder(a)

		assert.Equal(t, int64(1), q.depthCount())
		price, ok := q.bestPrice()
		require.True(t, ok)
		assert.Equal(t, "20", price.String())
	})

	t.Run("not resting is a no-op", func(t *testing.T) {
		q := NewBuyerQueue()
		q.insertOrder(newTestOrder(1, Buy, 30, 1))

		q.removeOrder(newTestOrder(2, Buy, 30, 1))

		assert.Equal(t, int64(1), q.orderCount())
	})

	t.Run("level re-created after emptying", func(t *testing.T) {
		q := NewSellerQueue()
		a := newTestOrder(1, Sell, 10, 1)
		q.insertOrder(a)
		q.removeOrder(a)

		b := newTestOrder(2, Sell, 10, 2)
		q.insertOrder(b)

		assert.Equal(t, int64(1), q.depthCount())
		assert.Same(t, b, q.peekHeadOrder())
	})
}

func TestQueueEquivalentPrices(t *testing.T) {
	q := NewSellerQueue()

	q.insertOrder(NewOrder(1, Limit, Sell, decimal.RequireFromString("10.0"), decimal.NewFromInt(1)))
	q.insertOrder(NewOrder(2, Limit, Sell, decimal.RequireFromString("10"), decimal.NewFromInt(1)))

	assert.Equal(t, int64(1), q.depthCount())
	assert.Equal(t, int64(2), q.orderCount())
}
