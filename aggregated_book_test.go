package match

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatedBookReplay(t *testing.T) {
	publishLog := NewMemoryPublishLog()
	book := NewOrderBook(WithPublishLog(publishLog))

	book.AddOrder(newTestOrder(1, Buy, 90, 3))
	book.AddOrder(newTestOrder(2, Buy, 90, 2))
	book.AddOrder(newTestOrder(3, Sell, 110, 4))
	book.AddOrder(newTestOrder(4, Sell, 95, 1))
	// fills 1 (3) and 2 (1)
	book.AddOrder(newTestOrder(5, Sell, 90, 4))
	// sweeps the asks, the rest is rejected
	book.AddOrder(NewMarketOrder(6, Buy, decimal.NewFromInt(10)))
	// price mismatch
	book.AddOrder(NewOrder(7, FillAndKill, Sell, decimal.NewFromInt(100), decimal.NewFromInt(1)))
	book.AddOrder(newTestOrder(8, Sell, 120, 2))
	book.CancelOrder(8)
	book.AddOrder(newTestOrder(9, Sell, 100, 2))

	ab := NewAggregatedBook()
	for _, log := range publishLog.Logs() {
		require.NoError(t, ab.Replay(log))
	}

	info := book.OrderInfo()
	assertLevels(t, info.Bids, ab.Levels(Buy))
	assertLevels(t, info.Asks, ab.Levels(Sell))
	assert.Equal(t, book.SequenceID(), ab.SequenceID())

	assert.Equal(t, "1", ab.Depth(Buy, decimal.NewFromInt(90)).String())
	assert.Equal(t, "2", ab.Depth(Sell, decimal.NewFromInt(100)).String())
	assert.True(t, ab.Depth(Sell, decimal.NewFromInt(120)).IsZero())
}

func TestAggregatedBookAsPublishLog(t *testing.T) {
	ab := NewAggregatedBook()
	book := NewOrderBook(WithPublishLog(ab))

	book.AddOrder(newTestOrder(1, Buy, 90, 1))
	book.AddOrder(newTestOrder(2, Buy, 91, 1))
	book.AddOrder(newTestOrder(3, Sell, 93, 1))
	book.AddOrder(newTestOrder(4, Sell, 92, 1))

	assertLevels(t, []LevelInfo{level("91", "1"), level("90", "1")}, ab.Levels(Buy))
	assertLevels(t, []LevelInfo{level("92", "1"), level("93", "1")}, ab.Levels(Sell))
}

func TestAggregatedBookSequence(t *testing.T) {
	open := func(seq uint64, price int64) *BookLog {
		return &BookLog{SequenceID: seq, Type: LogTypeOpen, Side: Buy, Price: decimal.NewFromInt(price), Size: decimal.NewFromInt(1)}
	}

	t.Run("gap", func(t *testing.T) {
		ab := NewAggregatedBook()
		require.NoError(t, ab.Replay(open(1, 100)))

		err := ab.Replay(open(3, 101))
		assert.ErrorIs(t, err, ErrSequenceGap)
		assert.Equal(t, uint64(1), ab.SequenceID())
		assert.True(t, ab.Depth(Buy, decimal.NewFromInt(101)).IsZero())
	})

	t.Run("duplicate is ignored", func(t *testing.T) {
		ab := NewAggregatedBook()
		require.NoError(t, ab.Replay(open(1, 100)))
		require.NoError(t, ab.Replay(open(1, 100)))

		assert.Equal(t, "1", ab.Depth(Buy, decimal.NewFromInt(100)).String())
	})

	t.Run("reject advances the sequence only", func(t *testing.T) {
		ab := NewAggregatedBook()
		require.NoError(t, ab.Replay(&BookLog{SequenceID: 1, Type: LogTypeReject, Side: Buy, Price: decimal.NewFromInt(100), Size: decimal.NewFromInt(1)}))

		assert.Equal(t, uint64(1), ab.SequenceID())
		assert.Empty(t, ab.Levels(Buy))
	})
}

func TestAggregatedBookRebuild(t *testing.T) {
	publishLog := NewMemoryPublishLog()
	book := NewOrderBook(WithPublishLog(publishLog))
	book.AddOrder(newTestOrder(1, Buy, 90, 1))
	book.AddOrder(newTestOrder(2, Sell, 110, 1))

	ab := NewAggregatedBook()
	ab.OnRebuild(book.OrderInfo(), book.SequenceID())

	book.AddOrder(newTestOrder(3, Buy, 110, 1))
	book.AddOrder(newTestOrder(4, Buy, 95, 2))

	for _, log := range publishLog.Logs() {
		require.NoError(t, ab.Replay(log))
	}

	assertLevels(t, book.OrderInfo().Bids, ab.Levels(Buy))
	assertLevels(t, book.OrderInfo().Asks, ab.Levels(Sell))
}
