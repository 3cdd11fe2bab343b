package match

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func restingSize(book *OrderBook) decimal.Decimal {
	total := decimal.Zero
	for _, order := range book.orders {
		total = total.Add(order.Remaining())
	}
	return total
}

func drawOrder(t *rapid.T, id uint64) *Order {
	side := rapid.SampledFrom([]Side{Buy, Sell}).Draw(t, "side")
	orderType := rapid.SampledFrom([]OrderType{Limit, Limit, Limit, Market, FillAndKill}).Draw(t, "type")
	size := decimal.NewFromInt(int64(rapid.IntRange(1, 10).Draw(t, "size")))

	if orderType == Market {
		return NewMarketOrder(id, side, size)
	}

	price := decimal.NewFromInt(int64(rapid.IntRange(95, 105).Draw(t, "price")))
	return NewOrder(id, orderType, side, price, size)
}

func TestOrderBookProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		depth := NewAggregatedBook()
		book := NewOrderBook(WithPublishLog(depth))

		var nextID uint64
		steps := rapid.IntRange(1, 200).Draw(t, "steps")

		for i := 0; i < steps; i++ {
			before := restingSize(book)

			switch rapid.IntRange(0, 9).Draw(t, "op") {
			case 0, 1:
				// cancel any id, known or not
				id := uint64(rapid.IntRange(1, int(nextID)+1).Draw(t, "cancel_id"))
				order, ok := book.Order(id)
				expected := before
				if ok {
					expected = before.Sub(order.Remaining())
				}

				book.CancelOrder(id)

				_, stillThere := book.Order(id)
				require.False(t, stillThere)
				require.True(t, expected.Equal(restingSize(book)))

			case 2:
				id := uint64(rapid.IntRange(1, int(nextID)+1).Draw(t, "modify_id"))
				book.ModifyOrder(OrderModify{
					ID:    id,
					Side:  rapid.SampledFrom([]Side{Buy, Sell}).Draw(t, "modify_side"),
					Price: decimal.NewFromInt(int64(rapid.IntRange(95, 105).Draw(t, "modify_price"))),
					Size:  decimal.NewFromInt(int64(rapid.IntRange(1, 10).Draw(t, "modify_size"))),
				})

			case 3:
				// reuse an id that may still be resting
				if nextID == 0 {
					continue
				}
				id := uint64(rapid.IntRange(1, int(nextID)).Draw(t, "reused_id"))
				_, resting := book.Order(id)
				snapshot := book.OrderInfo()

				trades, reason := book.addOrder(drawOrder(t, id))

				if resting {
					require.Nil(t, trades)
					require.Equal(t, RejectReasonDuplicateID, reason)
					assertSameBook(t, snapshot, book.OrderInfo())
				}

			default:
				nextID++
				order := drawOrder(t, nextID)

				trades, _ := book.addOrder(order)

				matched := decimal.Zero
				for _, trade := range trades {
					require.True(t, trade.Bid.Size.Equal(trade.Ask.Size))
					leg := trade.Ask
					if order.Side == Buy {
						leg = trade.Bid
					}
					require.Equal(t, order.ID, leg.OrderID)
					matched = matched.Add(leg.Size)
				}
				require.True(t, matched.Equal(order.Filled()))

				discarded := decimal.Zero
				if !order.isResting() {
					discarded = order.Remaining()
				}
				if order.Type != Limit {
					require.False(t, order.isResting(), "%s order %d rests", order.Type, order.ID)
				}

				expected := before.Add(order.Size).Sub(matched.Mul(decimal.NewFromInt(2))).Sub(discarded)
				require.True(t, expected.Equal(restingSize(book)), "expected %s resting, got %s", expected, restingSize(book))
			}

			assertBookInvariants(t, book)
			require.Equal(t, book.SequenceID(), depth.SequenceID())
			assertLevels(t, book.OrderInfo().Bids, depth.Levels(Buy))
			assertLevels(t, book.OrderInfo().Asks, depth.Levels(Sell))
		}
	})
}
