package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublishLogKeepsCopies(t *testing.T) {
	publishLog := NewMemoryPublishLog()
	book := NewOrderBook(WithPublishLog(publishLog))

	book.AddOrder(newTestOrder(1, Buy, 90, 1))
	book.AddOrder(newTestOrder(2, Sell, 90, 1))
	book.AddOrder(newTestOrder(3, Sell, 100, 1))

	// the book has recycled its pooled logs by now
	logs := publishLog.Logs()
	require.Len(t, logs, 3)
	assert.Equal(t, LogTypeOpen, logs[0].Type)
	assert.Equal(t, uint64(1), logs[0].OrderID)
	assert.Equal(t, LogTypeMatch, logs[1].Type)
	assert.Equal(t, uint64(1), logs[1].MakerOrderID)
	assert.Equal(t, LogTypeOpen, logs[2].Type)
	assert.Equal(t, uint64(3), logs[2].OrderID)

	for i, log := range logs {
		assert.Equal(t, uint64(i+1), log.SequenceID)
	}

	assert.Len(t, publishLog.LogsOfType(LogTypeOpen), 2)
	assert.Len(t, publishLog.LogsOfType(LogTypeCancel), 0)
}

func TestMultiPublishLog(t *testing.T) {
	first := NewMemoryPublishLog()
	second := NewMemoryPublishLog()
	book := NewOrderBook(WithPublishLog(NewMultiPublishLog(first, second, NewDiscardPublishLog())))

	book.AddOrder(newTestOrder(1, Buy, 90, 1))
	book.CancelOrder(1)

	assert.Equal(t, 2, first.Count())
	assert.Equal(t, first.Logs(), second.Logs())
}
