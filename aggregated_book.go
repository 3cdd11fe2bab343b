package match

import (
	"fmt"
	"sync"

	"github.com/igrmk/treemap/v2"
	"github.com/shopspring/decimal"
)

// AggregatedBook maintains a simplified view of the order book,
// tracking only price levels and their aggregated sizes (depth).
// It is designed for downstream services that need to rebuild
// order book state from BookLog events. It implements PublishLog,
// so it can be attached to an OrderBook directly.
type AggregatedBook struct {
	mu    sync.RWMutex
	seqID uint64 // Last processed SequenceID for gap detection and deduplication
	ask   *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
	bid   *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
}

func lessPrice(a, b decimal.Decimal) bool {
	return a.LessThan(b)
}

// NewAggregatedBook creates a new AggregatedBook instance with empty ask and bid sides.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		ask: treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](lessPrice),
		bid: treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](lessPrice),
	}
}

// SequenceID returns the last processed sequence ID.
func (ab *AggregatedBook) SequenceID() uint64 {
	ab.mu.RLock()
	defer ab.mu.RUnlock()
	return ab.seqID
}

// Publish replays logs as they are produced. Gaps are logged and the offending log skipped.
func (ab *AggregatedBook) Publish(logs ...*BookLog) {
	for _, log := range logs {
		if err := ab.Replay(log); err != nil {
			logger.Warn("aggregated book replay failed", "seq_id", log.SequenceID, "error", err)
		}
	}
}

// Replay applies a BookLog event to update the aggregated book state.
// Events already seen are ignored. Events with LogType == LogTypeReject do not
// affect book state but still advance the sequence ID.
func (ab *AggregatedBook) Replay(log *BookLog) error {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	if log.SequenceID <= ab.seqID {
		return nil
	}
	if log.SequenceID != ab.seqID+1 {
		return fmt.Errorf("expected seq_id %d, got %d: %w", ab.seqID+1, log.SequenceID, ErrSequenceGap)
	}
	ab.seqID = log.SequenceID

	change := CalculateDepthChange(log)
	if change.SizeDiff.IsZero() {
		return nil
	}

	tree := ab.tree(change.Side)
	size, _ := tree.Get(change.Price)
	size = size.Add(change.SizeDiff)
	if size.IsPositive() {
		tree.Set(change.Price, size)
	} else {
		tree.Del(change.Price)
	}

	return nil
}

// OnRebuild resets the aggregated book from a snapshot taken at seqID.
// Replay continues with the log following seqID.
func (ab *AggregatedBook) OnRebuild(snapshot *AggregatedOrderbook, seqID uint64) {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	ab.bid = treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](lessPrice)
	ab.ask = treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](lessPrice)
	for _, lvl := range snapshot.Bids {
		ab.bid.Set(lvl.Price, lvl.Size)
	}
	for _, lvl := range snapshot.Asks {
		ab.ask.Set(lvl.Price, lvl.Size)
	}
	ab.seqID = seqID
}

// Depth returns the aggregated size at a specific price level for the given side.
// Returns zero if the price level does not exist.
func (ab *AggregatedBook) Depth(side Side, price decimal.Decimal) decimal.Decimal {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	size, _ := ab.tree(side).Get(price)
	return size
}

// Levels returns the price levels of one side, best price first.
func (ab *AggregatedBook) Levels(side Side) []LevelInfo {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	levels := make([]LevelInfo, 0)
	if side == Buy {
		for it := ab.bid.Reverse(); it.Valid(); it.Next() {
			levels = append(levels, LevelInfo{Price: it.Key(), Size: it.Value()})
		}
		return levels
	}

	for it := ab.ask.Iterator(); it.Valid(); it.Next() {
		levels = append(levels, LevelInfo{Price: it.Key(), Size: it.Value()})
	}
	return levels
}

func (ab *AggregatedBook) tree(side Side) *treemap.TreeMap[decimal.Decimal, decimal.Decimal] {
	if side == Buy {
		return ab.bid
	}
	return ab.ask
}
