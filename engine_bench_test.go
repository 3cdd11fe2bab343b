package match

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func BenchmarkPlaceOrders(b *testing.B) {
	goprocs := runtime.GOMAXPROCS(0)

	for _, parallelism := range []int{1, 16, 64} {
		b.Run(fmt.Sprintf("goroutines-%d", parallelism*goprocs), func(b *testing.B) {
			ctx := context.Background()
			engine := NewMatchingEngine(NewDiscardPublishLog())
			go engine.Run()

			var nextID atomic.Uint64
			var errCount atomic.Int64
			size := decimal.NewFromInt(1)

			b.SetParallelism(parallelism)
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					id := nextID.Add(1)
					side := Buy
					if id%2 == 0 {
						side = Sell
					}

					_, err := engine.PlaceOrder(ctx, &PlaceOrderCommand{
						ID:    id,
						Side:  side,
						Type:  Limit,
						Price: decimal.NewFromInt(int64(90 + id%20)),
						Size:  size,
					})
					if err != nil {
						errCount.Add(1)
					}
				}
			})
			b.StopTimer()

			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			_ = engine.Shutdown(shutdownCtx)

			if n := errCount.Load(); n > 0 {
				b.Fatalf("%d orders failed", n)
			}
		})
	}
}
