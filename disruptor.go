package match

import (
	"context"
	"runtime"
	"sync/atomic"
)

// EventHandler consumes events from a RingBuffer.
type EventHandler[T any] interface {
	OnEvent(event *T)
}

// RingBuffer is a multi-producer single-consumer ring buffer.
// Producers claim sequences with CAS; the single consumer goroutine started
// by Run hands every event to the handler in sequence order.
type RingBuffer[T any] struct {
	// Cache line padding to avoid false sharing
	_                [56]byte
	producerSequence atomic.Int64
	_                [56]byte
	consumerSequence atomic.Int64
	_                [56]byte

	buffer     []T
	bufferMask int64
	capacity   int64

	// published[i] holds the sequence last committed into slot i
	published []int64

	handler EventHandler[T]

	isShutdown atomic.Bool
	done       chan struct{}
}

// NewRingBuffer creates a new RingBuffer. capacity must be a power of 2.
func NewRingBuffer[T any](capacity int64, handler EventHandler[T]) *RingBuffer[T] {
	if capacity <= 0 || (capacity&(capacity-1)) != 0 {
		panic("size must be a power of 2")
	}

	rb := &RingBuffer[T]{
		buffer:     make([]T, capacity),
		published:  make([]int64, capacity),
		capacity:   capacity,
		bufferMask: capacity - 1,
		handler:    handler,
		done:       make(chan struct{}),
	}

	rb.producerSequence.Store(-1)
	rb.consumerSequence.Store(-1)

	for i := range rb.published {
		atomic.StoreInt64(&rb.published[i], -1)
	}

	return rb
}

// Claim reserves the next slot and returns its sequence and a pointer to it.
// The slot must be filled and then passed to Commit.
// It returns (-1, nil) once the buffer is shutting down.
func (rb *RingBuffer[T]) Claim() (int64, *T) {
	if rb.isShutdown.Load() {
		return -1, nil
	}

	var nextSeq int64
	for {
		currentProducerSeq := rb.producerSequence.Load()
		nextSeq = currentProducerSeq + 1

		// the producer may not lap the consumer
		wrapPoint := nextSeq - rb.capacity
		if wrapPoint > rb.consumerSequence.Load() {
			runtime.Gosched()
			continue
		}

		if rb.producerSequence.CompareAndSwap(currentProducerSeq, nextSeq) {
			break
		}
		runtime.Gosched()
	}

	return nextSeq, &rb.buffer[nextSeq&rb.bufferMask]
}

// Commit makes a claimed slot visible to the consumer.
func (rb *RingBuffer[T]) Commit(seq int64) {
	atomic.StoreInt64(&rb.published[seq&rb.bufferMask], seq)
}

// Publish copies event into the next slot. It reports false if the buffer is shutting down.
func (rb *RingBuffer[T]) Publish(event T) bool {
	seq, slot := rb.Claim()
	if slot == nil {
		return false
	}
	*slot = event
	rb.Commit(seq)
	return true
}

// Run consumes events until Shutdown is called and every claimed event is handled.
// It blocks, so callers usually start it in its own goroutine.
func (rb *RingBuffer[T]) Run() {
	defer close(rb.done)

	nextConsumerSeq := rb.consumerSequence.Load() + 1

	for {
		availableSeq := rb.producerSequence.Load()

		if nextConsumerSeq > availableSeq {
			if rb.isShutdown.Load() && nextConsumerSeq > rb.producerSequence.Load() {
				return
			}
			runtime.Gosched()
			continue
		}

		for nextConsumerSeq <= availableSeq {
			index := nextConsumerSeq & rb.bufferMask

			// wait for the producer that claimed this slot to commit it
			for atomic.LoadInt64(&rb.published[index]) != nextConsumerSeq {
				runtime.Gosched()
			}

			rb.handler.OnEvent(&rb.buffer[index])

			rb.consumerSequence.Store(nextConsumerSeq)
			nextConsumerSeq++
		}
	}
}

// Shutdown stops accepting events and waits until the consumer has drained the buffer.
// It returns ctx.Err() if the context ends first.
func (rb *RingBuffer[T]) Shutdown(ctx context.Context) error {
	rb.isShutdown.Store(true)

	select {
	case <-rb.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ConsumerSequence returns the last handled sequence.
func (rb *RingBuffer[T]) ConsumerSequence() int64 {
	return rb.consumerSequence.Load()
}

// ProducerSequence returns the last claimed sequence.
func (rb *RingBuffer[T]) ProducerSequence() int64 {
	return rb.producerSequence.Load()
}

// GetPendingEvents returns the number of claimed events not yet handled.
func (rb *RingBuffer[T]) GetPendingEvents() int64 {
	producerSeq := rb.producerSequence.Load()
	consumerSeq := rb.consumerSequence.Load()
	return producerSeq - consumerSeq
}
