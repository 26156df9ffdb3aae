package clone

import (
	"context"
	"sync"
)

// Barrier holds the sender until every one of a fixed number of receivers
// has signaled readiness.
type Barrier struct {
	mu        sync.Mutex
	remaining int
	ch        chan struct{}
	closeOnce sync.Once
}

// NewBarrier returns a Barrier that opens once Ready has been called total
// times. A non-positive total opens immediately (no receivers to wait
// for).
func NewBarrier(total int) *Barrier {
	b := &Barrier{remaining: total, ch: make(chan struct{})}
	if total <= 0 {
		close(b.ch)
	}
	return b
}

// Ready marks one participant ready. Safe for concurrent use by every
// receiver's own goroutine.
func (b *Barrier) Ready() {
	b.mu.Lock()
	b.remaining--
	open := b.remaining <= 0
	b.mu.Unlock()
	if open {
		b.closeOnce.Do(func() { close(b.ch) })
	}
}

// Wait blocks until every participant has called Ready, or ctx is done.
func (b *Barrier) Wait(ctx context.Context) error {
	select {
	case <-b.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Opened reports, without blocking, whether every participant has called
// Ready.
func (b *Barrier) Opened() bool {
	select {
	case <-b.ch:
		return true
	default:
		return false
	}
}

// WatchReceiver consumes a receiver's stderr lines, invoking onReady on the
// banner line, onConnected on the connection line, and onTransfer for each
// recognized throughput line. It returns once lines is closed.
func WatchReceiver(lines <-chan string, onReady, onConnected func(), onTransfer func(bytesTransferred int64, mbps float64)) {
	for line := range lines {
		switch {
		case IsReadyLine(line):
			if onReady != nil {
				onReady()
			}
		case IsConnectedLine(line):
			if onConnected != nil {
				onConnected()
			}
		default:
			if n, mbps, ok := ParseTransferLine(line); ok && onTransfer != nil {
				onTransfer(n, mbps)
			}
		}
	}
}

// WatchSender consumes the sender's stderr lines, invoking onTransfer for
// each recognized throughput line.
func WatchSender(lines <-chan string, onTransfer func(bytesTransferred int64, mbps float64)) {
	for line := range lines {
		if n, mbps, ok := ParseTransferLine(line); ok && onTransfer != nil {
			onTransfer(n, mbps)
		}
	}
}
