package widget

import (
	"sync"
	"time"
)

// callTimer counts elapsed call seconds. It advances once per tick while
// active and freezes, without resetting, when stopped; a new session resets
// it. No tick fires after stop returns.
type callTimer struct {
	mu       sync.Mutex
	interval time.Duration
	elapsed  int
	done     chan struct{}
}

func newCallTimer(interval time.Duration) *callTimer {
	return &callTimer{interval: interval}
}

func (t *callTimer) start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done != nil {
		return
	}
	done := make(chan struct{})
	t.done = done

	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				t.mu.Lock()
				// stop may have raced the tick; the counter must not
				// advance after cancellation.
				select {
				case <-done:
				default:
					t.elapsed++
				}
				t.mu.Unlock()
			}
		}
	}()
}

func (t *callTimer) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done == nil {
		return
	}
	close(t.done)
	t.done = nil
}

func (t *callTimer) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.elapsed = 0
}

func (t *callTimer) elapsedSeconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}
