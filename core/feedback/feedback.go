// Package feedback collects a bounded rating and optional comment at
// session end, independent of which transport carried the session.
package feedback

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNoRating is returned when submission is attempted without a rating.
var ErrNoRating = errors.New("feedback rating not set")

// ErrRatingOutOfRange is returned for ratings outside 1 through 5.
var ErrRatingOutOfRange = errors.New("feedback rating out of range")

// Entry is one recorded piece of feedback.
type Entry struct {
	ID          string
	Rating      int
	Comment     string
	SubmittedAt time.Time
}

// Recorder receives accepted feedback. Retention beyond this handoff is the
// collector's responsibility, not ours.
type Recorder interface {
	Record(entry Entry) error
}

// Collector tracks the feedback-pending condition opened at session end.
type Collector struct {
	mu       sync.Mutex
	pending  bool
	recorder Recorder
	now      func() time.Time
}

type Option func(*Collector)

// WithRecorder sets the external collector handed accepted submissions.
func WithRecorder(recorder Recorder) Option {
	return func(c *Collector) { c.recorder = recorder }
}

// WithClock replaces the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCollector(opts ...Option) *Collector {
	c := &Collector{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open marks feedback as pending. Called whenever a session ends.
func (c *Collector) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = true
}

func (c *Collector) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Submit records the rating and optional comment. A missing or out-of-range
// rating is rejected and leaves the pending condition open.
func (c *Collector) Submit(rating int, comment string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rating == 0 {
		return ErrNoRating
	}
	if rating < 1 || rating > 5 {
		return ErrRatingOutOfRange
	}

	if c.recorder != nil {
		entry := Entry{
			ID:          uuid.NewString(),
			Rating:      rating,
			Comment:     comment,
			SubmittedAt: c.now(),
		}
		if err := c.recorder.Record(entry); err != nil {
			logger.Warn("failed to record feedback", "error", err)
		}
	}

	c.pending = false
	return nil
}

// Skip closes the pending condition without recording anything. Always
// accepted.
func (c *Collector) Skip() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
}
