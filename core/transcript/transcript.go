// Package transcript holds the ordered message timeline shared by both
// transports.
package transcript

import (
	"fmt"
	"sync"
	"time"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single immutable transcript entry.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

// dedupWindow is how far back an identical append is treated as a repeat of
// an existing entry. The voice transport can deliver the same finalized
// fragment more than once under normal operation.
const dedupWindow = time.Second

// Log is an append-only, ordered message log. Entries are read back in
// append order; individual entries are never removed or reordered.
type Log struct {
	mu       sync.Mutex
	now      func() time.Time
	nextID   int
	messages []Message
}

type Option func(*Log)

// WithClock replaces the time source. Used by tests to exercise the
// deduplication window without sleeping.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

func NewLog(opts ...Option) *Log {
	l := &Log{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append records a message and returns it. If an existing entry has the same
// role and content and was appended less than a second ago, the log is left
// untouched and that entry is returned instead.
func (l *Log) Append(role Role, content string) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for i := len(l.messages) - 1; i >= 0; i-- {
		existing := l.messages[i]
		if now.Sub(existing.Timestamp) >= dedupWindow {
			break
		}
		if existing.Role == role && existing.Content == content {
			return existing
		}
	}

	message := Message{
		ID:        fmt.Sprintf("msg-%d", l.nextID),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
	l.nextID++
	l.messages = append(l.messages, message)
	return message
}

// Clear empties the log. Identifiers keep increasing across clears.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = nil
}

// Messages returns a point-in-time copy of the log in append order.
func (l *Log) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	messages := make([]Message, len(l.messages))
	copy(messages, l.messages)
	return messages
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}
