package events

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultJournalLimit = 4096

// Entry is one committed line of the audit log. Sequence numbers are assigned
// in emission order, start at 1, and never repeat.
type Entry struct {
	Sequence   uint64            `json:"sequence"`
	Cursor     string            `json:"cursor"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	Timestamp  int64             `json:"timestamp"`
}

func cloneEntry(entry Entry) Entry {
	cloned := entry
	if len(entry.Attributes) > 0 {
		attrs := make(map[string]string, len(entry.Attributes))
		for k, v := range entry.Attributes {
			attrs[k] = v
		}
		cloned.Attributes = attrs
	}
	return cloned
}

// Journal is an Emitter that retains an ordered, append-only history of every
// event and fans entries out to live subscribers. Slow subscribers are never
// blocked on; they catch up from the history via their cursor.
type Journal struct {
	mu      sync.Mutex
	seq     uint64
	limit   int
	history []Entry
	subs    map[uint64]chan Entry
	nextSub uint64
	nowFn   func() int64
}

// NewJournal constructs a journal retaining at most limit entries of history.
// A non-positive limit selects the default.
func NewJournal(limit int) *Journal {
	if limit <= 0 {
		limit = defaultJournalLimit
	}
	return &Journal{
		limit: limit,
		subs:  make(map[uint64]chan Entry),
		nowFn: func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the timestamp source for deterministic testing.
func (j *Journal) SetNowFunc(now func() int64) {
	if now == nil {
		return
	}
	j.mu.Lock()
	j.nowFn = now
	j.mu.Unlock()
}

// Emit implements the Emitter interface. Events that do not carry a payload
// are recorded with their type only.
func (j *Journal) Emit(evt Event) {
	if j == nil || evt == nil {
		return
	}
	entry := Entry{Type: evt.EventType()}
	if payloader, ok := evt.(Payloader); ok {
		if payload := payloader.Payload(); payload != nil {
			entry.Type = payload.Type
			if len(payload.Attributes) > 0 {
				attrs := make(map[string]string, len(payload.Attributes))
				for k, v := range payload.Attributes {
					attrs[k] = v
				}
				entry.Attributes = attrs
			}
		}
	}

	j.mu.Lock()
	j.seq++
	entry.Sequence = j.seq
	entry.Cursor = strconv.FormatUint(entry.Sequence, 10)
	entry.Timestamp = j.nowFn()
	j.history = append(j.history, cloneEntry(entry))
	if len(j.history) > j.limit {
		excess := len(j.history) - j.limit
		trimmed := make([]Entry, j.limit)
		copy(trimmed, j.history[excess:])
		j.history = trimmed
	}
	// Fan out under the lock: sends never block, and cancel closes subscriber
	// channels under the same lock, so a send can never race a close.
	for _, ch := range j.subs {
		select {
		case ch <- cloneEntry(entry):
		default:
		}
	}
	j.mu.Unlock()
}

// Entries returns the retained history after the supplied cursor. An empty
// cursor replays everything still retained.
func (j *Journal) Entries(cursor string) []Entry {
	if j == nil {
		return nil
	}
	since := parseCursor(cursor)
	j.mu.Lock()
	history := make([]Entry, len(j.history))
	copy(history, j.history)
	j.mu.Unlock()

	out := make([]Entry, 0, len(history))
	for _, entry := range history {
		if entry.Sequence > since {
			out = append(out, cloneEntry(entry))
		}
	}
	return out
}

// Subscribe registers a live subscriber starting after the supplied cursor.
// The returned backlog covers retained entries newer than the cursor; the
// channel delivers everything emitted afterwards. Callers must invoke cancel
// when done.
func (j *Journal) Subscribe(ctx context.Context, cursor string) (<-chan Entry, func(), []Entry) {
	updates := make(chan Entry, 32)
	since := parseCursor(cursor)

	j.mu.Lock()
	id := j.nextSub
	j.nextSub++
	j.subs[id] = updates
	history := make([]Entry, len(j.history))
	copy(history, j.history)
	j.mu.Unlock()

	backlog := make([]Entry, 0, len(history))
	for _, entry := range history {
		if entry.Sequence > since {
			backlog = append(backlog, cloneEntry(entry))
		}
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			j.mu.Lock()
			sub, ok := j.subs[id]
			if ok {
				delete(j.subs, id)
				close(sub)
			}
			j.mu.Unlock()
		})
	}

	if ctx != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return updates, cancel, backlog
}

func parseCursor(cursor string) uint64 {
	trimmed := strings.TrimSpace(cursor)
	if trimmed == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
