// Package recent keeps small, bounded "recently viewed" lists in memory.
package recent

import (
	"sync"
	"time"
)

// Entry is one recorded view.
type Entry struct {
	ViewedAt time.Time `json:"viewed_at"`
	Path     string    `json:"path"`
}

// Buffer is a fixed-capacity ring. Once full, each Push overwrites the
// oldest entry. Re-pushing a path already held moves it to the front.
type Buffer struct {
	mu    sync.Mutex
	items []Entry
	start int
	size  int
}

// NewBuffer creates a buffer holding up to capacity entries.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{items: make([]Entry, capacity)}
}

// Push records e as the newest entry.
func (b *Buffer) Push(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.removeLocked(e.Path)

	idx := (b.start + b.size) % len(b.items)
	b.items[idx] = e
	if b.size < len(b.items) {
		b.size++
	} else {
		b.start = (b.start + 1) % len(b.items)
	}
}

// removeLocked drops the entry with path, closing the gap.
func (b *Buffer) removeLocked(path string) {
	for i, n := 0, b.size; i < n; i++ {
		if b.items[(b.start+i)%len(b.items)].Path != path {
			continue
		}
		for j := i; j < b.size-1; j++ {
			b.items[(b.start+j)%len(b.items)] = b.items[(b.start+j+1)%len(b.items)]
		}
		b.size--
		return
	}
}

// List returns the entries newest first.
func (b *Buffer) List() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Entry, b.size)
	for i, n := 0, b.size; i < n; i++ {
		out[i] = b.items[(b.start+b.size-1-i)%len(b.items)]
	}
	return out
}

// Len returns the number of entries held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Tracker holds one Buffer per user. Users with no views for idleTTL are
// dropped by a background sweeper, the way ratelimit evicts idle keys.
type Tracker struct {
	mu       sync.Mutex
	users    map[string]*userBuffer
	capacity int
	idleTTL  time.Duration
	now      func() time.Time

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

type userBuffer struct {
	buf      *Buffer
	lastSeen time.Time
}

// NewTracker creates a tracker whose per-user buffers hold capacity
// entries. Users idle for idleTTL are swept every idleTTL/2; idleTTL <= 0
// disables sweeping. Call Stop when done.
func NewTracker(capacity int, idleTTL time.Duration) *Tracker {
	t := &Tracker{
		users:    make(map[string]*userBuffer),
		capacity: capacity,
		idleTTL:  idleTTL,
		now:      time.Now,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	go t.cleanup()

	return t
}

// Push records that userID viewed path.
func (t *Tracker) Push(userID, path string) {
	if userID == "" {
		return
	}
	now := t.now()
	t.buffer(userID, now).Push(Entry{Path: path, ViewedAt: now})
}

// List returns userID's views, newest first.
func (t *Tracker) List(userID string) []Entry {
	t.mu.Lock()
	u, ok := t.users[userID]
	t.mu.Unlock()
	if !ok {
		return []Entry{}
	}
	return u.buf.List()
}

// Len reports how many users are currently tracked.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.users)
}

func (t *Tracker) buffer(userID string, now time.Time) *Buffer {
	t.mu.Lock()
	defer t.mu.Unlock()

	u, ok := t.users[userID]
	if !ok {
		u = &userBuffer{buf: NewBuffer(t.capacity)}
		t.users[userID] = u
	}
	u.lastSeen = now
	return u.buf
}

// Stop shuts down the sweeper and waits for it to exit.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.done)
	})
	<-t.stopped
}

func (t *Tracker) cleanup() {
	defer close(t.stopped)

	if t.idleTTL <= 0 {
		<-t.done
		return
	}

	ticker := time.NewTicker(t.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.sweep()
		}
	}
}

// sweep drops users idle for longer than idleTTL.
func (t *Tracker) sweep() {
	cutoff := t.now().Add(-t.idleTTL)

	t.mu.Lock()
	defer t.mu.Unlock()
	for userID, u := range t.users {
		if u.lastSeen.Before(cutoff) {
			delete(t.users, userID)
		}
	}
}
