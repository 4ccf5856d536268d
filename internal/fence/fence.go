// Package fence hands out monotonic request tokens per (client, area) so a
// handler can tell whether a newer submission to the same result container
// started while it was waiting on the backend.
package fence

import (
	"context"
	"sync"
	"time"
)

// Token identifies one submission.
type Token struct {
	key string
	seq uint64
}

type slot struct {
	seq      uint64
	lastUsed time.Time
}

// Fence tracks the newest token per key. The zero value is not usable; use New.
//
// Sequence numbers come from one counter shared by all keys, so a key that was
// swept and started again never hands out a number an older request holds.
type Fence struct {
	mu    sync.Mutex
	next  uint64
	slots map[string]*slot
	now   func() time.Time
}

func New() *Fence {
	return &Fence{
		slots: make(map[string]*slot),
		now:   time.Now,
	}
}

func key(client, area string) string {
	return client + "\x00" + area
}

// Begin issues a token newer than every token issued before for the same
// client and area.
func (f *Fence) Begin(client, area string) Token {
	k := key(client, area)

	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.slots[k]
	if !ok {
		s = &slot{}
		f.slots[k] = s
	}
	f.next++
	s.seq = f.next
	s.lastUsed = f.now()
	return Token{key: k, seq: s.seq}
}

// Current reports whether t is still the newest token for its key. A swept
// key counts as current unless a newer token was issued since.
func (f *Fence) Current(t Token) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.slots[t.key]
	if !ok {
		return true
	}
	return s.seq == t.seq
}

// Sweep drops keys untouched for longer than idle and returns how many went.
func (f *Fence) Sweep(idle time.Duration) int {
	cutoff := f.now().Add(-idle)

	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for k, s := range f.slots {
		if s.lastUsed.Before(cutoff) {
			delete(f.slots, k)
			n++
		}
	}
	return n
}

// Len is the number of tracked keys.
func (f *Fence) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.slots)
}

// RunSweeper sweeps every interval until ctx is done.
func (f *Fence) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.Sweep(idle)
		}
	}
}
