package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/jllopis/anemos/pkg/core"
)

// DefaultLedgerCapacity bounds a ledger whose policy leaves Capacity unset.
const DefaultLedgerCapacity = 256

// Ledger records completed requests and answers history queries.
type Ledger interface {
	// Append records one request outcome.
	Append(ctx context.Context, rec core.RequestRecord) error
	// Recent returns up to limit records, oldest first. A non-positive
	// limit returns everything retained.
	Recent(ctx context.Context, limit int) ([]core.RequestRecord, error)
	// Len reports the number of retained records.
	Len(ctx context.Context) (int, error)
	// Prune drops records older than the retention age and reports how
	// many were removed.
	Prune(ctx context.Context) (int, error)
}

// RetentionPolicy bounds what a ledger keeps. Capacity limits the record
// count, MaxAge limits record age for Prune; zero MaxAge disables age
// pruning.
type RetentionPolicy struct {
	Capacity int
	MaxAge   time.Duration
}

func (p RetentionPolicy) capacity() int {
	if p.Capacity <= 0 {
		return DefaultLedgerCapacity
	}
	return p.Capacity
}

// MemoryLedger is a bounded in-memory ring of request records. Appending
// beyond capacity evicts the oldest record.
type MemoryLedger struct {
	mu     sync.Mutex
	policy RetentionPolicy
	slots  []core.RequestRecord
	head   int
	count  int
}

// NewMemoryLedger returns an in-memory ledger with the given retention.
func NewMemoryLedger(policy RetentionPolicy) *MemoryLedger {
	return &MemoryLedger{
		policy: policy,
		slots:  make([]core.RequestRecord, policy.capacity()),
	}
}

// Append records one request outcome, evicting the oldest record when the
// ring is full.
func (l *MemoryLedger) Append(_ context.Context, rec core.RequestRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.count < len(l.slots) {
		l.slots[(l.head+l.count)%len(l.slots)] = rec
		l.count++
		return nil
	}
	l.slots[l.head] = rec
	l.head = (l.head + 1) % len(l.slots)
	return nil
}

// Recent returns the newest records up to limit, oldest first among them.
func (l *MemoryLedger) Recent(_ context.Context, limit int) ([]core.RequestRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]core.RequestRecord, 0, n)
	for i := l.count - n; i < l.count; i++ {
		out = append(out, l.slots[(l.head+i)%len(l.slots)])
	}
	return out, nil
}

// Len reports the number of retained records.
func (l *MemoryLedger) Len(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count, nil
}

// Prune drops records older than the policy's MaxAge. With no MaxAge it
// keeps everything.
func (l *MemoryLedger) Prune(_ context.Context) (int, error) {
	if l.policy.MaxAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-l.policy.MaxAge)

	l.mu.Lock()
	defer l.mu.Unlock()
	kept := make([]core.RequestRecord, 0, l.count)
	for i := 0; i < l.count; i++ {
		rec := l.slots[(l.head+i)%len(l.slots)]
		if rec.StartedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, rec)
	}
	dropped := l.count - len(kept)
	if dropped > 0 {
		l.slots = make([]core.RequestRecord, len(l.slots))
		copy(l.slots, kept)
		l.head = 0
		l.count = len(kept)
	}
	return dropped, nil
}
