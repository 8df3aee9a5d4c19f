package callcontext

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/square-key-labs/strawgo-callbridge/src/logger"
)

const defaultShards = 16

type entry struct {
	issue    string
	storedAt time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]entry
}

// MemoryStore is an in-process Store. Keys are spread over shards so
// unrelated calls rarely contend on the same lock.
type MemoryStore struct {
	shards []*shard
	ttl    time.Duration
	now    func() time.Time
	logger *logger.Logger
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithTTL drops entries that were not taken within ttl. Zero keeps them
// until taken.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.ttl = ttl }
}

// WithShards sets the number of lock shards
func WithShards(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.shards = make([]*shard, n)
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an empty store
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		shards: make([]*shard, defaultShards),
		now:    time.Now,
		logger: logger.WithPrefix("ContextStore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]entry)}
	}
	return s
}

func (s *MemoryStore) shardFor(callSid string) *shard {
	h := fnv.New32a()
	h.Write([]byte(callSid))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *MemoryStore) expired(e entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.storedAt) > s.ttl
}

// Put stores issue for callSid, replacing any earlier value. Empty issue
// text is not stored.
func (s *MemoryStore) Put(_ context.Context, callSid, issue string) error {
	if callSid == "" {
		return ErrEmptyCallSid
	}
	if issue == "" {
		return nil
	}

	sh := s.shardFor(callSid)
	sh.mu.Lock()
	sh.entries[callSid] = entry{issue: issue, storedAt: s.now()}
	sh.mu.Unlock()

	s.logger.Debug("stored context for call %s (%d chars)", callSid, len(issue))
	return nil
}

// TakeIfPresent returns and removes the issue stored for callSid
func (s *MemoryStore) TakeIfPresent(_ context.Context, callSid string) (string, bool, error) {
	if callSid == "" {
		return "", false, nil
	}

	sh := s.shardFor(callSid)
	sh.mu.Lock()
	e, ok := sh.entries[callSid]
	if ok {
		delete(sh.entries, callSid)
	}
	sh.mu.Unlock()

	if !ok || s.expired(e, s.now()) {
		return "", false, nil
	}
	return e.issue, true, nil
}

// Len reports the number of entries held, expired ones included
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// Sweep removes expired entries and returns how many were dropped
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	now := s.now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, e := range sh.entries {
			if s.expired(e, now) {
				delete(sh.entries, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Run sweeps expired entries every interval until ctx is cancelled
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("dropped %d unclaimed call contexts", n)
			}
		}
	}
}
