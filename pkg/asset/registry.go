package asset

import "sync"

// Registry is the per-session deduplication set for asset downloads.
//
// It is the single source of truth for "has this hash already been scheduled
// this session". Callers must claim a hash before posting a job for it, not
// after; claiming first closes the race between two records referencing the
// same hash concurrently. A fresh Registry is created per session.
//
// Thread safety: all methods are safe for concurrent use.
type Registry struct {
	mu   sync.Mutex
	seen map[Hash]struct{}
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[Hash]struct{})}
}

// TryClaim atomically reserves hash for exactly one download attempt.
// It returns true if the hash was not previously claimed this session;
// the caller then owns scheduling it. It returns false if the hash is
// already claimed, in which case the caller must not schedule it again.
func (r *Registry) TryClaim(hash Hash) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[hash]; ok {
		return false
	}
	r.seen[hash] = struct{}{}
	return true
}

// Len returns the number of hashes claimed so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
