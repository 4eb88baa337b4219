// Package session maintains stateful streaming cursors over region queries,
// as described in spec §4.5. Sessions are addressed by an unguessable
// 128-bit key, progress forward-only, and are evicted after an idle
// timeout.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/googlegenomics/vcfserve/internal/filterexpr"
	"github.com/googlegenomics/vcfserve/internal/vcfio"
	"github.com/googlegenomics/vcfserve/internal/vcfstore"
)

// DefaultIdleTimeout is the deadline used when NewManager is called
// without an explicit override, per spec §4.5's "recommend 5 minutes".
const DefaultIdleTimeout = 5 * time.Minute

// ErrUnknownSession is returned for an absent or expired session key
// (spec §7 kind 4).
var ErrUnknownSession = fmt.Errorf("session: unknown or expired session key")

type entry struct {
	store        *vcfstore.Store
	chrom        string
	end          uint64
	lastReturned uint64
	filter       filterexpr.Predicate
	lastActivity time.Time
}

// Manager owns the live session set, guarded by its own lock held only for
// the lookup and update of a single entry.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*entry
	idleTimeout time.Duration
}

// NewManager returns an empty session manager using DefaultIdleTimeout.
func NewManager() *Manager {
	return NewManagerWithIdleTimeout(DefaultIdleTimeout)
}

// NewManagerWithIdleTimeout returns an empty session manager evicting
// sessions idle past timeout, set from the config file's idle_timeout_minutes
// (spec §4.9).
func NewManagerWithIdleTimeout(timeout time.Duration) *Manager {
	return &Manager{sessions: make(map[string]*entry), idleTimeout: timeout}
}

// StartResult is the outcome of StartStream.
type StartResult struct {
	Variant        *vcfio.Variant // nil when the window has no matching variant
	SessionKey     string         // empty when no session was created
	More           bool
	MatchedChrom   string
	ReferenceBuild vcfstore.ReferenceBuild
}

// StartStream normalizes chrom, locates the first variant in [start, end]
// passing filterExpr, and — if one exists — creates a session positioned
// at it. If the window contains no matching variant, no session is
// created (spec §4.5).
func (m *Manager) StartStream(store *vcfstore.Store, chrom string, start, end uint64, filterExpr string) (StartResult, error) {
	predicate, err := filterexpr.Compile(filterExpr)
	if err != nil {
		return StartResult{}, err
	}

	matched, variants, err := store.QueryRegion(chrom, start, end)
	if err != nil {
		return StartResult{}, err
	}
	_, _, build := store.GetHeader("")

	idx := firstMatching(variants, predicate)
	if idx < 0 {
		return StartResult{MatchedChrom: matched, ReferenceBuild: build}, nil
	}
	more := firstMatching(variants[idx+1:], predicate) >= 0

	key := uuid.New().String()
	m.mu.Lock()
	m.evictExpiredLocked()
	m.sessions[key] = &entry{
		store:        store,
		chrom:        matched,
		end:          end,
		lastReturned: variants[idx].Position,
		filter:       predicate,
		lastActivity: time.Now(),
	}
	m.mu.Unlock()

	return StartResult{
		Variant:        variants[idx],
		SessionKey:     key,
		More:           more,
		MatchedChrom:   matched,
		ReferenceBuild: build,
	}, nil
}

// NextResult is the outcome of Next.
type NextResult struct {
	Variant    *vcfio.Variant // nil when the session is now exhausted
	SessionKey string         // empty once the session is destroyed
	More       bool
}

// Next advances the cursor identified by key: it re-queries the remainder
// of the window strictly above the last-returned position and returns the
// first variant passing the session's filter. When none remains the
// session is destroyed.
func (m *Manager) Next(key string) (NextResult, error) {
	sess, err := m.touch(key)
	if err != nil {
		return NextResult{}, err
	}

	variants, err := sess.store.ScanMatched(sess.chrom, sess.lastReturned+1, sess.end)
	if err != nil {
		return NextResult{}, err
	}

	idx := firstMatching(variants, sess.filter)
	if idx < 0 {
		m.mu.Lock()
		delete(m.sessions, key)
		m.mu.Unlock()
		return NextResult{}, nil
	}

	more := firstMatching(variants[idx+1:], sess.filter) >= 0

	m.mu.Lock()
	sess.lastReturned = variants[idx].Position
	sess.lastActivity = time.Now()
	m.mu.Unlock()

	return NextResult{Variant: variants[idx], SessionKey: key, More: more}, nil
}

// Close removes a session if present, reporting whether it was. Idempotent:
// a second close of the same key returns false.
func (m *Manager) Close(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[key]; !ok {
		return false
	}
	delete(m.sessions, key)
	return true
}

// touch looks up key, evicting it first if idle past the deadline, and
// marks it active on success.
func (m *Manager) touch(key string) (*entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[key]
	if !ok {
		return nil, ErrUnknownSession
	}
	if time.Since(sess.lastActivity) > m.idleTimeout {
		delete(m.sessions, key)
		return nil, ErrUnknownSession
	}
	sess.lastActivity = time.Now()
	return sess, nil
}

// evictExpiredLocked sweeps idle-expired sessions. Called opportunistically
// from StartStream; m.mu is already held.
func (m *Manager) evictExpiredLocked() {
	now := time.Now()
	for key, sess := range m.sessions {
		if now.Sub(sess.lastActivity) > m.idleTimeout {
			delete(m.sessions, key)
		}
	}
}

func firstMatching(variants []*vcfio.Variant, predicate filterexpr.Predicate) int {
	for i, v := range variants {
		if predicate(v) {
			return i
		}
	}
	return -1
}
