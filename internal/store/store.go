// Package store implements the shared keyspace: a single mapping from key
// to a tagged value record, with lazy TTL expiry. All access goes through
// one mutex; handlers hold it for the minimum span needed (see the typed
// accessors below).
package store

import (
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWrongType is returned when a command targets a key whose payload
	// kind does not match what the command requires.
	ErrWrongType = wrongTypeErr{}
)

type wrongTypeErr struct{}

func (wrongTypeErr) Error() string {
	return "WRONGTYPE Operation against a key holding the wrong kind of value"
}

type record struct {
	v      value
	expiry time.Time // zero value means no expiry
}

func (r *record) expired(now time.Time) bool {
	return !r.expiry.IsZero() && !r.expiry.After(now)
}

// Store is the process-wide keyspace, guarded by a single mutex.
type Store struct {
	log *zap.Logger
	mu  sync.Mutex
	m   map[string]*record
}

// New creates an empty keyspace.
func New(log *zap.Logger) *Store {
	return &Store{
		log: log.Named("keyspace"),
		m:   make(map[string]*record),
	}
}

// expireLocked deletes key if its record has passed expiry. Caller must
// hold mu. Returns the live record, or nil if absent/just-expired.
func (s *Store) expireLocked(key string, now time.Time) *record {
	r, ok := s.m[key]
	if !ok {
		return nil
	}
	if r.expired(now) {
		delete(s.m, key)
		return nil
	}
	return r
}

// KeyCount reports the number of stored keys, evaluating expiry for none of
// them (an O(1) admin-surface approximation; expired-but-untouched keys
// may be counted until their next access — see spec.md §9 on lazy expiry).
func (s *Store) KeyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// Delete removes key unconditionally. Returns whether it existed and was
// live (not already expired).
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.expireLocked(key, time.Now())
	if r == nil {
		return false
	}
	delete(s.m, key)
	return true
}

// Kind reports the variant tag of key, or (KindString, false) — callers
// should instead branch on the bool and use "none" — for a missing or
// expired key.
func (s *Store) Kind(key string) (Kind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.expireLocked(key, time.Now())
	if r == nil {
		return 0, false
	}
	return r.v.kind, true
}

// SetString overwrites key as a String payload with an optional absolute
// expiry (zero time means none).
func (s *Store) SetString(key, val string, expiry time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = &record{v: value{kind: KindString, str: val}, expiry: expiry}
}

// GetString reads a string payload. ok is false for a missing/expired key;
// err is ErrWrongType if the key holds a different kind.
func (s *Store) GetString(key string) (val string, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.expireLocked(key, time.Now())
	if r == nil {
		return "", false, nil
	}
	if r.v.kind != KindString {
		return "", false, ErrWrongType
	}
	return r.v.str, true, nil
}

// ErrNotInteger is returned by Incr when the current string value isn't a
// parseable signed 64-bit integer.
var ErrNotInteger = notIntegerErr{}

type notIntegerErr struct{}

func (notIntegerErr) Error() string { return "ERR value is not an integer or out of range" }

// Incr increments key's string value (parsed as a signed 64-bit integer)
// by one, creating it at "1" if absent, and returns the new value.
func (s *Store) Incr(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.expireLocked(key, time.Now())
	if r == nil {
		s.m[key] = &record{v: value{kind: KindString, str: "1"}}
		return 1, nil
	}
	if r.v.kind != KindString {
		return 0, ErrWrongType
	}

	n, err := strconv.ParseInt(r.v.str, 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	n++
	r.v.str = strconv.FormatInt(n, 10)
	return n, nil
}

// KeyInfo is a debug-surface snapshot of one live record, used by the
// admin plane's keyspace inspector.
type KeyInfo struct {
	Key    string
	Kind   Kind
	Expiry time.Time // zero means no expiry
}

// Snapshot returns debug info for every live key, evaluating expiry for
// each. Intended for low-cardinality admin inspection, not hot paths.
func (s *Store) Snapshot() []KeyInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	out := make([]KeyInfo, 0, len(s.m))
	for k, r := range s.m {
		if r.expired(now) {
			continue
		}
		out = append(out, KeyInfo{Key: k, Kind: r.v.kind, Expiry: r.expiry})
	}
	return out
}

// SetExpiry updates key's expiry without touching its payload. ttlMs nil
// persists the key (removes any expiry); otherwise the key expires
// now+ttlMs. Returns false if the key doesn't exist (or just expired).
func (s *Store) SetExpiry(key string, ttlMs *int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.expireLocked(key, time.Now())
	if r == nil {
		return false
	}
	if ttlMs == nil {
		r.expiry = time.Time{}
	} else {
		r.expiry = time.Now().Add(time.Duration(*ttlMs) * time.Millisecond)
	}
	return true
}
