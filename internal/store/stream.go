package store

import (
	"time"

	"github.com/vaultkv/vaultkv/internal/waitregistry"
)

// KeyEntries pairs a stream key with the entries a read collected from it.
type KeyEntries struct {
	Key     string
	Entries []StreamEntry
}

// StreamAdd resolves spec into a concrete id against key's stream (create
// it if absent), validates monotonicity, appends the entry, and broadcasts
// a wake-up to every blocked XREAD on key.
func (s *Store) StreamAdd(wr *waitregistry.Registry, key, spec string, fields []Field, nowMs uint64) (StreamID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.expireLocked(key, time.Now())
	if r == nil {
		r = &record{v: value{kind: KindStream}}
		s.m[key] = r
	} else if r.v.kind != KindStream {
		return StreamID{}, ErrWrongType
	}

	empty := len(r.v.stream) == 0
	var last StreamID
	if !empty {
		last = r.v.stream[len(r.v.stream)-1].ID
	}

	id, err := resolveID(spec, last, empty, nowMs)
	if err != nil {
		return StreamID{}, err
	}
	if !id.Greater(zeroID) {
		return StreamID{}, ErrStreamIDTooSmall
	}
	if !id.Greater(last) {
		return StreamID{}, ErrStreamIDOutOfOrder
	}

	r.v.stream = append(r.v.stream, StreamEntry{ID: id, Fields: fields})
	wr.Broadcast(key)
	return id, nil
}

// StreamRange returns entries with start <= id <= end, ascending.
func (s *Store) StreamRange(key, startSpec, endSpec string) ([]StreamEntry, error) {
	start := parseRangeID(startSpec, false)
	end := parseRangeID(endSpec, true)

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.expireLocked(key, time.Now())
	if r == nil {
		return []StreamEntry{}, nil
	}
	if r.v.kind != KindStream {
		return nil, ErrWrongType
	}

	out := make([]StreamEntry, 0)
	for _, e := range r.v.stream {
		if e.ID.GreaterEq(start) && e.ID.LessEq(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

// StreamLastID returns key's current last entry id, or (0,0) if the
// stream doesn't exist — used to resolve the XREAD "$" sentinel before
// any blocking begins.
func (s *Store) StreamLastID(key string) (StreamID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.expireLocked(key, time.Now())
	if r == nil {
		return zeroID, nil
	}
	if r.v.kind != KindStream {
		return zeroID, ErrWrongType
	}
	if len(r.v.stream) == 0 {
		return zeroID, nil
	}
	return r.v.stream[len(r.v.stream)-1].ID, nil
}

// StreamReadSince collects, for each (key, id) pair, every entry strictly
// greater than id. Keys with zero hits are omitted from the result.
func (s *Store) StreamReadSince(keys []string, ids []StreamID) ([]KeyEntries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var out []KeyEntries
	for i, k := range keys {
		r := s.expireLocked(k, now)
		if r == nil {
			continue
		}
		if r.v.kind != KindStream {
			return nil, ErrWrongType
		}
		var hits []StreamEntry
		for _, e := range r.v.stream {
			if e.ID.Greater(ids[i]) {
				hits = append(hits, e)
			}
		}
		if len(hits) > 0 {
			out = append(out, KeyEntries{Key: k, Entries: hits})
		}
	}
	return out, nil
}
