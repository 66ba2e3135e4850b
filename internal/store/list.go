package store

import (
	"time"

	"github.com/vaultkv/vaultkv/internal/waitregistry"
)

// Push appends (tail-push) or prepends (head-push) elems to key's list,
// creating it if absent. Before inserting anything, it drains as many
// elements as possible directly to live blocking-pop waiters registered
// on key, in FIFO order (spec.md §4.4, §9 "Concurrency in list-push
// handing"). The reported length is the logical new length as if no
// element had been diverted to a waiter.
func (s *Store) Push(wr *waitregistry.Registry, key string, elems []string, head bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.expireLocked(key, time.Now())
	if r == nil {
		r = &record{v: value{kind: KindList}}
		s.m[key] = r
	} else if r.v.kind != KindList {
		return 0, ErrWrongType
	}

	origLen := int64(len(r.v.list))

	remaining := elems
	for len(remaining) > 0 {
		if !wr.TryDeliver(key, remaining[0]) {
			break
		}
		remaining = remaining[1:]
	}

	if head {
		newList := make([]string, 0, len(remaining)+len(r.v.list))
		for i := len(remaining) - 1; i >= 0; i-- {
			newList = append(newList, remaining[i])
		}
		newList = append(newList, r.v.list...)
		r.v.list = newList
	} else {
		r.v.list = append(r.v.list, remaining...)
	}

	if len(r.v.list) == 0 {
		delete(s.m, key)
	}

	return origLen + int64(len(elems)), nil
}

// Range returns the inclusive [start,end] slice of key's list, applying
// Redis-style negative-index and clamping rules. A missing key yields an
// empty (not nil) slice.
func (s *Store) Range(key string, start, end int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.expireLocked(key, time.Now())
	if r == nil {
		return []string{}, nil
	}
	if r.v.kind != KindList {
		return nil, ErrWrongType
	}

	list := r.v.list
	length := int64(len(list))

	if start < 0 {
		start += length
	}
	if end < 0 {
		end += length
	}
	if start < 0 {
		start = 0
	}
	if start >= length {
		return []string{}, nil
	}
	if end >= length {
		end = length - 1
	}
	if end < start {
		return []string{}, nil
	}

	out := make([]string, end-start+1)
	copy(out, list[start:end+1])
	return out, nil
}

// ListLen returns the list's length, or 0 for a missing key.
func (s *Store) ListLen(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.expireLocked(key, time.Now())
	if r == nil {
		return 0, nil
	}
	if r.v.kind != KindList {
		return 0, ErrWrongType
	}
	return int64(len(r.v.list)), nil
}

// Pop removes up to count elements from the head or tail of key's list,
// in pop order (tail-pop with count N returns the last N in LIFO order;
// head-pop returns the first N in FIFO order). existed is false for a
// missing or already-empty list. Emptying the list deletes the key.
func (s *Store) Pop(key string, count int64, head bool) (elems []string, existed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.expireLocked(key, time.Now())
	if r == nil {
		return nil, false, nil
	}
	if r.v.kind != KindList {
		return nil, false, ErrWrongType
	}

	list := r.v.list
	if len(list) == 0 {
		return nil, false, nil
	}

	n := count
	if n > int64(len(list)) {
		n = int64(len(list))
	}
	if n <= 0 {
		return []string{}, true, nil
	}

	var popped []string
	if head {
		popped = append([]string(nil), list[:n]...)
		r.v.list = list[n:]
	} else {
		popped = make([]string, n)
		for i := int64(0); i < n; i++ {
			popped[i] = list[int64(len(list))-1-i]
		}
		r.v.list = list[:int64(len(list))-n]
	}

	if len(r.v.list) == 0 {
		delete(s.m, key)
	}
	return popped, true, nil
}

// PopHeadIfAny checks keys in listed order and removes+returns the head
// element of the first one holding a non-empty list, without blocking.
// Used as the immediate (pre-suspension) check of a blocking pop.
func (s *Store) PopHeadIfAny(keys []string) (key, value string, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, k := range keys {
		r := s.expireLocked(k, now)
		if r == nil {
			continue
		}
		if r.v.kind != KindList {
			return "", "", false, ErrWrongType
		}
		if len(r.v.list) == 0 {
			continue
		}
		value = r.v.list[0]
		r.v.list = r.v.list[1:]
		if len(r.v.list) == 0 {
			delete(s.m, k)
		}
		return k, value, true, nil
	}
	return "", "", false, nil
}
