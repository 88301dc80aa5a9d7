// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Scope is a collection of counter values. The zero Scope is empty
// and ready to use. Scopes are safe for concurrent use, so that a
// single scope may be shared by the instances of a sharded store.
type Scope struct {
	mu     sync.Mutex
	values []int64
}

func (s *Scope) value(id int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id >= len(s.values) {
		return 0
	}
	return s.values[id]
}

func (s *Scope) add(id int, n int64) {
	s.mu.Lock()
	for len(s.values) <= id {
		s.values = append(s.values, 0)
	}
	s.values[id] += n
	s.mu.Unlock()
}

// Merge adds the values of scope u into scope s.
func (s *Scope) Merge(u *Scope) {
	if u == nil || u == s {
		return
	}
	u.mu.Lock()
	values := append([]int64(nil), u.values...)
	u.mu.Unlock()
	for id, n := range values {
		if n != 0 {
			s.add(id, n)
		}
	}
}

// Reset resets all of the scope's values to zero.
func (s *Scope) Reset() {
	s.mu.Lock()
	s.values = nil
	s.mu.Unlock()
}

// Values is a snapshot of the nonzero values in a scope, keyed by
// counter name.
type Values map[string]int64

// Snapshot returns the scope's current nonzero values.
func (s *Scope) Snapshot() Values {
	s.mu.Lock()
	values := append([]int64(nil), s.values...)
	s.mu.Unlock()
	snap := make(Values)
	mu.Lock()
	defer mu.Unlock()
	for id, n := range values {
		if n != 0 {
			snap[names[id]] += n
		}
	}
	return snap
}

// String returns an abbreviated string with the values in this
// snapshot sorted by name.
func (v Values) String() string {
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for i, key := range keys {
		keys[i] = fmt.Sprintf("%s:%d", key, v[key])
	}
	return strings.Join(keys, " ")
}
