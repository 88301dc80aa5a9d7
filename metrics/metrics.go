// Copyright 2019 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package metrics provides counters whose definitions are shared but
// whose values live in a Scope. Stores, caches, and readers each own a
// Scope (or are handed one by their caller), so that two instances
// never share diagnostic state.
package metrics

import "sync"

var (
	mu sync.Mutex
	// names holds the registered counter names by id. We reserve index 0 to
	// minimize the chances of zero-valued counters being used uninitialized.
	names = []string{""}
)

// Counter is a monotonic counter metric. Counters are usually declared
// as package-level variables; their values are kept per Scope.
type Counter struct {
	id int
}

// NewCounter registers and returns a new counter with the provided
// name. Names are used only when reporting values.
func NewCounter(name string) Counter {
	mu.Lock()
	defer mu.Unlock()
	c := Counter{id: len(names)}
	names = append(names, name)
	return c
}

// Name returns the name the counter was registered with.
func (c Counter) Name() string {
	mu.Lock()
	defer mu.Unlock()
	return names[c.id]
}

// Value returns the counter's value in the provided scope.
func (c Counter) Value(scope *Scope) int64 {
	if scope == nil {
		return 0
	}
	return scope.value(c.id)
}

// Incr increments the counter's value in the provided scope by n.
// Incr on a nil scope is a no-op.
func (c Counter) Incr(scope *Scope, n int64) {
	if scope == nil {
		return
	}
	scope.add(c.id, n)
}
