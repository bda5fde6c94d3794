package schema

import (
	"reflect"
	"sync"
)

// process-wide schema registry: one entry per record type, built once and
// shared read-only afterwards
var (
	regMu    sync.RWMutex
	registry = map[reflect.Type]any{}
)

// For returns the shared schema for T, invoking build at most effectively
// once. Concurrent first callers may both build, but a single result wins and
// every caller observes the same schema afterwards.
func For[T any](build func() (*Schema[T], error)) (*Schema[T], error) {
	key := reflect.TypeOf((*T)(nil)).Elem()

	regMu.RLock()
	if s, ok := registry[key]; ok {
		regMu.RUnlock()
		return s.(*Schema[T]), nil
	}
	regMu.RUnlock()

	s, err := build()
	if err != nil {
		return nil, err
	}

	regMu.Lock()
	if prev, ok := registry[key]; ok { // double-check: first writer wins
		regMu.Unlock()
		return prev.(*Schema[T]), nil
	}
	registry[key] = s
	regMu.Unlock()
	return s, nil
}

// Register stores s as the canonical schema for T. The first registration
// wins; later calls return the existing schema unchanged.
func Register[T any](s *Schema[T]) *Schema[T] {
	key := reflect.TypeOf((*T)(nil)).Elem()
	regMu.Lock()
	defer regMu.Unlock()
	if prev, ok := registry[key]; ok {
		return prev.(*Schema[T])
	}
	registry[key] = s
	return s
}

// Lookup returns the registered schema for T, if any.
func Lookup[T any]() (*Schema[T], bool) {
	key := reflect.TypeOf((*T)(nil)).Elem()
	regMu.RLock()
	defer regMu.RUnlock()
	s, ok := registry[key]
	if !ok {
		return nil, false
	}
	return s.(*Schema[T]), true
}
