// Package cache keeps the client's view of remote entities. Each kind of
// entity lives in its own Store; the Caches aggregate wires them together
// and handles cascade removal.
package cache

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/mitchellh/mapstructure"
)

// Cloner is implemented by every snapshot type. Clone returns an independent
// copy; the store clones on the way out so callers never hold an alias into
// cached state.
type Cloner[T any] interface {
	Clone() T
}

// Store is a keyed snapshot store. All mutation goes through Put, Patch and
// Remove; a replacement is atomic with respect to readers and the previous
// snapshot is returned so subscribers can be handed an old/new pair.
type Store[K comparable, T Cloner[T]] struct {
	mu      sync.RWMutex
	entries map[K]T
}

func NewStore[K comparable, T Cloner[T]]() *Store[K, T] {
	return &Store[K, T]{entries: make(map[K]T)}
}

// Get returns a copy of the snapshot under k.
func (s *Store[K, T]) Get(k K) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[k]
	if !ok {
		var zero T
		return zero, false
	}
	return v.Clone(), true
}

// Put replaces the snapshot under k and returns the previous one, if any.
func (s *Store[K, T]) Put(k K, v T) (old T, replaced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, replaced = s.entries[k]
	if replaced {
		old = old.Clone()
	}
	s.entries[k] = v.Clone()
	return old, replaced
}

// Patch merges the partial update in fields onto a copy of the existing
// snapshot: fields absent from the update keep their prior values. When no
// snapshot exists under k the partial is decoded onto a zero value and
// inserted, mirroring how update notifications for unknown entities are
// treated as creations.
func (s *Store[K, T]) Patch(k K, fields map[string]any) (old T, updated T, existed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, existed = s.entries[k]
	if existed {
		old = old.Clone()
	}
	next := old.Clone()
	if err = decodeFields(fields, &next); err != nil {
		var zero T
		return zero, zero, existed, err
	}
	s.entries[k] = next
	return old, next.Clone(), existed, nil
}

// Remove deletes the snapshot under k. Removing an absent key is a no-op.
func (s *Store[K, T]) Remove(k K) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[k]
	if !ok {
		var zero T
		return zero, false
	}
	delete(s.entries, k)
	return v.Clone(), true
}

// RemoveIf deletes every snapshot matching pred and returns the removed
// snapshots. Used for cascade removal of a guild's descendants.
func (s *Store[K, T]) RemoveIf(pred func(K, T) bool) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []T
	for k, v := range s.entries {
		if pred(k, v) {
			removed = append(removed, v.Clone())
			delete(s.entries, k)
		}
	}
	return removed
}

func (s *Store[K, T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// ForEach visits a copy of every snapshot. Return false to stop early.
func (s *Store[K, T]) ForEach(fn func(K, T) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.entries {
		if !fn(k, v.Clone()) {
			return
		}
	}
}

// decodeFields merges a decoded-JSON map onto target, leaving fields that the
// map does not mention untouched.
func decodeFields(fields map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     target,
		DecodeHook: snowflakeHook,
	})
	if err != nil {
		return fmt.Errorf("cache: build decoder: %w", err)
	}
	if err := dec.Decode(fields); err != nil {
		return fmt.Errorf("cache: merge fields: %w", err)
	}
	return nil
}

var snowflakeType = reflect.TypeOf(snowflake.ID(0))

// snowflakeHook converts the JSON representations of an ID (string or
// number) into a snowflake.ID during a merge.
func snowflakeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != snowflakeType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return snowflake.Parse(v)
	case float64:
		return snowflake.ID(uint64(v)), nil
	case int64:
		return snowflake.ID(uint64(v)), nil
	case uint64:
		return snowflake.ID(v), nil
	default:
		return data, nil
	}
}
