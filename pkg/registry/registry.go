// Copyright 2025 ETH Zurich
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package registry implements the scoped lookup table that holds every
// entity of an emulation. Entities are stored under a (scope, kind, name) key.
// The scope is either the decimal AS number owning the entity, the literal
// "ix" for Internet Exchange entities or "global" for top level entities.
//
// Lookups never return a silent zero value: a missing key is reported with
// ErrNotFound and an entity of an unexpected type with ErrWrongType.
// Enumeration follows insertion order so that repeated builds from the same
// input visit entities in the same order.
package registry

import (
	"errors"
	"fmt"

	"github.com/seed-emulator/seedemu/pkg/private/serrors"
)

// Well known scopes.
const (
	ScopeIX     = "ix"
	ScopeGlobal = "global"
)

var (
	// ErrDuplicateKey indicates that an entity is already stored under a key.
	ErrDuplicateKey = errors.New("duplicate registry key")
	// ErrNotFound indicates that no entity is stored under a key.
	ErrNotFound = errors.New("registry entry not found")
	// ErrWrongType indicates that the stored entity has an unexpected type.
	ErrWrongType = errors.New("registry entry has wrong type")
)

// Key identifies an entity in the registry.
type Key struct {
	Scope string
	Kind  string
	Name  string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Scope, k.Kind, k.Name)
}

// Entry is a single key value pair of the registry.
type Entry struct {
	Key   Key
	Value any
}

// Registry is the flat (scope, kind, name) to entity map. The zero value is
// not usable, use New.
type Registry struct {
	index   map[Key]int
	entries []Entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{index: make(map[Key]int)}
}

// Put stores v under k. It fails if k is already present.
func (r *Registry) Put(k Key, v any) error {
	if _, ok := r.index[k]; ok {
		return serrors.Join(ErrDuplicateKey, nil, "key", k)
	}
	r.index[k] = len(r.entries)
	r.entries = append(r.entries, Entry{Key: k, Value: v})
	return nil
}

// Has reports whether an entity is stored under k.
func (r *Registry) Has(k Key) bool {
	_, ok := r.index[k]
	return ok
}

// Get returns the entity stored under k.
func (r *Registry) Get(k Key) (any, error) {
	i, ok := r.index[k]
	if !ok {
		return nil, serrors.Join(ErrNotFound, nil, "key", k)
	}
	return r.entries[i].Value, nil
}

// ByKind returns all entities of the given kind in the scope, in insertion
// order.
func (r *Registry) ByKind(scope, kind string) []any {
	var res []any
	for _, e := range r.entries {
		if e.Key.Scope == scope && e.Key.Kind == kind {
			res = append(res, e.Value)
		}
	}
	return res
}

// All returns a copy of every entry in insertion order.
func (r *Registry) All() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Scoped returns a view of the registry that is bound to scope.
func (r *Registry) Scoped(scope string) Scoped {
	return Scoped{reg: r, scope: scope}
}

// Scoped is a registry view bound to a single scope.
type Scoped struct {
	reg   *Registry
	scope string
}

// Scope returns the scope of the view.
func (s Scoped) Scope() string {
	return s.scope
}

// Put stores v under (scope, kind, name).
func (s Scoped) Put(kind, name string, v any) error {
	return s.reg.Put(Key{Scope: s.scope, Kind: kind, Name: name}, v)
}

// Has reports whether (scope, kind, name) is present.
func (s Scoped) Has(kind, name string) bool {
	return s.reg.Has(Key{Scope: s.scope, Kind: kind, Name: name})
}

// Get returns the entity stored under (scope, kind, name).
func (s Scoped) Get(kind, name string) (any, error) {
	return s.reg.Get(Key{Scope: s.scope, Kind: kind, Name: name})
}

// ByKind returns all entities of kind in the scope.
func (s Scoped) ByKind(kind string) []any {
	return s.reg.ByKind(s.scope, kind)
}

// Get returns the entity stored under k as a T.
func Get[T any](r *Registry, k Key) (T, error) {
	var zero T
	v, err := r.Get(k)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, serrors.Join(ErrWrongType, nil, "key", k,
			"expected", fmt.Sprintf("%T", zero), "actual", fmt.Sprintf("%T", v))
	}
	return t, nil
}

// ByKind returns all entities of kind in scope as T. It fails if any of them
// has a different type.
func ByKind[T any](r *Registry, scope, kind string) ([]T, error) {
	var res []T
	for _, e := range r.entries {
		if e.Key.Scope != scope || e.Key.Kind != kind {
			continue
		}
		t, ok := e.Value.(T)
		if !ok {
			var zero T
			return nil, serrors.Join(ErrWrongType, nil, "key", e.Key,
				"expected", fmt.Sprintf("%T", zero), "actual", fmt.Sprintf("%T", e.Value))
		}
		res = append(res, t)
	}
	return res, nil
}
