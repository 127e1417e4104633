package gemmshapes

import (
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Registry is a concurrency-safe, ordered collection of model profiles
// addressable by name or alias. The zero value is an empty registry.
type Registry struct {
	sync.RWMutex
	order    []string                // canonical names, insertion order
	profiles map[string]ModelProfile // keyed by lower-cased canonical name
	index    map[string]string       // lower-cased name or alias -> canonical key
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the shared registry seeded with the built-in table.
// Callers that want to add overlays without affecting others should use
// NewRegistry(Profiles()...) instead.
func Default() *Registry {
	defaultOnce.Do(func() {
		reg, err := NewRegistry(Profiles()...)
		if err != nil {
			panic("gemmshapes: seeding default registry: " + err.Error())
		}
		defaultRegistry = reg
	})
	return defaultRegistry
}

// NewRegistry returns a registry holding profiles, in order.
func NewRegistry(profiles ...ModelProfile) (*Registry, error) {
	reg := &Registry{}
	for _, m := range profiles {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (reg *Registry) init() {
	if reg.profiles == nil {
		reg.profiles = make(map[string]ModelProfile)
		reg.index = make(map[string]string)
	}
}

// Register adds m. It fails if m is invalid or if its name or any alias
// is already taken.
func (reg *Registry) Register(m ModelProfile) error {
	if err := Validate(m); err != nil {
		return err
	}
	reg.Lock()
	defer reg.Unlock()
	reg.init()

	names := lo.Map(m.Names(), func(n string, _ int) string { return key(n) })
	if dup := lo.FindDuplicates(names); len(dup) > 0 {
		return NewDuplicateError("Register", dup[0])
	}
	for _, n := range names {
		if _, ok := reg.index[n]; ok {
			return NewDuplicateError("Register", n)
		}
	}

	k := names[0]
	reg.profiles[k] = m.Clone()
	reg.order = append(reg.order, m.Name)
	for _, n := range names {
		reg.index[n] = k
	}
	return nil
}

// Replace overwrites the profile registered under m.Name, keeping its
// position. Aliases are taken from m; an alias owned by another profile
// is a duplicate error.
func (reg *Registry) Replace(m ModelProfile) error {
	if err := Validate(m); err != nil {
		return err
	}
	reg.Lock()
	defer reg.Unlock()
	reg.init()

	k := key(m.Name)
	if owner, ok := reg.index[k]; !ok || owner != k {
		return NewNotFoundError("Replace", m.Name)
	}
	for _, a := range m.Aliases {
		if owner, ok := reg.index[key(a)]; ok && owner != k {
			return NewDuplicateError("Replace", a)
		}
	}

	for _, n := range reg.profiles[k].Names() {
		delete(reg.index, key(n))
	}
	reg.profiles[k] = m.Clone()
	for _, n := range m.Names() {
		reg.index[key(n)] = k
	}
	for i, n := range reg.order {
		if key(n) == k {
			reg.order[i] = m.Name
		}
	}
	return nil
}

// Update runs fn against a copy of reg and commits the copy only if fn
// returns nil. A failed batch leaves reg unchanged. fn must use tx, not
// reg, which stays locked until Update returns.
func (reg *Registry) Update(fn func(tx *Registry) error) error {
	reg.Lock()
	defer reg.Unlock()

	tx := &Registry{
		order:    append([]string(nil), reg.order...),
		profiles: make(map[string]ModelProfile, len(reg.profiles)),
		index:    make(map[string]string, len(reg.index)),
	}
	for k, m := range reg.profiles {
		tx.profiles[k] = m.Clone()
	}
	for n, k := range reg.index {
		tx.index[n] = k
	}
	if err := fn(tx); err != nil {
		return err
	}
	reg.order, reg.profiles, reg.index = tx.order, tx.profiles, tx.index
	return nil
}

// Get returns the profile registered under name or alias.
func (reg *Registry) Get(name string) (ModelProfile, error) {
	reg.RLock()
	defer reg.RUnlock()
	if k, ok := reg.index[key(name)]; ok {
		return reg.profiles[k].Clone(), nil
	}
	return ModelProfile{}, NewNotFoundError("Get", name)
}

// MustGet is like Get but panics if name is not registered.
func (reg *Registry) MustGet(name string) ModelProfile {
	m, err := reg.Get(name)
	if err != nil {
		panic(err)
	}
	return m
}

// Has reports whether name or alias is registered.
func (reg *Registry) Has(name string) bool {
	reg.RLock()
	defer reg.RUnlock()
	_, ok := reg.index[key(name)]
	return ok
}

// Names returns the canonical profile names in registration order.
func (reg *Registry) Names() []string {
	reg.RLock()
	defer reg.RUnlock()
	return append([]string(nil), reg.order...)
}

// List returns the registered profiles in registration order, skipping
// disabled ones when activeOnly is set.
func (reg *Registry) List(activeOnly bool) []ModelProfile {
	reg.RLock()
	defer reg.RUnlock()
	out := make([]ModelProfile, 0, len(reg.order))
	for _, n := range reg.order {
		m := reg.profiles[key(n)]
		if activeOnly && !m.Active {
			continue
		}
		out = append(out, m.Clone())
	}
	return out
}

// Len returns the number of registered profiles.
func (reg *Registry) Len() int {
	reg.RLock()
	defer reg.RUnlock()
	return len(reg.order)
}
