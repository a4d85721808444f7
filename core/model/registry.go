package model

import (
	"sort"
	"sync"

	"github.com/grainstat/graincv/pkg/errors"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Family)
)

// Register adds a model family to the variant set. Families register
// themselves from an init function in their own package; registering the
// same name twice is a programming error and panics.
func Register(f Family) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if f.Name == "" || f.Grid == nil || f.New == nil {
		panic("model: Register requires Name, Grid and New")
	}
	if _, dup := registry[f.Name]; dup {
		panic("model: duplicate family registration: " + f.Name)
	}
	registry[f.Name] = f
}

// Lookup returns the family registered under name.
func Lookup(name string) (Family, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	if !ok {
		return Family{}, errors.NewValidationError("family", "unknown model family", name)
	}
	return f, nil
}

// Families returns the registered family names in sorted order.
func Families() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
