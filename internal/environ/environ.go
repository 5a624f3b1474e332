// Package environ is the only place the pipeline writes variables to.
package environ

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Environment is a mutable set of variables.
type Environment interface {
	Set(name, value string) error
	Lookup(name string) (string, bool)
}

// OS is the current process environment. Children started afterwards
// inherit it.
type OS struct{}

// Set calls os.Setenv
func (OS) Set(name, value string) error {
	if err := os.Setenv(name, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	return nil
}

// Lookup calls os.LookupEnv
func (OS) Lookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

// Map is an in-memory environment.
type Map struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewMap creates a Map seeded with initial, which is copied
func NewMap(initial map[string]string) *Map {
	vars := make(map[string]string, len(initial))
	for k, v := range initial {
		vars[k] = v
	}
	return &Map{vars: vars}
}

// Set stores value under name. Names must be non-empty and free of '='.
func (m *Map) Set(name, value string) error {
	if name == "" || strings.ContainsAny(name, "=\x00") {
		return fmt.Errorf("failed to set %q: invalid variable name", name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vars[name] = value
	return nil
}

// Lookup returns the value of name and whether it is set
func (m *Map) Lookup(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vars[name]
	return v, ok
}

// Names returns the set variable names, sorted
func (m *Map) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.vars))
	for k := range m.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Environ returns the variables in os.Environ form, sorted
func (m *Map) Environ() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]string, 0, len(m.vars))
	for k, v := range m.vars {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}
