// Package registry provides the static service registry mapping logical
// service names to backend base URLs.
package registry

import (
	"fmt"
	"sort"

	"github.com/fooddelivery/gateway/internal/util"
)

// Entry describes one registered backend service.
type Entry struct {
	// Name is the logical service name, e.g. "user-service".
	Name string
	// BaseURL is the backend origin, e.g. "http://localhost:5001".
	BaseURL string
}

// Registry resolves logical service names to backend base URLs. It is built
// once at startup and is immutable afterwards, so concurrent reads need no
// synchronization.
type Registry struct {
	entries map[string]string
	names   []string
}

// New creates a registry from a name→baseURL mapping.
func New(services map[string]string) *Registry {
	entries := make(map[string]string, len(services))
	names := make([]string, 0, len(services))
	for name, baseURL := range services {
		entries[name] = baseURL
		names = append(names, name)
	}
	sort.Strings(names)

	return &Registry{
		entries: entries,
		names:   names,
	}
}

// Resolve returns the base URL for a logical service name. It returns
// util.ErrServiceNotRegistered when the name is unknown.
func (r *Registry) Resolve(name string) (string, error) {
	baseURL, ok := r.entries[name]
	if !ok {
		return "", util.WrapError(util.ErrServiceNotRegistered, fmt.Sprintf("service %q", name))
	}
	return baseURL, nil
}

// Names returns all registered logical names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Entries returns all registered entries in name order.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.names))
	for _, name := range r.names {
		entries = append(entries, Entry{Name: name, BaseURL: r.entries[name]})
	}
	return entries
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	return len(r.entries)
}
