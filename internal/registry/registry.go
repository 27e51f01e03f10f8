// Package registry holds the process-wide table of agents, built once at
// startup and read-only afterwards.
package registry

import (
	"errors"
	"fmt"

	"github.com/ShayCichocki/switchboard/internal/agent"
)

// GeneralAgent is the name of the agent used when nothing else applies.
const GeneralAgent = agent.NameGeneral

var (
	// ErrDuplicateAgent is returned when two descriptors share a name.
	ErrDuplicateAgent = errors.New("duplicate agent name")
	// ErrInvalidDescriptor is returned for descriptors without a name or handler.
	ErrInvalidDescriptor = errors.New("invalid agent descriptor")
	// ErrNoGeneralAgent is returned when the fallback agent is missing.
	ErrNoGeneralAgent = errors.New("registry has no general agent")
)

// Descriptor is the registry entry for one agent.
type Descriptor struct {
	Name        string
	Description string
	Tags        []string
	// DependsOn names agents whose output this agent consumes within a turn.
	DependsOn []string
	Handler   agent.Handler
}

// HasTag reports whether the descriptor carries tag.
func (d Descriptor) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Registry maps agent names to descriptors. It is immutable after New, so it
// needs no locking and may be shared freely.
type Registry struct {
	byName map[string]Descriptor
	order  []string
}

// New builds a registry from descriptors in registration order.
func New(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		if d.Name == "" || d.Handler == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDescriptor, d.Name)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAgent, d.Name)
		}
		d.Tags = append([]string(nil), d.Tags...)
		d.DependsOn = append([]string(nil), d.DependsOn...)
		r.byName[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	if _, ok := r.byName[GeneralAgent]; !ok {
		return nil, ErrNoGeneralAgent
	}
	return r, nil
}

// Get returns the descriptor for name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// ByTag returns every descriptor carrying tag, in registration order.
func (r *Registry) ByTag(tag string) []Descriptor {
	var out []Descriptor
	for _, name := range r.order {
		if d := r.byName[name]; d.HasTag(tag) {
			out = append(out, d)
		}
	}
	return out
}

// Names returns all agent names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// All returns all descriptors in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	return len(r.order)
}

// Independent reports whether no agent in names declares a dependency on
// another agent in names.
func (r *Registry) Independent(names []string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	for _, n := range names {
		d, ok := r.byName[n]
		if !ok {
			continue
		}
		for _, dep := range d.DependsOn {
			if dep != n && set[dep] {
				return false
			}
		}
	}
	return true
}

// FromDefinitions builds a registry from agent definitions, creating each
// handler with build.
func FromDefinitions(defs []agent.Definition, build func(agent.Definition) agent.Handler) (*Registry, error) {
	descs := make([]Descriptor, 0, len(defs))
	for _, def := range defs {
		descs = append(descs, Descriptor{
			Name:        def.Name,
			Description: def.Description,
			Tags:        def.Tags,
			DependsOn:   def.DependsOn,
			Handler:     build(def),
		})
	}
	return New(descs...)
}
