package registry

import (
	"fmt"
	"slices"
)

// ToolDescriptor describes one tool a backend service exposes.
type ToolDescriptor struct {
	Name        string         `yaml:"name" json:"name"`
	Method      string         `yaml:"method" json:"method"`
	Endpoint    string         `yaml:"endpoint" json:"endpoint"` // relative to the service base URL
	Description string         `yaml:"description" json:"description"`
	InputSchema map[string]any `yaml:"inputSchema,omitempty" json:"inputSchema,omitempty"`
}

// ServiceEntry is one backend service and its tools, in declared order.
type ServiceEntry struct {
	ServiceName string           `yaml:"serviceName" json:"serviceName"`
	BaseURL     string           `yaml:"baseUrl" json:"baseUrl"`
	Tools       []ToolDescriptor `yaml:"tools" json:"tools"`
}

// FunctionDescriptor is the flattened, globally addressable form of a tool.
// It is derived by ListFunctions and never stored.
type FunctionDescriptor struct {
	Name        string         `json:"name"`    // "<service>_<tool>"
	Service     string         `json:"service"`
	Method      string         `json:"method"`
	Endpoint    string         `json:"endpoint"` // base URL + tool endpoint
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Registry is an ordered, read-only collection of services.
type Registry struct {
	entries []ServiceEntry
}

// New builds a Registry from entries, keeping their order. Service names must
// be non-empty and unique.
func New(entries ...ServiceEntry) (*Registry, error) {
	seen := make(map[string]bool, len(entries))
	r := &Registry{entries: make([]ServiceEntry, 0, len(entries))}
	for _, e := range entries {
		if e.ServiceName == "" {
			return nil, fmt.Errorf("service entry with empty name")
		}
		if seen[e.ServiceName] {
			return nil, fmt.Errorf("duplicate service %q", e.ServiceName)
		}
		seen[e.ServiceName] = true
		e.Tools = slices.Clone(e.Tools)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// Services returns a copy of the registry's entries in order.
func (r *Registry) Services() []ServiceEntry {
	if r == nil {
		return nil
	}
	out := make([]ServiceEntry, len(r.entries))
	for i, e := range r.entries {
		e.Tools = slices.Clone(e.Tools)
		out[i] = e
	}
	return out
}

// Service returns the entry named name.
func (r *Registry) Service(name string) (ServiceEntry, bool) {
	if r == nil {
		return ServiceEntry{}, false
	}
	for _, e := range r.entries {
		if e.ServiceName == name {
			e.Tools = slices.Clone(e.Tools)
			return e, true
		}
	}
	return ServiceEntry{}, false
}

// Len returns the number of services.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Origin identifies the service and tool a function was derived from.
type Origin struct {
	Service string `json:"service"`
	Tool    string `json:"tool"`
}

func (o Origin) String() string {
	return fmt.Sprintf("service %q tool %q", o.Service, o.Tool)
}

// ConfigurationError reports two tools that flatten to the same composite
// name. It indicates a misconfigured service map and is not retryable.
type ConfigurationError struct {
	Name   string // colliding composite name
	First  Origin
	Second Origin
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("registry configuration error: function name %q from %s collides with %q from %s",
		e.Name, e.Second, e.Name, e.First)
}
