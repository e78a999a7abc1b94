// Package registry holds the service registry: the ordered set of backend
// services and the tools each one exposes. It loads the registry from
// services.yaml and flattens it into a single catalog of callable functions
// addressed by "<service>_<tool>" composite names.
//
// A Registry is immutable once constructed and is passed explicitly to the
// functions that read it; there is no process-wide registry.
package registry
