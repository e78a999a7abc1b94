package discovery

import (
	"context"

	"github.com/agentx-labs/agentdir/internal/directory"
	"github.com/agentx-labs/agentdir/internal/registry"
)

// KnownReferences collects the agent keys in store and the composite function
// names in reg, for use with CheckAssignments. A registry collision is
// returned as the *registry.ConfigurationError.
func KnownReferences(ctx context.Context, store directory.Store, reg *registry.Registry) (agents, functions map[string]bool, err error) {
	entries, err := store.GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}

	fns, err := registry.ListFunctions(reg)
	if err != nil {
		return nil, nil, err
	}
	return KeySet(keys), KeySet(registry.Names(fns)), nil
}
