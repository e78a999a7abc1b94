package registry

import "maps"

// CompositeName returns the catalog name for a tool of a service.
func CompositeName(service, tool string) string {
	return service + "_" + tool
}

// ListFunctions flattens the registry into function descriptors. Output order
// is service order, then tool order within each service. The first composite
// name collision aborts with a *ConfigurationError and no partial list.
func ListFunctions(reg *Registry) ([]FunctionDescriptor, error) {
	if reg == nil {
		return []FunctionDescriptor{}, nil
	}

	origins := make(map[string]Origin)
	fns := make([]FunctionDescriptor, 0)
	for _, svc := range reg.entries {
		for _, tool := range svc.Tools {
			name := CompositeName(svc.ServiceName, tool.Name)
			origin := Origin{Service: svc.ServiceName, Tool: tool.Name}
			if first, dup := origins[name]; dup {
				return nil, &ConfigurationError{Name: name, First: first, Second: origin}
			}
			origins[name] = origin

			fns = append(fns, FunctionDescriptor{
				Name:        name,
				Service:     svc.ServiceName,
				Method:      tool.Method,
				Endpoint:    svc.BaseURL + tool.Endpoint,
				Description: tool.Description,
				InputSchema: maps.Clone(tool.InputSchema),
			})
		}
	}
	return fns, nil
}

// FindFunction returns the descriptor named name.
func FindFunction(fns []FunctionDescriptor, name string) (FunctionDescriptor, bool) {
	for _, fn := range fns {
		if fn.Name == name {
			return fn, true
		}
	}
	return FunctionDescriptor{}, false
}

// Names returns the composite names of fns in order.
func Names(fns []FunctionDescriptor) []string {
	names := make([]string, len(fns))
	for i, fn := range fns {
		names[i] = fn.Name
	}
	return names
}
