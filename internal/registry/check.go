package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var httpMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
	"HEAD":   true,
}

// CheckIssue is a problem found in one service or function of the registry.
type CheckIssue struct {
	Service  string `json:"service"`
	Function string `json:"function,omitempty"`
	Message  string `json:"message"`
}

// Check lints the registry without interpreting it: base URLs must be
// absolute, methods must be HTTP verbs, tool names must be non-empty and
// every inputSchema must compile as JSON Schema. Composite-name collisions
// are reported by ListFunctions, not here.
func Check(reg *Registry) []CheckIssue {
	var issues []CheckIssue
	for _, svc := range reg.Services() {
		if u, err := url.Parse(svc.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, CheckIssue{
				Service: svc.ServiceName,
				Message: fmt.Sprintf("baseUrl %q is not an absolute URL", svc.BaseURL),
			})
		}
		for i, tool := range svc.Tools {
			if tool.Name == "" {
				issues = append(issues, CheckIssue{
					Service: svc.ServiceName,
					Message: fmt.Sprintf("tool #%d has no name", i+1),
				})
				continue
			}
			fn := CompositeName(svc.ServiceName, tool.Name)
			if !httpMethods[strings.ToUpper(tool.Method)] {
				issues = append(issues, CheckIssue{
					Service:  svc.ServiceName,
					Function: fn,
					Message:  fmt.Sprintf("method %q is not an HTTP verb", tool.Method),
				})
			}
			if !strings.HasPrefix(tool.Endpoint, "/") {
				issues = append(issues, CheckIssue{
					Service:  svc.ServiceName,
					Function: fn,
					Message:  fmt.Sprintf("endpoint %q must start with '/'", tool.Endpoint),
				})
			}
			if tool.InputSchema != nil {
				if err := compileInputSchema(fn, tool.InputSchema); err != nil {
					issues = append(issues, CheckIssue{
						Service:  svc.ServiceName,
						Function: fn,
						Message:  fmt.Sprintf("inputSchema: %v", err),
					})
				}
			}
		}
	}
	return issues
}

// compileInputSchema checks that schema is a usable JSON Schema document.
func compileInputSchema(name string, schema map[string]any) error {
	data, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("converting to JSON: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unmarshaling JSON: %w", err)
	}
	c := jsonschema.NewCompiler()
	loc := name + ".schema.json"
	if err := c.AddResource(loc, doc); err != nil {
		return err
	}
	_, err = c.Compile(loc)
	return err
}
