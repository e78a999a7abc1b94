package discovery

import (
	"fmt"

	"github.com/agentx-labs/agentdir/internal/agentconfig"
)

// CheckAssignments verifies that every assigned agent key exists in
// knownAgents and every assigned function exists in knownFunctions. A nil
// set skips that check. MCP server identifiers are opaque and not checked.
func CheckAssignments(cfg agentconfig.AgentConfig, knownAgents, knownFunctions map[string]bool) error {
	var issues []agentconfig.Issue

	if knownFunctions != nil {
		for i, name := range cfg.AssignedFunctions {
			if !knownFunctions[name] {
				issues = append(issues, agentconfig.Issue{
					Field:   agentconfig.FieldAssignedFunctions,
					Rule:    agentconfig.RuleReference,
					Message: fmt.Sprintf("%s[%d]: unknown function %q", agentconfig.FieldAssignedFunctions, i, name),
				})
			}
		}
	}
	if knownAgents != nil {
		for i, key := range cfg.AssignedAgents {
			if !knownAgents[key] {
				issues = append(issues, agentconfig.Issue{
					Field:   agentconfig.FieldAssignedAgents,
					Rule:    agentconfig.RuleReference,
					Message: fmt.Sprintf("%s[%d]: unknown agent %q", agentconfig.FieldAssignedAgents, i, key),
				})
			}
		}
	}

	if len(issues) > 0 {
		return &agentconfig.ValidationError{Issues: issues}
	}
	return nil
}

// KeySet builds a membership set from names.
func KeySet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
