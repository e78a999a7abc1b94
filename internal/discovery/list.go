package discovery

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/agentx-labs/agentdir/internal/agentconfig"
	"github.com/agentx-labs/agentdir/internal/directory"
)

// SummaryOptions controls ListSummaries.
type SummaryOptions struct {
	// Limit caps the number of results. Zero means no limit.
	Limit int
	// MCPServer keeps only agents assigned this MCP server.
	MCPServer string
	// SortByName orders results by agent name instead of directory order.
	SortByName bool
}

// Validate rejects a negative limit.
func (o SummaryOptions) Validate() error {
	if o.Limit < 0 {
		return agentconfig.NewValidationError("limit", agentconfig.RuleRange,
			fmt.Sprintf("limit must be a positive integer, got %d", o.Limit))
	}
	return nil
}

// ListSummaries projects entries to summaries. The MCP server filter is
// applied first, then the optional name sort, then the limit. Without a sort
// the directory's enumeration order is kept.
func ListSummaries(entries []directory.Entry, opts SummaryOptions) ([]Summary, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	candidates := make([]directory.Entry, 0, len(entries))
	for _, e := range entries {
		if opts.MCPServer != "" && !slices.Contains(e.Config.AssignedMCPServers, opts.MCPServer) {
			continue
		}
		candidates = append(candidates, e)
	}
	if opts.SortByName {
		sortByName(candidates)
	}
	if opts.Limit > 0 && len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}

	out := make([]Summary, len(candidates))
	for i, e := range candidates {
		out[i] = ProjectSummary(e.Key, e.Config)
	}
	return out, nil
}

// ListDetails projects every entry to a detail, ordered lexicographically by
// agent name with ties broken by key.
func ListDetails(entries []directory.Entry) []Detail {
	sorted := slices.Clone(entries)
	sortByName(sorted)

	out := make([]Detail, len(sorted))
	for i, e := range sorted {
		out[i] = DetailOf(e)
	}
	return out
}

func sortByName(entries []directory.Entry) {
	slices.SortStableFunc(entries, func(a, b directory.Entry) int {
		return cmp.Or(
			cmp.Compare(a.Config.AgentName, b.Config.AgentName),
			cmp.Compare(a.Key, b.Key),
		)
	})
}
