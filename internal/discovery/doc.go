// Package discovery shapes agent records for callers. A Summary is the
// lightweight tier-1 view used for capability browsing: it carries counts of
// assigned capabilities instead of their contents and never exposes the
// system prompt or custom settings. A Detail is the full administrative view
// of a record, with nothing omitted.
package discovery
