// Package mcpserver exposes the agent directory and the function catalog as
// Model Context Protocol tools. Tier-1 discovery (list_agents) returns agent
// summaries; the remaining tools give admin access to full records and to
// the flattened registry catalog.
package mcpserver
