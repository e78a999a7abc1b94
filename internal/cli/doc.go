// Package cli defines the Cobra command tree for the agentdir CLI. Each file
// in this package registers one top-level command (agents, functions, serve,
// config, version) with the root command. Command implementations delegate to
// internal packages for business logic and only handle flag parsing, input
// decoding and output formatting.
package cli
