// Package agentconfig defines the agent configuration record, validates raw
// input against the embedded agent JSON schema, and merges partial updates
// onto existing records. It has no dependencies on storage or transport:
// every function is a pure computation over its inputs.
package agentconfig
