// Package doctor runs health checks over an agentdir installation: the home
// directory and its permissions, the agent store, the service registry and
// the references between them. Each check prints one status line per
// finding so the output reads like a checklist.
package doctor
