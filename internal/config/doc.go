// Package config manages user-level settings stored at
// ~/.agentdir/config.yaml and AGENTDIR_* environment variables: which agent
// store to open, where the service registry lives, and how to log.
package config
