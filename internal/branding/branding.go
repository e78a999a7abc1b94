// Package branding provides compile-time identity values for the CLI and
// the MCP server.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName     string `yaml:"cli_name"`
	DisplayName string `yaml:"display_name"`
	Description string `yaml:"description"`
	HomeDir     string `yaml:"home_dir"`
	EnvPrefix   string `yaml:"env_prefix"`
	ServerName  string `yaml:"server_name"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is empty.
		defaults = brand{
			CLIName:     "agentdir",
			DisplayName: "AgentDir",
			Description: "Agent configuration directory and function catalog",
			HomeDir:     ".agentdir",
			EnvPrefix:   "AGENTDIR",
			ServerName:  "agentdir-discovery",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "agentdir").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "AgentDir").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".agentdir").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "AGENTDIR").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// ServerName returns the name the MCP server announces during initialize.
func ServerName() string { load(); return defaults.ServerName }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "AGENTDIR_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
