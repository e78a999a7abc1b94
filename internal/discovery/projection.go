package discovery

import (
	"github.com/agentx-labs/agentdir/internal/agentconfig"
	"github.com/agentx-labs/agentdir/internal/directory"
)

// Summary is the tier-1 discovery view of an agent.
type Summary struct {
	Key             string               `json:"key" yaml:"key"`
	AgentName       string               `json:"agent_name" yaml:"agent_name"`
	Description     string               `json:"description" yaml:"description"`
	ServiceProvider agentconfig.Provider `json:"service_provider" yaml:"service_provider"`
	ModelName       string               `json:"model_name" yaml:"model_name"`
	FunctionCount   int                  `json:"function_count" yaml:"function_count"`
	AgentCount      int                  `json:"agent_count" yaml:"agent_count"`
	MCPServerCount  int                  `json:"mcp_server_count" yaml:"mcp_server_count"`
}

// Detail is the admin view of an agent: the record key plus every
// configuration field verbatim.
type Detail struct {
	Key                string               `json:"key" yaml:"key"`
	AgentName          string               `json:"agent_name" yaml:"agent_name"`
	Description        string               `json:"description" yaml:"description"`
	ServiceProvider    agentconfig.Provider `json:"service_provider" yaml:"service_provider"`
	ModelName          string               `json:"model_name" yaml:"model_name"`
	SystemPrompt       string               `json:"system_prompt" yaml:"system_prompt"`
	DoStream           bool                 `json:"do_stream" yaml:"do_stream"`
	AssignedFunctions  []string             `json:"assigned_functions" yaml:"assigned_functions"`
	AssignedAgents     []string             `json:"assigned_agents" yaml:"assigned_agents"`
	AssignedMCPServers []string             `json:"assigned_mcp_servers" yaml:"assigned_mcp_servers"`
	CustomSettings     map[string]any       `json:"custom_settings" yaml:"custom_settings"`
}

// ProjectSummary builds the summary view of cfg stored under key.
func ProjectSummary(key string, cfg agentconfig.AgentConfig) Summary {
	return Summary{
		Key:             key,
		AgentName:       cfg.AgentName,
		Description:     cfg.Description,
		ServiceProvider: cfg.ServiceProvider,
		ModelName:       cfg.ModelName,
		FunctionCount:   len(cfg.AssignedFunctions),
		AgentCount:      len(cfg.AssignedAgents),
		MCPServerCount:  len(cfg.AssignedMCPServers),
	}
}

// ProjectDetail builds the detail view of cfg stored under key. The result
// shares no slices or maps with cfg.
func ProjectDetail(key string, cfg agentconfig.AgentConfig) Detail {
	c := cfg.Clone()
	return Detail{
		Key:                key,
		AgentName:          c.AgentName,
		Description:        c.Description,
		ServiceProvider:    c.ServiceProvider,
		ModelName:          c.ModelName,
		SystemPrompt:       c.SystemPrompt,
		DoStream:           c.DoStream,
		AssignedFunctions:  c.AssignedFunctions,
		AssignedAgents:     c.AssignedAgents,
		AssignedMCPServers: c.AssignedMCPServers,
		CustomSettings:     c.CustomSettings,
	}
}

// DetailOf projects a directory entry.
func DetailOf(e directory.Entry) Detail {
	return ProjectDetail(e.Key, e.Config)
}
