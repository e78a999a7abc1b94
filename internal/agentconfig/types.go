package agentconfig

import (
	"maps"
	"slices"
)

// Wire field names. They are part of the external contract and must not be
// renamed.
const (
	FieldAgentName          = "agent_name"
	FieldDescription        = "description"
	FieldServiceProvider    = "service_provider"
	FieldModelName          = "model_name"
	FieldSystemPrompt       = "system_prompt"
	FieldDoStream           = "do_stream"
	FieldAssignedFunctions  = "assigned_functions"
	FieldAssignedAgents     = "assigned_agents"
	FieldAssignedMCPServers = "assigned_mcp_servers"
	FieldCustomSettings     = "custom_settings"
)

// Fields lists every AgentConfig field in canonical order. Validation issues
// are reported in this order.
var Fields = []string{
	FieldAgentName,
	FieldDescription,
	FieldServiceProvider,
	FieldModelName,
	FieldSystemPrompt,
	FieldDoStream,
	FieldAssignedFunctions,
	FieldAssignedAgents,
	FieldAssignedMCPServers,
	FieldCustomSettings,
}

// RequiredFields lists the fields every full configuration must carry.
var RequiredFields = []string{
	FieldAgentName,
	FieldDescription,
	FieldServiceProvider,
	FieldModelName,
	FieldSystemPrompt,
	FieldDoStream,
}

// AgentConfig is the canonical record for one agent.
type AgentConfig struct {
	AgentName          string         `json:"agent_name" yaml:"agent_name"`
	Description        string         `json:"description" yaml:"description"`
	ServiceProvider    Provider       `json:"service_provider" yaml:"service_provider"`
	ModelName          string         `json:"model_name" yaml:"model_name"`
	SystemPrompt       string         `json:"system_prompt" yaml:"system_prompt"`
	DoStream           bool           `json:"do_stream" yaml:"do_stream"`
	AssignedFunctions  []string       `json:"assigned_functions" yaml:"assigned_functions"`
	AssignedAgents     []string       `json:"assigned_agents" yaml:"assigned_agents"`
	AssignedMCPServers []string       `json:"assigned_mcp_servers" yaml:"assigned_mcp_servers"`
	CustomSettings     map[string]any `json:"custom_settings" yaml:"custom_settings"`
}

// AgentConfigUpdate is a partial AgentConfig. A nil field is absent and
// leaves the existing value untouched on Merge.
type AgentConfigUpdate struct {
	AgentName          *string        `json:"agent_name,omitempty" yaml:"agent_name,omitempty"`
	Description        *string        `json:"description,omitempty" yaml:"description,omitempty"`
	ServiceProvider    *Provider      `json:"service_provider,omitempty" yaml:"service_provider,omitempty"`
	ModelName          *string        `json:"model_name,omitempty" yaml:"model_name,omitempty"`
	SystemPrompt       *string        `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	DoStream           *bool          `json:"do_stream,omitempty" yaml:"do_stream,omitempty"`
	AssignedFunctions  *[]string      `json:"assigned_functions,omitempty" yaml:"assigned_functions,omitempty"`
	AssignedAgents     *[]string      `json:"assigned_agents,omitempty" yaml:"assigned_agents,omitempty"`
	AssignedMCPServers *[]string      `json:"assigned_mcp_servers,omitempty" yaml:"assigned_mcp_servers,omitempty"`
	CustomSettings     map[string]any `json:"custom_settings,omitempty" yaml:"custom_settings,omitempty"`
}

// Raw returns the wire representation of the config as a generic map.
// Validate(c.Raw()) yields a config equal to c.
func (c AgentConfig) Raw() map[string]any {
	raw := map[string]any{
		FieldAgentName:          c.AgentName,
		FieldDescription:        c.Description,
		FieldServiceProvider:    string(c.ServiceProvider),
		FieldModelName:          c.ModelName,
		FieldSystemPrompt:       c.SystemPrompt,
		FieldDoStream:           c.DoStream,
		FieldAssignedFunctions:  stringsToAny(c.AssignedFunctions),
		FieldAssignedAgents:     stringsToAny(c.AssignedAgents),
		FieldAssignedMCPServers: stringsToAny(c.AssignedMCPServers),
		FieldCustomSettings:     cloneSettings(c.CustomSettings),
	}
	return raw
}

// Clone returns a copy of the config that shares no slices or maps with c.
// Values inside CustomSettings are opaque and copied shallowly. Nil
// collections come back empty.
func (c AgentConfig) Clone() AgentConfig {
	out := c
	out.AssignedFunctions = cloneStrings(c.AssignedFunctions)
	out.AssignedAgents = cloneStrings(c.AssignedAgents)
	out.AssignedMCPServers = cloneStrings(c.AssignedMCPServers)
	out.CustomSettings = cloneSettings(c.CustomSettings)
	return out
}

// IsEmpty reports whether the update sets no fields.
func (u AgentConfigUpdate) IsEmpty() bool {
	return len(u.SetFields()) == 0
}

// SetFields returns the wire names of the fields the update defines, in
// canonical order.
func (u AgentConfigUpdate) SetFields() []string {
	var fields []string
	if u.AgentName != nil {
		fields = append(fields, FieldAgentName)
	}
	if u.Description != nil {
		fields = append(fields, FieldDescription)
	}
	if u.ServiceProvider != nil {
		fields = append(fields, FieldServiceProvider)
	}
	if u.ModelName != nil {
		fields = append(fields, FieldModelName)
	}
	if u.SystemPrompt != nil {
		fields = append(fields, FieldSystemPrompt)
	}
	if u.DoStream != nil {
		fields = append(fields, FieldDoStream)
	}
	if u.AssignedFunctions != nil {
		fields = append(fields, FieldAssignedFunctions)
	}
	if u.AssignedAgents != nil {
		fields = append(fields, FieldAssignedAgents)
	}
	if u.AssignedMCPServers != nil {
		fields = append(fields, FieldAssignedMCPServers)
	}
	if u.CustomSettings != nil {
		fields = append(fields, FieldCustomSettings)
	}
	return fields
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// cloneStrings copies ss, mapping nil to an empty slice so array fields are
// never absent.
func cloneStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return slices.Clone(ss)
}

// cloneSettings copies m, mapping nil to an empty map.
func cloneSettings(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}
