package agentconfig

// Merge applies update onto existing and returns the result. Every field the
// update defines overrides the existing value; absent fields are kept.
//
// Array fields are replaced wholesale, never concatenated. custom_settings is
// also replaced wholesale: an update carrying {"k": 1} onto {"j": 2} yields
// {"k": 1}. Callers that want key-wise merging must send the full mapping.
//
// Neither argument is modified and the result shares no slices or maps with
// them.
func Merge(existing AgentConfig, update AgentConfigUpdate) AgentConfig {
	out := existing.Clone()

	if update.AgentName != nil {
		out.AgentName = *update.AgentName
	}
	if update.Description != nil {
		out.Description = *update.Description
	}
	if update.ServiceProvider != nil {
		out.ServiceProvider = *update.ServiceProvider
	}
	if update.ModelName != nil {
		out.ModelName = *update.ModelName
	}
	if update.SystemPrompt != nil {
		out.SystemPrompt = *update.SystemPrompt
	}
	if update.DoStream != nil {
		out.DoStream = *update.DoStream
	}
	if update.AssignedFunctions != nil {
		out.AssignedFunctions = cloneStrings(*update.AssignedFunctions)
	}
	if update.AssignedAgents != nil {
		out.AssignedAgents = cloneStrings(*update.AssignedAgents)
	}
	if update.AssignedMCPServers != nil {
		out.AssignedMCPServers = cloneStrings(*update.AssignedMCPServers)
	}
	if update.CustomSettings != nil {
		out.CustomSettings = cloneSettings(update.CustomSettings)
	}

	return out
}
