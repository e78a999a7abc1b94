package agentconfig

import "strings"

// Provider identifies the LLM backend an agent runs on.
type Provider string

// Provider constants for the service_provider field.
const (
	ProviderAnthropic Provider = "ANTHROPIC"
	ProviderOpenAI    Provider = "OPENAI"
	ProviderGoogle    Provider = "GOOGLE"
	ProviderGroq      Provider = "GROQ"
	ProviderOllama    Provider = "OLLAMA"
	ProviderLMStudio  Provider = "LMSTUDIO"
)

// Providers returns every valid provider in declaration order.
func Providers() []Provider {
	return []Provider{
		ProviderAnthropic,
		ProviderOpenAI,
		ProviderGoogle,
		ProviderGroq,
		ProviderOllama,
		ProviderLMStudio,
	}
}

// IsLocal reports whether the provider is served from the local machine
// rather than a hosted API.
func (p Provider) IsLocal() bool {
	switch p {
	case ProviderOllama, ProviderLMStudio:
		return true
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderGroq:
		return false
	}
	return false
}

func (p Provider) String() string { return string(p) }

func providerList() string {
	names := make([]string, 0, len(Providers()))
	for _, p := range Providers() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}
