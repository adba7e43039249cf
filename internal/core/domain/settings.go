package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an LLM service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// AcquisitionStrategy selects how remote locations are fetched.
type AcquisitionStrategy string

// Available acquisition strategies.
const (
	// AcquisitionAuto uses the GitHub archive API for github.com locations
	// and git for every other remote.
	AcquisitionAuto AcquisitionStrategy = "auto"

	// AcquisitionGit always shallow-clones with the git binary.
	AcquisitionGit AcquisitionStrategy = "git"

	// AcquisitionArchive always downloads a GitHub tarball.
	AcquisitionArchive AcquisitionStrategy = "archive"
)

// IsValid returns true if the strategy is recognised.
func (s AcquisitionStrategy) IsValid() bool {
	switch s {
	case AcquisitionAuto, AcquisitionGit, AcquisitionArchive:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s AcquisitionStrategy) String() string {
	return string(s)
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// AnalysisSettings holds selection budgets and run defaults.
type AnalysisSettings struct {
	// MaxFiles caps the number of files sent to the analyzer.
	MaxFiles int

	// MaxCharsPerFile caps each file's content.
	MaxCharsPerFile int

	// DefaultRef is used when no ref is given.
	DefaultRef string

	// Workers bounds parallel file reads during scanning and assembly.
	Workers int
}

// AcquisitionSettings holds source fetching configuration.
type AcquisitionSettings struct {
	// Strategy selects how remote locations are fetched.
	Strategy AcquisitionStrategy

	// GitHubToken authenticates archive downloads (optional for public repos).
	GitHubToken string

	// WorkDir is where remote trees are materialised. Empty means the OS temp dir.
	WorkDir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Analysis holds budgets and run defaults.
	Analysis AnalysisSettings

	// Acquisition holds source fetching settings.
	Acquisition AcquisitionSettings
}

// Default analysis values.
const (
	DefaultMaxFiles        = 25
	DefaultMaxCharsPerFile = 6000
	DefaultRef             = "main"
	DefaultWorkers         = 8
)

// DefaultAppSettings returns settings with sensible defaults.
// The API key is left empty; users must supply it via settings or the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultLLMModels()[AIProviderOpenAI],
		},
		Analysis: AnalysisSettings{
			MaxFiles:        DefaultMaxFiles,
			MaxCharsPerFile: DefaultMaxCharsPerFile,
			DefaultRef:      DefaultRef,
			Workers:         DefaultWorkers,
		},
		Acquisition: AcquisitionSettings{
			Strategy: AcquisitionAuto,
		},
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// AnalysisConfig is the immutable configuration handed to the analysis
// orchestrator at construction time.
type AnalysisConfig struct {
	// Budget is the default selection budget.
	Budget Budget

	// Workers bounds parallel file reads.
	Workers int

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// AnalysisConfigFromSettings derives an orchestrator configuration.
func AnalysisConfigFromSettings(s AnalysisSettings) AnalysisConfig {
	return AnalysisConfig{
		Budget: Budget{
			MaxFiles:        s.MaxFiles,
			MaxCharsPerFile: s.MaxCharsPerFile,
		},
		Workers: s.Workers,
	}
}
