package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driven"
	"github.com/custodia-labs/repolens/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider         = "llm.provider"
	keyLLMModel            = "llm.model"
	keyLLMBaseURL          = "llm.base_url"
	keyLLMAPIKey           = "llm.api_key"
	keyMaxFiles            = "analysis.max_files"
	keyMaxCharsPerFile     = "analysis.max_chars_per_file"
	keyDefaultRef          = "analysis.default_ref"
	keyWorkers             = "analysis.workers"
	keyAcquisitionStrategy = "acquisition.strategy"
	keyGitHubToken         = "acquisition.github_token"
	keyAcquisitionWorkDir  = "acquisition.work_dir"
)

const (
	defaultOllamaBaseURL    = "http://localhost:11434"
	maxConfiguredWorkers    = 64
	maxConfiguredFileBudget = 1000
)

// intKeys are settings holding positive integers.
var intKeys = map[string]int{
	keyMaxFiles:        maxConfiguredFileBudget,
	keyMaxCharsPerFile: 0,
	keyWorkers:         maxConfiguredWorkers,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider: s.getProvider(defaults.LLM.Provider),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Analysis: domain.AnalysisSettings{
			MaxFiles:        s.getInt(keyMaxFiles, defaults.Analysis.MaxFiles),
			MaxCharsPerFile: s.getInt(keyMaxCharsPerFile, defaults.Analysis.MaxCharsPerFile),
			DefaultRef:      s.getString(keyDefaultRef, defaults.Analysis.DefaultRef),
			Workers:         s.getInt(keyWorkers, defaults.Analysis.Workers),
		},
		Acquisition: domain.AcquisitionSettings{
			Strategy:    s.getStrategy(defaults.Acquisition.Strategy),
			GitHubToken: s.configStore.GetString(keyGitHubToken),
			WorkDir:     s.configStore.GetString(keyAcquisitionWorkDir),
		},
	}

	// The model default follows the configured provider.
	settings.LLM.Model = s.getString(keyLLMModel, domain.DefaultLLMModels()[settings.LLM.Provider])

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyMaxFiles, settings.Analysis.MaxFiles},
		{keyMaxCharsPerFile, settings.Analysis.MaxCharsPerFile},
		{keyDefaultRef, settings.Analysis.DefaultRef},
		{keyWorkers, settings.Analysis.Workers},
		{keyAcquisitionStrategy, settings.Acquisition.Strategy.String()},
		{keyAcquisitionWorkDir, settings.Acquisition.WorkDir},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when present so an empty form never erases them.
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}
	if settings.Acquisition.GitHubToken != "" {
		if err := s.configStore.Set(keyGitHubToken, settings.Acquisition.GitHubToken); err != nil {
			return fmt.Errorf("save acquisition github_token: %w", err)
		}
	}

	return nil
}

// Set validates and stores a single setting.
func (s *SettingsService) Set(key, value string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	value = strings.TrimSpace(value)

	switch key {
	case keyLLMProvider:
		provider := domain.AIProvider(value)
		if !provider.IsValid() {
			return fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, value)
		}
		return s.configStore.Set(key, provider.String())

	case keyAcquisitionStrategy:
		strategy := domain.AcquisitionStrategy(value)
		if !strategy.IsValid() {
			return fmt.Errorf("%w: acquisition strategy %q", domain.ErrUnsupportedType, value)
		}
		return s.configStore.Set(key, strategy.String())

	case keyMaxFiles, keyMaxCharsPerFile, keyWorkers:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrInvalidInput, key, value)
		}
		if limit := intKeys[key]; limit > 0 && n > limit {
			return fmt.Errorf("%w: %s must be at most %d", domain.ErrInvalidInput, key, limit)
		}
		return s.configStore.Set(key, n)

	case keyDefaultRef:
		if value == "" {
			return fmt.Errorf("%w: %s cannot be empty", domain.ErrInvalidInput, key)
		}
		return s.configStore.Set(key, value)

	case keyLLMModel, keyLLMBaseURL, keyLLMAPIKey, keyGitHubToken, keyAcquisitionWorkDir:
		return s.configStore.Set(key, value)

	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
}

// Keys returns every settable key in sorted order.
func (s *SettingsService) Keys() []string {
	keys := []string{
		keyLLMProvider, keyLLMModel, keyLLMBaseURL, keyLLMAPIKey,
		keyMaxFiles, keyMaxCharsPerFile, keyDefaultRef, keyWorkers,
		keyAcquisitionStrategy, keyGitHubToken, keyAcquisitionWorkDir,
	}
	sort.Strings(keys)
	return keys
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	// Local providers need a base URL; cloud providers use their public endpoint.
	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaBaseURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keyLLMProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getStrategy(defaultVal domain.AcquisitionStrategy) domain.AcquisitionStrategy {
	strategy := domain.AcquisitionStrategy(s.configStore.GetString(keyAcquisitionStrategy))
	if !strategy.IsValid() {
		return defaultVal
	}
	return strategy
}
