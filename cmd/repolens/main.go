// Command repolens analyses source repositories with an LLM and keeps a
// queryable history of the results.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/repolens/internal/adapters/driven/ai"
	"github.com/custodia-labs/repolens/internal/adapters/driven/config/file"
	"github.com/custodia-labs/repolens/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/repolens/internal/adapters/driving/cli"
	"github.com/custodia-labs/repolens/internal/connectors"
	"github.com/custodia-labs/repolens/internal/connectors/git"
	"github.com/custodia-labs/repolens/internal/connectors/github"
	"github.com/custodia-labs/repolens/internal/connectors/local"
	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driven"
	"github.com/custodia-labs/repolens/internal/core/services"
	"github.com/custodia-labs/repolens/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetServiceFactory(func(opts cli.Options) (*cli.Services, error) {
		return buildServices(ctx, opts)
	})

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildServices wires the adapters into the core services.
func buildServices(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}

	promptDir := ""
	if opts.ConfigDir != "" {
		promptDir = filepath.Join(opts.ConfigDir, "prompts")
	}
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return nil, fmt.Errorf("opening prompts: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	applyEnvFallbacks(settings, os.Getenv)

	store, err := sqlite.NewStore(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening result store: %w", err)
	}
	logger.Debug("Result store: %s", store.Path())

	llm := createLLM(&settings.LLM)

	githubClient := github.NewClient(ctx, settings.Acquisition.GitHubToken)
	resolver := connectors.NewResolver(settings.Acquisition.Strategy, connectors.Acquirers{
		Local:   local.NewAcquirer(),
		Git:     git.NewAcquirer(git.Config{WorkDir: settings.Acquisition.WorkDir}),
		Archive: github.NewAcquirer(githubClient, github.Config{WorkDir: settings.Acquisition.WorkDir}),
	})

	analysis := services.NewAnalysisService(
		resolver,
		store.ResultStore(),
		llm,
		prompts,
		domain.AnalysisConfigFromSettings(settings.Analysis),
	)

	return &cli.Services{
		Analysis: analysis,
		Settings: settingsService,
		Close: func() error {
			var errs []error
			if llm != nil {
				errs = append(errs, llm.Close())
			}
			errs = append(errs, store.Close())
			return errors.Join(errs...)
		},
	}, nil
}

// createLLM returns the configured analyzer, or nil when none is usable.
// Without an analyzer only stored analyses can be served.
func createLLM(settings *domain.LLMSettings) driven.LLMService {
	llm, err := ai.CreateLLMService(settings)
	if err != nil {
		logger.Warn("LLM unavailable: %v", err)
		return nil
	}
	if llm == nil {
		logger.Info("No LLM provider configured")
		return nil
	}
	logger.Debug("LLM: %s (%s)", settings.Provider, llm.ModelName())
	return llm
}

// applyEnvFallbacks fills secrets missing from the config file from the
// environment. Values from the config file win.
func applyEnvFallbacks(settings *domain.AppSettings, getenv func(string) string) {
	if settings.LLM.APIKey == "" {
		switch settings.LLM.Provider {
		case domain.AIProviderOpenAI:
			settings.LLM.APIKey = getenv("OPENAI_API_KEY")
		case domain.AIProviderAnthropic:
			settings.LLM.APIKey = getenv("ANTHROPIC_API_KEY")
		}
	}
	if settings.Acquisition.GitHubToken == "" {
		settings.Acquisition.GitHubToken = getenv("GITHUB_TOKEN")
	}
}
