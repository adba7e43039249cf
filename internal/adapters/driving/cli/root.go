// Package cli implements the repolens command line on top of cobra.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driving"
	"github.com/custodia-labs/repolens/internal/logger"
)

// noServices marks commands that run without the service graph.
const noServices = "no-services"

var (
	version = "dev"

	verbose   bool
	dataDir   string
	configDir string

	analysisService driving.AnalysisService
	settingsService driving.SettingsService

	serviceFactory ServiceFactory
	closeServices  func() error
)

// Options carries the root flag values to the service factory.
type Options struct {
	// DataDir holds the result database. Empty means ~/.repolens/data.
	DataDir string

	// ConfigDir holds config.toml and prompts. Empty means ~/.repolens.
	ConfigDir string
}

// Services holds the driving ports the commands use.
type Services struct {
	Analysis driving.AnalysisService
	Settings driving.SettingsService

	// Close releases resources held by the services. May be nil.
	Close func() error
}

// ServiceFactory builds the services once the root flags are parsed.
type ServiceFactory func(opts Options) (*Services, error)

var rootCmd = &cobra.Command{
	Use:   "repolens",
	Short: "Analyse source repositories with an LLM",
	Long: `repolens walks a repository (or one of its folders), selects the files that
best describe it, and asks an LLM for a structured report: summary, objectives,
architecture, key components, tech stack, concepts and recommendations.

Reports are cached by repository, ref and subtree, so repeated runs are free
until you pass --force.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print each stage of the run to stderr")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for the result database (default ~/.repolens/data)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "directory for config.toml and prompts (default ~/.repolens)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServiceFactory registers the function that builds the services.
func SetServiceFactory(f ServiceFactory) {
	serviceFactory = f
}

// Execute runs the root command and releases the services afterwards.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if closeErr := closeServices(); closeErr != nil {
			logger.Warn("Closing services: %v", closeErr)
		}
		closeServices = nil
	}
	return err
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[noServices] == "true" || serviceFactory == nil || analysisService != nil {
		return nil
	}

	services, err := serviceFactory(Options{DataDir: dataDir, ConfigDir: configDir})
	if err != nil {
		return err
	}
	if services == nil {
		return errors.New("service factory returned no services")
	}

	analysisService = services.Analysis
	settingsService = services.Settings
	closeServices = services.Close
	return nil
}

// defaultRef returns the configured default ref.
func defaultRef() string {
	if settingsService == nil {
		return domain.DefaultRef
	}
	settings, err := settingsService.Get()
	if err != nil || settings.Analysis.DefaultRef == "" {
		return domain.DefaultRef
	}
	return settings.Analysis.DefaultRef
}
