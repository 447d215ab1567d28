package cmd

import (
	"errors"
	"fmt"
	"os"

	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jorundl/costofliving-etl/config"
	"github.com/jorundl/costofliving-etl/extract"
	"github.com/jorundl/costofliving-etl/load"
	"github.com/jorundl/costofliving-etl/logger"
	"github.com/jorundl/costofliving-etl/transform"
)

// Exit codes per failing stage, so the container orchestrator can tell a
// misconfigured job from a flaky bucket or warehouse.
const (
	exitConfig = 1
	exitFetch  = 2
	exitWrite  = 3
)

var rootCmd = &cobra.Command{
	Use:   "costofliving-etl",
	Short: "Loads the cost-of-living dataset from S3 into Snowflake",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrMissingConfiguration):
		return exitConfig
	case errors.Is(err, extract.ErrObjectNotFound),
		errors.Is(err, extract.ErrStorageAccess),
		errors.Is(err, transform.ErrDecode):
		return exitFetch
	case errors.Is(err, load.ErrAuthentication),
		errors.Is(err, load.ErrConnection),
		errors.Is(err, load.ErrInsert):
		return exitWrite
	}
	return exitConfig
}

func init() {
	rootCmd.AddCommand(newLoadCmd())
}

func isRunningOnGitHubActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

func initializeConfigAndLogger() (*config.Config, *slog.Logger, error) {
	log := logger.NewLogger()
	if !isRunningOnGitHubActions() {
		// .env is a local convenience; in the container the orchestrator
		// injects the environment directly.
		if err := godotenv.Load(); err != nil {
			log.Debug("No .env file loaded", "error", err)
		}
	}

	baseConfigFile, err := os.Open("config.base.yaml")
	if err != nil {
		log.Error(fmt.Sprintf("Error opening base config file: %v", err))
		return nil, nil, fmt.Errorf("%w: %v", config.ErrMissingConfiguration, err)
	}
	defer baseConfigFile.Close()

	env := os.Getenv("APP_ENV")
	var envConfigFile *os.File
	envConfigFilename := fmt.Sprintf("config.%s.yaml", env)
	if _, err := os.Stat(envConfigFilename); err == nil {
		envConfigFile, err = os.Open(envConfigFilename)
		if err != nil {
			log.Error(fmt.Sprintf("Error opening environment config file: %v", err))
			return nil, nil, fmt.Errorf("%w: %v", config.ErrMissingConfiguration, err)
		}
		defer envConfigFile.Close()
	}

	cfg, err := config.NewConfig(baseConfigFile, envConfigFile, env)
	if err != nil {
		log.Error(fmt.Sprintf("Error reading config: %v", err))
		return nil, nil, fmt.Errorf("%w: %v", config.ErrMissingConfiguration, err)
	}

	return cfg, log, nil
}
