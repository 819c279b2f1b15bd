// Package cli implements the notesearch command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/notesearch/internal/config"
	logpkg "github.com/kailas-cloud/notesearch/internal/logger"
)

var (
	envName    string
	configPath string
	envFiles   []string
)

var rootCmd = &cobra.Command{
	Use:   "notesearch",
	Short: "notesearch - note search and AI writing assist backend",
	Long: `notesearch serves full-text note search over Elasticsearch or OpenSearch
and AI writing assistance (suggest, organize, edit) with per-user daily quotas.

Configuration is read from config/<env>.yaml (see --env and --config).
Values may reference environment variables as ${VAR} or ${VAR:-default};
dotenv files listed in --env-file are loaded first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return config.LoadDotEnv(envFiles...)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "Config environment: local|dev|prod (default $ENV or local)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (overrides --env)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "Dotenv files to load before reading config")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(ensureIndexCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the environment and reads the matching config.
func loadConfig() (config.Config, string, error) {
	env := envName
	if env == "" {
		env = config.GetEnv()
	}

	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, env, nil
}

func newLogger(env string, cfg config.Config) (*zap.Logger, error) {
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
