package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/relaykit/discord-mcp-relay/internal/conf"
)

// rootOptions holds the global flags and the shared logger
type rootOptions struct {
	verbose bool
	envFile string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "relay",
		Short: "Discord relay for the OpenAI Responses API with a Pipedream MCP tool gateway",
		Long: `relay listens to Discord channels and forwards qualifying messages to the
OpenAI Responses API. Each channel keeps its own conversation thread, and the
model can call tools through the Pipedream remote MCP gateway.

Run without arguments to start the relay.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file
			if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", opts.envFile, err)
			}

			// Initialize logger
			config := zap.NewProductionConfig()
			if debug, _ := strconv.ParseBool(os.Getenv("DEBUG")); opts.verbose || debug {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Dotenv file to load before reading the environment")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newToolsCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// loadConfig reads and validates the configuration
func loadConfig() (*conf.Config, error) {
	cfg, err := conf.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
