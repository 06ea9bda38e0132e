package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benchmarket/benchchat/internal/client"
	"github.com/benchmarket/benchchat/internal/config"
	"github.com/benchmarket/benchchat/internal/logging"
)

var (
	// Global flags
	requestID string
	verbose   bool

	logger *zap.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "benchchat",
	Short: "Chat with the other company on a bench resource request",
	Long: `benchchat keeps a resource-request conversation in sync with the
marketplace API.

Connection and identity come from the environment (or a .env file):
  BENCH_API_URL, BENCH_API_TOKEN, BENCH_USER_ID, BENCH_COMPANY_ID, ...`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if cmd.Name() == "chat" {
			// the terminal belongs to the chat screen
			cfg.Log.Output = tuiLogOutput(cfg.Log.Output)
		}

		logger, err = logging.New(cfg.Log)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&requestID, "request", "r", "", "Resource request id (required)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(unreadCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newClient builds the API client from the loaded configuration.
func newClient() (*client.Client, error) {
	if requestID == "" {
		return nil, fmt.Errorf("--request is required")
	}
	if err := cfg.Client.Validate(); err != nil {
		return nil, err
	}
	return client.New(cfg.Client.BaseURL, cfg.Client.Token,
		client.WithTimeout(cfg.Client.HTTPTimeout),
		client.WithLogger(logger),
	)
}

func tuiLogOutput(output string) string {
	switch output {
	case "", "stderr", "stdout":
		return filepath.Join(os.TempDir(), "benchchat.log")
	default:
		return output
	}
}
