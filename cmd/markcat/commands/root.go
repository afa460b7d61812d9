package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/markio/cmd/markcat/internal/config"
)

var (
	// Global flags
	verbose bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "markcat",
	Short: "Buffered stream reader for files, stdin and S3",
	Long: `markcat - read byte and text streams through mark/reset buffers.

Sources are given as URIs:
  -                  standard input
  path, file://path  local files
  s3://bucket/key    S3-compatible object stores (configure s3 in config.yaml)

Compressed input (gzip, zstd) is detected by peeking at the stream head.

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/markcat/config.yaml
  Linux:   ~/.config/markcat/config.yaml
  Windows: %AppData%/markcat/config.yaml

Examples:
  markcat cat access.log.gz
  markcat lines -n --charset gbk notes.txt
  markcat lines --tail 20 s3://logs/app/2024-01-01.log.zst
  markcat stat --format json *.log`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	configLoadErr = nil
	cfg, err := config.Load()
	if err != nil {
		// Commands that need config get the error via GetConfig; 'markcat
		// version' keeps working.
		configLoadErr = err
		globalConfig = nil
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// setupLogging routes slog to stderr. Buffer growth, compaction and bypass
// reads are logged at debug level, which --verbose enables.
func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
