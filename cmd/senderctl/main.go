package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/sender/pkg/logger"
)

var version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var logLevel, envFile string

	root := &cobra.Command{
		Use:   "senderctl",
		Short: "Inspect and validate Kafka sender configurations",
		Long: `senderctl loads sender configuration files (YAML, JSON, TOML or .properties),
resolves them into sender options and checks that they translate into a valid
producer configuration.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := godotenv.Load(envFile); err != nil {
					return fmt.Errorf("failed to load env file %s: %w", envFile, err)
				}
			} else {
				_ = godotenv.Load() // Ignore error if .env doesn't exist
			}
			return logger.Init(logger.Config{
				Level:       logLevel,
				Encoding:    "console",
				OutputPaths: []string{"stderr"},
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file before reading configs (default .env when present)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "senderctl v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(newDescribeCommand())
	root.AddCommand(newInitCommand())
	root.AddCommand(newDryRunCommand())

	return root
}
