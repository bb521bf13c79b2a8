package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tsbench/internal/config"
	"tsbench/internal/telemetry"
)

var exit = os.Exit
var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tsbench",
	Short: "TypeScript compiler benchmark harness",
	Long: `tsbench benchmarks TypeScript compiler performance across a corpus of
third-party projects. It freezes a corpus to pinned commits, fetches the
projects, and measures full and incremental type-checking builds per
tsconfig, emitting one JSON result set plus raw compiler logs.`,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n=== CRITICAL ERROR: Command Execution Panic ===\n")
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'tsbench --help' for usage.")
		exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("workspace", "w", "", "Workspace root directory")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
}

// loadConfig resolves configuration for a command and initializes logging.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	config.BindFlags(cmd.Flags())
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	telemetry.InitLogger(cfg.Verbose, cfg.LogFile)
	return cfg, nil
}
