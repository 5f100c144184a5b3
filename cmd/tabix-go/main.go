package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	defaultLogLevel = "warn"
	version         = "0.1.0"
)

var (
	configPath string
	logLevel   string
	showConfig bool
)

var rootCmd = &cobra.Command{
	Use:   "tabix-go",
	Short: "Query BGZF-compressed, tabix-indexed genomic files",
	Long: `tabix-go reads records from bgzip-compressed, tab-delimited genomic files
(BED, GFF3, GTF, VCF, or any sorted interval text) through their .tbi or .csi
index. Files may be local paths or s3://bucket/key URIs.

Settings are read from an optional YAML file (--config or TABIX_CONFIG), then
environment variables (a .env file in the working directory is loaded first),
then command-line flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	},
}

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"YAML configuration file (default $TABIX_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (default $TABIX_LOG_LEVEL or warn)")
	rootCmd.PersistentFlags().BoolVar(&showConfig, "show-config", false,
		"Print the effective configuration to stderr before running")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(headerCmd)
	rootCmd.AddCommand(chromsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogging configures the logging system
func setupLogging(cmd *cobra.Command) error {
	level := logLevel
	if level == "" {
		level = os.Getenv("TABIX_LOG_LEVEL")
	}
	if level == "" {
		if fc, err := loadFileConfig(); err == nil && fc.LogLevel != "" {
			level = fc.LogLevel
		}
	}
	if level == "" {
		level = defaultLogLevel
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(parsed)
	logrus.SetOutput(cmd.ErrOrStderr())
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tabix-go version %s\n", version)
		fmt.Fprintln(cmd.OutOrStdout(), "Random access to tabix-indexed genomic files")
	},
}
