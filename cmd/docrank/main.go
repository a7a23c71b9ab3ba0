// Command docrank ranks the pages of a set of PDF documents by relevance to
// a persona and a job to be done, and writes the top pages as a JSON report.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docrank/internal/config"
	"docrank/internal/domain"
)

const (
	exitError  = 1
	exitConfig = 2
)

var (
	// cfgPath is an explicit config file; empty means the default lookup
	cfgPath string
	version = "dev"
)

func main() {
	_ = godotenv.Load()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps configuration errors to 2 and everything else to 1.
func exitCode(err error) int {
	if errors.Is(err, domain.ErrConfiguration) {
		return exitConfig
	}
	return exitError
}

var rootCmd = &cobra.Command{
	Use:   "docrank",
	Short: "Rank PDF pages by relevance to a persona and task",
	Long: `docrank extracts page text from every PDF in the input directory, scores
each page against "<persona>. Task: <job>" and writes the top pages to a
JSON report.

Running docrank without a subcommand is the same as "docrank run".

Examples:
  # Use /app/input and /app/output
  docrank

  # Rank local documents with a custom config
  docrank --config ./config.yaml --input ./docs --output ./out

  # Browse the last report
  docrank view ./out/results.json`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runRun,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (default ./config.yaml, then ~/.config/docrank/config.yaml)")
	bindRunFlags(rootCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig returns the config and the path it came from.
func loadConfig() (*config.AppConfig, string, error) {
	if cfgPath != "" {
		cfg, err := config.Load(cfgPath)
		return cfg, cfgPath, err
	}
	return config.LoadDefault()
}
