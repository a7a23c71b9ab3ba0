package main

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docrank/internal/report"
	"docrank/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view [results.json]",
	Short: "Browse a report in the terminal",
	Long: `Open a report in an interactive browser. Without an argument the report
in the configured output directory is opened.

Keys:
  Up/Down   previous/next section
  Enter     filter sections by the words typed
  Esc       quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func runView(cmd *cobra.Command, args []string) error {
	path, err := reportPath(args)
	if err != nil {
		return err
	}
	rep, err := report.Read(path)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(tui.New(rep, path), tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}

func reportPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, _, err := loadConfig()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg.Output.Dir, cfg.Output.FileName), nil
}
