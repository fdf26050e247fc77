package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"forscape/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "forscape",
	Short: "Scope and closure resolution for math-notation units",
	Long: `forscape loads compilation units, assigns storage to every variable,
builds closure capture lists and reports overload function sets`,
	SilenceUsage:      true,
	PersistentPreRunE: setupRoot,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { finish(cmd) },
}

func init() {
	rootCmd.Version = version.String()

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(fnsetCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to keep per unit")
	rootCmd.PersistentFlags().String("config", "", "path to forscape.toml (default: search upward from the working directory)")
	addTraceFlags(rootCmd)
	addProfileFlags(rootCmd)
}

// main executes the root command; a failing command exits with status 1.
func main() {
	err := rootCmd.Execute()
	// PersistentPostRun is skipped when the command fails
	finish(rootCmd)
	if err != nil {
		os.Exit(1)
	}
}

func finish(cmd *cobra.Command) {
	closeTracing(cmd)
	stopProfiling(cmd.ErrOrStderr())
}

func setupRoot(cmd *cobra.Command, args []string) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	if err := applyColorMode(mode); err != nil {
		return err
	}
	if err := setupProfiling(cmd); err != nil {
		return err
	}
	return setupTracing(cmd)
}

func applyColorMode(mode string) error {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		color.NoColor = !isTerminal(os.Stdout) || os.Getenv("NO_COLOR") != ""
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
