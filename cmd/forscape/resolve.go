package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"forscape/internal/diagfmt"
	"forscape/internal/driver"
	"forscape/internal/observ"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [flags] <file.unit.yaml|directory>",
	Short: "Resolve storage and closure captures of a unit file or directory",
	Long: `Resolve every variable of a unit to a global, a stack slot or a closure
cell, print the capture list of every closure, the overload function sets and
the diagnostics. A directory resolves every *.unit.yaml below it in parallel.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	resolveCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	resolveCmd.Flags().String("ui", "auto", "progress UI for directories (auto|on|off)")
	resolveCmd.Flags().Bool("cache", false, "reuse resolved summaries from the disk cache")
	resolveCmd.Flags().Bool("cache-clear", false, "drop every cached summary before resolving (implies --cache)")
	resolveCmd.Flags().Bool("tree", false, "print the resolved syntax tree")
	resolveCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	resolveCmd.Flags().StringArray("warn", nil, "set a warning level, e.g. --warn unused_variable=error (repeatable)")
}

type resolveFlags struct {
	format    string
	ui        uiMode
	tree      bool
	withNotes bool
	quiet     bool
	timings   bool
}

// runResolve executes the "resolve" command and fails when any unit
// reported an error.
func runResolve(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	target := args[0]
	flags, opts, err := readResolveOptions(cmd, target)
	if err != nil {
		return err
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", target, err)
	}

	var results []*driver.Result
	if info.IsDir() {
		results, err = resolveDirectory(cmd, target, opts, flags)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return fmt.Errorf("%s: %w", target, errNoUnits)
		}
	} else {
		res, err := driver.ResolveFile(cmd.Context(), target, opts)
		if err != nil {
			return err
		}
		results = []*driver.Result{res}
	}

	out := cmd.OutOrStdout()
	switch flags.format {
	case "json":
		if err := writeResultsJSON(out, results, flags); err != nil {
			return err
		}
	default:
		if err := writeResultsPretty(out, results, flags); err != nil {
			return err
		}
	}

	failed := 0
	for _, res := range results {
		if res == nil || res.Err != nil || (res.Summary != nil && res.Summary.Errors > 0) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d unit(s) failed", failed, len(results))
	}
	return nil
}

func readResolveOptions(cmd *cobra.Command, target string) (resolveFlags, driver.Options, error) {
	var (
		flags resolveFlags
		opts  driver.Options
		err   error
	)
	root := cmd.Root().PersistentFlags()

	configPath, err := root.GetString("config")
	if err != nil {
		return flags, opts, fmt.Errorf("failed to get config flag: %w", err)
	}
	startDir := target
	if info, statErr := os.Stat(target); statErr == nil && !info.IsDir() {
		startDir = filepath.Dir(target)
	}
	cfg, err := discoverConfig(configPath, startDir)
	if err != nil {
		return flags, opts, err
	}

	if flags.quiet, err = root.GetBool("quiet"); err != nil {
		return flags, opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if flags.timings, err = root.GetBool("timings"); err != nil {
		return flags, opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.MaxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
		return flags, opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if !root.Changed("max-diagnostics") && cfg.defines("resolve", "max_diagnostics") {
		opts.MaxDiagnostics = cfg.Resolve.MaxDiagnostics
	}

	if flags.format, err = cmd.Flags().GetString("format"); err != nil {
		return flags, opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	if !cmd.Flags().Changed("format") && cfg.defines("resolve", "format") {
		flags.format = cfg.Resolve.Format
	}
	flags.format = strings.ToLower(flags.format)
	if flags.format != "pretty" && flags.format != "json" {
		return flags, opts, fmt.Errorf("unsupported format %q (must be pretty or json)", flags.format)
	}

	if opts.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return flags, opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if !cmd.Flags().Changed("jobs") && cfg.defines("resolve", "jobs") {
		opts.Jobs = cfg.Resolve.Jobs
	}

	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return flags, opts, fmt.Errorf("failed to get cache flag: %w", err)
	}
	if !cmd.Flags().Changed("cache") && cfg.defines("resolve", "cache") {
		useCache = cfg.Resolve.Cache
	}
	clearCache, err := cmd.Flags().GetBool("cache-clear")
	if err != nil {
		return flags, opts, fmt.Errorf("failed to get cache-clear flag: %w", err)
	}
	if useCache || clearCache {
		if opts.Cache, err = driver.OpenDiskCache("forscape"); err != nil {
			return flags, opts, fmt.Errorf("failed to open disk cache: %w", err)
		}
	}
	if clearCache {
		if err := opts.Cache.DropAll(); err != nil {
			return flags, opts, fmt.Errorf("failed to clear disk cache: %w", err)
		}
	}

	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return flags, opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if flags.ui, err = readUIMode(uiValue); err != nil {
		return flags, opts, err
	}
	if flags.tree, err = cmd.Flags().GetBool("tree"); err != nil {
		return flags, opts, fmt.Errorf("failed to get tree flag: %w", err)
	}
	if flags.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return flags, opts, fmt.Errorf("failed to get with-notes flag: %w", err)
	}

	warnValues, err := cmd.Flags().GetStringArray("warn")
	if err != nil {
		return flags, opts, fmt.Errorf("failed to get warn flag: %w", err)
	}
	warnFlags, err := parseWarnFlags(warnValues)
	if err != nil {
		return flags, opts, err
	}
	if cfg != nil {
		opts.Warnings = cfg.Warnings
	}
	opts.Warnings = mergeWarnings(opts.Warnings, warnFlags)
	return flags, opts, nil
}

func resolveDirectory(cmd *cobra.Command, dir string, opts driver.Options, flags resolveFlags) ([]*driver.Result, error) {
	if wantsProgressUI(flags) {
		files, err := driver.ListUnits(dir)
		if err != nil {
			return nil, err
		}
		return runResolveDirWithUI(cmd.Context(), "resolve "+dir, files, dir, opts)
	}
	return driver.ResolveDir(cmd.Context(), dir, opts)
}

func writeResultsPretty(out io.Writer, results []*driver.Result, flags resolveFlags) error {
	header := color.New(color.Bold)
	for i, res := range results {
		if res == nil {
			continue
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		if res.Err != nil {
			fmt.Fprintf(out, "%s: %v\n", res.Path, res.Err)
			continue
		}
		s := res.Summary
		if s == nil {
			continue
		}
		if !flags.quiet {
			if res.Cached {
				fmt.Fprintln(out, header.Sprint("cached: ")+res.Path)
			}
			if err := s.WriteText(out, flags.tree); err != nil {
				return err
			}
		}
		if err := writeDiagnosticsPretty(out, res, flags); err != nil {
			return err
		}
		if flags.timings && !res.Cached {
			fmt.Fprint(out, res.Timings.Summary(res.Path))
		}
	}
	return nil
}

func writeDiagnosticsPretty(out io.Writer, res *driver.Result, flags resolveFlags) error {
	if res.Cached {
		for _, line := range res.Summary.Diagnostics {
			fmt.Fprintln(out, line)
		}
		return nil
	}
	if res.Bag == nil || res.Bag.Len() == 0 {
		return nil
	}
	res.Bag.Sort()
	return diagfmt.Pretty(out, res.Bag, res.FileSet, diagfmt.PrettyOpts{
		Color:     !color.NoColor,
		Context:   1,
		PathMode:  diagfmt.PathModeAuto,
		ShowNotes: flags.withNotes,
	})
}

type resultJSON struct {
	Path        string                     `json:"path"`
	Cached      bool                       `json:"cached"`
	Error       string                     `json:"error,omitempty"`
	Summary     *driver.Summary            `json:"summary,omitempty"`
	Diagnostics *diagfmt.DiagnosticsOutput `json:"diagnostics,omitempty"`
	Timings     *observ.Report             `json:"timings,omitempty"`
}

func writeResultsJSON(out io.Writer, results []*driver.Result, flags resolveFlags) error {
	payload := make([]resultJSON, 0, len(results))
	for _, res := range results {
		if res == nil {
			continue
		}
		item := resultJSON{Path: res.Path, Cached: res.Cached, Summary: res.Summary}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		if !res.Cached && res.Bag != nil && res.FileSet != nil {
			res.Bag.Sort()
			diags := diagfmt.BuildDiagnosticsOutput(res.Bag, res.FileSet, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         diagfmt.PathModeAuto,
				IncludeNotes:     flags.withNotes,
			})
			item.Diagnostics = &diags
		}
		if flags.timings && !res.Cached {
			timings := res.Timings
			item.Timings = &timings
		}
		payload = append(payload, item)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

var errNoUnits = errors.New("no unit files found")
