// Package driver runs the passes over unit files: load, lint, resolve and
// the overload-set types, and renders what they produced.
package driver

import (
	"forscape/internal/diag"
	"forscape/internal/fixture"
	"forscape/internal/observ"
	"forscape/internal/pipeline"
	"forscape/internal/resolve"
	"forscape/internal/settings"
	"forscape/internal/source"
	"forscape/internal/types"
)

// Options configures a run.
type Options struct {
	// MaxDiagnostics caps the diagnostics kept per unit; 0 means unlimited.
	MaxDiagnostics int
	// Jobs limits parallel units in ResolveDir; <= 0 uses GOMAXPROCS.
	Jobs int
	// Warnings are base warning levels, applied before any unit override.
	Warnings []settings.Override
	// Cache, when set, stores and reuses rendered summaries.
	Cache *DiskCache
	// Progress receives per-stage events.
	Progress pipeline.ProgressSink
	// BaseDir shortens paths in diagnostics; defaults to the unit's directory
	// for ResolveDir and the working directory for ResolveFile.
	BaseDir string
}

// Result is the outcome for one unit file. When Cached is set only Summary
// is filled; the unit was not rebuilt.
type Result struct {
	Path    string
	FileSet *source.FileSet
	Unit    *fixture.Unit
	Bag     *diag.Bag
	// Resolved reports whether the resolver ran; invalid units stop before it.
	Resolved  bool
	Stats     resolve.Stats
	Overloads []OverloadSet
	Types     *types.Interner
	Timings   observ.Report
	Summary   *Summary
	Cached    bool
	// Err holds a failure of this unit in ResolveDir runs.
	Err error
}
