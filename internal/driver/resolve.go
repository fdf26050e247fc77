package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"forscape/internal/diag"
	"forscape/internal/fixture"
	"forscape/internal/lint"
	"forscape/internal/observ"
	"forscape/internal/pipeline"
	"forscape/internal/resolve"
	"forscape/internal/settings"
	"forscape/internal/source"
	"forscape/internal/trace"
	"forscape/internal/types"
)

// ResolveFile runs every pass over one unit file.
//
// Problems in the unit itself end up in Result.Bag and do not produce an
// error; a malformed document or a compiler defect (a panic in any pass)
// does.
func ResolveFile(ctx context.Context, path string, opts Options) (*Result, error) {
	base := opts.BaseDir
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			base = wd
		}
	}
	return resolveUnit(ctx, source.NewFileSetWithBase(base), path, opts)
}

type unitRun struct {
	path  string
	opts  Options
	timer *observ.Timer
}

func (u *unitRun) begin(stage pipeline.Stage) int {
	pipeline.Emit(u.opts.Progress, pipeline.Event{File: u.path, Stage: stage, Status: pipeline.StatusWorking})
	return u.timer.Begin(string(stage))
}

func (u *unitRun) end(stage pipeline.Stage, idx int, note string) {
	elapsed := u.timer.End(idx, note)
	pipeline.Emit(u.opts.Progress, pipeline.Event{File: u.path, Stage: stage, Status: pipeline.StatusDone, Elapsed: elapsed})
}

func (u *unitRun) fail(stage pipeline.Stage, idx int, err error) {
	elapsed := u.timer.End(idx, err.Error())
	pipeline.Emit(u.opts.Progress, pipeline.Event{File: u.path, Stage: stage, Status: pipeline.StatusError, Err: err, Elapsed: elapsed})
}

func resolveUnit(ctx context.Context, fs *source.FileSet, path string, opts Options) (res *Result, err error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeUnit, "unit", trace.ParentFromContext(ctx)).WithExtra("path", path)
	ctx = trace.WithParent(ctx, span)
	defer span.End("")

	run := &unitRun{path: path, opts: opts, timer: observ.NewTimer()}
	res = &Result{Path: path, FileSet: fs, Bag: diag.NewBag(opts.MaxDiagnostics)}
	reporter := diag.BagReporter{Bag: res.Bag}
	stage := pipeline.StageLoad

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("driver: %s: %s pass failed: %v", path, stage, r)
			pipeline.Emit(opts.Progress, pipeline.Event{File: path, Stage: stage, Status: pipeline.StatusError, Err: err})
		}
		res.Timings = run.timer.Report()
	}()

	idx := run.begin(stage)
	id, loadErr := fs.Load(path)
	if loadErr != nil {
		diag.ReportError(reporter, diag.IOLoadFileError, source.Span{}, loadErr.Error()).Emit()
		run.fail(stage, idx, loadErr)
		res.Summary = Render(res)
		return res, nil
	}

	var key Digest
	if opts.Cache != nil {
		file := fs.Get(id)
		key = cacheKey(file.Hash, []string{path, file.FormatPath(fs.BaseDir())}, opts.Warnings)
		var cached Summary
		ok, cacheErr := opts.Cache.Get(key, &cached)
		if cacheErr != nil {
			trace.Point(tracer, trace.ScopeUnit, "cache", "read failed: "+cacheErr.Error(), span.ID())
		}
		if ok && cached.Schema == summarySchema {
			run.timer.End(idx, "cached")
			res.Summary = &cached
			res.Cached = true
			pipeline.Emit(opts.Progress, pipeline.Event{File: path, Stage: stage, Status: pipeline.StatusCached})
			return res, nil
		}
	}

	unit, parseErr := fixture.Parse(fs, id, reporter)
	res.Unit = unit
	switch {
	case errors.Is(parseErr, fixture.ErrInvalid):
		run.fail(stage, idx, parseErr)
		res.Summary = Render(res)
		return res, nil
	case parseErr != nil:
		run.fail(stage, idx, parseErr)
		return res, parseErr
	}
	if verr := unit.Table.Validate(); verr != nil {
		run.fail(stage, idx, verr)
		return res, fmt.Errorf("driver: %s: %w", path, verr)
	}
	run.end(stage, idx, strconv.Itoa(unit.Table.Symbols.Len())+" symbols")

	stage = pipeline.StageLint
	idx = run.begin(stage)
	store := settings.WithDefaults(opts.Warnings)
	unused := lint.Unused(unit.Table, store, reporter)
	run.end(stage, idx, strconv.Itoa(unused)+" unused")

	stage = pipeline.StageResolve
	idx = run.begin(stage)
	res.Stats = resolve.Resolve(ctx, unit.Table, unit.Tree)
	res.Resolved = true
	run.end(stage, idx, fmt.Sprintf("%d closures", res.Stats.Closures))

	stage = pipeline.StageTypes
	idx = run.begin(stage)
	res.Types = types.NewInterner()
	res.Overloads = OverloadSets(unit, res.Types)
	run.end(stage, idx, fmt.Sprintf("%d overload sets", len(res.Overloads)))

	res.Summary = Render(res)
	if opts.Cache != nil {
		if perr := opts.Cache.Put(key, res.Summary); perr != nil {
			trace.Point(tracer, trace.ScopeUnit, "cache", "write failed: "+perr.Error(), span.ID())
		}
	}
	return res, nil
}
