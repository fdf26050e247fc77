package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"forscape/internal/fixture"
	"forscape/internal/pipeline"
	"forscape/internal/source"
	"forscape/internal/trace"
)

// ListUnits возвращает отсортированный список всех unit-файлов в директории.
func ListUnits(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, fixture.Ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// ResolveDir resolves every unit under dir in parallel. Results follow the
// sorted file order; a failing unit stores its error in Result.Err and does
// not stop the others. The returned error is set only when listing fails
// or ctx is cancelled.
func ResolveDir(ctx context.Context, dir string, opts Options) ([]*Result, error) {
	files, err := ListUnits(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	base := opts.BaseDir
	if base == "" {
		base = dir
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "resolve_dir", trace.ParentFromContext(ctx)).
		WithExtra("units", strconv.Itoa(len(files)))
	ctx = trace.WithParent(ctx, span)
	defer span.End("")

	pipeline.EmitQueued(opts.Progress, files)

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// индексы уникальны для каждой горутины, мьютекс не нужен
	results := make([]*Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// each unit owns its file set, interner and settings store
			res, err := resolveUnit(gctx, source.NewFileSetWithBase(base), path, opts)
			if res == nil {
				res = &Result{Path: path}
			}
			res.Err = err
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
