package main

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"forscape/internal/driver"
	"forscape/internal/pipeline"
	"forscape/internal/ui"
)

var errInterrupted = errors.New("interrupted")

type resolveOutcome struct {
	results []*driver.Result
	err     error
}

// progressView consumes events until it returns. interrupted is true when
// the user stopped watching before the run finished.
type progressView func(events <-chan pipeline.Event) (interrupted bool, err error)

// runResolveDirWithUI resolves dir while a Bubble Tea model shows progress.
// The model quits when the event channel closes after the last unit.
func runResolveDirWithUI(ctx context.Context, title string, files []string, dir string, opts driver.Options) ([]*driver.Result, error) {
	view := func(events <-chan pipeline.Event) (bool, error) {
		program := tea.NewProgram(ui.NewProgressModel(title, files, events), tea.WithOutput(os.Stderr))
		final, err := program.Run()
		return ui.Interrupted(final), err
	}
	return resolveDirWithView(ctx, dir, opts, view)
}

func resolveDirWithView(ctx context.Context, dir string, opts driver.Options, view progressView) ([]*driver.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan resolveOutcome, 1)

	go func() {
		runOpts := opts
		runOpts.Progress = pipeline.ChannelSink{Ch: events}
		results, err := driver.ResolveDir(ctx, dir, runOpts)
		outcomeCh <- resolveOutcome{results: results, err: err}
		close(events)
	}()

	interrupted, uiErr := view(events)
	// the view is gone; whatever is still sent must not block the workers
	go func() {
		for range events {
		}
	}()
	if interrupted || uiErr != nil {
		cancel()
	}
	outcome := <-outcomeCh
	switch {
	case uiErr != nil:
		return outcome.results, uiErr
	case interrupted:
		return outcome.results, errInterrupted
	}
	return outcome.results, outcome.err
}
