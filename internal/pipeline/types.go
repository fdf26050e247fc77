// Package pipeline describes the progress events the driver emits while
// processing units, and sinks that consume them.
package pipeline

import "time"

// Stage names one step of processing a unit.
type Stage string

const (
	StageLoad    Stage = "load"
	StageLint    Stage = "lint"
	StageResolve Stage = "resolve"
	StageTypes   Stage = "types"
)

// Stages lists every stage in processing order.
var Stages = []Stage{StageLoad, StageLint, StageResolve, StageTypes}

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusCached  Status = "cached"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file (or for the whole run when File is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Terminal reports whether no further events follow for the file.
func (e Event) Terminal() bool {
	switch e.Status {
	case StatusError, StatusCached:
		return true
	case StatusDone:
		return e.Stage == StageTypes
	default:
		return false
	}
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use; units are processed in parallel.
type ProgressSink interface {
	OnEvent(Event)
}

// Emit sends ev to sink if there is one.
func Emit(sink ProgressSink, ev Event) {
	if sink == nil {
		return
	}
	sink.OnEvent(ev)
}

// EmitQueued announces files before any work starts.
func EmitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageLoad, Status: StatusQueued})
	}
}
