// Package trace records what the forscape pipeline is doing and how long it takes.
//
// Tracers receive begin/end/point events from the driver, from each pass over
// a unit and, at debug level, from individual closures being resolved.
//
// Enable tracing from the command line:
//
//	forscape resolve --trace=- --trace-level=phase units/
//
// Implementations:
//
//   - Nop: disabled tracing, zero overhead
//   - StreamTracer: writes each event as it happens (text or NDJSON)
//   - RingTracer: keeps the most recent events for post-mortem dumps
//   - MultiTracer: fans out to several tracers
//
// Tracers travel through the pipeline inside a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "resolve", 0)
//	defer span.End("")
package trace
