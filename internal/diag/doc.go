// Package diag defines the diagnostic model shared by the fixture loader,
// the lint pass and the driver.
//
// # Purpose
//
//   - Provide deterministic data structures that capture findings about a
//     compilation unit before and around resolution.
//   - Offer light-weight utilities (Reporter, Bag) so producers emit
//     diagnostics without coupling to storage or formatting.
//
// # Scope
//
// Package diag does no formatting beyond the single-line golden form and no
// IO. Pretty and JSON rendering live in internal/diagfmt.
//
// The resolver itself never reports here: by the time it runs every
// user-correctable problem has been reported and the unit rejected.
// Internal inconsistencies in the passes panic instead.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning, Error (severity.go).
//   - Code – compact numeric identifier with a stable string form (codes.go).
//   - Message – short and actionable.
//   - Primary – the source.Span the finding is about.
//   - Notes – optional secondary spans, e.g. "declared here".
//
// # Emitting diagnostics
//
// Phases take a diag.Reporter. ReportWarning/ReportError return a
// ReportBuilder which accepts WithNote before Emit. BagReporter collects
// into a Bag, which supports capping, sorting and merging.
package diag
