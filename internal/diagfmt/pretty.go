package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"forscape/internal/diag"
	"forscape/internal/source"
)

type palette struct {
	err, warn, info, code, gutter, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		code:   color.New(color.Faint),
		gutter: color.New(color.FgBlue),
		note:   color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.gutter, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	var b strings.Builder
	for _, d := range bag.Items() {
		sev := p.severity(d.Severity)
		if loc := location(fs, d.Primary, opts.PathMode); loc != "" {
			b.WriteString(loc + ": ")
		}
		fmt.Fprintf(&b, "%s %s: %s\n", sev.Sprint(d.Severity.String()), p.code.Sprint(d.Code.ID()), d.Message)
		writeContext(&b, fs, d.Primary, opts, p, sev)
		if !opts.ShowNotes {
			continue
		}
		for _, note := range d.Notes {
			b.WriteString("  " + p.note.Sprint("note") + ": ")
			if loc := location(fs, note.Span, opts.PathMode); loc != "" && note.Span != d.Primary {
				b.WriteString(loc + ": ")
			}
			b.WriteString(note.Msg + "\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func location(fs *source.FileSet, span source.Span, mode PathMode) string {
	if fs == nil {
		return ""
	}
	f := fs.Get(span.File)
	if f == nil {
		return ""
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(f, fs, mode), start.Line, start.Col)
}

func writeContext(b *strings.Builder, fs *source.FileSet, span source.Span, opts PrettyOpts, p palette, sev *color.Color) {
	if fs == nil {
		return
	}
	f := fs.Get(span.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(span)
	lines := uint32(len(f.LineIdx)) + 1 //nolint:gosec // line index fits the file
	ctx := uint32(max(opts.Context, 0))  //nolint:gosec // non-negative
	first := start.Line
	if first > ctx {
		first -= ctx
	} else {
		first = 1
	}
	last := min(start.Line+ctx, lines)
	gutterWidth := len(strconv.FormatUint(uint64(last), 10))

	for n := first; n <= last; n++ {
		text := f.GetLine(n)
		if n == last && text == "" && n != start.Line {
			break
		}
		display := expandTabs(text)
		if opts.Width > 0 {
			display = runewidth.Truncate(display, int(opts.Width), "…")
		}
		fmt.Fprintf(b, " %s %s %s\n", p.gutter.Sprintf("%*d", gutterWidth, n), p.gutter.Sprint("|"), display)
		if n != start.Line {
			continue
		}
		from := clampCol(start.Col, text)
		to := len(text)
		if end.Line == start.Line {
			to = clampCol(end.Col, text)
		}
		pad := runewidth.StringWidth(expandTabs(text[:from]))
		width := max(runewidth.StringWidth(expandTabs(text[from:max(to, from)])), 1)
		marker := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(b, " %s %s %s%s\n", strings.Repeat(" ", gutterWidth), p.gutter.Sprint("|"), strings.Repeat(" ", pad), sev.Sprint(marker))
	}
}

// clampCol turns a 1-based byte column into an index into line.
func clampCol(col uint32, line string) int {
	if col == 0 {
		return 0
	}
	return min(int(col-1), len(line))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
