package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	bold  = "\033[1m"
	reset = "\033[0m"

	ruleWidth = 40
)

// Status glyphs.
const (
	GlyphOK      = "✅"
	GlyphFail    = "❌"
	GlyphWarn    = "⚠️ "
	GlyphSearch  = "🔍"
	GlyphParty   = "🎉"
	GlyphTesting = "🧪"
)

// Printer writes the human-readable check report.
type Printer struct {
	w    io.Writer
	bold bool
}

// New returns a Printer writing to w. Headers are emphasised only when w is a terminal.
func New(w io.Writer) *Printer {
	p := &Printer{w: w}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.bold = true
	}
	return p
}

// Discard returns a Printer that drops everything.
func Discard() *Printer {
	return &Printer{w: io.Discard}
}

// Line prints a formatted line as is.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Blank prints an empty line.
func (p *Printer) Blank() {
	fmt.Fprintln(p.w)
}

// OK prints a success line.
func (p *Printer) OK(format string, args ...any) {
	p.glyph(GlyphOK, format, args...)
}

// Fail prints a failure line.
func (p *Printer) Fail(format string, args ...any) {
	p.glyph(GlyphFail, format, args...)
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...any) {
	p.glyph(GlyphWarn, format, args...)
}

// Indent prints a detail line under the previous status line.
func (p *Printer) Indent(format string, args ...any) {
	p.Line("   "+format, args...)
}

// Header prints a glyph-prefixed section title.
func (p *Printer) Header(glyph, title string) {
	if p.bold {
		p.Line("%s %s%s%s", glyph, bold, title, reset)
		return
	}
	p.Line("%s %s", glyph, title)
}

// Rule prints a horizontal separator.
func (p *Printer) Rule() {
	p.Line("%s", strings.Repeat("=", ruleWidth))
}

func (p *Printer) glyph(glyph, format string, args ...any) {
	p.Line(glyph+" "+format, args...)
}

// Presence renders a Set/Missing marker.
func Presence(set bool) string {
	if set {
		return GlyphOK + " Set"
	}
	return GlyphFail + " Missing"
}
