// Package output renders the SwiftBar menu protocol.
//
// Each line is "<label> | key=value key=value". A line of three dashes
// separates sections; the first section is the status-bar title. Labels may
// start with ":sf.symbol:" tokens, which SwiftBar draws as icons when
// symbolize=true. Nested lines are prefixed with "--" per level.
package output

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Separator is the section separator line.
const Separator = "---"

// ErrMissingLabel is returned by Write for a line without a label.
var ErrMissingLabel = errors.New("menu line has no label")

// Param is one key=value metadata pair.
type Param struct {
	Key   string
	Value string
}

// Line is one menu entry.
type Line struct {
	Label  string
	Params []Param
	// Depth nests the line under the previous line of lower depth.
	Depth int

	separator bool
}

// IsSeparator reports whether the line is a section separator.
func (l Line) IsSeparator() bool { return l.separator }

// String formats the line as SwiftBar expects it.
func (l Line) String() string {
	if l.separator {
		return strings.Repeat("--", l.Depth) + Separator
	}
	var b strings.Builder
	b.WriteString(strings.Repeat("--", l.Depth))
	b.WriteString(normalizeLabel(l.Label))
	if len(l.Params) > 0 {
		b.WriteString(" |")
		for _, p := range l.Params {
			b.WriteByte(' ')
			b.WriteString(p.Key)
			b.WriteByte('=')
			b.WriteString(quote(p.Value))
		}
	}
	return b.String()
}

// Menu is an ordered list of lines, written all at once.
type Menu struct {
	lines []Line
}

// Add appends a line with the metadata of action, which may be nil.
func (m *Menu) Add(label string, action *Action) {
	m.AddLine(Line{Label: label, Params: action.Params()})
}

// AddNested appends a submenu line under the previous line.
func (m *Menu) AddNested(depth int, label string, action *Action) {
	m.AddLine(Line{Label: label, Params: action.Params(), Depth: depth})
}

// AddLine appends l.
func (m *Menu) AddLine(l Line) {
	m.lines = append(m.lines, l)
}

// Separator appends a section separator.
func (m *Menu) Separator() {
	m.lines = append(m.lines, Line{separator: true})
}

// Lines returns the accumulated lines.
func (m *Menu) Lines() []Line {
	return m.lines
}

// Write validates every line and then prints the menu. If any line is
// invalid nothing is written.
func (m *Menu) Write(w io.Writer) error {
	var b strings.Builder
	for i, l := range m.lines {
		if !l.separator && strings.TrimSpace(normalizeLabel(l.Label)) == "" {
			return fmt.Errorf("line %d: %w", i+1, ErrMissingLabel)
		}
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// normalizeLabel keeps a label on one line and out of the metadata suffix.
func normalizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.ReplaceAll(label, "|", "¦")
}

// quote single-quotes values SwiftBar would otherwise split. A value holding
// a single quote is double-quoted instead, with any double quote inside it
// escaped as \". SwiftBar has no escape for single quotes, so a value with
// both kinds relies on its backslash handling inside double quotes.
func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t'\"=|") {
		return v
	}
	if !strings.Contains(v, "'") {
		return "'" + v + "'"
	}
	return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
}
