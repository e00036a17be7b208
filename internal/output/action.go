package output

import (
	"strconv"
	"strings"
)

// Action builds the metadata suffix of a line. The zero value and nil are
// both valid and produce no metadata.
type Action struct {
	params []Param
}

// NewAction returns an empty action.
func NewAction() *Action {
	return &Action{}
}

// Click returns the action that re-invokes the plugin at path with args as
// param0, param1, ... in a background shell.
func Click(path string, args ...string) *Action {
	a := NewAction().Bash(path)
	for i, arg := range args {
		a.Arg(i, arg)
	}
	return a.Terminal(false).Refresh(true)
}

// Set adds or replaces key.
func (a *Action) Set(key, value string) *Action {
	for i := range a.params {
		if a.params[i].Key == key {
			a.params[i].Value = value
			return a
		}
	}
	a.params = append(a.params, Param{Key: key, Value: value})
	return a
}

// Params returns a copy of the accumulated parameters.
func (a *Action) Params() []Param {
	if a == nil || len(a.params) == 0 {
		return nil
	}
	out := make([]Param, len(a.params))
	copy(out, a.params)
	return out
}

// Clone returns an independent copy of a.
func (a *Action) Clone() *Action {
	return &Action{params: a.Params()}
}

func (a *Action) Bash(path string) *Action { return a.Set("bash", path) }

// Arg sets the i-th positional argument passed to the bash executable.
func (a *Action) Arg(i int, v string) *Action { return a.Set("param"+strconv.Itoa(i), v) }

func (a *Action) Terminal(b bool) *Action  { return a.Set("terminal", strconv.FormatBool(b)) }
func (a *Action) Refresh(b bool) *Action   { return a.Set("refresh", strconv.FormatBool(b)) }
func (a *Action) Symbolize(b bool) *Action { return a.Set("symbolize", strconv.FormatBool(b)) }
func (a *Action) Dropdown(b bool) *Action  { return a.Set("dropdown", strconv.FormatBool(b)) }
func (a *Action) Trim(b bool) *Action      { return a.Set("trim", strconv.FormatBool(b)) }
func (a *Action) Alternate() *Action       { return a.Set("alternate", "true") }
func (a *Action) Color(c string) *Action   { return a.Set("color", c) }
func (a *Action) SFColor(c string) *Action { return a.Set("sfcolor", c) }

// Tooltip sets the hover text. Newlines are kept as literal \\n sequences so
// the whole value stays on one line.
func (a *Action) Tooltip(text string) *Action {
	return a.Set("tooltip", strings.ReplaceAll(text, "\n", `\\n`))
}
