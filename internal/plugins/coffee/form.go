package coffee

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned by a Prompter when the user backs out.
var ErrCancelled = errors.New("cancelled")

// Prompter collects new bag details from the user.
type Prompter interface {
	// Fill lets the user edit draft, starting from its current values.
	Fill(ctx context.Context, draft BagDraft) (BagDraft, error)
	// Confirm asks a yes/no question; the default answer is yes.
	Confirm(ctx context.Context, question string) (bool, error)
}

// TerminalPrompter runs interactive prompts on the terminal. Zero In and Out
// mean stdin and stdout.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

func (p TerminalPrompter) options(ctx context.Context) []tea.ProgramOption {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}
	return opts
}

// Fill implements Prompter.
func (p TerminalPrompter) Fill(ctx context.Context, draft BagDraft) (BagDraft, error) {
	final, err := tea.NewProgram(newBagForm(draft), p.options(ctx)...).Run()
	if err != nil {
		return BagDraft{}, fmt.Errorf("bag form: %w", err)
	}
	f := final.(bagForm)
	if f.cancelled {
		return BagDraft{}, ErrCancelled
	}
	return f.result, nil
}

// Confirm implements Prompter.
func (p TerminalPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	final, err := tea.NewProgram(confirmPrompt{question: question}, p.options(ctx)...).Run()
	if err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	c := final.(confirmPrompt)
	return c.answer, nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#764636"))
	labelStyle = lipgloss.NewStyle().Width(9).Align(lipgloss.Right)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

const (
	fieldBrand = iota
	fieldName
	fieldWeight
	fieldStart
	fieldCount
)

var fieldLabels = [fieldCount]string{"brand", "name", "weight", "start"}

// bagForm edits the four fields of a BagDraft.
type bagForm struct {
	inputs    []textinput.Model
	focus     int
	err       error
	result    BagDraft
	done      bool
	cancelled bool
}

func newBagForm(d BagDraft) bagForm {
	values := [fieldCount]string{d.Brand, d.Name, "", ""}
	if d.Weight > 0 {
		values[fieldWeight] = formatWeight(d.Weight)
	}
	if !d.Start.IsZero() {
		values[fieldStart] = d.Start.Format(DateLayout)
	}
	placeholders := [fieldCount]string{"bag brand", "bag name", "grams", DateLayout}

	f := bagForm{inputs: make([]textinput.Model, fieldCount)}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = " "
		in.Placeholder = placeholders[i]
		in.CharLimit = 80
		in.SetValue(values[i])
		f.inputs[i] = in
	}
	// Start on the first empty field.
	for i, v := range values {
		if v == "" {
			f.focus = i
			break
		}
	}
	f.inputs[f.focus].Focus()
	return f
}

func (f bagForm) Init() tea.Cmd { return textinput.Blink }

func (f bagForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c", "esc":
			f.cancelled = true
			return f, tea.Quit
		case "enter":
			if f.focus < fieldCount-1 {
				return f.moveFocus(1)
			}
			d, err := f.draft()
			if err != nil {
				f.err = err
				return f, nil
			}
			f.result = d
			f.done = true
			return f, tea.Quit
		case "tab", "down":
			return f.moveFocus(1)
		case "shift+tab", "up":
			return f.moveFocus(-1)
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f bagForm) moveFocus(delta int) (tea.Model, tea.Cmd) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	return f, f.inputs[f.focus].Focus()
}

// draft parses the inputs.
func (f bagForm) draft() (BagDraft, error) {
	d := BagDraft{
		Brand: strings.TrimSpace(f.inputs[fieldBrand].Value()),
		Name:  strings.TrimSpace(f.inputs[fieldName].Value()),
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(f.inputs[fieldWeight].Value()), 64)
	if err != nil {
		return BagDraft{}, fmt.Errorf("weight: not a number")
	}
	d.Weight = w
	if d.Start, err = time.ParseInLocation(DateLayout, strings.TrimSpace(f.inputs[fieldStart].Value()), time.Local); err != nil {
		return BagDraft{}, fmt.Errorf("start: expected %s", DateLayout)
	}
	return d, d.Validate()
}

func (f bagForm) View() string {
	if f.done || f.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("New coffee bag"))
	b.WriteString("\n\n")
	for i, in := range f.inputs {
		b.WriteString(labelStyle.Render(fieldLabels[i] + ":"))
		b.WriteString(in.View())
		b.WriteByte('\n')
	}
	if f.err != nil {
		b.WriteByte('\n')
		b.WriteString(errStyle.Render(f.err.Error()))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(helpStyle.Render("tab/enter: next • enter on start: done • esc: cancel"))
	b.WriteByte('\n')
	return b.String()
}

// confirmPrompt is a single yes/no question, yes by default.
type confirmPrompt struct {
	question string
	answer   bool
	done     bool
}

func (c confirmPrompt) Init() tea.Cmd { return nil }

func (c confirmPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}
	switch km.String() {
	case "y", "Y", "enter":
		c.answer = true
	case "n", "N", "esc", "ctrl+c":
		c.answer = false
	default:
		return c, nil
	}
	c.done = true
	return c, tea.Quit
}

func (c confirmPrompt) View() string {
	if c.done {
		answer := "n"
		if c.answer {
			answer = "y"
		}
		return c.question + " [Y/n]: " + answer + "\n"
	}
	return c.question + " [Y/n]: "
}
