package coffee

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(m tea.Model, s string) tea.Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func press(m tea.Model, k tea.KeyType) tea.Model {
	m, _ = m.Update(tea.KeyMsg{Type: k})
	return m
}

func TestBagFormFillsDraft(t *testing.T) {
	start := time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local)
	var m tea.Model = newBagForm(BagDraft{Weight: 340, Start: start})
	require.Equal(t, fieldBrand, m.(bagForm).focus)

	m = typeText(m, "Onyx")
	m = press(m, tea.KeyEnter)
	m = typeText(m, "Geometry")
	m = press(m, tea.KeyEnter)
	m = press(m, tea.KeyEnter)
	m = press(m, tea.KeyEnter)

	f := m.(bagForm)
	require.True(t, f.done, "form error: %v", f.err)
	assert.Equal(t, "Onyx", f.result.Brand)
	assert.Equal(t, "Geometry", f.result.Name)
	assert.Equal(t, 340.0, f.result.Weight)
	assert.Equal(t, "2024-03-05", f.result.Start.Format(DateLayout))
	assert.Empty(t, f.View())
}

func TestBagFormStartsOnFirstEmptyField(t *testing.T) {
	f := newBagForm(BagDraft{Brand: "Onyx", Weight: 340})
	assert.Equal(t, fieldName, f.focus)
}

func TestBagFormRejectsInvalidDraft(t *testing.T) {
	var m tea.Model = newBagForm(BagDraft{Weight: 340, Start: time.Now()})

	for i := 0; i < fieldCount; i++ {
		m = press(m, tea.KeyEnter)
	}

	f := m.(bagForm)
	assert.False(t, f.done)
	require.Error(t, f.err)
	assert.Contains(t, f.err.Error(), "brand")
	assert.Contains(t, f.View(), "brand")
}

func TestBagFormNavigation(t *testing.T) {
	var m tea.Model = newBagForm(BagDraft{})
	m = press(m, tea.KeyTab)
	assert.Equal(t, fieldName, m.(bagForm).focus)
	m = press(m, tea.KeyShiftTab)
	m = press(m, tea.KeyShiftTab)
	assert.Equal(t, fieldStart, m.(bagForm).focus)
}

func TestBagFormCancel(t *testing.T) {
	m := press(newBagForm(BagDraft{}), tea.KeyEsc)
	assert.True(t, m.(bagForm).cancelled)
}

func TestConfirmPrompt(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want bool
	}{
		{tea.KeyMsg{Type: tea.KeyEnter}, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, true},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}, false},
		{tea.KeyMsg{Type: tea.KeyEsc}, false},
	}
	for _, tc := range tests {
		t.Run(tc.key.String(), func(t *testing.T) {
			m, cmd := confirmPrompt{question: "Submit bag?"}.Update(tc.key)
			c := m.(confirmPrompt)
			assert.True(t, c.done)
			assert.Equal(t, tc.want, c.answer)
			assert.NotNil(t, cmd)
		})
	}

	m, cmd := confirmPrompt{question: "Submit bag?"}.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.False(t, m.(confirmPrompt).done)
	assert.Nil(t, cmd)
	assert.Equal(t, "Submit bag? [Y/n]: ", m.View())
}

func TestSummarize(t *testing.T) {
	s := summarize([]time.Duration{4, 1, 3, 2})
	assert.Equal(t, time.Duration(2), s.mean)
	assert.Equal(t, time.Duration(2), s.median)

	one := summarize([]time.Duration{7})
	assert.Equal(t, time.Duration(7), one.median)
	assert.Zero(t, one.stddev)
}
