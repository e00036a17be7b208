// Package clipboard copies text to the system pasteboard.
package clipboard

import (
	"errors"
	"sync"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when no clipboard utility is available.
var ErrUnsupported = errors.New("clipboard unavailable")

// Writer places text on a clipboard.
type Writer interface {
	WriteAll(text string) error
}

// System is the OS clipboard (pbcopy on macOS).
type System struct{}

// WriteAll implements Writer.
func (System) WriteAll(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	return clipboard.WriteAll(text)
}

// Memory is an in-process clipboard for tests.
type Memory struct {
	mu     sync.Mutex
	Copied []string
	Error  error
}

// WriteAll implements Writer.
func (m *Memory) WriteAll(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Error != nil {
		return m.Error
	}
	m.Copied = append(m.Copied, text)
	return nil
}

// Last returns the most recently copied text.
func (m *Memory) Last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Copied) == 0 {
		return ""
	}
	return m.Copied[len(m.Copied)-1]
}
