// Package notify posts desktop notifications.
package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Notifier posts a user-visible notification.
type Notifier interface {
	Notify(ctx context.Context, title, subtitle, text string) error
}

// OSAScript posts macOS notifications through osascript.
type OSAScript struct {
	// Binary defaults to "osascript".
	Binary string
}

// Notify implements Notifier.
func (n OSAScript) Notify(ctx context.Context, title, subtitle, text string) error {
	bin := n.Binary
	if bin == "" {
		bin = "osascript"
	}
	script := fmt.Sprintf("display notification %s with title %s subtitle %s",
		appleString(text), appleString(title), appleString(subtitle))
	if out, err := exec.CommandContext(ctx, bin, "-e", script).CombinedOutput(); err != nil {
		return fmt.Errorf("osascript: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// appleString quotes s as an AppleScript string literal.
func appleString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// Notification is one call recorded by Recorder.
type Notification struct {
	Title, Subtitle, Text string
}

// Recorder is a Notifier that remembers what it was asked to post.
type Recorder struct {
	mu    sync.Mutex
	Sent  []Notification
	Error error
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, title, subtitle, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, Notification{Title: title, Subtitle: subtitle, Text: text})
	return r.Error
}
