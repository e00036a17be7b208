package cli

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds a plugin's commands. Names are case-insensitive.
type Registry[S any] struct {
	mu       sync.RWMutex
	cmds     map[string]Command[S] // name and aliases map to command
	triggers map[string]Command[S]
}

// NewRegistry creates a new command registry.
func NewRegistry[S any]() *Registry[S] {
	return &Registry[S]{
		cmds:     make(map[string]Command[S]),
		triggers: make(map[string]Command[S]),
	}
}

// Register adds a command to the registry.
// Returns an error if the name, any alias or the trigger flag is already registered.
func (r *Registry[S]) Register(c Command[S]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{c.Name()}, c.Aliases()...)
	for _, n := range names {
		if _, exists := r.cmds[strings.ToLower(n)]; exists {
			return fmt.Errorf("command already registered: %s", n)
		}
	}
	var trigger string
	if t, ok := c.(Triggered); ok {
		trigger = t.Trigger()
		if _, exists := r.triggers[trigger]; exists {
			return fmt.Errorf("trigger flag already registered: %s", trigger)
		}
	}

	for _, n := range names {
		r.cmds[strings.ToLower(n)] = c
	}
	if trigger != "" {
		r.triggers[trigger] = c
	}
	return nil
}

// MustRegister adds commands and panics on conflicts. Meant for init().
func (r *Registry[S]) MustRegister(cmds ...Command[S]) {
	for _, c := range cmds {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Find looks up a command by name or alias.
func (r *Registry[S]) Find(name string) (Command[S], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.cmds[strings.ToLower(name)]
	return cmd, ok
}

// FindTrigger looks up the command selected by a leading flag name.
func (r *Registry[S]) FindTrigger(flagName string) (Command[S], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.triggers[flagName]
	return cmd, ok
}

// All returns all unique commands sorted by name.
func (r *Registry[S]) All() []Command[S] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Collect unique commands by primary name
	seen := make(map[string]Command[S])
	for _, cmd := range r.cmds {
		seen[cmd.Name()] = cmd
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Command[S], len(names))
	for i, name := range names {
		result[i] = seen[name]
	}
	return result
}
