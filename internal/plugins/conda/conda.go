// Package conda is the conda-envs plugin: it lists conda environments and
// copies the clicked name to the clipboard.
package conda

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"menubar/internal/clipboard"
	"menubar/internal/config"
	"menubar/internal/fetch"
)

// Environment is one conda environment.
type Environment struct {
	Name string
	Path string
}

// Lister reads the installed environments.
type Lister interface {
	Environments(ctx context.Context) fetch.Result[Environment]
}

// Env is the service bundle of the plugin.
type Env struct {
	Lister    Lister
	Clipboard clipboard.Writer
}

// NewEnv returns the production bundle.
func NewEnv(ctx context.Context, cfg *config.Config) (*Env, error) {
	return &Env{
		Lister:    CLI{Binary: cfg.Conda.Binary, Timeout: cfg.Conda.Timeout},
		Clipboard: clipboard.System{},
	}, nil
}

// CLI lists environments with "conda env list".
type CLI struct {
	Binary  string
	Timeout time.Duration
}

// Environments implements Lister.
func (c CLI) Environments(ctx context.Context) fetch.Result[Environment] {
	bin := c.Binary
	if bin == "" {
		bin = "conda"
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "env", "list")
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return fetch.Fail[Environment](fmt.Errorf("%s env list: %w: %v: %s", bin, fetch.ErrTransport, err, strings.TrimSpace(stderr.String())))
		}
		return fetch.Fail[Environment](fmt.Errorf("%s env list: %w: %v", bin, fetch.ErrTransport, err))
	}
	return fetch.Ok(ParseEnvList(out))
}

// ParseEnvList extracts environments from "conda env list" output. Comment
// lines, blank lines and the base environment are skipped. Environments
// outside the envs directory are listed by path only; their name is the last
// path element.
func ParseEnvList(out []byte) []Environment {
	var envs []Environment
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if strings.Contains(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := filepath.Base(fields[0])
		if name == "base" {
			continue
		}
		envs = append(envs, Environment{Name: name, Path: fields[len(fields)-1]})
	}
	return envs
}
