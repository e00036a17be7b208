package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	log "github.com/sirupsen/logrus"
	"github.com/zclconf/go-cty/cty"
)

// hclFile is the top-level structure of config.hcl. Every block is optional
// and every attribute left out keeps its built-in default.
type hclFile struct {
	Coffee      *hclCoffee      `hcl:"coffee,block"`
	Snippets    *hclSnippets    `hcl:"snippets,block"`
	Conda       *hclConda       `hcl:"conda,block"`
	Taskwarrior *hclTaskwarrior `hcl:"taskwarrior,block"`
	GTasks      *hclGTasks      `hcl:"gtasks,block"`
}

type hclCoffee struct {
	BaseURL         *string  `hcl:"base_url,optional"`
	Timeout         *string  `hcl:"timeout,optional"`
	KeychainService *string  `hcl:"keychain_service,optional"`
	KeychainAccount *string  `hcl:"keychain_account,optional"`
	RecentUses      *int     `hcl:"recent_uses,optional"`
	DefaultWeight   *float64 `hcl:"default_weight,optional"`
}

type hclSnippets struct {
	Editor *string      `hcl:"editor,optional"`
	Items  []hclSnippet `hcl:"snippet,block"`
}

type hclSnippet struct {
	Title string `hcl:"title,label"`
	Text  string `hcl:"text"`
}

type hclConda struct {
	Binary  *string `hcl:"binary,optional"`
	Timeout *string `hcl:"timeout,optional"`
}

type hclTaskwarrior struct {
	Binary       *string      `hcl:"binary,optional"`
	TaskRC       *string      `hcl:"taskrc,optional"`
	Timeout      *string      `hcl:"timeout,optional"`
	StrictSchema *bool        `hcl:"strict_schema,optional"`
	Projects     []hclProject `hcl:"project,block"`
}

type hclProject struct {
	Name  string `hcl:"name,label"`
	Label string `hcl:"label"`
}

type hclGTasks struct {
	Timeout *string `hcl:"timeout,optional"`
}

// Load reads config.hcl from the config directory if it exists.
func (c *Config) Load() error {
	src, err := os.ReadFile(c.FilePath())
	if errors.Is(err, fs.ErrNotExist) {
		log.WithField("path", c.FilePath()).Debug("No config file, using defaults")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	return c.Parse(src, c.FilePath())
}

// Parse applies the HCL document src on top of the current settings.
// filename is only used in diagnostics.
func (c *Config) Parse(src []byte, filename string) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse %s: %w", filename, diags)
	}

	var parsed hclFile
	diags = gohcl.DecodeBody(file.Body, evalContext(), &parsed)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode %s: %w", filename, diags)
	}

	if err := c.apply(&parsed); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}

// evalContext exposes the process environment as env.NAME.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

func (c *Config) apply(f *hclFile) error {
	if b := f.Coffee; b != nil {
		setString(&c.Coffee.BaseURL, b.BaseURL)
		setString(&c.Coffee.KeychainService, b.KeychainService)
		setString(&c.Coffee.KeychainAccount, b.KeychainAccount)
		if b.RecentUses != nil {
			c.Coffee.RecentUses = *b.RecentUses
		}
		if b.DefaultWeight != nil {
			c.Coffee.DefaultWeight = *b.DefaultWeight
		}
		if err := setDuration(&c.Coffee.Timeout, b.Timeout, "coffee.timeout"); err != nil {
			return err
		}
	}

	if b := f.Snippets; b != nil {
		setString(&c.Snippets.Editor, b.Editor)
		if len(b.Items) > 0 {
			seen := make(map[string]bool)
			items := make([]Snippet, 0, len(b.Items))
			for _, s := range b.Items {
				if seen[s.Title] {
					return fmt.Errorf("duplicate snippet %q", s.Title)
				}
				seen[s.Title] = true
				items = append(items, Snippet{Title: s.Title, Text: s.Text})
			}
			c.Snippets.Items = items
		}
	}

	if b := f.Conda; b != nil {
		setString(&c.Conda.Binary, b.Binary)
		if err := setDuration(&c.Conda.Timeout, b.Timeout, "conda.timeout"); err != nil {
			return err
		}
	}

	if b := f.Taskwarrior; b != nil {
		setString(&c.Taskwarrior.Binary, b.Binary)
		setString(&c.Taskwarrior.TaskRC, b.TaskRC)
		if b.StrictSchema != nil {
			c.Taskwarrior.StrictSchema = *b.StrictSchema
		}
		if err := setDuration(&c.Taskwarrior.Timeout, b.Timeout, "taskwarrior.timeout"); err != nil {
			return err
		}
		if len(b.Projects) > 0 && c.Taskwarrior.Projects == nil {
			c.Taskwarrior.Projects = make(map[string]string)
		}
		for _, p := range b.Projects {
			c.Taskwarrior.Projects[p.Name] = p.Label
		}
	}

	if b := f.GTasks; b != nil {
		if err := setDuration(&c.GTasks.Timeout, b.Timeout, "gtasks.timeout"); err != nil {
			return err
		}
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, name string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s: must be positive, got %s", name, d)
	}
	*dst = d
	return nil
}
