// Package config resolves the configuration directory and loads the optional
// config.hcl shared by all plugins.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

const (
	// AppName is the application directory name.
	AppName = "menubar"

	// ConfigFile is the HCL settings filename.
	ConfigFile = "config.hcl"

	// OAuthClientFile is the Google OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored Google OAuth token filename.
	TokenFile = "token.json"

	// PluginPathEnv is set by SwiftBar to the plugin's own path.
	PluginPathEnv = "SWIFTBAR_PLUGIN_PATH"
)

// ErrNoCredentials is returned when a plugin's credential files are absent.
var ErrNoCredentials = errors.New("credentials not configured")

// Config holds paths, common flags and per-plugin settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// PluginPath is the executable click actions re-invoke.
	PluginPath string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output after click actions.
	Quiet bool

	Coffee      Coffee
	Snippets    Snippets
	Conda       Conda
	Taskwarrior Taskwarrior
	GTasks      GTasks
}

// Coffee configures the coffee-tracker plugin.
type Coffee struct {
	BaseURL         string
	Timeout         time.Duration
	KeychainService string
	KeychainAccount string
	// RecentUses bounds the uses listed under today's count.
	RecentUses    int
	DefaultWeight float64
}

// Snippet is one entry of the oft-copied plugin.
type Snippet struct {
	Title string
	Text  string
}

// Snippets configures the oft-copied plugin.
type Snippets struct {
	// Editor opens the config file from the menu's Edit item.
	Editor string
	Items  []Snippet
}

// Conda configures the conda-envs plugin.
type Conda struct {
	Binary  string
	Timeout time.Duration
}

// Taskwarrior configures the taskwarrior plugin.
type Taskwarrior struct {
	Binary string
	// TaskRC overrides the taskrc file. Empty means .mod-taskrc next to the plugin.
	TaskRC  string
	Timeout time.Duration
	// Projects maps project names to display labels.
	Projects map[string]string
	// StrictSchema rejects export fields the plugin does not know.
	StrictSchema bool
}

// GTasks configures the Google Tasks plugin.
type GTasks struct {
	Timeout time.Duration
}

// New creates a Config with the default or specified config directory and
// built-in plugin defaults. If configDir is empty, uses
// XDG_CONFIG_HOME/menubar or $HOME/.config/menubar.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := Defaults()
	cfg.Dir = dir
	cfg.PluginPath = DefaultPluginPath()
	return cfg, nil
}

// Defaults returns the settings used when config.hcl is absent.
func Defaults() *Config {
	return &Config{
		Coffee: Coffee{
			BaseURL:         "https://a7a9ck.deta.dev/",
			Timeout:         5 * time.Second,
			KeychainService: "swiftbar_coffee-tracker",
			KeychainAccount: "Joshua Cook",
			RecentUses:      20,
			DefaultWeight:   340,
		},
		Snippets: Snippets{
			Editor: "mate",
			Items: []Snippet{
				{Title: "IPython autoreload", Text: "%load_ext autoreload\n%autoreload 2"},
				{Title: "Pystan in Jupyter", Text: "import nest_asyncio\nnest_asyncio.apply()"},
				{Title: "matplotlib retina", Text: "%matplotlib inline\n%config InlineBackend.figure_format='retina'"},
			},
		},
		Conda: Conda{
			Binary:  "conda",
			Timeout: 10 * time.Second,
		},
		Taskwarrior: Taskwarrior{
			Binary:  "task",
			Timeout: 10 * time.Second,
			Projects: map[string]string{
				"speclet":   ":laptopcomputer: speclet",
				"bluishred": ":laptopcomputer: bluishred",
				"katsaros":  ":laptopcomputer: katsaros",
				"home":      ":house.fill: home",
				"lab":       ":briefcase: lab",
				"none":      ":command: general",
			},
		},
		GTasks: GTasks{
			Timeout: 5 * time.Second,
		},
	}
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// DefaultPluginPath returns SWIFTBAR_PLUGIN_PATH, or the running executable
// as invoked.
func DefaultPluginPath() string {
	if p := os.Getenv(PluginPathEnv); p != "" {
		return p
	}
	if len(os.Args) > 0 {
		return os.Args[0]
	}
	return AppName
}

// FilePath returns the path to config.hcl.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// TaskRCPath returns the taskrc override file for the taskwarrior plugin.
func (c *Config) TaskRCPath() string {
	if c.Taskwarrior.TaskRC != "" {
		return c.Taskwarrior.TaskRC
	}
	return filepath.Join(filepath.Dir(c.PluginPath), ".mod-taskrc")
}
