// Package config handles the XDG configuration directory, the config file,
// and the stored API token.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

const (
	// AppName is the application directory name.
	AppName = "taskdesk"

	// ConfigFile is the optional TOML settings filename.
	ConfigFile = "config.toml"

	// TokenFile is the stored API token filename.
	TokenFile = "token.json"

	// DefaultAPIBaseURL is used when no other base URL is configured.
	DefaultAPIBaseURL = "http://localhost:3000/api"

	// DefaultPageSize is the number of tasks requested per page.
	DefaultPageSize = 10

	// EnvAPIURL overrides the configured API base URL.
	EnvAPIURL = "TASKDESK_API_URL"

	// EnvPageSize overrides the configured page size.
	EnvPageSize = "TASKDESK_PAGE_SIZE"
)

var (
	// ErrNoToken is returned by LoadToken when no token is stored.
	ErrNoToken = errors.New("no stored token")

	// ErrInvalidToken is returned by LoadToken when the token file is unusable.
	ErrInvalidToken = errors.New("invalid stored token")
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIBaseURL is the root of the tasks API, without the /tasks suffix.
	APIBaseURL string

	// PageSize is the default limit for list requests.
	PageSize int

	// PriorityMigration moves an edited task to the board section of its
	// new priority instead of leaving it where it was listed.
	PriorityMigration bool

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// file mirrors config.toml. Zero fields leave the current value alone.
type file struct {
	APIBaseURL        string `toml:"api_base_url"`
	PageSize          int    `toml:"page_size"`
	PriorityMigration *bool  `toml:"priority_migration"`
}

// New creates a Config for configDir, or the default directory when empty.
// Settings are layered: defaults, then config.toml, then environment.
// Flags are applied by the caller on top.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:        dir,
		APIBaseURL: DefaultAPIBaseURL,
		PageSize:   DefaultPageSize,
	}

	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
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

func (c *Config) loadFile() error {
	var f file
	_, err := toml.DecodeFile(c.ConfigPath(), &f)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config file %s: %w", c.ConfigPath(), err)
	}
	if f.APIBaseURL != "" {
		c.APIBaseURL = f.APIBaseURL
	}
	if f.PageSize != 0 {
		if f.PageSize < 0 {
			return fmt.Errorf("loading config file %s: page_size must be positive", c.ConfigPath())
		}
		c.PageSize = f.PageSize
	}
	if f.PriorityMigration != nil {
		c.PriorityMigration = *f.PriorityMigration
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.APIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPageSize)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid %s: %q", EnvPageSize, v)
		}
		c.PageSize = n
	}
	return nil
}

// ConfigPath returns the path to the TOML settings file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// TokenPath returns the path to the stored token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// LoadToken reads the stored token.
func (c *Config) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.TokenPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidToken, TokenFile, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: %s: empty access token", ErrInvalidToken, TokenFile)
	}
	return &tok, nil
}

// SaveToken writes tok to the token file with mode 0600, creating the
// config directory if needed.
func (c *Config) SaveToken(tok *oauth2.Token) error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.TokenPath(), data, 0600)
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
