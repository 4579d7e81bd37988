package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GitHubTokenEnv overrides github.token when set
const GitHubTokenEnv = "FEEDSTOCKROT_GITHUB_TOKEN"

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config represents the application configuration
type Config struct {
	Channel    ChannelConfig    `yaml:"channel"`
	Registries RegistriesConfig `yaml:"registries"`
	HTTP       HTTPConfig       `yaml:"http"`
	GitHub     GitHubConfig     `yaml:"github"`
	Jobs       int              `yaml:"jobs"`
}

// ChannelConfig describes the conda channel checked for feedstock versions
type ChannelConfig struct {
	Owner       string   `yaml:"owner"`
	Platforms   []string `yaml:"platforms"`
	Branches    []string `yaml:"branches"`
	RepodataURL string   `yaml:"repodata_url"` // {owner}, {platform}
	RecipeURL   string   `yaml:"recipe_url"`   // {owner}, {name}, {branch}
}

// RegistriesConfig holds the lookup URL of each upstream registry ({name})
type RegistriesConfig struct {
	PyPI   string `yaml:"pypi"`
	Npm    string `yaml:"npm"`
	Crates string `yaml:"crates"`
}

// HTTPConfig holds registry client settings
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	UserAgent string        `yaml:"user_agent,omitempty"`
}

// GitHubConfig holds GitHub API settings
type GitHubConfig struct {
	Token  string `yaml:"token,omitempty"` // Personal access token for repository listing
	APIURL string `yaml:"api_url"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Channel: ChannelConfig{
			Owner:       "conda-forge",
			Platforms:   []string{"linux-64", "osx-64", "win-64"},
			Branches:    []string{"main", "master"},
			RepodataURL: "https://conda.anaconda.org/{owner}/{platform}/repodata.json",
			RecipeURL:   "https://raw.githubusercontent.com/{owner}/{name}-feedstock/{branch}/recipe/meta.yaml",
		},
		Registries: RegistriesConfig{
			PyPI:   "https://pypi.org/pypi/{name}/json",
			Npm:    "https://registry.npmjs.org/{name}",
			Crates: "https://crates.io/api/v1/crates/{name}",
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		GitHub: GitHubConfig{
			APIURL: "https://api.github.com",
		},
		Jobs: 4,
	}
}

// ConfigPaths returns all possible config file paths in priority order
// 1. ~/.config/feedstockrot/config.yaml (XDG standard - priority)
// 2. ~/.feedstockrot/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "feedstockrot", "config.yaml"),
		filepath.Join(home, ".feedstockrot", "config.yaml"),
	}, nil
}

// FindConfigPath returns the first existing config file path, or "" if none exists
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// Load reads configuration from the first available config file.
// Defaults are returned when no config file exists.
func Load() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		cfg := Default()
		cfg.applyEnv()
		return cfg, nil
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from a specific file path. Fields missing from
// the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo writes configuration to a specific file path
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// applyEnv applies environment overrides
func (c *Config) applyEnv() {
	if token := os.Getenv(GitHubTokenEnv); token != "" {
		c.GitHub.Token = token
	}
}

// Validate checks that the configuration can drive a run
func (c *Config) Validate() error {
	if c.Channel.Owner == "" {
		return fmt.Errorf("%w: channel.owner is empty", ErrInvalidConfig)
	}
	if len(c.Channel.Platforms) == 0 {
		return fmt.Errorf("%w: channel.platforms is empty", ErrInvalidConfig)
	}
	if len(c.Channel.Branches) == 0 {
		return fmt.Errorf("%w: channel.branches is empty", ErrInvalidConfig)
	}
	if !strings.Contains(c.Channel.RepodataURL, "{platform}") {
		return fmt.Errorf("%w: channel.repodata_url must contain {platform}", ErrInvalidConfig)
	}
	if !strings.Contains(c.Channel.RecipeURL, "{name}") {
		return fmt.Errorf("%w: channel.recipe_url must contain {name}", ErrInvalidConfig)
	}
	for key, url := range map[string]string{
		"registries.pypi":   c.Registries.PyPI,
		"registries.npm":    c.Registries.Npm,
		"registries.crates": c.Registries.Crates,
	} {
		if !strings.Contains(url, "{name}") {
			return fmt.Errorf("%w: %s must contain {name}", ErrInvalidConfig, key)
		}
	}
	if c.HTTP.Timeout < 0 || c.HTTP.Retries < 0 || c.HTTP.RateLimit < 0 {
		return fmt.Errorf("%w: http settings must not be negative", ErrInvalidConfig)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("%w: jobs must not be negative", ErrInvalidConfig)
	}
	return nil
}
