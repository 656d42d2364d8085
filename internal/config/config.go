package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr     = ":8080"
	defaultLogLevel = "info"
)

// Config holds settings shared by lain and lain-server
type Config struct {
	DataDir      string   `yaml:"data_dir,omitempty"`
	Addr         string   `yaml:"addr,omitempty"`
	LogLevel     string   `yaml:"log_level,omitempty"`
	Server       string   `yaml:"server,omitempty"`
	NamePrefixes []string `yaml:"name_prefixes,omitempty"`
}

// Path returns the config file location, honouring LAIN_CONFIG
func Path() (string, error) {
	if p := os.Getenv("LAIN_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".lain.yaml"), nil
}

// DefaultDataDir is the Claude Code projects directory of the current user
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".claude", "projects")
	}
	return filepath.Join(home, ".claude", "projects")
}

// Load reads the config file, then applies environment overrides and defaults.
// A missing file is not an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom is Load for an explicit file path
func LoadFrom(path string) (*Config, error) {
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFile reads only the file-backed settings, without environment
// overrides or defaults. Use it when the result is saved back.
func LoadFile() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return readFile(path)
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("LAIN_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := getenv("PORT"); v != "" {
		c.Addr = ":" + v
	}
	if v := getenv("LAIN_ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv("LAIN_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("LAIN_SERVER"); v != "" {
		c.Server = v
	}
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// Save writes the file-backed settings of cfg to the config path
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg to path. Values equal to the defaults are omitted so that
// later default changes still apply.
func SaveTo(path string, cfg *Config) error {
	out := *cfg
	if out.DataDir == DefaultDataDir() {
		out.DataDir = ""
	}
	if out.Addr == defaultAddr {
		out.Addr = ""
	}
	if out.LogLevel == defaultLogLevel {
		out.LogLevel = ""
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
