// Package config holds the persistent configuration: a YAML file with typed
// keys addressed by dotted path ("ui.colors", "mygpo.device_id").
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// AppName is used for config and data directories.
const AppName = "podsh"

// ConfigFileName is the name of the config file.
const ConfigFileName = "config.yaml"

// Errors surfaced by dotted-path access.
var (
	ErrUnknownKey = errors.New("this configuration option does not exist")
	ErrNotLeaf    = errors.New("can only set leaf configuration nodes")
)

// Config is the application configuration. All fields are reachable through
// Get/Set by their dotted YAML path.
type Config struct {
	UI struct {
		Colors bool `yaml:"colors"`
	} `yaml:"ui"`
	Downloads struct {
		Dir                string `yaml:"dir"`
		ChronologicalOrder bool   `yaml:"chronological_order"`
		ExpiryDays         int    `yaml:"expiry_days"`
	} `yaml:"downloads"`
	Limits struct {
		EpisodesPerFeed int `yaml:"episodes_per_feed"`
	} `yaml:"limits"`
	MyGPO struct {
		Enabled  bool   `yaml:"enabled"`
		Server   string `yaml:"server"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		DeviceID string `yaml:"device_id"`
	} `yaml:"mygpo"`
	Device struct {
		Folder       string `yaml:"folder"`
		DeletePlayed bool   `yaml:"delete_played"`
	} `yaml:"device"`

	path string
}

// Default returns a Config with defaults filled in.
func Default() *Config {
	c := &Config{}
	c.UI.Colors = true
	c.Downloads.Dir = filepath.Join(DataDir(), "Downloads")
	c.Limits.EpisodesPerFeed = 200
	c.MyGPO.Server = "https://gpodder.net"
	return c
}

// ConfigDir returns the directory holding the config file.
func ConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", AppName)
}

// DataDir returns the directory for the database and downloads, honoring
// XDG_DATA_HOME.
func DataDir() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, AppName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", AppName)
}

// Load reads the config file at path (created with defaults when missing)
// and assigns a device id on first run.
func Load(path string) (*Config, error) {
	c := Default()
	c.path = path

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run; fall through to device id assignment and save.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if c.MyGPO.DeviceID == "" {
		c.MyGPO.DeviceID = AppName + "-" + uuid.NewString()[:8]
		if err := c.Save(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Save writes the config file.
func (c *Config) Save() error {
	if c.path == "" {
		c.path = filepath.Join(ConfigDir(), ConfigFileName)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o600)
}

// tree renders the config as a nested map for path navigation.
func (c *Config) tree() (map[string]interface{}, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// AllKeys returns every dotted leaf key, sorted.
func (c *Config) AllKeys() []string {
	m, err := c.tree()
	if err != nil {
		return nil
	}
	var keys []string
	flatten("", m, &keys)
	sort.Strings(keys)
	return keys
}

func flatten(prefix string, m map[string]interface{}, out *[]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]interface{}); ok {
			flatten(key, child, out)
			continue
		}
		*out = append(*out, key)
	}
}

// Get returns the value at a dotted key, formatted for display.
func (c *Config) Get(key string) (string, error) {
	m, err := c.tree()
	if err != nil {
		return "", err
	}
	v, err := lookup(m, key)
	if err != nil {
		return "", err
	}
	if _, ok := v.(map[string]interface{}); ok {
		return "", ErrNotLeaf
	}
	return fmt.Sprintf("%v", v), nil
}

// Set updates the leaf at a dotted key, converting the value to the key's
// current type, and persists the file.
func (c *Config) Set(key, value string) error {
	m, err := c.tree()
	if err != nil {
		return err
	}
	current, err := lookup(m, key)
	if err != nil {
		return err
	}

	var converted interface{}
	switch current.(type) {
	case bool:
		b, err := strconv.ParseBool(strings.ToLower(value))
		if err != nil {
			return fmt.Errorf("invalid boolean value %q", value)
		}
		converted = b
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value %q", value)
		}
		converted = n
	case string:
		converted = value
	case map[string]interface{}:
		return ErrNotLeaf
	default:
		converted = value
	}

	if err := assign(m, key, converted); err != nil {
		return err
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	return c.Save()
}

func lookup(m map[string]interface{}, key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	var node interface{} = m
	for _, part := range parts {
		child, ok := node.(map[string]interface{})
		if !ok {
			return nil, ErrUnknownKey
		}
		node, ok = child[part]
		if !ok {
			return nil, ErrUnknownKey
		}
	}
	return node, nil
}

func assign(m map[string]interface{}, key string, value interface{}) error {
	parts := strings.Split(key, ".")
	node := m
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]interface{})
		if !ok {
			return ErrUnknownKey
		}
		node = child
	}
	leaf := parts[len(parts)-1]
	if _, ok := node[leaf]; !ok {
		return ErrUnknownKey
	}
	node[leaf] = value
	return nil
}
