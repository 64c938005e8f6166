package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/innerself/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{ddm: dotdir.NewManager()}

	path, err := cfger.ddm.File(override, configFile)
	if err != nil {
		return nil, err
	}

	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns all supported configuration key names in the
// order of the TOML section layout.
func ValidConfigKeys() []string {
	ordered := []string{
		"innerself.enabled",
		"innerself.thought_formation_chance",
		"innerself.characters",
		"innerself.thought_chance_half_for_input",
		"innerself.debug_mode",
		"innerself.user_name",
		"innerself.context_max_length",
		"generator.provider",
		"generator.model",
		"generator.target",
		"generator.timeout",
		"storage.driver",
		"storage.sqlite_path",
		"storage.postgres_dsn",
		"persistence.interval",
		"persistence.key",
		"eventstream.provider",
		"eventstream.brokers",
		"eventstream.topic",
		"api.listen",
	}

	result := make([]string, 0, len(configKeys))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
		}
	}
	for k := range configKeys {
		if !slices.Contains(result, k) {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads config.toml from the target .innerself/ directory.
// A missing file yields NewDefaultConfig(); fields set in the file override
// the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	return LoadFile(c.targetPath)
}

// LoadFile reads and parses the config file at path, returning defaults when
// it does not exist.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return ParseConfigTOML(data)
}

// SaveConfig persists the configuration to config.toml in the target .innerself/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and
// saves it. Unknown keys and invalid values are rejected and the file is left
// untouched.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// ParseConfigTOML parses raw TOML bytes on top of NewDefaultConfig() and
// validates the result.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every value that has a constrained range.
func (c *Config) Validate() error {
	if c.InnerSelf.ThoughtFormationChance < 0 || c.InnerSelf.ThoughtFormationChance > 100 {
		return fmt.Errorf("invalid innerself.thought_formation_chance %d: must be within [0, 100]",
			c.InnerSelf.ThoughtFormationChance)
	}
	if c.InnerSelf.ContextMaxLength < 0 {
		return fmt.Errorf("invalid innerself.context_max_length %d: must not be negative",
			c.InnerSelf.ContextMaxLength)
	}
	if !slices.Contains(GeneratorProviders, c.Generator.Provider) {
		return fmt.Errorf("invalid generator.provider %q", c.Generator.Provider)
	}
	if !slices.Contains(StorageDrivers, c.Storage.Driver) {
		return fmt.Errorf("invalid storage.driver %q", c.Storage.Driver)
	}
	if !slices.Contains(EventStreamProviders, c.EventStream.Provider) {
		return fmt.Errorf("invalid eventstream.provider %q", c.EventStream.Provider)
	}
	if _, err := c.GeneratorTimeout(); err != nil {
		return err
	}
	if _, err := c.PersistInterval(); err != nil {
		return err
	}
	return nil
}

// GeneratorTimeout parses generator.timeout.
func (c *Config) GeneratorTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Generator.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid generator.timeout: %w", err)
	}
	return d, nil
}

// PersistInterval parses persistence.interval.
func (c *Config) PersistInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Persistence.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid persistence.interval: %w", err)
	}
	return d, nil
}
