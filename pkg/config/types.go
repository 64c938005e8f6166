package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent innerself configuration stored as
// config.toml in the .innerself/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	InnerSelf   InnerSelfConfig   `toml:"innerself"`
	Generator   GeneratorConfig   `toml:"generator"`
	Storage     StorageConfig     `toml:"storage"`
	Persistence PersistenceConfig `toml:"persistence"`
	EventStream EventStreamConfig `toml:"eventstream"`
	API         APIConfig         `toml:"api"`
}

// InnerSelfConfig holds the engine behaviour settings.
type InnerSelfConfig struct {
	Enabled                   bool     `toml:"enabled"`
	ThoughtFormationChance    int      `toml:"thought_formation_chance"`
	Characters                []string `toml:"characters,omitempty"`
	ThoughtChanceHalfForInput bool     `toml:"thought_chance_half_for_input"`
	DebugMode                 bool     `toml:"debug_mode"`
	UserName                  string   `toml:"user_name,omitempty"`
	ContextMaxLength          int      `toml:"context_max_length,omitempty"`
}

// GeneratorConfig selects the completion endpoint used to form thoughts.
type GeneratorConfig struct {
	Provider string `toml:"provider,omitempty"`
	Model    string `toml:"model,omitempty"`
	Target   string `toml:"target,omitempty"`
	Timeout  string `toml:"timeout,omitempty"`
}

// StorageConfig selects where snapshots are persisted.
type StorageConfig struct {
	Driver      string `toml:"driver,omitempty"`
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// PersistenceConfig controls the periodic snapshot schedule.
type PersistenceConfig struct {
	Interval string `toml:"interval,omitempty"`
	Key      string `toml:"key,omitempty"`
}

// EventStreamConfig holds the optional event publisher settings.
type EventStreamConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// Valid option sets for enumerated keys.
var (
	GeneratorProviders   = []string{"openai", "anthropic", "ollama"}
	StorageDrivers       = []string{"inmemory", "sqlite", "postgres"}
	EventStreamProviders = []string{"none", "kafka"}
)

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func enumKey(key string, allowed []string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			for _, a := range allowed {
				if v == a {
					*field(c) = v
					return nil
				}
			}
			return fmt.Errorf("invalid value for %s: %q (available: %s)", key, v, strings.Join(allowed, ", "))
		},
	}
}

func boolKey(key string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func durationKey(key string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			if d <= 0 {
				return fmt.Errorf("invalid value for %s: must be positive", key)
			}
			*field(c) = v
			return nil
		},
	}
}

func listKey(field func(c *Config) *[]string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strings.Join(*field(c), ",") },
		set: func(c *Config, v string) error { *field(c) = SplitList(v); return nil },
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"innerself.enabled": boolKey("innerself.enabled", func(c *Config) *bool { return &c.InnerSelf.Enabled }),
	"innerself.thought_formation_chance": {
		get: func(c *Config) string { return strconv.Itoa(c.InnerSelf.ThoughtFormationChance) },
		set: func(c *Config, v string) error {
			n, err := ParseChance(v)
			if err != nil {
				return err
			}
			c.InnerSelf.ThoughtFormationChance = n
			return nil
		},
	},
	"innerself.characters": listKey(func(c *Config) *[]string { return &c.InnerSelf.Characters }),
	"innerself.thought_chance_half_for_input": boolKey("innerself.thought_chance_half_for_input",
		func(c *Config) *bool { return &c.InnerSelf.ThoughtChanceHalfForInput }),
	"innerself.debug_mode": boolKey("innerself.debug_mode", func(c *Config) *bool { return &c.InnerSelf.DebugMode }),
	"innerself.user_name":  stringKey(func(c *Config) *string { return &c.InnerSelf.UserName }),
	"innerself.context_max_length": {
		get: func(c *Config) string { return strconv.Itoa(c.InnerSelf.ContextMaxLength) },
		set: func(c *Config, v string) error {
			n, err := ParseContextMaxLength(v)
			if err != nil {
				return err
			}
			c.InnerSelf.ContextMaxLength = n
			return nil
		},
	},

	"generator.provider": enumKey("generator.provider", GeneratorProviders,
		func(c *Config) *string { return &c.Generator.Provider }),
	"generator.model":   stringKey(func(c *Config) *string { return &c.Generator.Model }),
	"generator.target":  stringKey(func(c *Config) *string { return &c.Generator.Target }),
	"generator.timeout": durationKey("generator.timeout", func(c *Config) *string { return &c.Generator.Timeout }),

	"storage.driver": enumKey("storage.driver", StorageDrivers,
		func(c *Config) *string { return &c.Storage.Driver }),
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),

	"persistence.interval": durationKey("persistence.interval", func(c *Config) *string { return &c.Persistence.Interval }),
	"persistence.key":      stringKey(func(c *Config) *string { return &c.Persistence.Key }),

	"eventstream.provider": enumKey("eventstream.provider", EventStreamProviders,
		func(c *Config) *string { return &c.EventStream.Provider }),
	"eventstream.brokers": listKey(func(c *Config) *[]string { return &c.EventStream.Brokers }),
	"eventstream.topic":   stringKey(func(c *Config) *string { return &c.EventStream.Topic }),

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),
}

// ParseChance parses a thought formation chance. Non-numeric values and
// values outside [0, 100] are rejected.
func ParseChance(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid value for innerself.thought_formation_chance: %w", err)
	}
	if n < 0 || n > 100 {
		return 0, fmt.Errorf("invalid value for innerself.thought_formation_chance: %d is outside [0, 100]", n)
	}
	return n, nil
}

// ParseContextMaxLength parses a context length limit. Zero means unlimited;
// non-numeric and negative values are rejected.
func ParseContextMaxLength(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid value for innerself.context_max_length: %w", err)
	}
	if n < 0 {
		return 0, errors.New("invalid value for innerself.context_max_length: must not be negative")
	}
	return n, nil
}

// SplitList splits a comma-separated list, trimming whitespace and dropping
// empty entries.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
