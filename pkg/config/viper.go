package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/innerself/pkg/dotdir"
)

// EnvPrefix is the environment variable prefix bound by InitViper.
const EnvPrefix = "INNERSELF"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads config.toml from the
// resolved .innerself/ directory, and binds environment variables with the
// INNERSELF_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (INNERSELF_API_LISTEN, INNERSELF_STORAGE_DRIVER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	v.AddConfigPath(target)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper builds a Config from the merged viper state and validates it.
// Numeric settings are parsed from their string form so that a non-numeric
// env or file value is an error instead of a silent zero.
func FromViper(v *viper.Viper) (*Config, error) {
	chance, err := ParseChance(v.GetString("innerself.thought_formation_chance"))
	if err != nil {
		return nil, err
	}
	maxLength, err := ParseContextMaxLength(v.GetString("innerself.context_max_length"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Version: v.GetInt("version"),
		InnerSelf: InnerSelfConfig{
			Enabled:                   v.GetBool("innerself.enabled"),
			ThoughtFormationChance:    chance,
			Characters:                viperList(v, "innerself.characters"),
			ThoughtChanceHalfForInput: v.GetBool("innerself.thought_chance_half_for_input"),
			DebugMode:                 v.GetBool("innerself.debug_mode"),
			UserName:                  v.GetString("innerself.user_name"),
			ContextMaxLength:          maxLength,
		},
		Generator: GeneratorConfig{
			Provider: v.GetString("generator.provider"),
			Model:    v.GetString("generator.model"),
			Target:   v.GetString("generator.target"),
			Timeout:  v.GetString("generator.timeout"),
		},
		Storage: StorageConfig{
			Driver:      v.GetString("storage.driver"),
			SQLitePath:  v.GetString("storage.sqlite_path"),
			PostgresDSN: v.GetString("storage.postgres_dsn"),
		},
		Persistence: PersistenceConfig{
			Interval: v.GetString("persistence.interval"),
			Key:      v.GetString("persistence.key"),
		},
		EventStream: EventStreamConfig{
			Provider: v.GetString("eventstream.provider"),
			Brokers:  viperList(v, "eventstream.brokers"),
			Topic:    v.GetString("eventstream.topic"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// viperList reads a list that may arrive as a TOML array or as a
// comma-separated environment variable.
func viperList(v *viper.Viper, key string) []string {
	var out []string
	for _, s := range v.GetStringSlice(key) {
		out = append(out, SplitList(s)...)
	}
	return out
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("innerself.enabled", d.InnerSelf.Enabled)
	v.SetDefault("innerself.thought_formation_chance", d.InnerSelf.ThoughtFormationChance)
	v.SetDefault("innerself.characters", d.InnerSelf.Characters)
	v.SetDefault("innerself.thought_chance_half_for_input", d.InnerSelf.ThoughtChanceHalfForInput)
	v.SetDefault("innerself.debug_mode", d.InnerSelf.DebugMode)
	v.SetDefault("innerself.user_name", d.InnerSelf.UserName)
	v.SetDefault("innerself.context_max_length", d.InnerSelf.ContextMaxLength)

	v.SetDefault("generator.provider", d.Generator.Provider)
	v.SetDefault("generator.model", d.Generator.Model)
	v.SetDefault("generator.target", d.Generator.Target)
	v.SetDefault("generator.timeout", d.Generator.Timeout)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	v.SetDefault("persistence.interval", d.Persistence.Interval)
	v.SetDefault("persistence.key", d.Persistence.Key)

	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)

	v.SetDefault("api.listen", d.API.Listen)
}
