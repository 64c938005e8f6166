package config

const (
	defaultChance   = 60
	defaultUserName = "You"

	defaultGeneratorProvider = "ollama"
	defaultGeneratorModel    = "llama3.2"
	defaultGeneratorTarget   = "http://localhost:11434"
	defaultGeneratorTimeout  = "5s"

	defaultStorageDriver = "sqlite"
	defaultSQLiteFile    = "innerself.db"

	defaultPersistInterval = "30s"
	defaultPersistKey      = "innerself"

	defaultEventStreamProvider = "none"
	defaultEventStreamTopic    = "innerself.events"

	defaultAPIListen = ":8082"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		InnerSelf: InnerSelfConfig{
			Enabled:                   true,
			ThoughtFormationChance:    defaultChance,
			ThoughtChanceHalfForInput: true,
			UserName:                  defaultUserName,
		},
		Generator: GeneratorConfig{
			Provider: defaultGeneratorProvider,
			Model:    defaultGeneratorModel,
			Target:   defaultGeneratorTarget,
			Timeout:  defaultGeneratorTimeout,
		},
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		Persistence: PersistenceConfig{
			Interval: defaultPersistInterval,
			Key:      defaultPersistKey,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
	}
}

// DefaultSQLiteFile is the snapshot database file name used inside the
// .innerself/ directory when storage.sqlite_path is unset.
func DefaultSQLiteFile() string {
	return defaultSQLiteFile
}
