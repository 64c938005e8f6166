package credentials

// Credentials is the on-disk layout of credentials.toml.
type Credentials struct {
	Version   int                           `toml:"version"`
	Providers map[string]ProviderCredential `toml:"providers"`
}

// ProviderCredential holds one provider's API key.
type ProviderCredential struct {
	APIKey string `toml:"api_key"`
}
