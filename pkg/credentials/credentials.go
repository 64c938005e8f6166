// Package credentials stores LLM provider API keys in credentials.toml inside
// the .innerself/ directory. The thought generator reads keys from here
// before falling back to environment variables.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/innerself/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0
)

// providerEnvVars maps provider names to the environment variable holding
// their API key.
var providerEnvVars = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// Manager reads and writes credentials.toml.
type Manager struct {
	targetPath string
}

// NewManager resolves credentials.toml through dotdir. A non-empty override
// names the .innerself/ directory to use.
func NewManager(override string) (*Manager, error) {
	path, err := dotdir.NewManager().File(override, credentialsFile)
	if err != nil {
		return nil, err
	}

	return &Manager{targetPath: path}, nil
}

// Load reads the credentials file. A missing file yields empty credentials.
func (m *Manager) Load() (*Credentials, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{
				Version:   currentVersion,
				Providers: make(map[string]ProviderCredential),
			}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	creds := &Credentials{}
	if err := toml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	if creds.Providers == nil {
		creds.Providers = make(map[string]ProviderCredential)
	}

	return creds, nil
}

// Save writes creds with 0600 permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(m.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// SetKey stores the API key for provider.
func (m *Manager) SetKey(provider, key string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	creds.Providers[provider] = ProviderCredential{APIKey: key}
	return m.Save(creds)
}

// GetKey returns the stored API key for provider, or "" when none is stored.
func (m *Manager) GetKey(provider string) (string, error) {
	creds, err := m.Load()
	if err != nil {
		return "", err
	}

	return creds.Providers[provider].APIKey, nil
}

// ResolveKey returns the stored key for provider, falling back to the
// provider's environment variable.
func (m *Manager) ResolveKey(provider string) string {
	if key, err := m.GetKey(provider); err == nil && key != "" {
		return key
	}
	if env := EnvVarForProvider(provider); env != "" {
		return os.Getenv(env)
	}
	return ""
}

// RemoveKey deletes the stored key for provider.
func (m *Manager) RemoveKey(provider string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	delete(creds.Providers, provider)
	return m.Save(creds)
}

// ListProviders returns the sorted names of providers with stored keys.
func (m *Manager) ListProviders() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	providers := make([]string, 0, len(creds.Providers))
	for name := range creds.Providers {
		providers = append(providers, name)
	}
	sort.Strings(providers)

	return providers, nil
}

// GetTarget returns the path of the credentials file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}

// EnvVarForProvider returns the API key environment variable for provider.
func EnvVarForProvider(provider string) string {
	return providerEnvVars[provider]
}

// SupportedProviders lists the providers that take an API key.
func SupportedProviders() []string {
	return []string{"openai", "anthropic"}
}

// IsSupportedProvider reports whether provider takes an API key.
func IsSupportedProvider(provider string) bool {
	return slices.Contains(SupportedProviders(), provider)
}
