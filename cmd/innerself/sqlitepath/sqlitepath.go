// Package sqlitepath resolves where the SQLite snapshot database lives.
package sqlitepath

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/innerself/pkg/config"
	"github.com/papercomputeco/innerself/pkg/dotdir"
)

// ResolveSQLitePath returns the snapshot database path. Precedence:
//  1. configured, when non-empty (flag, env, or config.toml)
//  2. innerself.db in the working directory, when it exists
//  3. innerself.db inside the resolved .innerself/ directory
func ResolveSQLitePath(configured, configDir string) (string, error) {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured, nil
	}

	local := config.DefaultSQLiteFile()
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return filepath.Abs(local)
	}

	return dotdir.NewManager().File(configDir, config.DefaultSQLiteFile())
}
