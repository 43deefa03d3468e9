// Package config resolves the project root and loads the layered YAML
// configuration tree (bundled defaults -> pack overrides -> project
// overrides) into typed domain views.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const gitDirName = ".git"

// FindProjectRoot locates the nearest ancestor of startDir containing a
// .git directory. EDISON_ROOT or AGENTS_PROJECT_ROOT, when set, override
// discovery entirely.
func FindProjectRoot(startDir string) (string, error) {
	if override := firstNonEmptyEnv("EDISON_ROOT", "AGENTS_PROJECT_ROOT"); override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return "", fmt.Errorf("config: resolve root override %q: %w", override, err)
		}
		return abs, nil
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("config: resolve start dir %q: %w", startDir, err)
	}

	for {
		info, statErr := os.Stat(filepath.Join(dir, gitDirName))
		if statErr == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("config: no %s directory found above %s", gitDirName, startDir)
		}
		dir = parent
	}
}

func firstNonEmptyEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
