package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSitesFile is the default site-overrides file name.
const DefaultSitesFile = ".politefetch"

// ErrConfigNotFound is returned when the site-overrides file does not
// exist. Callers decide how hard that is: an explicitly named file
// that is missing is usually fatal, a missing default file is not.
var ErrConfigNotFound = errors.New("site-overrides file not found")

// LoadFile loads site overrides from a YAML file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}

	return &cf, nil
}

// FindFile locates the site-overrides file:
//  1. If explicit is set, use it directly
//  2. Look for .politefetch in the current directory
//  3. Look for .politefetch in the user's home directory
//
// Returns the path if found, or an empty string.
func FindFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultSitesFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultSitesFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}
