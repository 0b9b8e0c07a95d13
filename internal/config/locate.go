package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultConfigDir   = "/app"
	DefaultEntriesFile = "config.txt"
	DefaultStartupFile = "api.ini"
)

// ErrNotFound is returned by Locate when no directory holds the file.
var ErrNotFound = errors.New("config file not found")

// Locate returns the absolute path of the first dir/name that is a regular
// file. Empty dirs are skipped.
func Locate(name string, dirs ...string) (string, error) {
	var searched []string
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		path, err := filepath.Abs(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		searched = append(searched, filepath.Dir(path))
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %q in %s", ErrNotFound, name, strings.Join(searched, ", "))
}
