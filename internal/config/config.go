// Package config provides configuration management for liveedit.
// Process settings come from environment variables; the recorder endpoint
// comes from a separate INI startup file found next to the entries file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration.
type Config struct {
	// Server
	Port int    // LIVEEDIT_PORT (default: 3000)
	Host string // LIVEEDIT_HOST (default: 0.0.0.0)

	// Files
	ConfigDir   string // LIVEEDIT_CONFIG_DIR (default: /app), searched before the working directory
	EntriesFile string // LIVEEDIT_ENTRIES_FILE (default: config.txt)
	StartupFile string // LIVEEDIT_STARTUP_FILE (default: api.ini)

	// Change journal
	JournalPath string // LIVEEDIT_JOURNAL_PATH (optional, SQLite file; empty disables)

	// Logging
	LogDir    string // LIVEEDIT_LOG_DIR (optional, rotated log file directory)
	LogFormat string // LIVEEDIT_LOG_FORMAT (default: text)
	AccessLog bool   // LIVEEDIT_ACCESS_LOG (default: false)

	// Features
	Watch bool // LIVEEDIT_WATCH (default: true), file watcher + /api/events

	// Write throttling
	WriteLimit       int    // LIVEEDIT_WRITE_LIMIT (default: 0 = unlimited), mutations per client per minute
	WriteLimitExempt string // LIVEEDIT_WRITE_LIMIT_EXEMPT (default: 127.0.0.1,::1), comma-separated IPs/CIDRs
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:        envInt("LIVEEDIT_PORT", 3000),
		Host:        envStr("LIVEEDIT_HOST", "0.0.0.0"),
		ConfigDir:   envStr("LIVEEDIT_CONFIG_DIR", DefaultConfigDir),
		EntriesFile: envStr("LIVEEDIT_ENTRIES_FILE", DefaultEntriesFile),
		StartupFile: envStr("LIVEEDIT_STARTUP_FILE", DefaultStartupFile),
		JournalPath: envStr("LIVEEDIT_JOURNAL_PATH", ""),
		LogDir:      envStr("LIVEEDIT_LOG_DIR", ""),
		LogFormat:   envStr("LIVEEDIT_LOG_FORMAT", "text"),
		AccessLog:   envBool("LIVEEDIT_ACCESS_LOG", false),
		Watch:       envBool("LIVEEDIT_WATCH", true),

		WriteLimit:       envInt("LIVEEDIT_WRITE_LIMIT", 0),
		WriteLimitExempt: envStr("LIVEEDIT_WRITE_LIMIT_EXEMPT", "127.0.0.1,::1"),
	}
}

// ListenAddr returns the formatted listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WriteLimitExemptions splits WriteLimitExempt into its items.
func (c *Config) WriteLimitExemptions() []string {
	var out []string
	for _, item := range strings.Split(c.WriteLimitExempt, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// SearchDirs returns the directories searched for the entries and startup
// files, in priority order.
func (c *Config) SearchDirs() []string {
	dirs := []string{c.ConfigDir}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	return dirs
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
