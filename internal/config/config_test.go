package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Ensure no env vars interfere
	for _, key := range []string{
		"LIVEEDIT_PORT", "LIVEEDIT_HOST", "LIVEEDIT_CONFIG_DIR", "LIVEEDIT_ENTRIES_FILE",
		"LIVEEDIT_STARTUP_FILE", "LIVEEDIT_JOURNAL_PATH", "LIVEEDIT_LOG_DIR",
		"LIVEEDIT_LOG_FORMAT", "LIVEEDIT_ACCESS_LOG", "LIVEEDIT_WATCH",
		"LIVEEDIT_WRITE_LIMIT", "LIVEEDIT_WRITE_LIMIT_EXEMPT",
	} {
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want %q", cfg.Host, "0.0.0.0")
	}
	if cfg.ConfigDir != "/app" {
		t.Errorf("ConfigDir = %q, want /app", cfg.ConfigDir)
	}
	if cfg.EntriesFile != "config.txt" || cfg.StartupFile != "api.ini" {
		t.Errorf("file names = %q, %q", cfg.EntriesFile, cfg.StartupFile)
	}
	if cfg.JournalPath != "" {
		t.Errorf("JournalPath = %q, want empty", cfg.JournalPath)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want text", cfg.LogFormat)
	}
	if cfg.AccessLog {
		t.Error("AccessLog should be false by default")
	}
	if !cfg.Watch {
		t.Error("Watch should be true by default")
	}
	if cfg.WriteLimit != 0 {
		t.Errorf("WriteLimit = %d, want 0", cfg.WriteLimit)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LIVEEDIT_PORT", "9999")
	t.Setenv("LIVEEDIT_HOST", "127.0.0.1")
	t.Setenv("LIVEEDIT_CONFIG_DIR", "/srv/live")
	t.Setenv("LIVEEDIT_JOURNAL_PATH", "/tmp/journal.db")
	t.Setenv("LIVEEDIT_ACCESS_LOG", "true")
	t.Setenv("LIVEEDIT_WATCH", "false")

	cfg := Load()

	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want 127.0.0.1", cfg.Host)
	}
	if cfg.ConfigDir != "/srv/live" {
		t.Errorf("ConfigDir = %q", cfg.ConfigDir)
	}
	if cfg.JournalPath != "/tmp/journal.db" {
		t.Errorf("JournalPath = %q", cfg.JournalPath)
	}
	if !cfg.AccessLog {
		t.Error("AccessLog should be true")
	}
	if cfg.Watch {
		t.Error("Watch should be false")
	}
}

func TestListenAddr(t *testing.T) {
	cfg := &Config{Host: "0.0.0.0", Port: 3000}
	if addr := cfg.ListenAddr(); addr != "0.0.0.0:3000" {
		t.Errorf("ListenAddr() = %q, want 0.0.0.0:3000", addr)
	}
}

func TestEnvIntInvalid(t *testing.T) {
	t.Setenv("LIVEEDIT_PORT", "not-a-number")
	cfg := Load()
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want fallback 3000 on invalid input", cfg.Port)
	}
}

func TestEnvBoolInvalid(t *testing.T) {
	t.Setenv("LIVEEDIT_WATCH", "not-a-bool")
	cfg := Load()
	if !cfg.Watch {
		t.Error("Watch should fall back to true on invalid input")
	}
}

func TestWriteLimitExemptions(t *testing.T) {
	cfg := &Config{WriteLimitExempt: " 127.0.0.1, ,10.0.0.0/8 ,"}
	got := cfg.WriteLimitExemptions()
	if len(got) != 2 || got[0] != "127.0.0.1" || got[1] != "10.0.0.0/8" {
		t.Errorf("WriteLimitExemptions() = %q", got)
	}
	if got := (&Config{}).WriteLimitExemptions(); len(got) != 0 {
		t.Errorf("empty setting = %q, want none", got)
	}
}

func TestSearchDirs(t *testing.T) {
	cfg := &Config{ConfigDir: "/app"}
	dirs := cfg.SearchDirs()
	wd, _ := os.Getwd()
	if len(dirs) != 2 || dirs[0] != "/app" || dirs[1] != wd {
		t.Errorf("SearchDirs() = %v, want [/app %s]", dirs, wd)
	}
}

func TestLocatePrefersFirstDir(t *testing.T) {
	fixed, cwd := t.TempDir(), t.TempDir()
	for _, dir := range []string{fixed, cwd} {
		if err := os.WriteFile(filepath.Join(dir, "config.txt"), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Locate("config.txt", fixed, cwd)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got != filepath.Join(fixed, "config.txt") {
		t.Errorf("Locate = %q, want file in fixed dir", got)
	}
}

func TestLocateFallsBack(t *testing.T) {
	fixed, cwd := t.TempDir(), t.TempDir()
	want := filepath.Join(cwd, "config.txt")
	if err := os.WriteFile(want, []byte("a.com"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := Locate("config.txt", fixed, cwd)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got != want {
		t.Errorf("Locate = %q, want %q", got, want)
	}
}

func TestLocateSkipsDirectories(t *testing.T) {
	fixed, cwd := t.TempDir(), t.TempDir()
	if err := os.Mkdir(filepath.Join(fixed, "config.txt"), 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := Locate("config.txt", fixed, cwd); !errors.Is(err, ErrNotFound) {
		t.Errorf("Locate error = %v, want ErrNotFound", err)
	}
}

func TestLocateNotFound(t *testing.T) {
	_, err := Locate("config.txt", "", t.TempDir(), t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Locate error = %v, want ErrNotFound", err)
	}
}

func TestLoadStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.ini")
	content := "; recorder\nurl = http://127.0.0.1:8080/api/status\ntimeout_ms = 1500\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadStartup(path)
	if err != nil {
		t.Fatalf("LoadStartup: %v", err)
	}
	if s.RecorderURL != "http://127.0.0.1:8080/api/status" {
		t.Errorf("RecorderURL = %q", s.RecorderURL)
	}
	if s.RecorderTimeout != 1500*time.Millisecond {
		t.Errorf("RecorderTimeout = %v, want 1.5s", s.RecorderTimeout)
	}
	if s.Path != path {
		t.Errorf("Path = %q, want %q", s.Path, path)
	}
}

func TestLoadStartupDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.ini")
	if err := os.WriteFile(path, []byte("other = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadStartup(path)
	if err != nil {
		t.Fatalf("LoadStartup: %v", err)
	}
	if s.RecorderURL != "" {
		t.Errorf("RecorderURL = %q, want empty", s.RecorderURL)
	}
	if s.RecorderTimeout != DefaultRecorderTimeout {
		t.Errorf("RecorderTimeout = %v, want default", s.RecorderTimeout)
	}
}

func TestLoadStartupMissing(t *testing.T) {
	if _, err := LoadStartup(filepath.Join(t.TempDir(), "api.ini")); err == nil {
		t.Error("LoadStartup should fail for a missing file")
	}
}
