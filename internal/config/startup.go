package config

import (
	"fmt"
	"time"

	"gopkg.in/ini.v1"
)

// DefaultRecorderTimeout bounds the recorder status request.
const DefaultRecorderTimeout = 3000 * time.Millisecond

// Startup is the read-only configuration parsed once from the startup INI
// file. Build it in main and pass it by pointer; nothing mutates it.
type Startup struct {
	// Path is the file the values came from, or "" if none was loaded.
	Path string

	// RecorderURL is the recorder's status endpoint (key: url).
	RecorderURL string

	// RecorderTimeout bounds each status request (key: timeout_ms).
	RecorderTimeout time.Duration
}

// LoadStartup parses the INI file at path. Keys are read from the default
// section:
//
//	url = http://127.0.0.1:8080/api/status
//	timeout_ms = 3000
func LoadStartup(path string) (*Startup, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("parse startup file %s: %w", path, err)
	}
	sec := f.Section(ini.DefaultSection)

	s := &Startup{
		Path:            path,
		RecorderURL:     sec.Key("url").String(),
		RecorderTimeout: DefaultRecorderTimeout,
	}
	if ms := sec.Key("timeout_ms").MustInt(0); ms > 0 {
		s.RecorderTimeout = time.Duration(ms) * time.Millisecond
	}
	return s, nil
}

// EmptyStartup is used when no startup file could be loaded. The recorder
// proxy reports a missing URL for it.
func EmptyStartup() *Startup {
	return &Startup{RecorderTimeout: DefaultRecorderTimeout}
}
