package web

import (
	"io/fs"
	"strings"
	"testing"
)

func TestFSServesUI(t *testing.T) {
	for _, name := range []string{"index.html", "app.js", "app.css"} {
		if _, err := fs.Stat(FS(), name); err != nil {
			t.Errorf("%s missing from embedded UI: %v", name, err)
		}
	}
}

func TestRecordingsPollingLifecycle(t *testing.T) {
	data, err := fs.ReadFile(FS(), "app.js")
	if err != nil {
		t.Fatal(err)
	}
	js := string(data)
	for _, want := range []string{
		"POLL_INTERVAL_MS = 5000",
		"addEventListener('pagehide', stopPolling)",
		"addEventListener('pageshow'",
		"e.persisted",
	} {
		if !strings.Contains(js, want) {
			t.Errorf("app.js does not contain %q", want)
		}
	}

	// Polling restarts after a back/forward cache restore.
	show := js[strings.Index(js, "addEventListener('pageshow'"):]
	if !strings.Contains(show, "startPolling()") || !strings.Contains(show, "listenForChanges()") {
		t.Error("pageshow handler does not restart polling and the event stream")
	}
}
