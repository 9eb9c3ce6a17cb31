package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"podsh/internal/config"
	"podsh/internal/feed"
	"podsh/internal/gate"
	"podsh/internal/model"
	"podsh/internal/mygpo"
	"podsh/internal/task"
	"podsh/internal/ui"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Show</title>
    <item>
      <title>First Episode</title>
      <guid>guid-1</guid>
      <enclosure url="http://example.com/1.mp3" type="audio/mpeg" length="1"/>
    </item>
  </channel>
</rss>`

// newTestApp wires an App against an in-memory store and a scripted console,
// without going through Init.
func newTestApp(t *testing.T, input string, interactive bool) (*App, *bytes.Buffer) {
	t.Helper()

	store, err := model.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	var out bytes.Buffer
	console := ui.NewConsole(ui.Options{
		Out:         &out,
		Err:         &out,
		In:          strings.NewReader(input),
		Interactive: interactive,
		Width:       60,
	})

	cfg := config.Default()
	cfg.Downloads.Dir = t.TempDir()

	return &App{
		cfg:     cfg,
		store:   store,
		console: console,
		fetcher: feed.NewFetcher(),
		runner:  task.NewRunner(console),
		gate:    gate.NewGate(console, nil),
	}, &out
}

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testRSS)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestShowDirectorySubscribesByIndex(t *testing.T) {
	srv := feedServer(t)

	// An out-of-range index, then a valid one. Single-subscribe mode ends
	// after the first subscription, so the trailing index is never read.
	app, out := newTestApp(t, "0\n1\n1\n", true)

	entries := []mygpo.DirectoryEntry{{Title: "Example Show", URL: srv.URL}}
	if !app.showDirectory(entries, false) {
		t.Fatal("showDirectory failed")
	}

	output := out.String()
	if strings.Count(output, "Invalid value.") != 1 {
		t.Errorf("output %q does not report the invalid index once", output)
	}
	if strings.Count(output, "Adding Example Show...") != 1 {
		t.Errorf("output %q does not announce exactly one subscription", output)
	}

	podcasts, err := app.store.Podcasts()
	if err != nil {
		t.Fatal(err)
	}
	if len(podcasts) != 1 || podcasts[0].Title != "Example Show" {
		t.Errorf("subscribed podcasts = %+v, want one Example Show", podcasts)
	}
}

func TestShowDirectoryMultipleSubscribesUntilEmptyLine(t *testing.T) {
	srv := feedServer(t)

	app, out := newTestApp(t, "1\n2\n\n", true)

	entries := []mygpo.DirectoryEntry{
		{Title: "Show A", URL: srv.URL + "/a"},
		{Title: "Show B", URL: srv.URL + "/b"},
	}
	if !app.showDirectory(entries, true) {
		t.Fatal("showDirectory failed")
	}

	if got := strings.Count(out.String(), "Adding "); got != 2 {
		t.Errorf("announced %d subscriptions, want 2", got)
	}
	podcasts, err := app.store.Podcasts()
	if err != nil {
		t.Fatal(err)
	}
	if len(podcasts) != 2 {
		t.Errorf("subscribed to %d podcasts, want 2", len(podcasts))
	}
}

func TestShowDirectoryOneShotPrintsURLs(t *testing.T) {
	entries := []mygpo.DirectoryEntry{
		{Title: "A", URL: "http://example.com/a"},
		{Title: "B", URL: "http://example.com/b"},
	}

	// One-shot run on a terminal: bare URLs, no prompt.
	app, out := newTestApp(t, "", true)
	app.oneShot = true
	if !app.showDirectory(entries, true) {
		t.Fatal("showDirectory failed")
	}
	if got := out.String(); got != "http://example.com/a\nhttp://example.com/b\n" {
		t.Errorf("one-shot output = %q", got)
	}

	// Non-interactive run: same bare-URL listing.
	app, out = newTestApp(t, "", false)
	if !app.showDirectory(entries, true) {
		t.Fatal("showDirectory failed")
	}
	if got := out.String(); got != "http://example.com/a\nhttp://example.com/b\n" {
		t.Errorf("non-interactive output = %q", got)
	}
}
