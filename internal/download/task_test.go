package download

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"podsh/internal/model"
)

func testEpisode(t *testing.T, mediaURL string) *model.Episode {
	t.Helper()
	return &model.Episode{
		Title:     "episode",
		MediaURL:  mediaURL,
		State:     model.StateNew,
		IsNew:     true,
		LocalPath: filepath.Join(t.TempDir(), "episode.mp3"),
		Podcast:   &model.Podcast{Title: "Show", URL: "http://example.com/feed"},
	}
}

func TestRunDownloadsToFinalPath(t *testing.T) {
	const content = "audio-bytes-here"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		fmt.Fprint(w, content)
	}))
	defer srv.Close()

	e := testEpisode(t, srv.URL)
	task := NewTask(e)

	var last float64
	task.AddProgressCallback(func(p float64) { last = p })

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if task.Status != StatusDone {
		t.Errorf("Status = %v, want StatusDone", task.Status)
	}
	if last != 1 {
		t.Errorf("final progress = %v, want 1", last)
	}

	got, err := os.ReadFile(e.LocalPath)
	if err != nil {
		t.Fatalf("final file missing: %v", err)
	}
	if string(got) != content {
		t.Errorf("file content = %q", got)
	}
	if _, err := os.Stat(e.PartialPath()); !os.IsNotExist(err) {
		t.Error("partial file was not cleaned up")
	}
	if e.State != model.StateDownloaded {
		t.Errorf("episode state = %v, want StateDownloaded", e.State)
	}
	if e.IsNew {
		t.Error("episode still flagged new after download")
	}
}

func TestRunResumesPartialWithRange(t *testing.T) {
	const full = "0123456789"
	var gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		w.WriteHeader(http.StatusPartialContent)
		fmt.Fprint(w, full[4:])
	}))
	defer srv.Close()

	e := testEpisode(t, srv.URL)
	if err := os.WriteFile(e.PartialPath(), []byte(full[:4]), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := NewTask(e).Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if gotRange != "bytes=4-" {
		t.Errorf("Range header = %q, want \"bytes=4-\"", gotRange)
	}
	got, err := os.ReadFile(e.LocalPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != full {
		t.Errorf("resumed file content = %q, want %q", got, full)
	}
}

func TestRunRestartsWhenRangeIgnored(t *testing.T) {
	const full = "fresh-content"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Plain 200: the server ignored the Range request.
		fmt.Fprint(w, full)
	}))
	defer srv.Close()

	e := testEpisode(t, srv.URL)
	if err := os.WriteFile(e.PartialPath(), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := NewTask(e).Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	got, err := os.ReadFile(e.LocalPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != full {
		t.Errorf("file content = %q, want the restarted body %q", got, full)
	}
}

func TestRunKeepsPartialOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	e := testEpisode(t, srv.URL)
	if err := os.WriteFile(e.PartialPath(), []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	task := NewTask(e)
	if err := task.Run(context.Background()); err == nil {
		t.Fatal("Run() succeeded against a 404")
	}
	if task.Status != StatusFailed {
		t.Errorf("Status = %v, want StatusFailed", task.Status)
	}
	if _, err := os.Stat(e.PartialPath()); err != nil {
		t.Error("partial file was removed on failure")
	}
	if e.State != model.StateNew {
		t.Errorf("episode state = %v, want StateNew", e.State)
	}
}

func TestRunRejectsEpisodeWithoutMediaURL(t *testing.T) {
	e := testEpisode(t, "")
	if err := NewTask(e).Run(context.Background()); err == nil ||
		!strings.Contains(err.Error(), "no media URL") {
		t.Errorf("Run() error = %v", err)
	}
}

func TestFindPartialDownloads(t *testing.T) {
	dir := t.TempDir()
	resumable := &model.Episode{Title: "resumable", State: model.StateNew,
		LocalPath: filepath.Join(dir, "a.mp3")}
	if err := os.WriteFile(resumable.PartialPath(), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	complete := &model.Episode{Title: "complete", State: model.StateDownloaded,
		LocalPath: filepath.Join(dir, "b.mp3")}
	untouched := &model.Episode{Title: "untouched", State: model.StateNew,
		LocalPath: filepath.Join(dir, "c.mp3")}

	podcasts := []*model.Podcast{{Episodes: []*model.Episode{resumable, complete, untouched}}}

	var got []*model.Episode
	FindPartialDownloads(podcasts, func(episodes []*model.Episode) {
		got = episodes
	})
	if len(got) != 1 || got[0] != resumable {
		t.Errorf("resumable set has %d episodes", len(got))
	}
}
