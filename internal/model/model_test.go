package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIsPending(t *testing.T) {
	tests := []struct {
		name    string
		episode Episode
		want    bool
	}{
		{"new and flagged", Episode{State: StateNew, IsNew: true}, true},
		{"new but seen", Episode{State: StateNew, IsNew: false}, false},
		{"downloaded", Episode{State: StateDownloaded, IsNew: true}, false},
		{"deleted", Episode{State: StateDeleted, IsNew: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.episode.IsPending(); got != tt.want {
				t.Errorf("IsPending() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeleteFromDisk(t *testing.T) {
	dir := t.TempDir()
	e := &Episode{
		State:     StateDownloaded,
		IsNew:     true,
		LocalPath: filepath.Join(dir, "episode.mp3"),
	}
	writeFile(t, e.LocalPath)
	writeFile(t, e.PartialPath())

	if err := e.DeleteFromDisk(); err != nil {
		t.Fatalf("DeleteFromDisk() error: %v", err)
	}
	if e.State != StateDeleted {
		t.Errorf("State = %v, want StateDeleted", e.State)
	}
	if e.IsNew {
		t.Error("IsNew is still set after deletion")
	}
	if _, err := os.Stat(e.LocalPath); !os.IsNotExist(err) {
		t.Error("content file still exists")
	}
	if _, err := os.Stat(e.PartialPath()); !os.IsNotExist(err) {
		t.Error("partial file still exists")
	}
}

func TestDeleteFromDiskMissingFiles(t *testing.T) {
	// Files already gone: the state transition still happens.
	e := &Episode{
		State:     StateDownloaded,
		LocalPath: filepath.Join(t.TempDir(), "gone.mp3"),
	}
	if err := e.DeleteFromDisk(); err != nil {
		t.Fatalf("DeleteFromDisk() error: %v", err)
	}
	if e.State != StateDeleted {
		t.Errorf("State = %v, want StateDeleted", e.State)
	}
}

func TestHasPartial(t *testing.T) {
	dir := t.TempDir()
	e := &Episode{State: StateNew, LocalPath: filepath.Join(dir, "a.mp3")}

	if e.HasPartial() {
		t.Error("HasPartial() true without a partial file")
	}
	writeFile(t, e.PartialPath())
	if !e.HasPartial() {
		t.Error("HasPartial() false with a partial file on disk")
	}

	// A downloaded episode is never resumable, stale partial or not.
	e.State = StateDownloaded
	if e.HasPartial() {
		t.Error("HasPartial() true for a downloaded episode")
	}
}

func TestSortEpisodesByPubDate(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
	}
	episodes := []*Episode{
		{Title: "third", PubDate: day(3)},
		{Title: "first", PubDate: day(1)},
		{Title: "second", PubDate: day(2)},
	}

	sorted := SortEpisodesByPubDate(episodes)
	for i, want := range []string{"first", "second", "third"} {
		if sorted[i].Title != want {
			t.Errorf("sorted[%d] = %q, want %q", i, sorted[i].Title, want)
		}
	}
	// The input is not reordered.
	if episodes[0].Title != "third" {
		t.Error("input slice was mutated")
	}
}

func TestExpiredEpisodes(t *testing.T) {
	old := time.Now().Add(-72 * time.Hour)
	fresh := time.Now().Add(-1 * time.Hour)
	podcasts := []*Podcast{{
		Episodes: []*Episode{
			{Title: "old", State: StateDownloaded, PubDate: old},
			{Title: "locked", State: StateDownloaded, PubDate: old, Archive: true},
			{Title: "fresh", State: StateDownloaded, PubDate: fresh},
			{Title: "never-downloaded", State: StateNew, PubDate: old},
		},
	}}

	expired := ExpiredEpisodes(podcasts, 24*time.Hour)
	if len(expired) != 1 || expired[0].Title != "old" {
		t.Errorf("ExpiredEpisodes = %v", titles(expired))
	}

	if got := ExpiredEpisodes(podcasts, 0); got != nil {
		t.Errorf("zero maxAge expired %v", titles(got))
	}
}

func titles(episodes []*Episode) []string {
	var out []string
	for _, e := range episodes {
		out = append(out, e.Title)
	}
	return out
}

func TestNormalizeFeedURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com/feed.xml", "http://example.com/feed.xml"},
		{"HTTP://Example.COM/Feed", "http://example.com/Feed"},
		{"https://example.com/feed#fragment", "https://example.com/feed"},
		{"https://example.com", "https://example.com/"},
		{"  https://example.com/feed  ", "https://example.com/feed"},
		{"ftp://example.com/feed", ""},
		{"", ""},
		{"http://", ""},
	}
	for _, tt := range tests {
		if got := NormalizeFeedURL(tt.in); got != tt.want {
			t.Errorf("NormalizeFeedURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEpisodePathSanitizes(t *testing.T) {
	p := &Podcast{Title: "Some: Podcast"}
	e := &Episode{Title: "Episode/One", MediaURL: "http://example.com/ep1.mp3"}

	got := EpisodePath("/downloads", p, e)
	want := filepath.Join("/downloads", "Some_ Podcast", "Episode_One.mp3")
	if got != want {
		t.Errorf("EpisodePath = %q, want %q", got, want)
	}
}

func TestEpisodeByGUID(t *testing.T) {
	p := &Podcast{Episodes: []*Episode{{GUID: "a"}, {GUID: "b"}}}
	if e := p.EpisodeByGUID("b"); e == nil || e.GUID != "b" {
		t.Error("EpisodeByGUID(\"b\") did not find the episode")
	}
	if e := p.EpisodeByGUID("missing"); e != nil {
		t.Error("EpisodeByGUID(\"missing\") found something")
	}
}
