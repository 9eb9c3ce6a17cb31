package device

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"podsh/internal/config"
	"podsh/internal/gate"
	"podsh/internal/model"
	"podsh/internal/task"
	"podsh/internal/ui"
)

func downloadedEpisode(t *testing.T, p *model.Podcast, title, content string) *model.Episode {
	t.Helper()
	path := filepath.Join(t.TempDir(), title+".mp3")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	e := &model.Episode{
		Title:     title,
		MediaURL:  "http://example.com/" + title,
		State:     model.StateDownloaded,
		LocalPath: path,
		Podcast:   p,
	}
	p.Episodes = append(p.Episodes, e)
	return e
}

func newTestSyncer(t *testing.T, cfg *config.Config) (*Syncer, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	console := ui.NewConsole(ui.Options{Out: &out, Err: &out, Width: 60})
	return &Syncer{
		Console: console,
		Runner:  task.NewRunner(console),
		Gate:    gate.NewGate(console, nil),
		Cfg:     cfg,
	}, &out
}

func TestTaskCopiesFile(t *testing.T) {
	p := &model.Podcast{Title: "Show"}
	e := downloadedEpisode(t, p, "episode", "audio-bytes")
	folder := t.TempDir()

	var last float64
	syncTask := NewTask(e, folder)
	syncTask.AddProgressCallback(func(progress float64) { last = progress })

	if err := syncTask.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if last != 1 {
		t.Errorf("final progress = %v, want 1", last)
	}

	got, err := os.ReadFile(TargetPath(folder, e))
	if err != nil {
		t.Fatalf("device file missing: %v", err)
	}
	if string(got) != "audio-bytes" {
		t.Errorf("device file content = %q", got)
	}
}

func TestTaskRejectsUndownloadedEpisode(t *testing.T) {
	e := &model.Episode{Title: "new", State: model.StateNew}
	if err := NewTask(e, t.TempDir()).Run(context.Background()); err == nil {
		t.Error("Run() accepted an episode that is not downloaded")
	}
}

func TestSyncerRunFiresDoneExactlyOnce(t *testing.T) {
	cfg := config.Default()
	cfg.Device.Folder = t.TempDir()

	p := &model.Podcast{Title: "Show", URL: "http://example.com/feed"}
	downloadedEpisode(t, p, "one", "a")
	downloadedEpisode(t, p, "two", "bb")

	syncer, _ := newTestSyncer(t, cfg)

	done := make(chan struct{})
	go syncer.Run(context.Background(), []*model.Podcast{p}, func() { close(done) })

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sync did not signal completion")
	}

	for _, e := range p.Episodes {
		if _, err := os.Stat(TargetPath(cfg.Device.Folder, e)); err != nil {
			t.Errorf("episode %q not on device: %v", e.Title, err)
		}
	}
}

func TestSyncerSkipsAlreadySynced(t *testing.T) {
	cfg := config.Default()
	cfg.Device.Folder = t.TempDir()

	p := &model.Podcast{Title: "Show", URL: "http://example.com/feed"}
	e := downloadedEpisode(t, p, "one", "a")

	// Already on the device with different content; a second sync must not
	// overwrite it.
	target := TargetPath(cfg.Device.Folder, e)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("device-copy"), 0o644); err != nil {
		t.Fatal(err)
	}

	syncer, out := newTestSyncer(t, cfg)
	done := make(chan struct{})
	go syncer.Run(context.Background(), []*model.Podcast{p}, func() { close(done) })
	<-done

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "device-copy" {
		t.Error("already-synced episode was copied again")
	}
	if !bytes.Contains(out.Bytes(), []byte("Device is up to date.")) {
		t.Errorf("output %q lacks the up-to-date notice", out.String())
	}
}

func TestSyncerDeletePlayedCommitsBeforeDone(t *testing.T) {
	cfg := config.Default()
	cfg.Device.Folder = t.TempDir()
	cfg.Device.DeletePlayed = true

	store, err := model.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	p := &model.Podcast{Title: "Show", URL: "http://example.com/feed"}
	e := downloadedEpisode(t, p, "one", "audio")
	if err := store.Add(p); err != nil {
		t.Fatal(err)
	}
	if err := store.Commit(); err != nil {
		t.Fatal(err)
	}

	syncer, _ := newTestSyncer(t, cfg)
	commits := 0
	syncer.Commit = func() error {
		commits++
		return store.Commit()
	}

	done := make(chan struct{})
	go syncer.Run(context.Background(), []*model.Podcast{p}, func() { close(done) })

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sync did not signal completion")
	}

	// The post-delete commit finished inside Run, so by the time the done
	// signal fires the store is quiescent and a follow-up commit from this
	// goroutine is plain sequential work, the way the sync command commits
	// after blocking on the signal.
	if commits != 1 {
		t.Errorf("post-delete commit ran %d times before done, want 1", commits)
	}
	if err := store.Commit(); err != nil {
		t.Fatalf("commit after the done signal: %v", err)
	}

	if e.State != model.StateDeleted {
		t.Errorf("episode state = %v, want StateDeleted", e.State)
	}
	if _, err := os.Stat(e.LocalPath); !os.IsNotExist(err) {
		t.Error("local file still exists after post-sync deletion")
	}
}

func TestSyncerWithoutFolderConfigured(t *testing.T) {
	cfg := config.Default()
	syncer, out := newTestSyncer(t, cfg)

	done := make(chan struct{})
	go syncer.Run(context.Background(), nil, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sync without a device folder did not signal completion")
	}
	if !bytes.Contains(out.Bytes(), []byte("No device configured")) {
		t.Errorf("output %q lacks the configuration hint", out.String())
	}
}
