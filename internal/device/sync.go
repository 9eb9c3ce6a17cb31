// Package device synchronizes downloaded episodes to a device folder.
//
// A sync invocation hands off to the orchestration below and the calling
// layer blocks on a single-fire completion signal; the queue itself runs
// strictly sequentially with per-item failure isolation, like downloads.
package device

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"podsh/internal/config"
	"podsh/internal/gate"
	"podsh/internal/logging"
	"podsh/internal/model"
	"podsh/internal/task"
	"podsh/internal/ui"
)

// StatusNotifier receives best-effort status updates after a sync.
// *mygpo.Client satisfies it.
type StatusNotifier interface {
	OnSync(episodes []*model.Episode)
	Flush() error
}

// Task copies one downloaded episode onto the device. It satisfies
// task.Task.
type Task struct {
	Episode *model.Episode
	target  string

	progress  float64
	observers []func(float64)
}

// NewTask creates a sync task copying the episode under folder.
func NewTask(e *model.Episode, folder string) *Task {
	return &Task{Episode: e, target: TargetPath(folder, e)}
}

// TargetPath is where an episode lives on the device.
func TargetPath(folder string, e *model.Episode) string {
	podcast := "podcasts"
	if e.Podcast != nil {
		podcast = e.Podcast.Title
	}
	return filepath.Join(folder, podcast, filepath.Base(e.LocalPath))
}

// AddProgressCallback registers a progress observer.
func (t *Task) AddProgressCallback(fn func(float64)) {
	t.observers = append(t.observers, fn)
}

func (t *Task) report(p float64) {
	if p < t.progress {
		return
	}
	if p > 1 {
		p = 1
	}
	t.progress = p
	for _, fn := range t.observers {
		fn(p)
	}
}

// Run copies the file synchronously, reporting byte progress.
func (t *Task) Run(ctx context.Context) error {
	e := t.Episode
	if e.State != model.StateDownloaded {
		return fmt.Errorf("episode %q is not downloaded", e.Title)
	}

	src, err := os.Open(e.LocalPath)
	if err != nil {
		return err
	}
	defer src.Close()

	fi, err := src.Stat()
	if err != nil {
		return err
	}
	total := fi.Size()

	if err := os.MkdirAll(filepath.Dir(t.target), 0o755); err != nil {
		return err
	}
	dst, err := os.Create(t.target)
	if err != nil {
		return err
	}

	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			dst.Close()
			return err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				dst.Close()
				return writeErr
			}
			copied += int64(n)
			if total > 0 {
				t.report(float64(copied) / float64(total))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			dst.Close()
			return readErr
		}
	}
	if err := dst.Close(); err != nil {
		return err
	}
	t.report(1)
	return nil
}

// Syncer orchestrates one device sync.
type Syncer struct {
	Console *ui.Console
	Runner  *task.Runner
	Gate    *gate.Gate
	Status  StatusNotifier
	Cfg     *config.Config

	// Commit persists state changes after post-sync deletions; the gate's
	// completion callback invokes it.
	Commit func() error
}

// Run copies every downloaded episode not yet on the device, notifies the
// status service (best-effort), optionally offers post-sync deletion, and
// finally fires done exactly once. Callers block on that signal.
func (s *Syncer) Run(ctx context.Context, podcasts []*model.Podcast, done func()) {
	defer done()

	folder := s.Cfg.Device.Folder
	if folder == "" {
		s.Console.Errorf("No device configured. Set device.folder first.")
		return
	}

	var pending []*model.Episode
	for _, p := range podcasts {
		for _, e := range p.Episodes {
			if e.State != model.StateDownloaded {
				continue
			}
			if _, err := os.Stat(TargetPath(folder, e)); err == nil {
				continue
			}
			pending = append(pending, e)
		}
	}

	if len(pending) == 0 {
		s.Console.Infof("Device is up to date.")
		return
	}

	failed := s.Runner.RunQueue(ctx, "Syncing", pending, func(e *model.Episode) task.Task {
		return NewTask(e, folder)
	})
	s.Console.Infof("%d episodes synchronized.", len(pending)-failed)

	if s.Status != nil {
		s.Status.OnSync(pending)
		if err := s.Status.Flush(); err != nil {
			logging.Warn("sync status flush failed", logging.Fields{"error": err.Error()})
		}
	}

	if s.Cfg.Device.DeletePlayed {
		selected := make([]bool, len(pending))
		for i := range selected {
			selected[i] = true
		}
		toDelete := s.Gate.SelectEpisodes(
			"Delete synchronized episodes",
			"Episodes copied to the device can be removed locally",
			pending, selected)
		s.Gate.DeleteEpisodes(toDelete,
			gate.DeleteOptions{Confirm: true, SkipLocked: true},
			func(episodeURLs, podcastURLs []string) {
				if s.Commit != nil {
					if err := s.Commit(); err != nil {
						logging.Error("commit after sync deletion failed", err)
					}
				}
			})
	}
}
