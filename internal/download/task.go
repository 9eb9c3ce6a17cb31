// Package download runs per-episode transfers with resumable partial files
// and progress-observer callbacks.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"podsh/internal/model"
)

// Status is a task's lifecycle state.
type Status int

const (
	// StatusQueued means the task was created but not started.
	StatusQueued Status = iota
	// StatusRunning means the transfer is in progress.
	StatusRunning
	// StatusDone means the transfer completed and the file is in place.
	StatusDone
	// StatusFailed means the transfer did not complete; any partial file is
	// kept for resumption.
	StatusFailed
)

// Task transfers one episode's content. A task is created, run once to
// completion or failure, and discarded.
type Task struct {
	Episode *model.Episode
	Status  Status

	client    *http.Client
	progress  float64
	observers []func(float64)
}

// NewTask creates a download task bound to an episode.
func NewTask(e *model.Episode) *Task {
	return &Task{
		Episode: e,
		Status:  StatusQueued,
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

// AddProgressCallback registers an observer for progress in [0,1]. Progress
// is monotonically non-decreasing within one run.
func (t *Task) AddProgressCallback(fn func(float64)) {
	t.observers = append(t.observers, fn)
}

// Progress returns the last reported progress.
func (t *Task) Progress() float64 { return t.progress }

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

// Run performs the transfer synchronously. Existing partial content is
// resumed with a Range request; on success the partial file is moved to the
// episode's final path and the episode transitions to downloaded.
func (t *Task) Run(ctx context.Context) error {
	t.Status = StatusRunning
	if err := t.run(ctx); err != nil {
		t.Status = StatusFailed
		return err
	}
	t.Status = StatusDone
	return nil
}

func (t *Task) run(ctx context.Context) error {
	e := t.Episode
	if e.MediaURL == "" {
		return fmt.Errorf("episode %q has no media URL", e.Title)
	}
	if e.LocalPath == "" {
		return fmt.Errorf("episode %q has no download path", e.Title)
	}
	if err := os.MkdirAll(filepath.Dir(e.LocalPath), 0o755); err != nil {
		return err
	}

	partial := e.PartialPath()
	var offset int64
	if fi, err := os.Stat(partial); err == nil {
		offset = fi.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.MediaURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "podsh/1.0")
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		// Server honors the resume; keep appending.
	case http.StatusOK:
		// Full body; any partial content is stale.
		offset = 0
	default:
		return fmt.Errorf("download %s: unexpected status %s", e.MediaURL, resp.Status)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	out, err := os.OpenFile(partial, flags, 0o644)
	if err != nil {
		return err
	}

	total := offset
	if resp.ContentLength > 0 {
		total += resp.ContentLength
	}

	received := offset
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				out.Close()
				return writeErr
			}
			received += int64(n)
			if total > 0 {
				t.report(float64(received) / float64(total))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			return readErr
		}
	}
	if err := out.Close(); err != nil {
		return err
	}

	if err := os.Rename(partial, e.LocalPath); err != nil {
		return err
	}
	t.report(1)
	e.State = model.StateDownloaded
	e.IsNew = false
	return nil
}

// FindPartialDownloads scans all episodes for transfers left incomplete on
// disk and hands the resumable set to onFinish.
func FindPartialDownloads(podcasts []*model.Podcast, onFinish func([]*model.Episode)) {
	var resumable []*model.Episode
	for _, p := range podcasts {
		for _, e := range p.Episodes {
			if e.HasPartial() {
				resumable = append(resumable, e)
			}
		}
	}
	onFinish(resumable)
}
