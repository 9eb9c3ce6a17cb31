// Package task executes per-episode work queues sequentially, reporting each
// item through the console's single-action protocol and isolating per-item
// failure: one failed task never aborts the remainder of the queue.
package task

import (
	"context"

	"podsh/internal/download"
	"podsh/internal/logging"
	"podsh/internal/model"
	"podsh/internal/ui"
)

// Task is one unit of per-episode work. Download and device-sync tasks both
// satisfy it.
type Task interface {
	// Run performs the work synchronously; there is no mid-task
	// cancellation beyond the context's own deadline handling.
	Run(ctx context.Context) error

	// AddProgressCallback registers an observer for progress in [0,1].
	AddProgressCallback(fn func(float64))
}

// Factory builds the task for one episode.
type Factory func(e *model.Episode) Task

// Runner drives task queues over the console. Tasks run strictly one at a
// time; the only concurrency is the task's own blocking I/O.
type Runner struct {
	Console *ui.Console
}

// NewRunner creates a Runner.
func NewRunner(console *ui.Console) *Runner {
	return &Runner{Console: console}
}

// RunQueue runs one task per episode in the given order. When consecutive
// episodes belong to different podcasts a title banner is printed between
// them. Each task reports through one action labeled verb+title, finished
// with DONE or FAIL from the task's terminal status. Returns the number of
// failed items.
func (r *Runner) RunQueue(ctx context.Context, verb string, episodes []*model.Episode, factory Factory) int {
	failed := 0
	var lastPodcast *model.Podcast
	for _, e := range episodes {
		if e.Podcast != lastPodcast && e.Podcast != nil {
			r.Console.Hintf("%s", e.Podcast.Title)
			lastPodcast = e.Podcast
		}

		t := factory(e)
		t.AddProgressCallback(r.Console.UpdateAction)
		r.Console.StartAction(verb+" %s", e.Title)
		err := t.Run(ctx)
		if err != nil {
			logging.Warn("task failed", logging.Fields{
				"episode": e.Title,
				"error":   err.Error(),
			})
			failed++
		}
		r.Console.FinishAction(err == nil)
	}
	return failed
}

// DownloadAll downloads the episodes in order, oldest first when
// chronological is set, and reports the processed count afterwards.
func (r *Runner) DownloadAll(ctx context.Context, episodes []*model.Episode, chronological bool) {
	if chronological {
		episodes = model.SortEpisodesByPubDate(episodes)
	}
	if len(episodes) > 0 {
		r.RunQueue(ctx, "Downloading", episodes, func(e *model.Episode) Task {
			return download.NewTask(e)
		})
	}
	r.Console.Infof("%d episodes downloaded.", len(episodes))
}

// Resume re-enters the download path for episodes left with partial files,
// optionally filtered to a single GUID.
func (r *Runner) Resume(ctx context.Context, podcasts []*model.Podcast, guid string, chronological bool) {
	download.FindPartialDownloads(podcasts, func(episodes []*model.Episode) {
		if guid != "" {
			var filtered []*model.Episode
			for _, e := range episodes {
				if e.GUID == guid {
					filtered = append(filtered, e)
				}
			}
			episodes = filtered
		}
		r.DownloadAll(ctx, episodes, chronological)
	})
}
