package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"podsh/internal/device"
	"podsh/internal/feed"
	"podsh/internal/gate"
	"podsh/internal/logging"
	"podsh/internal/model"
)

// cmdUpdate fetches feeds and merges new episodes. With a URL argument only
// that subscription is updated; disabled subscriptions are skipped.
func (app *App) cmdUpdate(args []string) bool {
	var podcasts []*model.Podcast
	if len(args) > 0 {
		p, ok := app.podcastByURL(args[0])
		if !ok {
			return false
		}
		podcasts = []*model.Podcast{p}
	} else {
		all, ok := app.podcasts()
		if !ok {
			return false
		}
		podcasts = all
	}

	added := 0
	failed := 0
	for _, p := range podcasts {
		if p.PauseSubscription {
			app.console.StartAction("Skipping %s", p.Title)
			app.console.SkipAction()
			continue
		}
		app.console.StartAction("Updating %s", p.Title)
		result, ok := app.fetchFeed(p)
		if !ok {
			app.console.FinishAction(false)
			failed++
			continue
		}
		added += feed.Merge(p, result, app.cfg.Downloads.Dir, app.cfg.Limits.EpisodesPerFeed)
		app.console.FinishAction(true)
	}

	app.cleanupExpired()
	if !app.commit() {
		return false
	}
	app.console.Infof("%d new episodes available.", added)
	return failed == 0
}

// cleanupExpired removes downloads older than the configured expiry. The
// deletion batch is not confirmed: expiry is policy, not an interactive
// decision.
func (app *App) cleanupExpired() {
	days := app.cfg.Downloads.ExpiryDays
	if days <= 0 {
		return
	}
	podcasts, ok := app.podcasts()
	if !ok {
		return
	}
	expired := model.ExpiredEpisodes(podcasts, time.Duration(days)*24*time.Hour)
	app.gate.DeleteEpisodes(expired, gate.DeleteOptions{SkipLocked: true}, nil)
}

// cmdPending lists episodes that are new and not yet downloaded.
func (app *App) cmdPending(args []string) bool {
	podcasts, ok := app.selectPodcasts(args)
	if !ok {
		return false
	}

	total := 0
	for _, p := range podcasts {
		var pending []*model.Episode
		for _, e := range p.Episodes {
			if e.IsPending() {
				pending = append(pending, e)
			}
		}
		if len(pending) == 0 {
			continue
		}
		app.console.Hintf("%s", p.Title)
		for _, e := range pending {
			app.console.Infof("  %s", e.Title)
		}
		total += len(pending)
	}
	app.console.Infof("%d episodes pending.", total)
	return true
}

// cmdEpisodes lists every known episode with its download state. The
// --guid flag adds each episode's GUID, for feeding into download or delete.
func (app *App) cmdEpisodes(args []string) bool {
	showGUID, rest := guidFlag(args)
	podcasts, ok := app.selectPodcasts(rest)
	if !ok {
		return false
	}

	var sb strings.Builder
	for _, p := range podcasts {
		fmt.Fprintf(&sb, "%s\n", p.Title)
		for _, e := range p.Episodes {
			lock := " "
			if e.Archive {
				lock = "*"
			}
			fmt.Fprintf(&sb, "  %s [%-10s] %s\n", lock, e.State, e.Title)
			if showGUID {
				fmt.Fprintf(&sb, "      guid: %s\n", e.GUID)
			}
		}
	}
	app.console.Pager(strings.TrimRight(sb.String(), "\n"))
	return true
}

// guidFlag strips a --guid token from the arguments.
func guidFlag(args []string) (bool, []string) {
	var rest []string
	found := false
	for _, a := range args {
		if a == "--guid" {
			found = true
			continue
		}
		rest = append(rest, a)
	}
	return found, rest
}

// cmdDownload downloads pending episodes: all of them, one podcast's, or a
// single episode by GUID.
func (app *App) cmdDownload(args []string) bool {
	var pending []*model.Episode

	switch len(args) {
	case 0:
		podcasts, ok := app.podcasts()
		if !ok {
			return false
		}
		for _, p := range podcasts {
			pending = append(pending, pendingEpisodes(p)...)
		}
	case 1:
		p, ok := app.podcastByURL(args[0])
		if !ok {
			return false
		}
		pending = pendingEpisodes(p)
	default:
		p, ok := app.podcastByURL(args[0])
		if !ok {
			return false
		}
		e := p.EpisodeByGUID(args[1])
		if e == nil {
			app.console.Errorf("No episode with GUID %s.", args[1])
			return false
		}
		if e.State == model.StateDownloaded {
			app.console.Infof("Episode is already downloaded.")
			return true
		}
		pending = []*model.Episode{e}
	}

	app.runner.DownloadAll(context.Background(), pending, app.cfg.Downloads.ChronologicalOrder)
	return app.commit()
}

func pendingEpisodes(p *model.Podcast) []*model.Episode {
	var pending []*model.Episode
	for _, e := range p.Episodes {
		if e.IsPending() {
			pending = append(pending, e)
		}
	}
	return pending
}

// cmdDelete deletes one episode's downloaded files. Deleting an episode that
// is already deleted is a no-op, not an error.
func (app *App) cmdDelete(args []string) bool {
	p, ok := app.podcastByURL(args[0])
	if !ok {
		return false
	}
	e := p.EpisodeByGUID(args[1])
	if e == nil {
		app.console.Errorf("No episode with GUID %s.", args[1])
		return false
	}
	if e.State == model.StateDeleted {
		app.console.Infof("Episode has already been deleted.")
		return true
	}

	app.gate.DeleteEpisodes([]*model.Episode{e},
		gate.DeleteOptions{Confirm: true, SkipLocked: true},
		func(episodeURLs, podcastURLs []string) {
			if err := app.store.Commit(); err != nil {
				logging.Error("commit after deletion failed", err)
			}
		})
	return true
}

// cmdPartial lists episodes with an incomplete transfer left on disk.
func (app *App) cmdPartial(args []string) bool {
	showGUID, rest := guidFlag(args)
	podcasts, ok := app.selectPodcasts(rest)
	if !ok {
		return false
	}

	count := 0
	for _, p := range podcasts {
		for _, e := range p.Episodes {
			if e.HasPartial() {
				if showGUID {
					app.console.Infof("%s / %s (guid: %s)", p.Title, e.Title, e.GUID)
				} else {
					app.console.Infof("%s / %s", p.Title, e.Title)
				}
				count++
			}
		}
	}
	app.console.Infof("%d partial downloads found.", count)
	return true
}

// cmdResume restarts incomplete transfers, optionally a single one by GUID.
func (app *App) cmdResume(args []string) bool {
	podcasts, ok := app.podcasts()
	if !ok {
		return false
	}
	guid := ""
	if len(args) > 0 {
		guid = args[0]
	}
	app.runner.Resume(context.Background(), podcasts, guid, app.cfg.Downloads.ChronologicalOrder)
	return app.commit()
}

// cmdSync copies downloaded episodes to the device folder. The handler
// blocks on the syncer's completion signal so one-shot invocations do not
// exit mid-copy.
func (app *App) cmdSync(args []string) bool {
	podcasts, ok := app.podcasts()
	if !ok {
		return false
	}

	syncer := &device.Syncer{
		Console: app.console,
		Runner:  app.runner,
		Gate:    app.gate,
		Status:  app.directory,
		Cfg:     app.cfg,
		Commit:  app.store.Commit,
	}

	done := make(chan struct{})
	go syncer.Run(context.Background(), podcasts, func() { close(done) })
	<-done

	return app.commit()
}

// selectPodcasts interprets an optional URL argument: no argument means all
// subscriptions.
func (app *App) selectPodcasts(args []string) ([]*model.Podcast, bool) {
	if len(args) == 0 {
		return app.podcasts()
	}
	p, ok := app.podcastByURL(args[0])
	if !ok {
		return nil, false
	}
	return []*model.Podcast{p}, true
}
