// Package gate wraps destructive batch operations with locked-item
// filtering, interactive or auto-granted confirmation, and multi-select
// toggling.
package gate

import (
	"fmt"
	"strconv"
	"strings"

	"podsh/internal/model"
	"podsh/internal/ui"
)

// StatusNotifier receives best-effort status updates after deletions.
// *mygpo.Client satisfies it.
type StatusNotifier interface {
	OnDelete(episodes []*model.Episode)
	Flush() error
}

// DoneFunc is invoked after a batch completes, with the affected episode and
// podcast URLs. Persisting the state change, the store commit, is the
// callback's responsibility; the gate itself never commits. The callback
// runs synchronously on the caller's goroutine, before DeleteEpisodes
// returns, so the commit is a discrete hand-off and never overlaps whatever
// the caller does next.
type DoneFunc func(episodeURLs, podcastURLs []string)

// DeleteOptions controls DeleteEpisodes.
type DeleteOptions struct {
	// Confirm asks before deleting. In non-interactive sessions
	// confirmation is always granted automatically, without blocking on
	// input that cannot arrive.
	Confirm bool

	// SkipLocked excludes episodes whose archive flag is set.
	SkipLocked bool
}

// Gate guards destructive batch operations.
type Gate struct {
	Console *ui.Console
	Status  StatusNotifier
}

// NewGate creates a Gate.
func NewGate(console *ui.Console, status StatusNotifier) *Gate {
	return &Gate{Console: console, Status: status}
}

// DeleteEpisodes deletes a batch of episodes' on-disk content, one at a
// time, reporting each through the action protocol. An empty input is a
// silent no-op; a batch emptied by the lock filter gets a distinct locked
// notice instead. Returns whether any deletion happened.
func (g *Gate) DeleteEpisodes(episodes []*model.Episode, opts DeleteOptions, done DoneFunc) bool {
	if len(episodes) == 0 {
		return false
	}

	if opts.SkipLocked {
		var unlocked []*model.Episode
		for _, e := range episodes {
			if !e.Archive {
				unlocked = append(unlocked, e)
			}
		}
		if len(unlocked) == 0 {
			g.Console.Warnf("Episodes are locked: unlock the episodes you want to delete before trying to delete them.")
			return false
		}
		episodes = unlocked
	}

	if opts.Confirm {
		noun := "episodes"
		if len(episodes) == 1 {
			noun = "episode"
		}
		prompt := fmt.Sprintf("Delete %d %s? Deleting episodes removes downloaded files. ([yes]/no): ",
			len(episodes), noun)
		if !g.Console.Confirm(prompt) {
			return false
		}
	}

	g.Console.Infof("Please wait while episodes are deleted")

	var episodeURLs, podcastURLs []string
	seenPodcast := make(map[string]bool)
	var affected []*model.Episode
	for _, e := range episodes {
		g.Console.StartAction("Deleting episode: %s", e.Title)
		err := e.DeleteFromDisk()
		g.Console.FinishAction(err == nil)
		if err != nil {
			continue
		}
		affected = append(affected, e)
		episodeURLs = append(episodeURLs, e.MediaURL)
		if e.Podcast != nil && !seenPodcast[e.Podcast.URL] {
			seenPodcast[e.Podcast.URL] = true
			podcastURLs = append(podcastURLs, e.Podcast.URL)
		}
	}

	// Best-effort: a failed notification never rolls back local deletions.
	if g.Status != nil && len(affected) > 0 {
		g.Status.OnDelete(affected)
		g.Status.Flush()
	}

	if done != nil {
		done(episodeURLs, podcastURLs)
	}
	return len(affected) > 0
}

// SelectEpisodes runs the interactive multi-toggle loop over episodes and
// returns the confirmed selection. In a non-interactive session the loop is
// skipped and the initial selection returned unchanged.
func (g *Gate) SelectEpisodes(title, instructions string, episodes []*model.Episode, selected []bool) []*model.Episode {
	if len(selected) != len(episodes) {
		selected = make([]bool, len(episodes))
	}

	pick := func() []*model.Episode {
		var out []*model.Episode
		for i, e := range episodes {
			if selected[i] {
				out = append(out, e)
			}
		}
		return out
	}

	if !g.Console.Interactive() {
		return pick()
	}

	showList := func() {
		var sb strings.Builder
		for i, e := range episodes {
			mark := " "
			if selected[i] {
				mark = "X"
			}
			fmt.Fprintf(&sb, "[%s] %3d: %s\n", mark, i+1, episodeRepr(e))
		}
		g.Console.Pager(strings.TrimRight(sb.String(), "\n"))
	}

	g.Console.Infof("%s. %s", title, instructions)
	showList()

	const prompt = "Enter episode index to toggle, ? for list, X to select all, space to select none, empty when ready: "
	for {
		line, err := g.Console.ReadLine(prompt)
		if err != nil {
			return pick()
		}

		switch line {
		case "":
			return pick()
		case "?":
			showList()
			continue
		case "X":
			for i := range selected {
				selected[i] = true
			}
			showList()
			continue
		case " ":
			for i := range selected {
				selected[i] = false
			}
			showList()
			continue
		}

		index, err := strconv.Atoi(line)
		if err != nil || index < 1 || index > len(episodes) {
			g.Console.Errorf("Invalid value.")
			continue
		}

		selected[index-1] = !selected[index-1]
		if selected[index-1] {
			g.Console.Infof("Will delete %s", episodeRepr(episodes[index-1]))
		} else {
			g.Console.Infof("Won't delete %s", episodeRepr(episodes[index-1]))
		}
	}
}

func episodeRepr(e *model.Episode) string {
	if e.Podcast != nil {
		return e.Podcast.Title + " / " + e.Title
	}
	return e.Title
}
