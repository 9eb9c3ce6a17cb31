// Package model defines the podcast/episode entities, their lifecycle states,
// and the sqlite-backed store that persists them.
package model

import (
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// State is an episode's download lifecycle state.
type State int

const (
	// StateNew is the implicit state of any not-yet-downloaded episode.
	StateNew State = iota
	// StateDownloaded means the episode's content is on disk.
	StateDownloaded
	// StateDeleted means previously downloaded content was removed. It is
	// not terminal: a re-downloaded episode can be deleted again.
	StateDeleted
)

// String returns a short label for listings.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateDownloaded:
		return "downloaded"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// PartialSuffix marks an in-progress download file next to the final path.
const PartialSuffix = ".partial"

// Podcast is a subscribed feed and its episodes, keyed by normalized URL.
type Podcast struct {
	ID                int64
	URL               string
	Title             string
	PauseSubscription bool
	AuthUsername      string
	AuthPassword      string
	Episodes          []*Episode

	removed bool
}

// Episode is one entry of a podcast. GUIDs are unique within their podcast.
type Episode struct {
	ID       int64
	GUID     string
	Title    string
	MediaURL string
	PubDate  time.Time
	State    State

	// IsNew tracks "pending" classification separately from State: an
	// episode can be re-marked not-new (after being listed, say) without
	// changing its download state.
	IsNew bool

	// Archive locks the episode against destructive batch deletion unless
	// the caller explicitly overrides the lock filter.
	Archive bool

	// LocalPath is where downloaded content lives (or will live).
	LocalPath string

	// Podcast is the non-owning back-reference to the episode's feed.
	Podcast *Podcast
}

// IsPending reports whether the episode counts as new for listing purposes:
// not yet downloaded and still flagged new.
func (e *Episode) IsPending() bool {
	return e.State == StateNew && e.IsNew
}

// PartialPath is the on-disk location of an incomplete transfer.
func (e *Episode) PartialPath() string {
	return e.LocalPath + PartialSuffix
}

// HasPartial reports whether an incomplete transfer was left on disk,
// making the episode eligible for resumption.
func (e *Episode) HasPartial() bool {
	if e.LocalPath == "" || e.State == StateDownloaded {
		return false
	}
	_, err := os.Stat(e.PartialPath())
	return err == nil
}

// DeleteFromDisk removes the episode's downloaded content and any partial
// file, and transitions the episode to StateDeleted. Deleting an episode
// whose files are already gone still performs the state transition.
func (e *Episode) DeleteFromDisk() error {
	if e.LocalPath != "" {
		if err := os.Remove(e.LocalPath); err != nil && !os.IsNotExist(err) {
			return err
		}
		if err := os.Remove(e.PartialPath()); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	e.State = StateDeleted
	e.IsNew = false
	return nil
}

// EpisodeByGUID returns the episode with the given GUID, or nil.
func (p *Podcast) EpisodeByGUID(guid string) *Episode {
	for _, e := range p.Episodes {
		if e.GUID == guid {
			return e
		}
	}
	return nil
}

// SortEpisodesByPubDate returns a new slice sorted ascending by publication
// date (older first); the input order breaks ties.
func SortEpisodesByPubDate(episodes []*Episode) []*Episode {
	sorted := make([]*Episode, len(episodes))
	copy(sorted, episodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PubDate.Before(sorted[j].PubDate)
	})
	return sorted
}

// ExpiredEpisodes returns downloaded, unarchived episodes older than maxAge.
// A zero or negative maxAge disables expiry.
func ExpiredEpisodes(podcasts []*Podcast, maxAge time.Duration) []*Episode {
	if maxAge <= 0 {
		return nil
	}
	cutoff := time.Now().Add(-maxAge)
	var expired []*Episode
	for _, p := range podcasts {
		for _, e := range p.Episodes {
			if e.State == StateDownloaded && !e.Archive && e.PubDate.Before(cutoff) {
				expired = append(expired, e)
			}
		}
	}
	return expired
}

// NormalizeFeedURL canonicalizes a feed URL: a missing scheme defaults to
// http, the host is lowercased, and fragments are dropped. Returns "" when
// the input cannot name a feed.
func NormalizeFeedURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// EpisodePath computes the download location for an episode under root,
// grouping by podcast title.
func EpisodePath(root string, p *Podcast, e *Episode) string {
	name := sanitizeFilename(e.Title)
	if name == "" {
		name = sanitizeFilename(e.GUID)
	}
	ext := filepath.Ext(e.MediaURL)
	if len(ext) > 5 || strings.ContainsAny(ext, "?&=") {
		ext = ""
	}
	return filepath.Join(root, sanitizeFilename(p.Title), name+ext)
}

func sanitizeFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
