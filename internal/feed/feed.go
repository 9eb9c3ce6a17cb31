// Package feed fetches and parses podcast feeds and merges their entries
// into the subscription model.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"podsh/internal/model"
)

// UserAgent identifies podsh to feed servers.
const UserAgent = "podsh/1.0"

// AuthRequiredError reports a feed that demands credentials.
type AuthRequiredError struct {
	URL string
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("feed %s requires authentication", e.URL)
}

// Credentials is a username/password pair for authenticated feeds.
type Credentials struct {
	Username string
	Password string
}

// Item is one parsed feed entry.
type Item struct {
	GUID     string
	Title    string
	MediaURL string
	PubDate  time.Time
}

// Result is a parsed feed.
type Result struct {
	Title string
	Items []Item
}

// Fetcher downloads and parses feeds.
type Fetcher struct {
	client *http.Client
	parser *gofeed.Parser
}

// NewFetcher creates a Fetcher with a request timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 60 * time.Second},
		parser: gofeed.NewParser(),
	}
}

// Fetch retrieves and parses the feed at url. A 401 response surfaces as
// *AuthRequiredError so the caller can collect credentials and retry.
func (f *Fetcher) Fetch(ctx context.Context, url string, creds *Credentials) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	if creds != nil {
		req.SetBasicAuth(creds.Username, creds.Password)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthRequiredError{URL: url}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("feed %s: unexpected status %s", url, resp.Status)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", url, err)
	}
	return convert(parsed), nil
}

func convert(parsed *gofeed.Feed) *Result {
	r := &Result{Title: parsed.Title}
	for _, item := range parsed.Items {
		entry := Item{
			GUID:  item.GUID,
			Title: item.Title,
		}
		if entry.GUID == "" {
			entry.GUID = item.Link
		}
		if item.PublishedParsed != nil {
			entry.PubDate = item.PublishedParsed.UTC()
		}
		for _, enc := range item.Enclosures {
			if enc.URL != "" {
				entry.MediaURL = enc.URL
				break
			}
		}
		if entry.GUID == "" && entry.MediaURL != "" {
			entry.GUID = entry.MediaURL
		}
		if entry.GUID == "" {
			continue
		}
		r.Items = append(r.Items, entry)
	}
	return r
}

// Merge folds a fetch result into the podcast: the title is refreshed and
// entries with unseen GUIDs become new episodes with a download path under
// root. At most maxEpisodes entries of the feed are considered (0 means no
// limit). Returns the number of episodes added.
func Merge(p *model.Podcast, r *Result, root string, maxEpisodes int) int {
	if r.Title != "" && p.Title == "" {
		p.Title = r.Title
	}

	items := r.Items
	if maxEpisodes > 0 && len(items) > maxEpisodes {
		items = items[:maxEpisodes]
	}

	added := 0
	for _, item := range items {
		if p.EpisodeByGUID(item.GUID) != nil {
			continue
		}
		e := &model.Episode{
			GUID:     item.GUID,
			Title:    item.Title,
			MediaURL: item.MediaURL,
			PubDate:  item.PubDate,
			State:    model.StateNew,
			IsNew:    true,
			Podcast:  p,
		}
		e.LocalPath = model.EpisodePath(root, p, e)
		p.Episodes = append(p.Episodes, e)
		added++
	}
	return added
}
