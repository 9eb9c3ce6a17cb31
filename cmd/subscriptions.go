package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"podsh/internal/feed"
	"podsh/internal/logging"
	"podsh/internal/model"
	"podsh/internal/mygpo"
	"podsh/internal/opml"
)

// cmdSubscribe adds a subscription and fetches its feed once. Subscribing to
// an already-subscribed URL is a friendly no-op.
func (app *App) cmdSubscribe(args []string) bool {
	raw := args[0]
	title := ""
	if len(args) > 1 {
		title = args[1]
	}

	url := model.NormalizeFeedURL(raw)
	if url == "" {
		app.console.Errorf("The URL %s is invalid.", raw)
		return false
	}

	existing, err := app.store.PodcastByURL(url)
	if err != nil {
		logging.Error("loading subscriptions failed", err)
		app.console.Errorf("Could not load subscriptions: %v", err)
		return false
	}
	if existing != nil {
		app.console.Infof("You are already subscribed to %s.", url)
		return true
	}

	p := &model.Podcast{URL: url, Title: title}
	result, ok := app.fetchFeed(p)
	if !ok {
		return false
	}
	feed.Merge(p, result, app.cfg.Downloads.Dir, app.cfg.Limits.EpisodesPerFeed)

	if err := app.store.Add(p); err != nil {
		logging.Error("adding subscription failed", err)
		app.console.Errorf("Could not save subscriptions: %v", err)
		return false
	}
	if !app.commit() {
		return false
	}
	app.console.Infof("Subscribed to %s.", p.Title)
	return true
}

// fetchFeed downloads and parses a podcast's feed. When the server demands
// credentials the user is asked for them and the fetch retried; a blank
// username or password abandons the attempt, and offering the same rejected
// pair twice stops the loop.
func (app *App) fetchFeed(p *model.Podcast) (*feed.Result, bool) {
	ctx := context.Background()

	var creds *feed.Credentials
	if p.AuthUsername != "" {
		creds = &feed.Credentials{Username: p.AuthUsername, Password: p.AuthPassword}
	}

	tried := make(map[string]bool)
	for {
		result, err := app.fetcher.Fetch(ctx, p.URL, creds)
		if err == nil {
			if creds != nil {
				p.AuthUsername = creds.Username
				p.AuthPassword = creds.Password
			}
			return result, true
		}

		var authErr *feed.AuthRequiredError
		if !errors.As(err, &authErr) {
			logging.Warn("feed fetch failed", logging.Fields{"url": p.URL, "error": err.Error()})
			app.console.Errorf("Cannot subscribe to %s: %v", p.URL, err)
			return nil, false
		}

		if !app.console.Interactive() {
			app.console.Errorf("Feed requires authentication: %s", p.URL)
			return nil, false
		}

		app.console.Infof("Podcast requires authentication")
		username, err := app.console.ReadLine("Username: ")
		if err != nil || username == "" {
			return nil, false
		}
		password, err := app.console.ReadLine("Password: ")
		if err != nil || password == "" {
			return nil, false
		}

		key := username + "\x00" + password
		if tried[key] {
			app.console.Errorf("Wrong username/password.")
			return nil, false
		}
		tried[key] = true
		creds = &feed.Credentials{Username: username, Password: password}
	}
}

func (app *App) cmdUnsubscribe(args []string) bool {
	p, ok := app.podcastByURL(args[0])
	if !ok {
		return false
	}
	app.store.Remove(p)
	if !app.commit() {
		return false
	}
	app.console.Infof("Unsubscribed from %s.", p.Title)
	return true
}

func (app *App) cmdRename(args []string) bool {
	p, ok := app.podcastByURL(args[0])
	if !ok {
		return false
	}
	oldTitle := p.Title
	p.Title = args[1]
	if !app.commit() {
		return false
	}
	app.console.Infof("Renamed %s to %s.", oldTitle, p.Title)
	return true
}

func (app *App) cmdEnable(args []string) bool {
	p, ok := app.podcastByURL(args[0])
	if !ok {
		return false
	}
	p.PauseSubscription = false
	if !app.commit() {
		return false
	}
	app.console.Infof("Subscription enabled.")
	return true
}

func (app *App) cmdDisable(args []string) bool {
	p, ok := app.podcastByURL(args[0])
	if !ok {
		return false
	}
	p.PauseSubscription = true
	if !app.commit() {
		return false
	}
	app.console.Infof("Subscription disabled.")
	return true
}

func (app *App) cmdInfo(args []string) bool {
	p, ok := app.podcastByURL(args[0])
	if !ok {
		return false
	}

	downloaded, pending := 0, 0
	for _, e := range p.Episodes {
		switch {
		case e.State == model.StateDownloaded:
			downloaded++
		case e.IsPending():
			pending++
		}
	}

	status := "enabled"
	if p.PauseSubscription {
		status = "disabled"
	}
	app.console.Infof("Title:      %s", p.Title)
	app.console.Infof("URL:        %s", p.URL)
	app.console.Infof("Status:     %s", status)
	app.console.Infof("Episodes:   %d (%d downloaded, %d new)", len(p.Episodes), downloaded, pending)
	return true
}

func (app *App) cmdList(args []string) bool {
	podcasts, ok := app.podcasts()
	if !ok {
		return false
	}
	for _, p := range podcasts {
		title := p.Title
		if p.PauseSubscription {
			title += " [disabled]"
		}
		app.console.Hintf("%s", title)
		app.console.Infof("  %s", p.URL)
	}
	return true
}

// cmdImport subscribes to every feed of an OPML file or URL.
func (app *App) cmdImport(args []string) bool {
	outlines, err := opml.Import(args[0])
	if err != nil {
		logging.Warn("OPML import failed", logging.Fields{"source": args[0], "error": err.Error()})
		app.console.Errorf("Cannot import %s: %v", args[0], err)
		return false
	}
	if len(outlines) == 0 {
		app.console.Infof("No podcasts found in %s.", args[0])
		return true
	}

	added := 0
	for _, o := range outlines {
		if app.cmdSubscribe([]string{o.URL, o.Title}) {
			added++
		}
	}
	app.console.Infof("%d of %d podcasts imported.", added, len(outlines))
	return added > 0
}

func (app *App) cmdExport(args []string) bool {
	podcasts, ok := app.podcasts()
	if !ok {
		return false
	}
	if err := opml.Export(args[0], podcasts); err != nil {
		logging.Warn("OPML export failed", logging.Fields{"path": args[0], "error": err.Error()})
		app.console.Errorf("Cannot export to %s: %v", args[0], err)
		return false
	}
	app.console.Infof("%d subscriptions exported to %s.", len(podcasts), args[0])
	return true
}

func (app *App) cmdSearch(args []string) bool {
	query := strings.Join(args, " ")
	sp := app.console.NewSpinner("Searching the directory")
	sp.Start()
	entries, err := app.directory.Search(query)
	sp.Stop()
	if err != nil {
		logging.Warn("directory search failed", logging.Fields{"query": query, "error": err.Error()})
		app.console.Errorf("Search failed: %v", err)
		return false
	}
	return app.showDirectory(entries, false)
}

func (app *App) cmdToplist(args []string) bool {
	sp := app.console.NewSpinner("Fetching the toplist")
	sp.Start()
	entries, err := app.directory.Toplist()
	sp.Stop()
	if err != nil {
		logging.Warn("toplist fetch failed", logging.Fields{"error": err.Error()})
		app.console.Errorf("Toplist failed: %v", err)
		return false
	}
	return app.showDirectory(entries, true)
}

// showDirectory presents directory results. In the interactive shell the
// listing is followed by an index prompt that subscribes to chosen entries;
// with multiple set the prompt repeats until an empty line. One-shot and
// non-interactive runs print the bare feed URLs, one per line, for piping.
func (app *App) showDirectory(entries []mygpo.DirectoryEntry, multiple bool) bool {
	if len(entries) == 0 {
		app.console.Infof("No podcasts found.")
		return true
	}

	if app.oneShot || !app.console.Interactive() {
		for _, entry := range entries {
			app.console.Infof("%s", entry.URL)
		}
		return true
	}

	showList := func() {
		var sb strings.Builder
		for i, entry := range entries {
			url := entry.URL
			if entry.Title == url {
				url = ""
			}
			fmt.Fprintf(&sb, "%3d: %s\n     %s\n", i+1, entry.Title, url)
		}
		app.console.Pager(strings.TrimRight(sb.String(), "\n"))
	}
	showList()

	for {
		line, err := app.console.ReadLine("Enter index to subscribe, ? for list: ")
		if err != nil || line == "" {
			return true
		}
		if line == "?" {
			showList()
			continue
		}
		index, err := strconv.Atoi(line)
		if err != nil || index < 1 || index > len(entries) {
			app.console.Errorf("Invalid value.")
			continue
		}
		entry := entries[index-1]
		app.console.Infof("Adding %s...", entry.Title)
		app.cmdSubscribe([]string{entry.URL})
		if !multiple {
			return true
		}
	}
}

// cmdRewrite changes a subscription's feed URL in place, keeping its episode
// history.
func (app *App) cmdRewrite(args []string) bool {
	p, ok := app.podcastByURL(args[0])
	if !ok {
		return false
	}
	newURL := model.NormalizeFeedURL(args[1])
	if newURL == "" {
		app.console.Errorf("The URL %s is invalid.", args[1])
		return false
	}
	existing, err := app.store.PodcastByURL(newURL)
	if err == nil && existing != nil && existing != p {
		app.console.Errorf("You are already subscribed to %s.", newURL)
		return false
	}
	p.URL = newURL
	if !app.commit() {
		return false
	}
	app.console.Infof("Updated %s.", p.Title)
	return true
}
