// Package mygpo is a client for a gpodder.net-style web service: podcast
// directory search/toplist, and best-effort episode status uploads.
package mygpo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"podsh/internal/config"
	"podsh/internal/logging"
	"podsh/internal/model"
)

// DirectoryEntry is one search or toplist result.
type DirectoryEntry struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// episodeAction is one queued status change for upload.
type episodeAction struct {
	Podcast   string `json:"podcast"`
	Episode   string `json:"episode"`
	Device    string `json:"device"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

// Client talks to the web service. Status uploads are queued locally and only
// sent on Flush; every remote call is best-effort from the caller's point of
// view — local state is never rolled back on failure.
type Client struct {
	httpClient *http.Client
	server     string
	username   string
	password   string
	deviceID   string
	enabled    bool

	pending []episodeAction
}

// New creates a client from the mygpo configuration section.
func New(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		server:     cfg.MyGPO.Server,
		username:   cfg.MyGPO.Username,
		password:   cfg.MyGPO.Password,
		deviceID:   cfg.MyGPO.DeviceID,
		enabled:    cfg.MyGPO.Enabled,
	}
}

// CanAccess reports whether the client is configured for authenticated
// uploads. The public directory endpoints work regardless.
func (c *Client) CanAccess() bool {
	return c.enabled && c.username != "" && c.password != ""
}

// Search queries the podcast directory.
func (c *Client) Search(query string) ([]DirectoryEntry, error) {
	endpoint := fmt.Sprintf("%s/search.json?q=%s", c.server, url.QueryEscape(query))
	return c.directory(endpoint)
}

// Toplist returns the most-subscribed podcasts.
func (c *Client) Toplist() ([]DirectoryEntry, error) {
	return c.directory(c.server + "/toplist/50.json")
}

func (c *Client) directory(endpoint string) ([]DirectoryEntry, error) {
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "podsh/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory request failed: %s", resp.Status)
	}

	var entries []DirectoryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("directory response: %w", err)
	}
	return entries, nil
}

// OnDelete queues delete-status actions for a batch of episodes. Episodes
// without a podcast back-reference are skipped: the service keys actions by
// feed URL, so there is nothing to attribute them to.
func (c *Client) OnDelete(episodes []*model.Episode) {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range episodes {
		if e.Podcast == nil {
			continue
		}
		c.pending = append(c.pending, episodeAction{
			Podcast:   e.Podcast.URL,
			Episode:   e.MediaURL,
			Device:    c.deviceID,
			Action:    "delete",
			Timestamp: now,
		})
	}
}

// OnSync queues play-status actions after a device sync. Episodes without a
// podcast back-reference are skipped, as in OnDelete.
func (c *Client) OnSync(episodes []*model.Episode) {
	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range episodes {
		if e.Podcast == nil {
			continue
		}
		c.pending = append(c.pending, episodeAction{
			Podcast:   e.Podcast.URL,
			Episode:   e.MediaURL,
			Device:    c.deviceID,
			Action:    "play",
			Timestamp: now,
		})
	}
}

// Flush uploads the queued status actions. On failure the queue is dropped
// and the error logged; there is no retry (local mutations stand either way).
func (c *Client) Flush() error {
	if len(c.pending) == 0 {
		return nil
	}
	actions := c.pending
	c.pending = nil

	if !c.CanAccess() {
		return nil
	}

	body, err := json.Marshal(actions)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/api/2/episodes/%s.json", c.server, url.PathEscape(c.username))
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "podsh/1.0")
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.Warn("status upload failed", logging.Fields{"error": err.Error()})
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status upload failed: %s", resp.Status)
		logging.Warn("status upload rejected", logging.Fields{"status": resp.Status})
		return err
	}
	return nil
}
