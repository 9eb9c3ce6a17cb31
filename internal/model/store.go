package model

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS podcasts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL DEFAULT '',
	pause_subscription INTEGER NOT NULL DEFAULT 0,
	auth_username TEXT NOT NULL DEFAULT '',
	auth_password TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS episodes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	podcast_id INTEGER NOT NULL REFERENCES podcasts(id) ON DELETE CASCADE,
	guid TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	media_url TEXT NOT NULL DEFAULT '',
	pubdate INTEGER NOT NULL DEFAULT 0,
	state INTEGER NOT NULL DEFAULT 0,
	is_new INTEGER NOT NULL DEFAULT 1,
	archive INTEGER NOT NULL DEFAULT 0,
	local_path TEXT NOT NULL DEFAULT '',
	UNIQUE(podcast_id, guid)
);
`

// Store persists podcasts and episodes in a sqlite database. Entities are
// loaded once and mutated in memory; nothing reaches disk until Commit, which
// writes the whole working set in one transaction. The orchestration core
// never commits mid-batch.
type Store struct {
	db       *sql.DB
	podcasts []*Podcast
	loaded   bool
}

// Open opens (or creates) the database at path. ":memory:" works for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Podcasts returns all subscribed podcasts with their episodes, ordered by
// title. The result is the store's working set: callers mutate the entities
// directly and Commit persists them.
func (s *Store) Podcasts() ([]*Podcast, error) {
	if s.loaded {
		return live(s.podcasts), nil
	}

	rows, err := s.db.Query(`SELECT id, url, title, pause_subscription,
		auth_username, auth_password FROM podcasts ORDER BY title, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var podcasts []*Podcast
	for rows.Next() {
		p := &Podcast{}
		if err := rows.Scan(&p.ID, &p.URL, &p.Title, &p.PauseSubscription,
			&p.AuthUsername, &p.AuthPassword); err != nil {
			return nil, err
		}
		podcasts = append(podcasts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range podcasts {
		if err := s.loadEpisodes(p); err != nil {
			return nil, err
		}
	}

	s.podcasts = podcasts
	s.loaded = true
	return live(s.podcasts), nil
}

func live(podcasts []*Podcast) []*Podcast {
	out := make([]*Podcast, 0, len(podcasts))
	for _, p := range podcasts {
		if !p.removed {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) loadEpisodes(p *Podcast) error {
	rows, err := s.db.Query(`SELECT id, guid, title, media_url, pubdate,
		state, is_new, archive, local_path
		FROM episodes WHERE podcast_id = ? ORDER BY pubdate DESC, id`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		e := &Episode{Podcast: p}
		var pubdate int64
		var state int
		if err := rows.Scan(&e.ID, &e.GUID, &e.Title, &e.MediaURL, &pubdate,
			&state, &e.IsNew, &e.Archive, &e.LocalPath); err != nil {
			return err
		}
		e.PubDate = time.Unix(pubdate, 0).UTC()
		e.State = State(state)
		p.Episodes = append(p.Episodes, e)
	}
	return rows.Err()
}

// PodcastByURL returns the subscribed podcast with the given normalized URL,
// or nil when there is no such subscription.
func (s *Store) PodcastByURL(url string) (*Podcast, error) {
	podcasts, err := s.Podcasts()
	if err != nil {
		return nil, err
	}
	for _, p := range podcasts {
		if p.URL == url {
			return p, nil
		}
	}
	return nil, nil
}

// Add places a new podcast in the working set. It reaches disk on Commit.
func (s *Store) Add(p *Podcast) error {
	if _, err := s.Podcasts(); err != nil {
		return err
	}
	for _, e := range p.Episodes {
		e.Podcast = p
	}
	s.podcasts = append(s.podcasts, p)
	return nil
}

// Remove marks a podcast for deletion on the next Commit.
func (s *Store) Remove(p *Podcast) {
	p.removed = true
}

// Commit writes the entire working set in one transaction: upserts for live
// podcasts and episodes, deletes for removed subscriptions.
func (s *Store) Commit() error {
	if !s.loaded {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range s.podcasts {
		if p.removed {
			if p.ID != 0 {
				if _, err := tx.Exec(`DELETE FROM episodes WHERE podcast_id = ?`, p.ID); err != nil {
					return err
				}
				if _, err := tx.Exec(`DELETE FROM podcasts WHERE id = ?`, p.ID); err != nil {
					return err
				}
			}
			continue
		}
		if err := s.savePodcast(tx, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	keep := s.podcasts[:0]
	for _, p := range s.podcasts {
		if !p.removed {
			keep = append(keep, p)
		}
	}
	s.podcasts = keep
	return nil
}

func (s *Store) savePodcast(tx *sql.Tx, p *Podcast) error {
	if p.ID == 0 {
		res, err := tx.Exec(`INSERT INTO podcasts
			(url, title, pause_subscription, auth_username, auth_password)
			VALUES (?, ?, ?, ?, ?)`,
			p.URL, p.Title, p.PauseSubscription, p.AuthUsername, p.AuthPassword)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = id
	} else {
		if _, err := tx.Exec(`UPDATE podcasts SET url = ?, title = ?,
			pause_subscription = ?, auth_username = ?, auth_password = ?
			WHERE id = ?`,
			p.URL, p.Title, p.PauseSubscription, p.AuthUsername,
			p.AuthPassword, p.ID); err != nil {
			return err
		}
	}

	for _, e := range p.Episodes {
		if err := s.saveEpisode(tx, p, e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) saveEpisode(tx *sql.Tx, p *Podcast, e *Episode) error {
	if e.ID == 0 {
		res, err := tx.Exec(`INSERT INTO episodes
			(podcast_id, guid, title, media_url, pubdate, state, is_new, archive, local_path)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, e.GUID, e.Title, e.MediaURL, e.PubDate.Unix(),
			int(e.State), e.IsNew, e.Archive, e.LocalPath)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		e.ID = id
		return nil
	}
	_, err := tx.Exec(`UPDATE episodes SET guid = ?, title = ?, media_url = ?,
		pubdate = ?, state = ?, is_new = ?, archive = ?, local_path = ?
		WHERE id = ?`,
		e.GUID, e.Title, e.MediaURL, e.PubDate.Unix(), int(e.State),
		e.IsNew, e.Archive, e.LocalPath, e.ID)
	return err
}

// Close commits outstanding changes and closes the database.
func (s *Store) Close() error {
	if err := s.Commit(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}
