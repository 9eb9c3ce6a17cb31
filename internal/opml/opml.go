// Package opml reads and writes OPML subscription lists.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"podsh/internal/model"
)

// Outline is one subscription entry of an OPML document.
type Outline struct {
	Title string
	URL   string
}

type opmlOutline struct {
	Text     string        `xml:"text,attr"`
	Title    string        `xml:"title,attr"`
	XMLURL   string        `xml:"xmlUrl,attr"`
	Type     string        `xml:"type,attr,omitempty"`
	Children []opmlOutline `xml:"outline"`
}

type opmlDocument struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    struct {
		Title       string `xml:"title"`
		DateCreated string `xml:"dateCreated,omitempty"`
	} `xml:"head"`
	Body struct {
		Outlines []opmlOutline `xml:"outline"`
	} `xml:"body"`
}

// Import reads an OPML document from a local file or an http(s) URL and
// returns its feed outlines, nested groups flattened.
func Import(source string) ([]Outline, error) {
	data, err := read(source)
	if err != nil {
		return nil, err
	}

	var doc opmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("cannot parse OPML from %s: %w", source, err)
	}

	var outlines []Outline
	collect(doc.Body.Outlines, &outlines)
	return outlines, nil
}

func read(source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		client := &http.Client{Timeout: 60 * time.Second}
		resp, err := client.Get(source)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("cannot fetch %s: %s", source, resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(source)
}

func collect(nodes []opmlOutline, out *[]Outline) {
	for _, n := range nodes {
		if n.XMLURL != "" {
			title := n.Title
			if title == "" {
				title = n.Text
			}
			*out = append(*out, Outline{Title: title, URL: n.XMLURL})
		}
		collect(n.Children, out)
	}
}

// Export writes the podcasts as an OPML subscription list.
func Export(path string, podcasts []*model.Podcast) error {
	doc := opmlDocument{Version: "2.0"}
	doc.Head.Title = "podsh subscriptions"
	doc.Head.DateCreated = time.Now().UTC().Format(time.RFC1123Z)
	for _, p := range podcasts {
		doc.Body.Outlines = append(doc.Body.Outlines, opmlOutline{
			Text:   p.Title,
			Title:  p.Title,
			XMLURL: p.URL,
			Type:   "rss",
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(xml.Header+string(data)+"\n"), 0o644)
}
