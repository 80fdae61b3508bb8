// Package groupweb implements the poll-based group feed by scraping public
// group web pages.
package groupweb

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"CityWatch/internal/domain"
	"CityWatch/internal/ports"
)

// Selectors for public group wall markup.
const (
	postSelector = "div.post"
	textSelector = "div.wall_post_text"
	postIDAttr   = "data-post-id"
	postTimeAttr = "data-time"
)

// Poller fetches the most recent wall posts of one group page per call.
type Poller struct {
	client *http.Client
}

var _ ports.GroupFeed = (*Poller)(nil)

// NewPoller wires an HTTP client; a nil client gets a 20s-timeout default.
func NewPoller(client *http.Client) *Poller {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Poller{client: client}
}

// FetchRecent returns up to limit posts from the group page, newest first as
// rendered. The caller deduplicates against its own processed set before
// invoking the pipeline.
func (p *Poller) FetchRecent(ctx context.Context, groupURL string, limit int) ([]domain.RawMessage, error) {
	if limit <= 0 {
		limit = 10
	}

	doc, err := p.fetchDocument(ctx, groupURL)
	if err != nil {
		return nil, err
	}

	var posts []domain.RawMessage
	doc.Find(postSelector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if msg, ok := parsePost(sel, groupURL); ok {
			posts = append(posts, msg)
		}
		return len(posts) < limit
	})
	return posts, nil
}

func (p *Poller) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "CityWatch/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("group page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

func parsePost(sel *goquery.Selection, groupURL string) (domain.RawMessage, bool) {
	id, ok := sel.Attr(postIDAttr)
	if !ok || id == "" {
		return domain.RawMessage{}, false
	}

	text := strings.TrimSpace(sel.Find(textSelector).First().Text())
	if text == "" {
		return domain.RawMessage{}, false
	}

	var publishedAt time.Time
	if raw, ok := sel.Attr(postTimeAttr); ok {
		if unix, err := strconv.ParseInt(raw, 10, 64); err == nil && unix > 0 {
			publishedAt = time.Unix(unix, 0)
		}
	}

	hasMedia := sel.Find("img").Length() > 0

	return domain.RawMessage{
		SourceKind:  domain.SourceGroup,
		SourceID:    groupURL,
		MessageID:   id,
		Text:        text,
		PublishedAt: publishedAt,
		Link:        strings.TrimSuffix(groupURL, "/") + "?post=" + id,
		HasMedia:    hasMedia,
	}, true
}
