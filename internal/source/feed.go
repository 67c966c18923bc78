package source

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mmcdole/gofeed"
)

const maxPerFeed = 50

// FeedConfig is a single RSS/Atom feed to pull from.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedSource reads candidates from RSS/Atom feeds. Everything a feed
// publishes is treated as a blog article.
type FeedSource struct {
	feeds  []FeedConfig
	parser *gofeed.Parser
}

// NewFeedSource creates a feed adapter over the given feed list.
func NewFeedSource(feeds []FeedConfig) *FeedSource {
	return &FeedSource{feeds: feeds, parser: gofeed.NewParser()}
}

// Fetch parses all configured feeds. A feed that fails to parse is logged
// and skipped; Fetch errors only when every feed failed or none produced an
// entry, since an empty pool means the run has nothing to do.
func (f *FeedSource) Fetch(ctx context.Context) ([]Candidate, error) {
	var all []Candidate
	var lastErr error

	for _, fc := range f.feeds {
		entries, err := f.parseFeed(ctx, fc.URL)
		if err != nil {
			log.Printf("Failed to parse feed %s: %v", fc.URL, err)
			lastErr = err
			continue
		}
		all = append(all, entries...)
		log.Printf("Parsed %d entries from %s", len(entries), fc.URL)
	}

	if len(all) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("all feeds failed: %w", lastErr)
		}
		return nil, fmt.Errorf("feeds returned no entries")
	}
	return all, nil
}

func (f *FeedSource) parseFeed(ctx context.Context, feedURL string) ([]Candidate, error) {
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var entries []Candidate
	for _, item := range feed.Items {
		if len(entries) >= maxPerFeed {
			break
		}

		itemURL := item.Link
		if itemURL == "" {
			itemURL = item.GUID
		}
		title := strings.TrimSpace(item.Title)
		if itemURL == "" || title == "" {
			continue
		}

		var lastMod string
		if item.PublishedParsed != nil {
			lastMod = item.PublishedParsed.Format("2006-01-02")
		} else if item.UpdatedParsed != nil {
			lastMod = item.UpdatedParsed.Format("2006-01-02")
		}

		var image string
		if item.Image != nil {
			image = item.Image.URL
		}

		entries = append(entries, Candidate{
			URL:      itemURL,
			Title:    title,
			Kind:     KindBlog,
			Summary:  strings.TrimSpace(item.Description),
			LastMod:  lastMod,
			ImageURL: image,
		})
	}

	return entries, nil
}
