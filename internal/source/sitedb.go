package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SiteDBSource reads promotable pages directly from the site's own sqlite
// database instead of going over HTTP. Useful when the bot runs on the same
// host as the site.
type SiteDBSource struct {
	path string
}

// NewSiteDBSource creates a database adapter over the sqlite file at path.
func NewSiteDBSource(path string) *SiteDBSource {
	return &SiteDBSource{path: path}
}

// Fetch queries the pages table for published promotable pages.
func (s *SiteDBSource) Fetch(ctx context.Context) ([]Candidate, error) {
	conn, err := sql.Open("sqlite", "file:"+s.path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening site database: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, `
		SELECT url, title, kind, COALESCE(summary, ''), COALESCE(image_url, ''), COALESCE(updated_at, '')
		FROM pages
		WHERE published = 1 AND kind IN ('blog', 'listing', 'district')
		ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("querying site pages: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		var kind, lastMod string
		if err := rows.Scan(&c.URL, &c.Title, &kind, &c.Summary, &c.ImageURL, &lastMod); err != nil {
			return nil, err
		}
		c.Kind = Kind(kind)
		if len(lastMod) >= 10 {
			c.LastMod = lastMod[:10]
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return candidates, nil
}
