package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// RecentlyPromoted returns the set of URLs whose last promotion falls
// within the cooldown window. The boundary is exclusive: a URL promoted
// exactly cooldown ago is no longer "recent".
func (db *DB) RecentlyPromoted(cooldown time.Duration) (map[string]struct{}, error) {
	cutoff := formatTime(db.now().Add(-cooldown))

	rows, err := db.conn.Query(
		"SELECT url FROM promoted_posts WHERE last_promoted_at > ?", cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent promotions: %w", err)
	}
	defer rows.Close()

	urls := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls[url] = struct{}{}
	}
	return urls, rows.Err()
}

// PreviousTexts returns up to limit successful promotion texts for a URL,
// most recent first.
func (db *DB) PreviousTexts(url string, limit int) ([]PreviousText, error) {
	rows, err := db.conn.Query(
		`SELECT text, style_params, posted_at FROM promotion_events
		WHERE url = ? AND success = 1
		ORDER BY posted_at DESC, id DESC LIMIT ?`, url, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying previous texts: %w", err)
	}
	defer rows.Close()

	var texts []PreviousText
	for rows.Next() {
		var pt PreviousText
		var styleJSON *string
		var postedAt string
		if err := rows.Scan(&pt.Text, &styleJSON, &postedAt); err != nil {
			return nil, err
		}
		if styleJSON != nil && *styleJSON != "" {
			json.Unmarshal([]byte(*styleJSON), &pt.StyleParams)
		}
		if t, err := parseTime(postedAt); err == nil {
			pt.PostedAt = t
		}
		texts = append(texts, pt)
	}
	return texts, rows.Err()
}

// Record logs a promotion attempt: it upserts the promoted_posts row
// (creating it or bumping last_promoted_at and promotion_count) and appends
// a promotion_events row. Both writes happen in one transaction so the
// count never diverges from the event rows.
func (db *DB) Record(url, title, text string, externalID *string, style map[string]string, success bool, errorMessage *string) error {
	now := formatTime(db.now())

	var styleJSON *string
	if len(style) > 0 {
		data, err := json.Marshal(style)
		if err != nil {
			return fmt.Errorf("marshaling style params: %w", err)
		}
		s := string(data)
		styleJSON = &s
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin record: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO promoted_posts (url, title, first_promoted_at, last_promoted_at, promotion_count)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			last_promoted_at = excluded.last_promoted_at,
			promotion_count = promotion_count + 1`,
		url, title, now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting promoted post: %w", err)
	}

	successInt := 0
	if success {
		successInt = 1
	}
	_, err = tx.Exec(
		`INSERT INTO promotion_events (url, text, external_id, posted_at, style_params, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		url, text, externalID, now, styleJSON, successInt, errorMessage,
	)
	if err != nil {
		return fmt.Errorf("appending promotion event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// GetPost returns the promoted_posts row for a URL, or nil if the URL has
// never been promoted.
func (db *DB) GetPost(url string) (*PromotedPost, error) {
	row := db.conn.QueryRow(
		`SELECT id, url, title, first_promoted_at, last_promoted_at, promotion_count
		FROM promoted_posts WHERE url = ?`, url,
	)

	var p PromotedPost
	var first, last string
	err := row.Scan(&p.ID, &p.URL, &p.Title, &first, &last, &p.PromotionCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.FirstPromotedAt, err = parseTime(first); err != nil {
		return nil, fmt.Errorf("parsing first_promoted_at: %w", err)
	}
	if p.LastPromotedAt, err = parseTime(last); err != nil {
		return nil, fmt.Errorf("parsing last_promoted_at: %w", err)
	}
	return &p, nil
}

// EventsForURL returns all promotion events for a URL, most recent first.
func (db *DB) EventsForURL(url string) ([]PromotionEvent, error) {
	rows, err := db.conn.Query(
		`SELECT id, url, text, external_id, posted_at, style_params, success, error_message
		FROM promotion_events WHERE url = ? ORDER BY posted_at DESC, id DESC`, url,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []PromotionEvent
	for rows.Next() {
		var e PromotionEvent
		var postedAt string
		var styleJSON *string
		var successInt int
		if err := rows.Scan(&e.ID, &e.URL, &e.Text, &e.ExternalID, &postedAt, &styleJSON, &successInt, &e.ErrorMessage); err != nil {
			return nil, err
		}
		e.Success = successInt != 0
		if styleJSON != nil && *styleJSON != "" {
			json.Unmarshal([]byte(*styleJSON), &e.StyleParams)
		}
		if t, err := parseTime(postedAt); err == nil {
			e.PostedAt = t
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetStats returns aggregate history statistics.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM promoted_posts").Scan(&stats.TotalPosts); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM promotion_events WHERE success = 1").Scan(&stats.TotalPromotions); err != nil {
		return nil, err
	}

	weekAgo := formatTime(db.now().AddDate(0, 0, -7))
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM promotion_events WHERE success = 1 AND posted_at >= ?", weekAgo,
	).Scan(&stats.LastSevenDays)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// Prune deletes promotion events older than the retention horizon and
// returns the number deleted. promoted_posts rows are kept: the fact that a
// URL was promoted must survive even after event detail is gone.
func (db *DB) Prune(retentionDays int) (int64, error) {
	cutoff := formatTime(db.now().AddDate(0, 0, -retentionDays))

	result, err := db.conn.Exec(
		"DELETE FROM promotion_events WHERE posted_at < ?", cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("pruning events: %w", err)
	}
	return result.RowsAffected()
}
