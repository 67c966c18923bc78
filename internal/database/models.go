package database

import "time"

// PromotedPost tracks one distinct URL that has been promoted.
type PromotedPost struct {
	ID              int64
	URL             string
	Title           *string
	FirstPromotedAt time.Time
	LastPromotedAt  time.Time
	PromotionCount  int
}

// PromotionEvent is one promotion attempt, successful or not. ExternalID is
// nil when nothing was actually posted (dry run or failure).
type PromotionEvent struct {
	ID           int64
	URL          string
	Text         string
	ExternalID   *string
	PostedAt     time.Time
	StyleParams  map[string]string
	Success      bool
	ErrorMessage *string
}

// PreviousText is a prior successful promotion of a URL, fed back into the
// drafting prompt so new text doesn't repeat old angles.
type PreviousText struct {
	Text        string
	StyleParams map[string]string
	PostedAt    time.Time
}

// Stats contains aggregate history statistics.
type Stats struct {
	TotalPosts      int
	TotalPromotions int
	LastSevenDays   int
}
