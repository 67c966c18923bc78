// Package publish posts final text (and an optional image) to the social
// platform. The real publisher signs requests with OAuth1; the dry-run
// variant only logs the decision.
package publish

import (
	"context"
	"log"
)

// Publisher posts a promotion. The returned external ID is the platform's
// post identifier; empty means nothing was actually posted.
type Publisher interface {
	Publish(ctx context.Context, text string, image []byte) (string, error)
}

// DryRunPublisher logs what would have been posted and posts nothing.
type DryRunPublisher struct{}

// Publish logs the decision. The empty external ID is recorded as NULL in
// history, marking the event as not actually posted.
func (DryRunPublisher) Publish(ctx context.Context, text string, image []byte) (string, error) {
	log.Printf("DRY RUN: would post (%d chars): %s", len([]rune(text)), text)
	if len(image) > 0 {
		log.Printf("DRY RUN: would attach image (%d bytes)", len(image))
	}
	return "", nil
}
