// Package bot wires the whole promotion run together: gate, source,
// eligibility, selection, scraping, drafting, publishing and the history
// write. One call to Run is one complete run-to-completion invocation.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/pikeandvine/tweetbot/internal/config"
	"github.com/pikeandvine/tweetbot/internal/database"
	"github.com/pikeandvine/tweetbot/internal/draft"
	"github.com/pikeandvine/tweetbot/internal/notify"
	"github.com/pikeandvine/tweetbot/internal/publish"
	"github.com/pikeandvine/tweetbot/internal/schedule"
	"github.com/pikeandvine/tweetbot/internal/scrape"
	"github.com/pikeandvine/tweetbot/internal/selection"
	"github.com/pikeandvine/tweetbot/internal/shot"
	"github.com/pikeandvine/tweetbot/internal/source"
)

// ErrNoCandidates marks an empty candidate list from the source. It is a
// source problem, not cooldown exhaustion: exhaustion widens the pool
// instead of failing.
var ErrNoCandidates = errors.New("source returned no candidates")

// ContentScraper extracts page content for the drafting prompt.
type ContentScraper interface {
	Fetch(ctx context.Context, pageURL string) (*scrape.PageContent, error)
}

// Deps are the collaborators a Bot runs with.
type Deps struct {
	Config    *config.Config
	DB        *database.DB
	Source    source.Source
	Scraper   ContentScraper
	Drafter   *draft.Drafter
	Shots     *shot.Client
	Publisher publish.Publisher
	Notifier  *notify.Notifier
	Gate      *schedule.Gate
}

const maxFeaturedImageBytes = 5 << 20 // same ceiling the media upload enforces

// Bot runs one promotion cycle.
type Bot struct {
	deps        Deps
	rng         *rand.Rand
	imageClient *http.Client
}

// New creates a bot. The RNG is seeded from the clock; tests override it
// with SetRand.
func New(deps Deps) *Bot {
	return &Bot{
		deps:        deps,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		imageClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetRand replaces the selection RNG.
func (b *Bot) SetRand(rng *rand.Rand) {
	b.rng = rng
}

// Options control a single run.
type Options struct {
	DryRun bool // draft but do not post
	Force  bool // bypass the scheduling gate
}

// Result describes what a run did.
type Result struct {
	Skipped    bool // gate said not now
	URL        string
	Title      string
	Text       string
	ExternalID string
	Style      map[string]string
}

// Run executes one promotion cycle. History is written only after a
// publish attempt: drafting failures leave no trace, publish failures are
// recorded with success=false.
func (b *Bot) Run(ctx context.Context, opts Options) (*Result, error) {
	if !opts.Force && b.deps.Gate != nil {
		ok, err := b.deps.Gate.ShouldRunNow()
		if err != nil {
			return nil, fmt.Errorf("checking schedule: %w", err)
		}
		if !ok {
			log.Println("Not this run's slot, exiting")
			return &Result{Skipped: true}, nil
		}
	}

	candidate, err := b.selectCandidate(ctx)
	if err != nil {
		b.deps.Notifier.Failed(ctx, err.Error(), "")
		return nil, err
	}
	log.Printf("Selected %s (%s)", candidate.URL, candidate.Kind)

	item := b.enrich(ctx, candidate)

	previous, err := b.previousTexts(candidate.URL)
	if err != nil {
		return nil, err
	}

	style := draft.RandomStyle(b.rng)
	text, err := b.deps.Drafter.Draft(ctx, item, style, previous)
	if err != nil {
		b.deps.Notifier.Failed(ctx, err.Error(), candidate.URL)
		return nil, err
	}
	log.Printf("Drafted %d chars for %s", len([]rune(text)), candidate.URL)

	image := b.captureImage(ctx, candidate)

	externalID, pubErr := b.deps.Publisher.Publish(ctx, text, image)
	if pubErr != nil {
		// The failed attempt still goes into history so it is visible and
		// the same content isn't retried blindly.
		msg := pubErr.Error()
		if err := b.deps.DB.Record(candidate.URL, item.Title, text, nil, style, false, &msg); err != nil {
			return nil, fmt.Errorf("recording failed attempt: %w", err)
		}
		b.deps.Notifier.Failed(ctx, msg, candidate.URL)
		return nil, fmt.Errorf("publishing %s: %w", candidate.URL, pubErr)
	}

	var extID *string
	if externalID != "" {
		extID = &externalID
	}
	if err := b.deps.DB.Record(candidate.URL, item.Title, text, extID, style, true, nil); err != nil {
		return nil, fmt.Errorf("recording promotion: %w", err)
	}

	if !opts.DryRun {
		b.deps.Notifier.Posted(ctx, text, candidate.URL, externalID)
	}

	return &Result{
		URL:        candidate.URL,
		Title:      item.Title,
		Text:       text,
		ExternalID: externalID,
		Style:      style,
	}, nil
}

// selectCandidate fetches the pool, applies the cooldown and picks one.
// When the cooldown excludes everything, the pool widens back to all
// candidates rather than failing.
func (b *Bot) selectCandidate(ctx context.Context) (source.Candidate, error) {
	candidates, err := b.deps.Source.Fetch(ctx)
	if err != nil {
		return source.Candidate{}, fmt.Errorf("fetching candidates: %w", err)
	}
	if len(candidates) == 0 {
		return source.Candidate{}, ErrNoCandidates
	}

	cooldown := time.Duration(b.deps.Config.Promotion.CooldownDays) * 24 * time.Hour
	excluded, err := b.deps.DB.RecentlyPromoted(cooldown)
	if err != nil {
		return source.Candidate{}, fmt.Errorf("reading promotion history: %w", err)
	}

	pool := selection.Eligible(candidates, excluded)
	if len(pool) == 0 && len(excluded) > 0 {
		log.Printf("All %d candidates within cooldown, re-opening full pool", len(candidates))
		pool = candidates
	}

	picked, ok := selection.Pick(b.rng, pool)
	if !ok {
		return source.Candidate{}, ErrNoCandidates
	}
	return picked, nil
}

// enrich scrapes the live page for a better title and summary. Scrape
// failures fall back to what the source already knew.
func (b *Bot) enrich(ctx context.Context, c source.Candidate) draft.Item {
	item := draft.Item{
		URL:     c.URL,
		Title:   c.Title,
		Kind:    c.Kind,
		Summary: c.Summary,
		LastMod: c.LastMod,
	}

	if b.deps.Scraper == nil {
		return item
	}

	content, err := b.deps.Scraper.Fetch(ctx, c.URL)
	if err != nil {
		log.Printf("Scrape failed for %s, using source metadata: %v", c.URL, err)
		return item
	}
	if content.Title != "" {
		item.Title = content.Title
	}
	if content.Summary != "" {
		item.Summary = content.Summary
	}
	item.Tags = content.Tags
	return item
}

func (b *Bot) previousTexts(url string) ([]string, error) {
	limit := b.deps.Config.Promotion.MaxPreviousTexts
	prev, err := b.deps.DB.PreviousTexts(url, limit)
	if err != nil {
		return nil, fmt.Errorf("reading previous texts: %w", err)
	}

	texts := make([]string, len(prev))
	for i, p := range prev {
		texts[i] = p.Text
	}
	return texts, nil
}

// captureImage finds something visual to attach: a screenshot of the
// configured selectors for listing pages, falling back to the candidate's
// featured image when the render service is absent or fails. Any failure
// degrades to no image.
func (b *Bot) captureImage(ctx context.Context, c source.Candidate) []byte {
	if b.deps.Shots != nil && b.deps.Shots.Enabled() && c.Kind == source.KindListing {
		if selectors := b.deps.Config.Screenshots.Selectors; len(selectors) > 0 {
			img, sel, err := b.deps.Shots.CaptureFirst(ctx, c.URL, selectors)
			if err == nil {
				log.Printf("Captured screenshot of %s via %s", c.URL, sel)
				return img
			}
			log.Printf("Screenshot failed for %s, trying featured image: %v", c.URL, err)
		}
	}
	return b.fetchFeaturedImage(ctx, c.ImageURL)
}

// fetchFeaturedImage downloads the image the source named for the page,
// if any.
func (b *Bot) fetchFeaturedImage(ctx context.Context, imageURL string) []byte {
	if imageURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		log.Printf("Bad featured image URL %s: %v", imageURL, err)
		return nil
	}
	resp, err := b.imageClient.Do(req)
	if err != nil {
		log.Printf("Featured image fetch failed for %s, posting without image: %v", imageURL, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Featured image fetch for %s returned %d, posting without image", imageURL, resp.StatusCode)
		return nil
	}
	img, err := io.ReadAll(io.LimitReader(resp.Body, maxFeaturedImageBytes+1))
	if err != nil || len(img) == 0 || len(img) > maxFeaturedImageBytes {
		log.Printf("Featured image %s unusable, posting without image", imageURL)
		return nil
	}
	log.Printf("Attached featured image %s (%d bytes)", imageURL, len(img))
	return img
}
