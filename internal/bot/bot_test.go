package bot

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pikeandvine/tweetbot/internal/config"
	"github.com/pikeandvine/tweetbot/internal/database"
	"github.com/pikeandvine/tweetbot/internal/draft"
	"github.com/pikeandvine/tweetbot/internal/source"
)

type fakeSource struct {
	candidates []source.Candidate
	err        error
}

func (f *fakeSource) Fetch(ctx context.Context) ([]source.Candidate, error) {
	return f.candidates, f.err
}

type fakeProvider struct {
	text string
	err  error
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return f.text, f.err
}

func (f *fakeProvider) IsConfigured() bool { return true }

type fakePublisher struct {
	id    string
	err   error
	calls int
	text  string
	image []byte
}

func (f *fakePublisher) Publish(ctx context.Context, text string, image []byte) (string, error) {
	f.calls++
	f.text = text
	f.image = image
	return f.id, f.err
}

func candidates(urls ...string) []source.Candidate {
	out := make([]source.Candidate, len(urls))
	for i, u := range urls {
		out[i] = source.Candidate{URL: u, Title: "Page " + u, Kind: source.KindBlog}
	}
	return out
}

func testBot(t *testing.T, src source.Source, pub *fakePublisher, provider *fakeProvider) (*Bot, *database.DB) {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Promotion: config.Promotion{CooldownDays: 30, MaxPreviousTexts: 3},
	}

	b := New(Deps{
		Config:    cfg,
		DB:        db,
		Source:    src,
		Drafter:   draft.New(provider, "Pike & Vine", "a wine country guide", 150),
		Publisher: pub,
	})
	b.SetRand(rand.New(rand.NewSource(1)))
	return b, db
}

func TestRunCooldownExcludesRecent(t *testing.T) {
	src := &fakeSource{candidates: candidates("https://example.com/a", "https://example.com/b")}
	pub := &fakePublisher{id: "100"}
	b, db := testBot(t, src, pub, &fakeProvider{text: "a tweet"})

	// /a was promoted just now: only /b is eligible, so selection has no
	// randomness left.
	extID := "99"
	if err := db.Record("https://example.com/a", "Page a", "old text", &extID, nil, true, nil); err != nil {
		t.Fatal(err)
	}

	result, err := b.Run(context.Background(), Options{Force: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.URL != "https://example.com/b" {
		t.Errorf("expected /b selected, got %s", result.URL)
	}
	if pub.calls != 1 {
		t.Errorf("expected one publish call, got %d", pub.calls)
	}
	if !strings.Contains(pub.text, "https://example.com/b") {
		t.Errorf("published text missing URL: %q", pub.text)
	}

	post, _ := db.GetPost("https://example.com/b")
	if post == nil || post.PromotionCount != 1 {
		t.Error("expected promotion recorded for /b")
	}
}

func TestRunExhaustionFallback(t *testing.T) {
	src := &fakeSource{candidates: candidates("https://example.com/a", "https://example.com/b")}
	pub := &fakePublisher{id: "100"}
	b, db := testBot(t, src, pub, &fakeProvider{text: "a tweet"})

	// Everything inside the cooldown: the pool re-opens instead of failing.
	for _, u := range []string{"https://example.com/a", "https://example.com/b"} {
		if err := db.Record(u, "t", "text", nil, nil, true, nil); err != nil {
			t.Fatal(err)
		}
	}

	result, err := b.Run(context.Background(), Options{Force: true})
	if err != nil {
		t.Fatalf("expected exhaustion fallback, got error: %v", err)
	}
	if result.URL == "" {
		t.Error("expected a candidate promoted from the re-opened pool")
	}
}

func TestRunSourceFetchError(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	pub := &fakePublisher{id: "100"}
	b, db := testBot(t, src, pub, &fakeProvider{text: "a tweet"})

	_, err := b.Run(context.Background(), Options{Force: true})
	if err == nil {
		t.Fatal("expected source fetch error")
	}
	if pub.calls != 0 {
		t.Error("nothing should be published on source failure")
	}

	stats, _ := db.GetStats()
	if stats.TotalPosts != 0 {
		t.Error("no history write expected on source failure")
	}
}

func TestRunEmptyCandidateList(t *testing.T) {
	src := &fakeSource{}
	b, _ := testBot(t, src, &fakePublisher{}, &fakeProvider{text: "a tweet"})

	_, err := b.Run(context.Background(), Options{Force: true})
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}

func TestRunDraftingFailureNoHistoryWrite(t *testing.T) {
	src := &fakeSource{candidates: candidates("https://example.com/a")}
	pub := &fakePublisher{id: "100"}
	b, db := testBot(t, src, pub, &fakeProvider{err: errors.New("api down")})

	_, err := b.Run(context.Background(), Options{Force: true})
	if err == nil {
		t.Fatal("expected drafting error")
	}
	if pub.calls != 0 {
		t.Error("nothing should be published on drafting failure")
	}

	stats, _ := db.GetStats()
	if stats.TotalPosts != 0 {
		t.Error("drafting failure must leave no history")
	}
}

func TestRunPublishFailureRecorded(t *testing.T) {
	src := &fakeSource{candidates: candidates("https://example.com/a")}
	pub := &fakePublisher{err: errors.New("twitter 403")}
	b, db := testBot(t, src, pub, &fakeProvider{text: "a tweet"})

	_, err := b.Run(context.Background(), Options{Force: true})
	if err == nil {
		t.Fatal("expected publish error")
	}

	events, _ := db.EventsForURL("https://example.com/a")
	if len(events) != 1 {
		t.Fatalf("expected failed attempt in history, got %d events", len(events))
	}
	if events[0].Success {
		t.Error("expected success=false")
	}
	if events[0].ErrorMessage == nil || !strings.Contains(*events[0].ErrorMessage, "twitter 403") {
		t.Error("expected error message recorded")
	}
	if events[0].ExternalID != nil {
		t.Error("expected nil external id for failed publish")
	}
}

func TestRunDryRunRecordsNullExternalID(t *testing.T) {
	src := &fakeSource{candidates: candidates("https://example.com/a")}
	pub := &fakePublisher{id: ""} // dry-run publisher returns empty id
	b, db := testBot(t, src, pub, &fakeProvider{text: "a tweet"})

	result, err := b.Run(context.Background(), Options{Force: true, DryRun: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExternalID != "" {
		t.Errorf("expected empty external id, got %q", result.ExternalID)
	}

	events, _ := db.EventsForURL("https://example.com/a")
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ExternalID != nil {
		t.Error("expected NULL external id for dry run")
	}
	if !events[0].Success {
		t.Error("dry run records a successful event")
	}
}

func TestRunFeaturedImageWithoutScreenshots(t *testing.T) {
	png := []byte("\x89PNG fake image bytes")
	imgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(png)
	}))
	defer imgSrv.Close()

	// No render service configured: the source's featured image is the
	// only visual available and must reach the publisher.
	src := &fakeSource{candidates: []source.Candidate{{
		URL:      "https://example.com/a",
		Title:    "Page a",
		Kind:     source.KindBlog,
		ImageURL: imgSrv.URL + "/featured.png",
	}}}
	pub := &fakePublisher{id: "100"}
	b, _ := testBot(t, src, pub, &fakeProvider{text: "a tweet"})

	if _, err := b.Run(context.Background(), Options{Force: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.calls != 1 {
		t.Fatalf("expected one publish call, got %d", pub.calls)
	}
	if !bytes.Equal(pub.image, png) {
		t.Errorf("expected featured image bytes attached, got %d bytes", len(pub.image))
	}
}

func TestRunFeaturedImageFetchFailureDegrades(t *testing.T) {
	imgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer imgSrv.Close()

	src := &fakeSource{candidates: []source.Candidate{{
		URL:      "https://example.com/a",
		Title:    "Page a",
		Kind:     source.KindBlog,
		ImageURL: imgSrv.URL + "/gone.png",
	}}}
	pub := &fakePublisher{id: "100"}
	b, db := testBot(t, src, pub, &fakeProvider{text: "a tweet"})

	result, err := b.Run(context.Background(), Options{Force: true})
	if err != nil {
		t.Fatalf("image failure must not fail the run: %v", err)
	}
	if pub.image != nil {
		t.Error("expected text-only publish when the image fetch fails")
	}

	post, _ := db.GetPost(result.URL)
	if post == nil || post.PromotionCount != 1 {
		t.Error("expected promotion recorded despite image failure")
	}
}

func TestRunPreviousTextsReachDrafter(t *testing.T) {
	src := &fakeSource{candidates: candidates("https://example.com/a")}
	pub := &fakePublisher{id: "2"}
	provider := &fakeProvider{text: "second angle entirely"}
	b, db := testBot(t, src, pub, provider)

	// Prior promotion within cooldown; exhaustion fallback re-opens the
	// pool and the previous text must show up in the new event chain.
	extID := "1"
	if err := db.Record("https://example.com/a", "Page a", "first angle", &extID, nil, true, nil); err != nil {
		t.Fatal(err)
	}

	result, err := b.Run(context.Background(), Options{Force: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.URL != "https://example.com/a" {
		t.Fatalf("unexpected selection %s", result.URL)
	}

	post, _ := db.GetPost("https://example.com/a")
	if post.PromotionCount != 2 {
		t.Errorf("expected promotion_count 2, got %d", post.PromotionCount)
	}
	texts, _ := db.PreviousTexts("https://example.com/a", 3)
	if len(texts) != 2 {
		t.Errorf("expected both texts in history, got %d", len(texts))
	}
}
