package selection

import (
	"math/rand"
	"testing"

	"github.com/pikeandvine/tweetbot/internal/source"
)

func candidates(urls ...string) []source.Candidate {
	out := make([]source.Candidate, len(urls))
	for i, u := range urls {
		out[i] = source.Candidate{URL: u, Kind: source.KindBlog}
	}
	return out
}

func exclude(urls ...string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, u := range urls {
		out[u] = struct{}{}
	}
	return out
}

func TestEligiblePreservesOrder(t *testing.T) {
	all := candidates("/a", "/b", "/c", "/d")

	got := Eligible(all, exclude("/b"))
	if len(got) != 3 {
		t.Fatalf("expected 3 eligible, got %d", len(got))
	}
	for i, want := range []string{"/a", "/c", "/d"} {
		if got[i].URL != want {
			t.Errorf("position %d: got %s, want %s", i, got[i].URL, want)
		}
	}
}

func TestEligibleNoExclusions(t *testing.T) {
	all := candidates("/a", "/b")
	got := Eligible(all, nil)
	if len(got) != 2 {
		t.Errorf("expected all candidates eligible, got %d", len(got))
	}
}

func TestExhaustionFallback(t *testing.T) {
	// Everything excluded: the filter returns nothing, and the caller is
	// expected to widen back to the full pool.
	all := candidates("/a", "/b")
	excluded := exclude("/a", "/b")

	eligible := Eligible(all, excluded)
	if len(eligible) != 0 {
		t.Fatalf("expected empty eligible set, got %d", len(eligible))
	}

	pool := eligible
	if len(pool) == 0 && len(excluded) > 0 {
		pool = all
	}
	if len(pool) != 2 {
		t.Fatalf("expected fallback to full pool, got %d", len(pool))
	}
}

func TestSingleEligibleCandidate(t *testing.T) {
	// /a promoted recently, only /b remains; Pick has no choice to make.
	all := candidates("/a", "/b")
	eligible := Eligible(all, exclude("/a"))

	rng := rand.New(rand.NewSource(1))
	picked, ok := Pick(rng, eligible)
	if !ok {
		t.Fatal("expected a pick")
	}
	if picked.URL != "/b" {
		t.Errorf("expected /b, got %s", picked.URL)
	}
}

func TestPickEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, ok := Pick(rng, nil); ok {
		t.Error("expected no pick from empty slice")
	}
}

func TestPickUniform(t *testing.T) {
	all := candidates("/a", "/b", "/c")
	rng := rand.New(rand.NewSource(42))

	seen := make(map[string]int)
	for i := 0; i < 300; i++ {
		c, _ := Pick(rng, all)
		seen[c.URL]++
	}
	for _, u := range []string{"/a", "/b", "/c"} {
		if seen[u] == 0 {
			t.Errorf("candidate %s never picked in 300 draws", u)
		}
	}
}
