// Package selection filters candidates against the cooldown exclusion set
// and picks one at random.
package selection

import (
	"math/rand"

	"github.com/pikeandvine/tweetbot/internal/source"
)

// Eligible returns the candidates whose URL is not in excluded, preserving
// input order. Pure set difference; the exhaustion fallback (re-widening to
// all candidates when everything is excluded) is the caller's decision.
func Eligible(candidates []source.Candidate, excluded map[string]struct{}) []source.Candidate {
	var eligible []source.Candidate
	for _, c := range candidates {
		if _, ok := excluded[c.URL]; ok {
			continue
		}
		eligible = append(eligible, c)
	}
	return eligible
}

// Pick draws one candidate uniformly at random. Returns false when the
// slice is empty.
func Pick(rng *rand.Rand, candidates []source.Candidate) (source.Candidate, bool) {
	if len(candidates) == 0 {
		return source.Candidate{}, false
	}
	return candidates[rng.Intn(len(candidates))], true
}
