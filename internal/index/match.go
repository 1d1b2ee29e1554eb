package index

import (
	"errors"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/starford/linkfinder/internal/models"
	"github.com/starford/linkfinder/internal/normalize"
)

// MaxResults is the hard cap on matches returned by Query.
const MaxResults = 100

// Tier scores. Every exact match ranks before every fuzzy match.
const (
	ScoreExact = 0.0
	ScoreFuzzy = 0.5
)

var errStopVisit = errors.New("index: stop visit")

// Query normalizes raw and returns the entries whose keys start with it
// (exact tier) followed by those whose keys contain it as a subsequence
// (fuzzy tier). Within a tier, entries keep index iteration order. Results
// are deduplicated by entry identity, first occurrence winning, and capped.
// An empty normalized query matches nothing.
func (ix *Index) Query(raw string) []models.Match {
	q := normalize.Key(raw)
	if q == "" {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	limit := ix.maxResults
	out := make([]models.Match, 0, 16)
	seen := make(map[models.EntryID]struct{})

	collect := func(item patricia.Item, score float64) error {
		entries, _ := item.([]models.Entry)
		for _, e := range entries {
			id := e.ID()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, models.Match{Entry: e, Score: score})
			if len(out) >= limit {
				return errStopVisit
			}
		}
		return nil
	}

	err := ix.trie.VisitSubtree(patricia.Prefix(q), func(_ patricia.Prefix, item patricia.Item) error {
		return collect(item, ScoreExact)
	})
	if errors.Is(err, errStopVisit) {
		return out
	}

	qr := []rune(q)
	if len(qr) < ix.fuzzyMinLength {
		return out
	}
	_ = ix.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		key := string(p)
		// Prefix keys were fully collected by the exact tier.
		if strings.HasPrefix(key, q) || !isSubsequence(qr, key) {
			return nil
		}
		return collect(item, ScoreFuzzy)
	})
	return out
}

// HasMatch reports whether raw would produce at least one Query result
// without materializing the result list.
func (ix *Index) HasMatch(raw string) bool {
	q := normalize.Key(raw)
	if q == "" {
		return false
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	found := false
	stop := func(_ patricia.Prefix, _ patricia.Item) error {
		found = true
		return errStopVisit
	}
	_ = ix.trie.VisitSubtree(patricia.Prefix(q), stop)
	if found {
		return true
	}
	qr := []rune(q)
	if len(qr) < ix.fuzzyMinLength {
		return false
	}
	_ = ix.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		if isSubsequence(qr, string(p)) {
			return stop(p, item)
		}
		return nil
	})
	return found
}

// isSubsequence reports whether every rune of q occurs in key in order, each
// match consuming the key up to and including the matched rune.
func isSubsequence(q []rune, key string) bool {
	if len(q) == 0 {
		return false
	}
	i := 0
	for _, r := range key {
		if r == q[i] {
			i++
			if i == len(q) {
				return true
			}
		}
	}
	return false
}
