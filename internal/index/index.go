// Package index maintains the in-memory lexical index of linkable entries and
// answers ranked queries against it.
package index

import (
	"sync"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/starford/linkfinder/internal/models"
	"github.com/starford/linkfinder/internal/normalize"
)

// Index maps normalized keys to the ordered, deduplicated entries that
// produced them. Each key's entry slice is replaced wholesale on mutation and
// never modified in place, so readers may keep a slice after unlocking.
//
// Index is safe for concurrent use. Mutations are serialized; queries hold
// the read lock only for the duration of one traversal.
type Index struct {
	mu   sync.RWMutex
	trie *patricia.Trie
	keys int

	maxResults     int
	fuzzyMinLength int
}

// New creates an empty index.
func New(opts ...Option) *Index {
	ix := &Index{
		trie:       patricia.NewTrie(),
		maxResults: MaxResults,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Insert normalizes key and appends e to that key's entries unless an entry
// with the same identity is already present. It reports whether e was added.
// Keys that normalize to nothing are ignored.
func (ix *Index) Insert(key string, e models.Entry) bool {
	k := normalize.Key(key)
	if k == "" {
		return false
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.insertLocked(k, e)
}

func (ix *Index) insertLocked(k string, e models.Entry) bool {
	p := patricia.Prefix(k)
	cur, _ := ix.trie.Get(p).([]models.Entry)
	id := e.ID()
	for _, have := range cur {
		if have.ID() == id {
			return false
		}
	}
	next := make([]models.Entry, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, e)
	if cur == nil {
		ix.keys++
	}
	ix.trie.Set(p, next)
	return true
}

// AddDocument inserts every keyed entry of one document.
func (ix *Index) AddDocument(entries []KeyedEntry) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.addLocked(entries)
}

func (ix *Index) addLocked(entries []KeyedEntry) int {
	added := 0
	for _, ke := range entries {
		k := normalize.Key(ke.Key)
		if k == "" {
			continue
		}
		if ix.insertLocked(k, ke.Entry) {
			added++
		}
	}
	return added
}

// ReplaceDocument removes every entry of path and inserts entries in a
// single critical section, so readers never observe the document half
// re-scanned.
func (ix *Index) ReplaceDocument(path string, entries []KeyedEntry) (removed, added int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	removed = ix.removeLocked(path)
	added = ix.addLocked(entries)
	return removed, added
}

// RemoveDocument drops every entry whose source is path. Keys left without
// entries are deleted. It returns the number of entries removed.
func (ix *Index) RemoveDocument(path string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.removeLocked(path)
}

func (ix *Index) removeLocked(path string) int {
	removed := 0
	updates := ix.rewriteLocked(func(cur []models.Entry) ([]models.Entry, bool) {
		n := 0
		for _, e := range cur {
			if e.SourcePath == path {
				n++
			}
		}
		if n == 0 {
			return nil, false
		}
		removed += n
		next := make([]models.Entry, 0, len(cur)-n)
		for _, e := range cur {
			if e.SourcePath != path {
				next = append(next, e)
			}
		}
		return next, true
	})
	ix.applyLocked(updates)
	return removed
}

// RenameDocument rewrites SourcePath and SourceTitle on every entry of
// oldPath, keeping each entry's position within its key. An entry that would
// collide with an identical one already present under the same key is
// dropped. It returns the number of entries rewritten.
func (ix *Index) RenameDocument(newPath, newTitle, oldPath string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	renamed := 0
	updates := ix.rewriteLocked(func(cur []models.Entry) ([]models.Entry, bool) {
		touched := false
		for _, e := range cur {
			if e.SourcePath == oldPath {
				touched = true
				break
			}
		}
		if !touched {
			return nil, false
		}
		next := make([]models.Entry, 0, len(cur))
		seen := make(map[models.EntryID]struct{}, len(cur))
		for _, e := range cur {
			if e.SourcePath == oldPath {
				e.SourcePath = newPath
				e.SourceTitle = newTitle
				renamed++
			}
			if _, dup := seen[e.ID()]; dup {
				continue
			}
			seen[e.ID()] = struct{}{}
			next = append(next, e)
		}
		return next, true
	})
	ix.applyLocked(updates)
	return renamed
}

// Reset clears the index.
func (ix *Index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.trie = patricia.NewTrie()
	ix.keys = 0
}

// Len returns the number of keys.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.keys
}

// Lookup returns the entries stored under the normalized form of key.
func (ix *Index) Lookup(key string) []models.Entry {
	k := normalize.Key(key)
	if k == "" {
		return nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	cur, _ := ix.trie.Get(patricia.Prefix(k)).([]models.Entry)
	return cur
}

// Entry finds an entry by identity.
func (ix *Index) Entry(id models.EntryID) (models.Entry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var (
		found models.Entry
		ok    bool
	)
	_ = ix.trie.Visit(func(_ patricia.Prefix, item patricia.Item) error {
		for _, e := range item.([]models.Entry) {
			if e.ID() == id {
				found, ok = e, true
				return errStopVisit
			}
		}
		return nil
	})
	return found, ok
}

type keyUpdate struct {
	key     patricia.Prefix
	entries []models.Entry
}

// rewriteLocked visits every key and collects replacement slices. The trie is
// not modified during the walk; applyLocked installs the result afterwards.
func (ix *Index) rewriteLocked(fn func(cur []models.Entry) ([]models.Entry, bool)) []keyUpdate {
	var updates []keyUpdate
	_ = ix.trie.Visit(func(p patricia.Prefix, item patricia.Item) error {
		cur, _ := item.([]models.Entry)
		if next, changed := fn(cur); changed {
			key := make(patricia.Prefix, len(p))
			copy(key, p)
			updates = append(updates, keyUpdate{key: key, entries: next})
		}
		return nil
	})
	return updates
}

func (ix *Index) applyLocked(updates []keyUpdate) {
	for _, u := range updates {
		if len(u.entries) == 0 {
			if ix.trie.Delete(u.key) {
				ix.keys--
			}
			continue
		}
		ix.trie.Set(u.key, u.entries)
	}
}
