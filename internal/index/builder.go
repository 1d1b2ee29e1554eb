package index

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/linkfinder/internal/checksum"
	"github.com/starford/linkfinder/internal/parser"
	"github.com/starford/linkfinder/internal/storage"
)

// Builder keeps an Index in step with the documents of a storage.Provider.
// It remembers the checksum each document was last indexed at so repeated
// change notifications for unchanged content are cheap.
type Builder struct {
	idx    *Index
	store  storage.Provider
	exts   []string
	logger *slog.Logger

	building atomic.Bool

	mu        sync.Mutex
	checksums map[string]string
}

// NewBuilder creates a Builder that indexes documents with one of exts
// (nil means parser.DefaultExtensions).
func NewBuilder(idx *Index, store storage.Provider, exts []string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		idx:       idx,
		store:     store,
		exts:      exts,
		logger:    logger,
		checksums: make(map[string]string),
	}
}

// Index returns the index this builder maintains.
func (b *Builder) Index() *Index { return b.idx }

// Indexable reports whether path is a text document this builder handles.
func (b *Builder) Indexable(path string) bool {
	return parser.IsIndexable(path, b.exts)
}

// Building reports whether a rebuild is in progress.
func (b *Builder) Building() bool { return b.building.Load() }

// Rebuild clears the index and repopulates it from every document in the
// store. Only one rebuild runs at a time: a call made while another is in
// flight returns false immediately without doing anything. Queries running
// concurrently may observe a partially built index.
func (b *Builder) Rebuild(ctx context.Context) (bool, error) {
	if !b.building.CompareAndSwap(false, true) {
		b.logger.Debug("rebuild: already in progress, dropped")
		return false, nil
	}
	defer b.building.Store(false)

	start := time.Now()
	metas, err := b.store.List("")
	if err != nil {
		return true, fmt.Errorf("index: rebuild: %w", err)
	}

	b.idx.Reset()
	b.mu.Lock()
	b.checksums = make(map[string]string, len(metas))
	b.mu.Unlock()

	docs := 0
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return true, err
		}
		if !b.Indexable(m.Path) {
			continue
		}
		data, err := b.store.Read(m.Path)
		if err != nil {
			b.logger.Warn("rebuild: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		b.idx.AddDocument(DocumentEntries(m.Path, parser.Parse(m.Path, data)))
		b.setChecksum(m.Path, checksum.Sum(data))
		docs++
	}

	b.logger.Info("rebuild: done",
		slog.Int("documents", docs),
		slog.Int("keys", b.idx.Len()),
		slog.Duration("took", time.Since(start)))
	return true, nil
}

// IndexDocument re-scans one document: its entries are removed and created
// again from fresh metadata. Unchanged content and non-text paths are
// skipped. It reports whether the index changed.
func (b *Builder) IndexDocument(path string) (bool, error) {
	if !b.Indexable(path) {
		return false, nil
	}
	data, err := b.store.Read(path)
	if err != nil {
		return false, err
	}
	return b.IndexContent(path, data), nil
}

// IndexContent indexes data as the current content of path.
func (b *Builder) IndexContent(path string, data []byte) bool {
	if !b.Indexable(path) {
		return false
	}
	sum := checksum.Sum(data)
	b.mu.Lock()
	unchanged := b.checksums[path] == sum
	b.mu.Unlock()
	if unchanged {
		return false
	}

	removed, added := b.idx.ReplaceDocument(path, DocumentEntries(path, parser.Parse(path, data)))
	b.setChecksum(path, sum)
	b.logger.Debug("index: document scanned",
		slog.String("path", path),
		slog.Int("removed", removed),
		slog.Int("added", added))
	return true
}

// RemoveDocument drops every entry of path.
func (b *Builder) RemoveDocument(path string) int {
	b.mu.Lock()
	delete(b.checksums, path)
	b.mu.Unlock()

	n := b.idx.RemoveDocument(path)
	b.logger.Debug("index: document removed", slog.String("path", path), slog.Int("entries", n))
	return n
}

// RenameDocument moves the entries of oldPath to newPath. The stored checksum
// is dropped so the next IndexDocument(newPath) re-scans and refreshes
// titles derived from the old path.
func (b *Builder) RenameDocument(newPath, oldPath string) int {
	b.mu.Lock()
	delete(b.checksums, oldPath)
	delete(b.checksums, newPath)
	b.mu.Unlock()

	n := b.idx.RenameDocument(newPath, parser.TitleFromPath(newPath), oldPath)
	b.logger.Debug("index: document renamed",
		slog.String("old_path", oldPath),
		slog.String("new_path", newPath),
		slog.Int("entries", n))
	return n
}

// SameDocument reports whether newPath looks like oldPath after a move or
// rename: the base names are equal, or newPath holds the content oldPath was
// last indexed with.
func (b *Builder) SameDocument(oldPath, newPath string) bool {
	if filepath.Base(oldPath) == filepath.Base(newPath) {
		return true
	}
	b.mu.Lock()
	want, ok := b.checksums[oldPath]
	b.mu.Unlock()
	if !ok {
		return false
	}
	data, err := b.store.Read(newPath)
	if err != nil {
		return false
	}
	return checksum.Sum(data) == want
}

// Documents returns the number of documents currently tracked.
func (b *Builder) Documents() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.checksums)
}

// TrackedUnder returns the tracked documents located below dir.
func (b *Builder) TrackedUnder(dir string) []string {
	prefix := strings.TrimSuffix(filepath.ToSlash(dir), "/") + "/"
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for p := range b.checksums {
		if strings.HasPrefix(filepath.ToSlash(p), prefix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (b *Builder) setChecksum(path, sum string) {
	b.mu.Lock()
	b.checksums[path] = sum
	b.mu.Unlock()
}
