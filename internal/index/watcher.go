package index

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/linkfinder/internal/debounce"
)

// Change kinds reported to an EventCallback.
const (
	EventIndexed = "indexed"
	EventRemoved = "removed"
	EventRenamed = "renamed"
)

// EventCallback is called after a watcher-driven index change. For
// EventRenamed, path is the new path and oldPath the previous one; otherwise
// oldPath is empty.
type EventCallback func(kind, path, oldPath string)

// WatchOptions tunes the watcher.
type WatchOptions struct {
	// Debounce collapses bursts of writes to one document into a single
	// re-scan.
	Debounce time.Duration
	// RenameWindow is how long a rename of a document waits for the matching
	// create of its new path before it is treated as a delete.
	RenameWindow time.Duration
}

func (o WatchOptions) withDefaults() WatchOptions {
	if o.Debounce <= 0 {
		o.Debounce = 300 * time.Millisecond
	}
	if o.RenameWindow <= 0 {
		o.RenameWindow = 200 * time.Millisecond
	}
	return o
}

// Watch starts an fsnotify watcher on the vault root and feeds document
// changes into b until ctx is cancelled:
//   - create/write schedule a debounced re-scan of that document only
//   - remove cancels any pending re-scan and drops the document
//   - rename(old) followed by create(new) within the rename window moves the
//     document's entries to the new path, then re-scans it, when new has the
//     same base name or the same content as old
//
// New directories created at runtime are added to the watch list.
func Watch(ctx context.Context, b *Builder, vaultRoot string, opts WatchOptions, logger *slog.Logger, cb EventCallback) error {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	if cb == nil {
		cb = func(string, string, string) {}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root, err := filepath.Abs(vaultRoot)
	if err != nil {
		return err
	}
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	deb := debounce.New(opts.Debounce)
	defer deb.Stop()

	logger.Info("watcher: started", slog.String("root", root))

	rescan := func(rel string) {
		deb.Schedule(rel, func() {
			changed, err := b.IndexDocument(rel)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				if b.RemoveDocument(rel) > 0 {
					cb(EventRemoved, rel, "")
				}
			case err != nil:
				logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
			case changed:
				cb(EventIndexed, rel, "")
			}
		})
	}

	// A rename arrives as Rename(old) then Create(new). Only the most recent
	// old path is held; an older unpaired one is flushed as a delete.
	var (
		renameFrom  string
		renameTimer *time.Timer
		renameCh    <-chan time.Time
	)
	flushRename := func() {
		if renameFrom == "" {
			return
		}
		old := renameFrom
		renameFrom = ""
		if b.RemoveDocument(old) > 0 {
			logger.Debug("watcher: rename without target, removed", slog.String("path", old))
			cb(EventRemoved, old, "")
		}
	}
	holdRename := func(rel string) {
		flushRename()
		renameFrom = rel
		if renameTimer == nil {
			renameTimer = time.NewTimer(opts.RenameWindow)
			renameCh = renameTimer.C
		} else {
			renameTimer.Reset(opts.RenameWindow)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if renameTimer != nil {
				renameTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-renameCh:
			flushRename()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					for _, rel := range indexableUnder(b, root, absPath) {
						rescan(rel)
					}
					continue
				}
			}

			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			if !b.Indexable(rel) {
				// A directory moved or deleted takes its documents with it.
				if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					for _, p := range b.TrackedUnder(rel) {
						deb.Cancel(p)
						if b.RemoveDocument(p) > 0 {
							cb(EventRemoved, p, "")
						}
					}
				}
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				// An unrelated create leaves the held rename to expire.
				if renameFrom != "" && renameFrom != rel && b.SameDocument(renameFrom, rel) {
					old := renameFrom
					renameFrom = ""
					deb.Cancel(old)
					b.RenameDocument(rel, old)
					cb(EventRenamed, rel, old)
				}
				rescan(rel)

			case ev.Op&fsnotify.Write != 0:
				rescan(rel)

			case ev.Op&fsnotify.Remove != 0:
				deb.Cancel(rel)
				if b.RemoveDocument(rel) > 0 {
					cb(EventRemoved, rel, "")
				}

			case ev.Op&fsnotify.Rename != 0:
				deb.Cancel(rel)
				holdRename(rel)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// indexableUnder lists the text documents inside a newly created directory,
// relative to root.
func indexableUnder(b *Builder, root, dir string) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !b.Indexable(path) {
			return nil
		}
		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			out = append(out, rel)
		}
		return nil
	})
	return out
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
