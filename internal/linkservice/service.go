// Package linkservice ties the index, the phrase resolver and link
// construction to vault storage for the HTTP and MCP transports.
package linkservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/starford/linkfinder/internal/apperr"
	"github.com/starford/linkfinder/internal/checksum"
	"github.com/starford/linkfinder/internal/index"
	"github.com/starford/linkfinder/internal/models"
	"github.com/starford/linkfinder/internal/phrase"
	"github.com/starford/linkfinder/internal/storage"
	"github.com/starford/linkfinder/internal/wikilink"
)

// Suggestion is a resolved span together with the matches for its text.
type Suggestion struct {
	Span    phrase.Span    `json:"span"`
	Matches []models.Match `json:"matches"`
}

// ApplyRequest describes a link to write into a document.
type ApplyRequest struct {
	Path string
	// Line is 1-based.
	Line int
	// Start and End are rune offsets within the line, End exclusive.
	Start, End int
	Entry      models.EntryID
	// Label defaults to the replaced text.
	Label string
	// IfMatch, when set, must equal the document's current checksum.
	IfMatch string
}

// ApplyResult reports a written link.
type ApplyResult struct {
	Path     string `json:"path"`
	Link     string `json:"link"`
	Line     string `json:"line"`
	Checksum string `json:"checksum"`
}

// Stats summarises the index.
type Stats struct {
	Documents int  `json:"documents"`
	Keys      int  `json:"keys"`
	Building  bool `json:"building"`
}

// Service coordinates storage and index operations.
type Service struct {
	store    storage.Provider
	builder  *index.Builder
	resolver *phrase.Resolver
}

// NewService creates a new link service.
func NewService(store storage.Provider, b *index.Builder) *Service {
	return &Service{
		store:    store,
		builder:  b,
		resolver: phrase.New(b.Index()),
	}
}

// Query returns the ranked matches for text.
func (s *Service) Query(_ context.Context, text string) []models.Match {
	return nonNilSlice(s.builder.Index().Query(text))
}

// Resolve finds the span to link around cursor.
func (s *Service) Resolve(_ context.Context, line string, cursor int) (phrase.Span, bool) {
	return s.resolver.Resolve(line, cursor)
}

// Suggest resolves the span around cursor and queries its text.
func (s *Service) Suggest(ctx context.Context, line string, cursor int) (*Suggestion, bool) {
	span, ok := s.Resolve(ctx, line, cursor)
	if !ok {
		return nil, false
	}
	return &Suggestion{Span: span, Matches: s.Query(ctx, span.Text)}, true
}

// FormatLink builds the link for the indexed entry id labelled with label.
func (s *Service) FormatLink(_ context.Context, id models.EntryID, label string) (string, error) {
	e, ok := s.builder.Index().Entry(id)
	if !ok {
		return "", apperr.ErrUnknownEntry
	}
	return wikilink.Build(e, label), nil
}

// ApplyLink replaces a span of one line of a document with a link to an
// indexed entry, then re-indexes the document.
func (s *Service) ApplyLink(_ context.Context, req ApplyRequest) (*ApplyResult, error) {
	e, ok := s.builder.Index().Entry(req.Entry)
	if !ok {
		return nil, apperr.ErrUnknownEntry
	}

	existing, err := s.store.Read(req.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if !checksum.Matches(existing, req.IfMatch) {
		return nil, apperr.ErrConflict
	}

	lines := strings.Split(string(existing), "\n")
	if req.Line < 1 || req.Line > len(lines) {
		return nil, fmt.Errorf("%w: line %d out of range", apperr.ErrInvalidSpan, req.Line)
	}
	runes := []rune(strings.TrimSuffix(lines[req.Line-1], "\r"))
	if req.Start < 0 || req.End > len(runes) || req.Start >= req.End {
		return nil, fmt.Errorf("%w: [%d,%d) on a line of %d characters", apperr.ErrInvalidSpan, req.Start, req.End, len(runes))
	}

	for _, l := range wikilink.FindAll(string(runes)) {
		if req.Start < l.End && l.Start < req.End {
			return nil, fmt.Errorf("%w: [%d,%d) overlaps link %s", apperr.ErrInvalidSpan, req.Start, req.End, l.String())
		}
	}

	label := req.Label
	if label == "" {
		label = string(runes[req.Start:req.End])
	}
	link := wikilink.Build(e, label)

	newLine := string(runes[:req.Start]) + link + string(runes[req.End:])
	if strings.HasSuffix(lines[req.Line-1], "\r") {
		lines[req.Line-1] = newLine + "\r"
	} else {
		lines[req.Line-1] = newLine
	}
	content := []byte(strings.Join(lines, "\n"))

	if err := s.store.Write(req.Path, content); err != nil {
		return nil, err
	}
	s.builder.IndexContent(req.Path, content)

	return &ApplyResult{
		Path:     req.Path,
		Link:     link,
		Line:     newLine,
		Checksum: checksum.Sum(content),
	}, nil
}

// Rebuild repopulates the index from the vault. It reports false when a
// rebuild was already running.
func (s *Service) Rebuild(ctx context.Context) (bool, error) {
	return s.builder.Rebuild(ctx)
}

// Stats returns index counters.
func (s *Service) Stats() Stats {
	return Stats{
		Documents: s.builder.Documents(),
		Keys:      s.builder.Index().Len(),
		Building:  s.builder.Building(),
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
