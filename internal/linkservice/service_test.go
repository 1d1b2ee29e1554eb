package linkservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/linkfinder/internal/apperr"
	"github.com/starford/linkfinder/internal/checksum"
	"github.com/starford/linkfinder/internal/models"
	"github.com/starford/linkfinder/internal/storage"
	"github.com/starford/linkfinder/internal/testutil"
)

var vault = map[string]string{
	"Roadmap.md": "---\ntags: planning\naliases: [Plan]\n---\n# Project Kickoff\nGoals for q3 ^q3-goals\n",
	"journal.md": "Meet the Project Kickoff team\nsecond line\n",
}

func setup(t *testing.T) (*Service, *storage.FS) {
	t.Helper()
	store, b := testutil.TestBuilder(t, vault)
	return NewService(store, b), store
}

var kickoffID = models.EntryID{Kind: models.KindHeading, SourcePath: "Roadmap.md", Target: "Project Kickoff"}

func TestQuery(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	got := svc.Query(ctx, "plan")
	ids := make([]models.EntryID, 0, len(got))
	for _, m := range got {
		assert.Equal(t, 0.0, m.Score, "every hit is a prefix match")
		ids = append(ids, m.ID())
	}
	assert.Contains(t, ids, models.EntryID{Kind: models.KindTitle, SourcePath: "Roadmap.md", Target: "Roadmap"}, "alias key")
	assert.Contains(t, ids, models.EntryID{Kind: models.KindTag, SourcePath: "Roadmap.md", Target: "planning"})

	assert.NotNil(t, svc.Query(ctx, "!!!"))
	assert.Empty(t, svc.Query(ctx, "!!!"))
}

func TestSuggest(t *testing.T) {
	svc, _ := setup(t)
	got, ok := svc.Suggest(context.Background(), "Meet the Project Kickoff team", 20)
	require.True(t, ok)
	assert.Equal(t, "Project Kickoff", got.Span.Text)
	require.NotEmpty(t, got.Matches)
	assert.Equal(t, kickoffID, got.Matches[0].ID())

	_, ok = svc.Suggest(context.Background(), "   ", 1)
	assert.False(t, ok)
}

func TestFormatLink(t *testing.T) {
	svc, _ := setup(t)
	link, err := svc.FormatLink(context.Background(), kickoffID, "the kickoff")
	require.NoError(t, err)
	assert.Equal(t, "[[Roadmap#Project Kickoff|the kickoff]]", link)

	_, err = svc.FormatLink(context.Background(), models.EntryID{Kind: models.KindTag, SourcePath: "x.md", Target: "x"}, "x")
	assert.ErrorIs(t, err, apperr.ErrUnknownEntry)
}

func TestApplyLink(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	before, _ := store.Read("journal.md")

	res, err := svc.ApplyLink(ctx, ApplyRequest{
		Path:    "journal.md",
		Line:    1,
		Start:   9,
		End:     24,
		Entry:   kickoffID,
		IfMatch: checksum.Sum(before),
	})
	require.NoError(t, err)
	assert.Equal(t, "[[Roadmap#Project Kickoff|Project Kickoff]]", res.Link)
	assert.Equal(t, "Meet the [[Roadmap#Project Kickoff|Project Kickoff]] team", res.Line)

	after, err := store.Read("journal.md")
	require.NoError(t, err)
	assert.Equal(t, "Meet the [[Roadmap#Project Kickoff|Project Kickoff]] team\nsecond line\n", string(after))
	assert.Equal(t, checksum.Sum(after), res.Checksum)
}

func TestApplyLink_RefusesSpanOverlappingLink(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	req := ApplyRequest{Path: "journal.md", Line: 1, Start: 9, End: 24, Entry: kickoffID}
	_, err := svc.ApplyLink(ctx, req)
	require.NoError(t, err)
	linked, _ := store.Read("journal.md")

	// "Meet the [[Roadmap#Project Kickoff|Project Kickoff]] team": the link spans [9,52).
	for _, span := range [][2]int{{9, 24}, {20, 30}, {50, 57}, {0, 10}} {
		req.Start, req.End = span[0], span[1]
		_, err := svc.ApplyLink(ctx, req)
		assert.ErrorIs(t, err, apperr.ErrInvalidSpan, "span %v", span)
	}
	unchanged, _ := store.Read("journal.md")
	assert.Equal(t, string(linked), string(unchanged))

	req.Start, req.End = 53, 57
	res, err := svc.ApplyLink(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Meet the [[Roadmap#Project Kickoff|Project Kickoff]] [[Roadmap#Project Kickoff|team]]", res.Line)
}

func TestApplyLink_Errors(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	base := ApplyRequest{Path: "journal.md", Line: 1, Start: 0, End: 4, Entry: kickoffID}

	tests := []struct {
		name string
		mod  func(r *ApplyRequest)
		want error
	}{
		{"stale checksum", func(r *ApplyRequest) { r.IfMatch = "stale" }, apperr.ErrConflict},
		{"missing document", func(r *ApplyRequest) { r.Path = "nope.md" }, apperr.ErrNotFound},
		{"unknown entry", func(r *ApplyRequest) { r.Entry.Target = "Nope" }, apperr.ErrUnknownEntry},
		{"line out of range", func(r *ApplyRequest) { r.Line = 10 }, apperr.ErrInvalidSpan},
		{"span past end", func(r *ApplyRequest) { r.End = 100 }, apperr.ErrInvalidSpan},
		{"empty span", func(r *ApplyRequest) { r.End = r.Start }, apperr.ErrInvalidSpan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mod(&req)
			_, err := svc.ApplyLink(ctx, req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRebuildAndStats(t *testing.T) {
	svc, store := setup(t)
	require.NoError(t, store.Write("extra.md", []byte("# Fresh\n")))

	ran, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)

	st := svc.Stats()
	assert.Equal(t, 3, st.Documents)
	assert.False(t, st.Building)
	assert.NotEmpty(t, svc.Query(context.Background(), "fresh"))
}
