package parser

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: ignored\ntags:\n  - go\n  - '#linkfinder'\naliases: Kickoff, Launch\n---\n# Hello\nBody text ^intro\n\n## Next Steps ##\n")
	r := Parse("notes/Project Plan.md", input)
	if r.Title != "Project Plan" {
		t.Errorf("title = %q, want %q", r.Title, "Project Plan")
	}
	if !reflect.DeepEqual(r.Tags, []string{"go", "linkfinder"}) {
		t.Errorf("tags = %v, want [go linkfinder]", r.Tags)
	}
	if !reflect.DeepEqual(r.Aliases, []string{"Kickoff", "Launch"}) {
		t.Errorf("aliases = %v", r.Aliases)
	}
	if !reflect.DeepEqual(r.Headings, []string{"Hello", "Next Steps"}) {
		t.Errorf("headings = %v", r.Headings)
	}
	if !reflect.DeepEqual(r.Blocks, []string{"intro"}) {
		t.Errorf("blocks = %v", r.Blocks)
	}
}

func TestParse_CommaSeparatedTags(t *testing.T) {
	r := Parse("a.md", []byte("---\ntags: \"alpha, beta ,, #gamma\"\n---\ntext\n"))
	if !reflect.DeepEqual(r.Tags, []string{"alpha", "beta", "gamma"}) {
		t.Errorf("tags = %v", r.Tags)
	}
}

func TestParse_NoMetadata(t *testing.T) {
	r := Parse("plain.md", []byte("just some words\n"))
	if r.Title != "plain" {
		t.Errorf("title = %q", r.Title)
	}
	if len(r.Tags)+len(r.Headings)+len(r.Blocks)+len(r.Aliases) != 0 {
		t.Errorf("expected no metadata, got %+v", r)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	r := Parse("x.md", []byte("---\n: invalid: yaml: {{{\n---\n# Body Heading\n"))
	if len(r.Tags) != 0 {
		t.Errorf("expected no tags on invalid YAML, got %v", r.Tags)
	}
	if !reflect.DeepEqual(r.Headings, []string{"Body Heading"}) {
		t.Errorf("headings = %v", r.Headings)
	}
}

func TestParse_UnsupportedTagShape(t *testing.T) {
	r := Parse("x.md", []byte("---\ntags:\n  nested: map\naliases: ~\n---\n"))
	if len(r.Tags) != 0 || len(r.Aliases) != 0 {
		t.Errorf("expected empty tags/aliases, got %v / %v", r.Tags, r.Aliases)
	}
}

func TestScanBody_SkipsFencedCode(t *testing.T) {
	body := "# Real\n```go\n# not a heading #nope\nline ^fake\n```\ntext #inline ^blk-1\n"
	headings, blocks, tags := scanBody(body)
	if !reflect.DeepEqual(headings, []string{"Real"}) {
		t.Errorf("headings = %v", headings)
	}
	if !reflect.DeepEqual(blocks, []string{"blk-1"}) {
		t.Errorf("blocks = %v", blocks)
	}
	if !reflect.DeepEqual(tags, []string{"inline"}) {
		t.Errorf("tags = %v", tags)
	}
}

func TestParse_LongLineDoesNotHideLaterMetadata(t *testing.T) {
	long := strings.Repeat("x", 2<<20)
	r := Parse("n.md", []byte("# Before\n"+long+"\n# After Heading\ntext #late ^blk\n"))
	if !reflect.DeepEqual(r.Headings, []string{"Before", "After Heading"}) {
		t.Errorf("headings = %v", r.Headings)
	}
	if !reflect.DeepEqual(r.Blocks, []string{"blk"}) {
		t.Errorf("blocks = %v", r.Blocks)
	}
	if !reflect.DeepEqual(r.Tags, []string{"late"}) {
		t.Errorf("tags = %v", r.Tags)
	}
}

func TestParse_InlineTagsAfterFrontmatter(t *testing.T) {
	r := Parse("a.md", []byte("---\ntags: [alpha]\n---\nSome text #beta and #alpha again.\n"))
	if !reflect.DeepEqual(r.Tags, []string{"alpha", "beta"}) {
		t.Errorf("tags = %v, want [alpha beta]", r.Tags)
	}
}

func TestIsIndexable(t *testing.T) {
	cases := map[string]bool{
		"a.md":          true,
		"dir/B.MD":      true,
		"c.markdown":    true,
		"image.png":     false,
		"noext":         false,
		"archive.md.gz": false,
	}
	for path, want := range cases {
		if got := IsIndexable(path, nil); got != want {
			t.Errorf("IsIndexable(%q) = %v, want %v", path, got, want)
		}
	}
	if !IsIndexable("notes.txt", []string{".txt"}) {
		t.Error("custom extension list not honoured")
	}
}
