package wikilink

import (
	"testing"

	"github.com/starford/linkfinder/internal/models"
)

func entry(kind models.Kind, target string) models.Entry {
	return models.Entry{
		Kind:        kind,
		SourcePath:  "notes/Roadmap.md",
		SourceTitle: "Roadmap",
		Target:      target,
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name  string
		entry models.Entry
		label string
		want  string
	}{
		{"title", entry(models.KindTitle, "Roadmap"), "the roadmap", "[[Roadmap|the roadmap]]"},
		{"title same label", entry(models.KindTitle, "Roadmap"), "Roadmap", "[[Roadmap]]"},
		{"title differs only by case", entry(models.KindTitle, "Roadmap"), "roadmap", "[[Roadmap|roadmap]]"},
		{"tag", entry(models.KindTag, "planning"), "Planning", "[[planning|Planning]]"},
		{"heading", entry(models.KindHeading, "Project Kickoff"), "Project Kickoff", "[[Roadmap#Project Kickoff|Project Kickoff]]"},
		{"block", entry(models.KindBlock, "q3-goals"), "goals", "[[Roadmap#^q3-goals|goals]]"},
		{"empty label", entry(models.KindHeading, "Intro"), "  ", "[[Roadmap#Intro]]"},
		{"label with pipe", entry(models.KindTitle, "Roadmap"), "a|b]]", "[[Roadmap|a b]]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Build(tt.entry, tt.label); got != tt.want {
				t.Errorf("Build = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	l, ok := Parse("[[Roadmap#^q3-goals|goals]]")
	if !ok || l.Target != "Roadmap" || l.Section != "^q3-goals" || l.Alias != "goals" {
		t.Errorf("Parse = %+v, %v", l, ok)
	}

	built := ForEntry(entry(models.KindHeading, "Intro"), "see intro")
	parsed, ok := Parse(built.String())
	if !ok || parsed != built {
		t.Errorf("Parse(%q) = %+v, want %+v", built.String(), parsed, built)
	}

	for _, bad := range []string{"", "Roadmap", "[[]]", "[[a]] [[b]]", "[[|x]]"} {
		if _, ok := Parse(bad); ok {
			t.Errorf("Parse(%q) should fail", bad)
		}
	}
}

func TestFindAll(t *testing.T) {
	line := "Café [[Roadmap#Intro|intro]] and [[broken and [[Plan]] then ]]"
	got := FindAll(line)
	if len(got) != 2 {
		t.Fatalf("FindAll = %+v, want 2 links", got)
	}
	if got[0].Target != "Roadmap" || got[0].Start != 5 || got[0].End != 28 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Target != "Plan" || got[1].Start != 46 || got[1].End != 54 {
		t.Errorf("second = %+v", got[1])
	}
	if got := FindAll("no links [[ here"); len(got) != 0 {
		t.Errorf("FindAll = %+v, want none", got)
	}
}
