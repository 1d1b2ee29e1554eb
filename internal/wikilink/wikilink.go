// Package wikilink builds [[wiki links]] for index entries.
package wikilink

import (
	"strings"

	"github.com/starford/linkfinder/internal/models"
)

// Link is a parsed or constructed [[Target#Section|Alias]].
type Link struct {
	Target  string `json:"target"`
	Section string `json:"section,omitempty"`
	Alias   string `json:"alias,omitempty"`
}

// ForEntry returns the link to e labelled with the text the user typed.
// Titles and tags link to their target; headings and blocks link into the
// owning document, blocks with the ^ reference form.
func ForEntry(e models.Entry, label string) Link {
	l := Link{Target: e.Target, Alias: cleanAlias(label)}
	switch e.Kind {
	case models.KindHeading:
		l.Target = e.SourceTitle
		l.Section = e.Target
	case models.KindBlock:
		l.Target = e.SourceTitle
		l.Section = "^" + e.Target
	}
	if l.Alias == l.ref() {
		l.Alias = ""
	}
	return l
}

// Build is shorthand for ForEntry(e, label).String().
func Build(e models.Entry, label string) string {
	return ForEntry(e, label).String()
}

func (l Link) ref() string {
	if l.Section == "" {
		return l.Target
	}
	return l.Target + "#" + l.Section
}

// String renders the link in [[...]] form.
func (l Link) String() string {
	var b strings.Builder
	b.WriteString("[[")
	b.WriteString(l.ref())
	if l.Alias != "" {
		b.WriteByte('|')
		b.WriteString(l.Alias)
	}
	b.WriteString("]]")
	return b.String()
}

var aliasReplacer = strings.NewReplacer("[[", "", "]]", "", "|", " ", "\n", " ", "\r", "")

// cleanAlias strips characters that would end the link early.
func cleanAlias(s string) string {
	return strings.TrimSpace(aliasReplacer.Replace(s))
}

// Parse reads a single [[Target#Section|Alias]] link. ok is false when s is
// not exactly one wiki link.
func Parse(s string) (Link, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[[") || !strings.HasSuffix(s, "]]") || len(s) < 5 {
		return Link{}, false
	}
	inner := s[2 : len(s)-2]
	if strings.Contains(inner, "[[") || strings.Contains(inner, "]]") {
		return Link{}, false
	}
	var l Link
	if pipe := strings.Index(inner, "|"); pipe >= 0 {
		l.Alias = strings.TrimSpace(inner[pipe+1:])
		inner = inner[:pipe]
	}
	if hash := strings.Index(inner, "#"); hash >= 0 {
		l.Section = strings.TrimSpace(inner[hash+1:])
		inner = inner[:hash]
	}
	l.Target = strings.TrimSpace(inner)
	if l.Target == "" && l.Section == "" {
		return Link{}, false
	}
	return l, true
}

// Located is a link found in a line. Start and End are rune offsets, End
// exclusive.
type Located struct {
	Link
	Start, End int
}

// FindAll returns the well-formed links of line from left to right.
func FindAll(line string) []Located {
	runes := []rune(line)
	var out []Located
	for i := 0; i+1 < len(runes); {
		if runes[i] != '[' || runes[i+1] != '[' {
			i++
			continue
		}
		end := closingAt(runes, i+2)
		if end < 0 {
			break
		}
		if l, ok := Parse(string(runes[i:end])); ok {
			out = append(out, Located{Link: l, Start: i, End: end})
			i = end
			continue
		}
		i++
	}
	return out
}

// closingAt returns the offset just past the first "]]" at or after from, or
// -1.
func closingAt(runes []rune, from int) int {
	for j := from; j+1 < len(runes); j++ {
		if runes[j] == ']' && runes[j+1] == ']' {
			return j + 2
		}
	}
	return -1
}
