// Package parser extracts linkable metadata (title, aliases, tags, headings,
// block ids) from Markdown content.
package parser

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	headingRe      = regexp.MustCompile(`^(#{1,6})[ \t]+(.*)$`)
	closingHashRe  = regexp.MustCompile(`[ \t]+#+[ \t]*$`)
	blockIDRe      = regexp.MustCompile(`(?:^|\s)\^([A-Za-z0-9-]+)[ \t]*$`)
	tagRe          = regexp.MustCompile(`(?:^|\s)#([\p{L}_][\p{L}\p{N}_/-]*)`)
	fenceOpenerSet = []string{"```", "~~~"}
)

// DefaultExtensions lists the file extensions treated as text documents.
var DefaultExtensions = []string{".md", ".markdown"}

// Result holds the linkable metadata of one document.
type Result struct {
	Title    string
	Aliases  []string
	Tags     []string
	Headings []string
	Blocks   []string
}

// Parse extracts metadata from raw Markdown bytes. It never fails: missing
// or malformed metadata simply contributes nothing.
func Parse(path string, data []byte) *Result {
	fm, body := splitFrontmatter(data)

	res := &Result{Title: TitleFromPath(path)}
	if fm != nil {
		res.Aliases = dedupe(append(fm.Aliases, fm.Alias...))
	}

	var fmTags []string
	if fm != nil {
		fmTags = append(fm.Tags, fm.Tag...)
	}
	headings, blocks, inlineTags := scanBody(body)
	res.Tags = dedupe(append(fmTags, inlineTags...))
	res.Headings = dedupe(headings)
	res.Blocks = dedupe(blocks)
	return res
}

// TitleFromPath derives the display title of a document from its path: the
// base name without extension.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsIndexable reports whether path carries one of the given text extensions.
// A nil exts falls back to DefaultExtensions.
func IsIndexable(path string, exts []string) bool {
	if exts == nil {
		exts = DefaultExtensions
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

type frontmatter struct {
	Tags    StringList `yaml:"tags"`
	Tag     StringList `yaml:"tag"`
	Aliases StringList `yaml:"aliases"`
	Alias   StringList `yaml:"alias"`
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (*frontmatter, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter: treat everything as body.
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm frontmatter
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: metadata is dropped but the body is still scanned.
		return nil, body
	}
	return &fm, body
}

// scanBody walks the body line by line, skipping fenced code. Lines have no
// length limit.
func scanBody(body string) (headings, blocks, tags []string) {
	fence := ""
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)

		if opener := fenceOpener(trimmed); opener != "" {
			switch {
			case fence == "":
				fence = opener
			case opener == fence:
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}

		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			text := strings.TrimSpace(closingHashRe.ReplaceAllString(" "+m[2], ""))
			if text != "" {
				headings = append(headings, text)
			}
			continue
		}

		if m := blockIDRe.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, m[1])
		}
		for _, m := range tagRe.FindAllStringSubmatch(line, -1) {
			tags = append(tags, m[1])
		}
	}
	return headings, blocks, tags
}

func fenceOpener(line string) string {
	for _, f := range fenceOpenerSet {
		if strings.HasPrefix(line, f) {
			return f
		}
	}
	return ""
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
