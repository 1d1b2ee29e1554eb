package parser

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// StringList is a frontmatter field that may be written either as a YAML
// sequence or as a single comma-separated string. Both shapes decode into
// the same trimmed, non-empty list; a leading '#' is dropped from each item.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler. Unsupported shapes (maps,
// nulls, nested sequences) decode to an empty list rather than an error.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	var items []string
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			break
		}
		items = strings.Split(value.Value, ",")
	case yaml.SequenceNode:
		for _, n := range value.Content {
			if n.Kind == yaml.ScalarNode && n.Tag != "!!null" {
				items = append(items, n.Value)
			}
		}
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		it = strings.TrimSpace(strings.TrimPrefix(it, "#"))
		if it != "" {
			out = append(out, it)
		}
	}
	*l = out
	return nil
}
