package index

import (
	"github.com/starford/linkfinder/internal/models"
	"github.com/starford/linkfinder/internal/parser"
)

// KeyedEntry pairs an entry with the raw text it is indexed under.
type KeyedEntry struct {
	Key   string
	Entry models.Entry
}

// DocumentEntries turns the metadata of the document at path into keyed
// entries: its title and aliases, each heading, each tag and each block id.
func DocumentEntries(path string, meta *parser.Result) []KeyedEntry {
	if meta == nil {
		return nil
	}
	title := meta.Title
	out := make([]KeyedEntry, 0, 1+len(meta.Aliases)+len(meta.Headings)+len(meta.Tags)+len(meta.Blocks))

	titleEntry := models.Entry{
		Kind:        models.KindTitle,
		SourcePath:  path,
		SourceTitle: title,
		Target:      title,
		DisplayText: title,
	}
	out = append(out, KeyedEntry{Key: title, Entry: titleEntry})
	for _, alias := range meta.Aliases {
		out = append(out, KeyedEntry{Key: alias, Entry: titleEntry})
	}

	for _, tag := range meta.Tags {
		out = append(out, KeyedEntry{Key: tag, Entry: models.Entry{
			Kind:        models.KindTag,
			SourcePath:  path,
			SourceTitle: title,
			Target:      tag,
			DisplayText: "#" + tag,
		}})
	}
	for _, h := range meta.Headings {
		out = append(out, KeyedEntry{Key: h, Entry: models.Entry{
			Kind:        models.KindHeading,
			SourcePath:  path,
			SourceTitle: title,
			Target:      h,
			DisplayText: title + " > " + h,
		}})
	}
	for _, id := range meta.Blocks {
		out = append(out, KeyedEntry{Key: id, Entry: models.Entry{
			Kind:        models.KindBlock,
			SourcePath:  path,
			SourceTitle: title,
			Target:      id,
			DisplayText: title + " > ^" + id,
		}})
	}
	return out
}
