package mcpserver

// LinkFormatContract describes the links linkfinder produces and the document
// features it indexes, for LLM consumers that write links themselves.
const LinkFormatContract = `# Linkfinder Link Format

Links are Obsidian-style wikilinks. The visible label is the text that was
typed; the target depends on what is being linked.

| Entry kind | Link form                          |
|------------|------------------------------------|
| title      | ` + "`[[Title|label]]`" + `                  |
| tag        | ` + "`[[tag|label]]`" + `                    |
| heading    | ` + "`[[Title#Heading|label]]`" + `          |
| block      | ` + "`[[Title#^block-id|label]]`" + `        |

When the label is exactly the link reference the ` + "`|label`" + ` part is left out.

## What is indexed

- **Title**: the file name without extension (` + "`notes/Roadmap.md`" + ` is ` + "`Roadmap`" + `).
- **Aliases**: frontmatter ` + "`aliases`" + ` (or ` + "`alias`" + `), a YAML list or a comma separated string.
  Each alias finds the title entry.
- **Tags**: frontmatter ` + "`tags`" + ` (or ` + "`tag`" + `), list or comma separated, plus inline ` + "`#tags`" + `.
- **Headings**: ATX headings (` + "`#`" + ` to ` + "`######`" + `) outside fenced code.
- **Blocks**: a trailing ` + "`^block-id`" + ` on a line.

## Matching

Lookups ignore case, diacritics, whitespace and punctuation: ` + "`Café`" + `, ` + "`cafe`" + ` and ` + "`CAFÉ`" + `
are the same key. Keys starting with the query rank first; keys that merely contain the
query's characters in order follow. At most 100 matches are returned.

## Example

` + "```" + `markdown
---
tags: planning, q3
aliases: [Plan]
---
# Project Kickoff
Ship the first milestone ^q3-goals
` + "```" + `

Typing "Meet the Project Kickoff team" with the cursor in "Kickoff" resolves the span
"Project Kickoff", and choosing the heading writes
` + "`Meet the [[Roadmap#Project Kickoff|Project Kickoff]] team`" + `.
`
