// Package convert declares the converter collaborators the sync core treats
// as external (spec §6, §1 Non-goals): translating the cloud service's
// proprietary note formats to and from Markdown, and rewriting embedded
// URLs. Only the interfaces and the in-scope format-detection helper live
// here — actual format translation is out of scope.
package convert

import (
	"bytes"
	"strings"
)

// Foreign2MarkdownConverter converts a proprietary note payload to Markdown
// text. A concrete implementation is an external collaborator; the core
// only depends on this interface (spec §6 convert_foreign_to_markdown).
type Foreign2MarkdownConverter interface {
	ConvertForeignToMarkdown(payload []byte) (markdown string, err error)
}

// Markdown2NoteConverter converts Markdown text to the cloud service's
// proprietary note JSON shape (spec §6 convert_markdown_to_note_json).
type Markdown2NoteConverter interface {
	ConvertMarkdownToNoteJSON(markdown string) (noteJSON string, err error)
}

// URLRewriter rewrites cloud-proprietary URLs embedded in a Markdown file
// to local paths (spec §6 rewrite_embedded_urls).
type URLRewriter interface {
	RewriteEmbeddedURLs(markdownFilePath string) error
}

// PayloadFormat discriminates a downloaded payload's encoding, per spec
// §4.4 ("discriminated by the first bytes of the payload").
type PayloadFormat int

const (
	FormatMarkdown PayloadFormat = iota
	FormatXML
	FormatJSON
)

// DetectFormat inspects the first non-whitespace bytes of payload to decide
// whether it is XML, JSON, or plain Markdown. This is the one piece of
// format handling in scope for the core (the conversion itself is not).
func DetectFormat(payload []byte) PayloadFormat {
	trimmed := bytes.TrimLeft(payload, " \t\r\n")

	switch {
	case bytes.HasPrefix(trimmed, []byte("<?xml")), bytes.HasPrefix(trimmed, []byte("<")):
		return FormatXML
	case bytes.HasPrefix(trimmed, []byte("{")), bytes.HasPrefix(trimmed, []byte("[")):
		return FormatJSON
	default:
		return FormatMarkdown
	}
}

// FrontMatterDelim is the YAML front-matter fence used when round-tripping
// note metadata into Markdown documents.
const FrontMatterDelim = "---"

// HasFrontMatter reports whether markdown begins with a YAML front-matter
// block.
func HasFrontMatter(markdown string) bool {
	return strings.HasPrefix(strings.TrimLeft(markdown, "\n"), FrontMatterDelim)
}
