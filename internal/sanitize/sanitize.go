// Package sanitize isolates untrusted user text before it is placed inside a
// model prompt. Wrapping gives the text a tamper-evident boundary whose tag
// is never derived from user input; scanning flags content that looks like an
// injection attempt so it can be monitored. Scanning never blocks a request.
package sanitize

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Tag names a boundary marker. The set is closed: call sites pick one of the
// constants below, so user input can never mint a matching closing tag.
type Tag string

const (
	TagIdeaTitle       Tag = "IDEA_TITLE"
	TagIdeaDescription Tag = "IDEA_DESCRIPTION"
	TagUserNotes       Tag = "USER_NOTES"
	TagAnswer          Tag = "ANSWER"
	TagQuestion        Tag = "QUESTION"
	TagTranscript      Tag = "TRANSCRIPT"
	TagResponse        Tag = "RESPONSE"
)

// Block is a sanitized unit of untrusted text ready for prompt assembly.
type Block struct {
	Tag       Tag
	Content   string
	Truncated bool
	MaxLen    int
}

// Wrap normalizes and truncates raw text into a Block. Overlong input is
// truncated rather than rejected: a prefix of a legitimate idea beats a hard
// failure. Truncation counts runes so multibyte input cannot be split
// mid-character.
func Wrap(tag Tag, raw string, maxLen int) Block {
	content := escapeMarkers(norm.NFC.String(raw))
	truncated := false

	if runes := []rune(content); len(runes) > maxLen {
		content = string(runes[:maxLen])
		truncated = true
	}

	return Block{
		Tag:       tag,
		Content:   content,
		Truncated: truncated,
		MaxLen:    maxLen,
	}
}

// Delimited renders the block between its boundary markers. A closing marker
// appearing inside the content is harmless: the tag vocabulary is fixed, so
// the model is told exactly which markers delimit data.
func (b Block) Delimited() string {
	return fmt.Sprintf("<<<%s>>>\n%s\n<<<END_%s>>>", b.Tag, b.Content, b.Tag)
}

// Len returns the rune length of the sanitized content.
func (b Block) Len() int {
	return len([]rune(b.Content))
}

// escapeMarkers defuses any literal boundary markers the user managed to
// type, keeping rendered prompts unambiguous.
func escapeMarkers(s string) string {
	s = strings.ReplaceAll(s, "<<<", "«<")
	return strings.ReplaceAll(s, ">>>", ">»")
}
