// Package document turns raw uploaded text into a normalized Document.
package document

import (
	"regexp"
	"strings"

	"ontorag/internal/domain"
)

var (
	startMarkerRe = regexp.MustCompile(`\*\*\* START OF (THE|THIS) PROJECT GUTENBERG EBOOK .* \*\*\*`)
	endMarkerRe   = regexp.MustCompile(`\*\*\* END OF (THE|THIS) PROJECT GUTENBERG EBOOK .* \*\*\*`)
	lineEndingRe  = regexp.MustCompile(`\r\n|\r`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
	titleRe       = regexp.MustCompile(`(?mi)^[ \t]*Title:[ \t]*(.+?)[ \t]*$`)
	authorRe      = regexp.MustCompile(`(?mi)^[ \t]*Author:[ \t]*(.+?)[ \t]*$`)
)

// Normalize strips the ebook boilerplate framing and normalizes whitespace.
// The framing is removed only when both the start and the end marker are
// present, the end marker appearing after the start marker.
func Normalize(raw string) string {
	text := raw
	if start := startMarkerRe.FindStringIndex(text); start != nil {
		if end := endMarkerRe.FindStringIndex(text[start[1]:]); end != nil {
			text = text[start[1] : start[1]+end[0]]
		}
	}
	text = lineEndingRe.ReplaceAllString(text, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// ExtractMetadata finds the first Title: and Author: header lines.
// Missing values are reported as domain.UnknownMetadata.
func ExtractMetadata(raw string) domain.Metadata {
	return domain.Metadata{
		Title:  firstGroup(titleRe, raw),
		Author: firstGroup(authorRe, raw),
	}
}

// New builds a Document from raw text: metadata is read from the raw header,
// Text holds the normalized body.
func New(name, raw string) domain.Document {
	return domain.Document{
		Name:     name,
		Raw:      raw,
		Text:     Normalize(raw),
		Metadata: ExtractMetadata(raw),
	}
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return domain.UnknownMetadata
	}
	return strings.TrimSpace(m[1])
}
