// Package marker defines the private-use codepoint protocol that Transfuse
// uses to carry inline-style spans, block boundaries, and protected-content
// references through XML serializations and stream wire formats.
//
// The codepoints and their roles are fixed by the wire contract: external
// tooling (constraint-grammar parsers, MT engines) and the injector both
// assume these exact positions. Never renumber them.
package marker

import "regexp"

// Private-use marker codepoints. Bit-exact; do not change.
const (
	HashSep           rune = 0xE010
	InlOpenB          rune = 0xE011
	InlOpenE          rune = 0xE012
	InlClose          rune = 0xE013
	XMLEncPlaceholder rune = 0xE014
	BlkOpenB          rune = 0xE015
	BlkOpenE          rune = 0xE016
	BlkCloseB         rune = 0xE017
	BlkCloseE         rune = 0xE018
	Sentinel          rune = 0xE019
	ProtOpen          rune = 0xE020
	ProtClose         rune = 0xE021
	UniqOpen          rune = 0xE022
	UniqClose         rune = 0xE023
	PStreamB          rune = 0xE02C
	PStreamE          rune = 0xE02D
)

// InlineOpen renders the open-marker for an inline span carrying tagspec
// (one or more "tag:hash" parts joined by ';').
func InlineOpen(tagspec string) string {
	return string(InlOpenB) + tagspec + string(InlOpenE)
}

// InlineClose renders the close-marker for an inline span.
func InlineClose() string {
	return string(InlClose)
}

// InlineSpan wraps body in a complete inline span for tagspec.
func InlineSpan(tagspec, body string) string {
	return InlineOpen(tagspec) + body + InlineClose()
}

// BlockOpen renders the open-boundary marker for block id.
func BlockOpen(id string) string {
	return string(BlkOpenB) + id + string(BlkOpenE)
}

// BlockClose renders the close-boundary marker for block id.
func BlockClose(id string) string {
	return string(BlkCloseB) + id + string(BlkCloseE)
}

// BlockWrap wraps body between open and close boundary markers for id.
func BlockWrap(id, body string) string {
	return BlockOpen(id) + body + BlockClose(id)
}

// ProtSpan wraps a protected-fragment reference (typically "tag:hash").
func ProtSpan(ref string) string {
	return string(ProtOpen) + ref + string(ProtClose)
}

// UniqSpan wraps a unique-fragment reference (HTML <script>/<style> bodies).
func UniqSpan(ref string) string {
	return string(UniqOpen) + ref + string(UniqClose)
}

// quoteRune returns the regexp-escaped literal form of a single marker
// codepoint, which is always safe to splice into a larger pattern since
// these codepoints never collide with regexp metacharacters.
func quoteRune(r rune) string {
	return regexp.QuoteMeta(string(r))
}

// InlineSpanPattern matches one inline span: group 1 is the tagspec, group 2
// is the body. Non-greedy so adjacent spans don't get merged by the regex
// engine itself (CleanupRewriter handles deliberate merges as its own pass).
func InlineSpanPattern() *regexp.Regexp {
	return regexp.MustCompile(
		quoteRune(InlOpenB) + `(.*?)` + quoteRune(InlOpenE) +
			`(.*?)` + quoteRune(InlClose))
}

// InlineOpenPattern matches just an open-marker, group 1 is the tagspec.
func InlineOpenPattern() *regexp.Regexp {
	return regexp.MustCompile(quoteRune(InlOpenB) + `(.*?)` + quoteRune(InlOpenE))
}

// BlockPattern matches one block-bounded region for a specific id: group 1
// is the body.
func BlockPattern(id string) *regexp.Regexp {
	return regexp.MustCompile(
		quoteRune(BlkOpenB) + regexp.QuoteMeta(id) + quoteRune(BlkOpenE) +
			`(.*?)` +
			quoteRune(BlkCloseB) + regexp.QuoteMeta(id) + quoteRune(BlkCloseE))
}

// AnyBlockOpenPattern matches any block open marker, group 1 is the id.
func AnyBlockOpenPattern() *regexp.Regexp {
	return regexp.MustCompile(quoteRune(BlkOpenB) + `(.*?)` + quoteRune(BlkOpenE))
}

// AnyBlockClosePattern matches any block close marker, group 1 is the id.
func AnyBlockClosePattern() *regexp.Regexp {
	return regexp.MustCompile(quoteRune(BlkCloseB) + `(.*?)` + quoteRune(BlkCloseE))
}

// ProtSpanPattern matches a protected-fragment reference span, group 1 is
// the "tag:hash" reference.
func ProtSpanPattern() *regexp.Regexp {
	return regexp.MustCompile(quoteRune(ProtOpen) + `(.*?)` + quoteRune(ProtClose))
}

// AlphaNum matches a single word-forming character: a letter, number, or
// combining mark. BlockExtractor uses it to decide whether a body or
// attribute value has real textual content.
var AlphaNum = regexp.MustCompile(`[\w\p{L}\p{N}\p{M}]`)

// Whitespace matches a run of any Unicode whitespace.
var Whitespace = regexp.MustCompile(`^[\s\r\n\p{Z}]+$`)

// SpaceOnly matches a run of \s whitespace (which includes newlines) and
// Unicode space separators (Zs). It is narrower than Whitespace only in
// leaving out the line and paragraph separators (Zl, Zp).
var SpaceOnly = regexp.MustCompile(`^[\s\p{Zs}]+$`)
