// Package stream implements the three StreamCodec dialects: Apertium
// superblank, VISL/XML, and CG. All three share the same marker-bearing
// in-memory text; only the wire syntax they emit/parse for inline spans,
// protected-content references, and block boundaries differs. Each
// dialect gets one shared decode/encode pair rather than a type per
// dialect with virtual dispatch.
package stream

import (
	"fmt"
	"io"
	"strings"

	"github.com/transfuse/transfuse/core/marker"
)

// Dialect selects which wire syntax a Writer/Reader speaks.
type Dialect int

const (
	Apertium Dialect = iota
	VISL
	CG
)

func (d Dialect) String() string {
	switch d {
	case Apertium:
		return "apertium"
	case VISL:
		return "visl"
	case CG:
		return "cg"
	default:
		return "unknown"
	}
}

const headerMark = "❡" // ❡, appended to header blocks when --mark-headers is set

// apertiumReserved lists the characters escapeApertiumText and
// encodeApertiumBody backslash-escape when writing literal text to an
// Apertium stream.
const apertiumReserved = "^$[]{}/\\@<>"

// Writer renders stream tokens for one dialect. It implements
// blockextract.Codec so BlockExtractor can stream blocks directly as it
// discovers them.
type Writer struct {
	out            io.Writer
	dialect        Dialect
	apertiumNoTerm bool // --apertium-n: suppress the ".[]" terminator
	markHeaders    bool // --mark-headers
	err            error
}

// NewWriter builds a Writer for dialect, writing to out.
func NewWriter(out io.Writer, dialect Dialect, apertiumNoTerm, markHeaders bool) *Writer {
	return &Writer{out: out, dialect: dialect, apertiumNoTerm: apertiumNoTerm, markHeaders: markHeaders}
}

// Err returns the first write error encountered, if any.
func (w *Writer) Err() error { return w.err }

func (w *Writer) write(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.out, s)
}

// Header emits the one-time prologue carrying workDir.
func (w *Writer) Header(workDir string) {
	switch w.dialect {
	case Apertium:
		w.write(fmt.Sprintf("[transfuse:%s]\n\x00", escapeApertiumText(workDir)))
	case VISL, CG:
		w.write(fmt.Sprintf("<STREAMCMD:TRANSFUSE:%s>\n\n", workDir))
	}
}

// BlockOpen emits the per-dialect block-boundary open token.
func (w *Writer) BlockOpen(id string) {
	switch w.dialect {
	case Apertium:
		w.write("\n[tf-block:" + id + "]\n\n")
	case VISL, CG:
		w.write(fmt.Sprintf("\n<s id=%q>\n", id))
	}
}

// BlockBody encodes body's marker-bearing text into wire syntax.
func (w *Writer) BlockBody(body string) {
	switch w.dialect {
	case Apertium:
		w.write(encodeApertiumBody(body))
	case VISL, CG:
		w.write(encodeVISLBody(body))
	}
}

// BlockTermHeader marks the block just written as a header block, when
// --mark-headers is in effect (a no-op otherwise).
func (w *Writer) BlockTermHeader() {
	if w.markHeaders {
		w.write(headerMark)
	}
}

// BlockClose emits the per-dialect block-boundary close token.
func (w *Writer) BlockClose(id string) {
	switch w.dialect {
	case Apertium:
		if !w.apertiumNoTerm {
			w.write(".[]")
		}
		w.write("\n\x00")
	case VISL, CG:
		w.write("\n</s>\n\n")
	}
}

func isApertiumReserved(r rune) bool {
	return strings.ContainsRune(apertiumReserved, r)
}

// escapeApertiumText backslash-escapes reserved characters only (used for
// the prologue path, which never carries marker codepoints).
func escapeApertiumText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isApertiumReserved(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// encodeApertiumBody renders marker-bearing text as Apertium wire syntax:
// reserved characters backslash-escaped, inline-span markers mapped to
// "[[t:...]]"/"[[/]]", PROT spans mapped to "[tf:hash]".
func encodeApertiumBody(body string) string {
	runes := []rune(body)
	var b strings.Builder
	for i := 0; i < len(runes); {
		switch runes[i] {
		case marker.InlOpenB:
			j := i + 1
			for j < len(runes) && runes[j] != marker.InlOpenE {
				j++
			}
			tagspec := string(runes[i+1 : j])
			parts := strings.Split(tagspec, ";")
			b.WriteString("[[")
			for k, p := range parts {
				if k > 0 {
					b.WriteByte(';')
				}
				b.WriteString("t:")
				b.WriteString(p)
			}
			b.WriteString("]]")
			i = j + 1
		case marker.InlClose:
			b.WriteString("[[/]]")
			i++
		case marker.ProtOpen:
			j := i + 1
			for j < len(runes) && runes[j] != marker.ProtClose {
				j++
			}
			b.WriteString("[tf:")
			b.WriteString(string(runes[i+1 : j]))
			b.WriteByte(']')
			i = j + 1
		default:
			if isApertiumReserved(runes[i]) {
				b.WriteByte('\\')
			}
			b.WriteRune(runes[i])
			i++
		}
	}
	return b.String()
}

// encodeVISLBody renders marker-bearing text as VISL/CG wire syntax: inline
// spans become "<STYLE:tagspec>body</STYLE>"; PROT spans use an invented
// "<PROT:hash/>" form. No other character escaping applies.
func encodeVISLBody(body string) string {
	runes := []rune(body)
	var b strings.Builder
	for i := 0; i < len(runes); {
		switch runes[i] {
		case marker.InlOpenB:
			j := i + 1
			for j < len(runes) && runes[j] != marker.InlOpenE {
				j++
			}
			b.WriteString("<STYLE:")
			b.WriteString(string(runes[i+1 : j]))
			b.WriteByte('>')
			i = j + 1
		case marker.InlClose:
			b.WriteString("</STYLE>")
			i++
		case marker.ProtOpen:
			j := i + 1
			for j < len(runes) && runes[j] != marker.ProtClose {
				j++
			}
			b.WriteString("<PROT:")
			b.WriteString(string(runes[i+1 : j]))
			b.WriteString("/>")
			i = j + 1
		default:
			b.WriteRune(runes[i])
			i++
		}
	}
	return b.String()
}

// DetectDialect inspects the first non-empty line of a stream and reports
// which dialect produced it. CG is never auto-detected: a CG stream must
// be named explicitly since it shares VISL's wire form on read.
func DetectDialect(firstLine string) (Dialect, bool) {
	switch {
	case strings.Contains(firstLine, "[transfuse:"):
		return Apertium, true
	case strings.Contains(firstLine, "<STREAMCMD:TRANSFUSE:"):
		return VISL, true
	default:
		return 0, false
	}
}

// GetWorkDir parses the persisted work_dir path out of a stream's prologue
// line for dialect.
func GetWorkDir(firstLine string, dialect Dialect) (string, bool) {
	firstLine = strings.TrimRight(firstLine, "\x00\r\n")
	switch dialect {
	case Apertium:
		const prefix, suffix = "[transfuse:", "]"
		if !strings.HasPrefix(firstLine, prefix) || !strings.HasSuffix(firstLine, suffix) {
			return "", false
		}
		return unescapeApertiumText(firstLine[len(prefix) : len(firstLine)-len(suffix)]), true
	case VISL, CG:
		const prefix, suffix = "<STREAMCMD:TRANSFUSE:", ">"
		if !strings.HasPrefix(firstLine, prefix) || !strings.HasSuffix(firstLine, suffix) {
			return "", false
		}
		return firstLine[len(prefix) : len(firstLine)-len(suffix)], true
	default:
		return "", false
	}
}

func unescapeApertiumText(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) {
			i++
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}
