package stream

import (
	"regexp"
	"strings"

	"github.com/transfuse/transfuse/core/marker"
	"github.com/transfuse/transfuse/internal/errs"
)

// Reader consumes a stream dialect's wire syntax and recovers (block_id,
// body) pairs with marker codepoints restored. It holds the whole input in
// memory and advances a
// rune cursor, since the Apertium reader needs escape-state tracking that
// doesn't fit a line-oriented scan.
type Reader struct {
	data    []rune
	pos     int
	dialect Dialect
}

// NewReader builds a Reader over data for dialect.
func NewReader(data string, dialect Dialect) *Reader {
	return &Reader{data: []rune(data), dialect: dialect}
}

// GetBlock consumes input up to and including the next complete block,
// returning its id and decoded body. ok is false at end of input with no
// further block found.
func (r *Reader) GetBlock() (id, body string, ok bool, err error) {
	switch r.dialect {
	case Apertium:
		return r.getBlockApertium()
	case VISL, CG:
		return r.getBlockVISL()
	default:
		return "", "", false, errs.Fatal(errs.ErrStreamFormatUnknown, "get block", "", nil)
	}
}

func (r *Reader) indexFrom(start int, needle string) int {
	nr := []rune(needle)
	for i := start; i+len(nr) <= len(r.data); i++ {
		match := true
		for j, c := range nr {
			if r.data[i+j] != c {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func (r *Reader) hasPrefixAt(pos int, needle string) bool {
	nr := []rune(needle)
	if pos+len(nr) > len(r.data) {
		return false
	}
	for j, c := range nr {
		if r.data[pos+j] != c {
			return false
		}
	}
	return true
}

func (r *Reader) skipWhile(pred func(rune) bool) {
	for r.pos < len(r.data) && pred(r.data[r.pos]) {
		r.pos++
	}
}

func isNewlineOrNUL(c rune) bool { return c == '\n' || c == '\r' || c == 0 }

// getBlockApertium locates the next "[tf-block:ID]" boundary and decodes
// the body up to its terminator ("." "[]" or bare "[]"; the "." is omitted
// in apertium -n mode).
func (r *Reader) getBlockApertium() (string, string, bool, error) {
	idx := r.indexFrom(r.pos, "[tf-block:")
	if idx < 0 {
		return "", "", false, nil
	}
	j := idx + len("[tf-block:")
	end := j
	for end < len(r.data) && r.data[end] != ']' {
		end++
	}
	if end >= len(r.data) {
		return "", "", false, errs.Fatal(errs.ErrParseMalformed, "parse apertium block header", "", nil)
	}
	id := string(r.data[j:end])
	r.pos = end + 1
	r.skipWhile(isNewlineOrNUL)

	var b strings.Builder
	for r.pos < len(r.data) {
		c := r.data[r.pos]

		if c == '\\' && r.pos+1 < len(r.data) {
			b.WriteRune(r.data[r.pos+1])
			r.pos += 2
			continue
		}
		if c == '.' && r.hasPrefixAt(r.pos+1, "[]") {
			r.pos += 3
			r.skipWhile(isNewlineOrNUL)
			return id, b.String(), true, nil
		}
		if c == '[' && r.hasPrefixAt(r.pos+1, "]") {
			r.pos += 2
			r.skipWhile(isNewlineOrNUL)
			return id, b.String(), true, nil
		}
		if c == '[' && r.hasPrefixAt(r.pos, "[[") {
			closeAt := -1
			for k := r.pos + 2; k+1 < len(r.data); k++ {
				if r.data[k] == ']' && r.data[k+1] == ']' {
					closeAt = k
					break
				}
			}
			if closeAt < 0 {
				return "", "", false, errs.Fatal(errs.ErrParseMalformed, "parse apertium inline marker", "", nil)
			}
			inner := string(r.data[r.pos+2 : closeAt])
			if inner == "/" {
				b.WriteRune(marker.InlClose)
			} else {
				b.WriteRune(marker.InlOpenB)
				b.WriteString(dedupInlineParts(inner))
				b.WriteRune(marker.InlOpenE)
			}
			r.pos = closeAt + 2
			continue
		}
		if c == '[' && r.hasPrefixAt(r.pos, "[tf:") {
			k := r.pos + len("[tf:")
			for k < len(r.data) && r.data[k] != ']' {
				k++
			}
			if k >= len(r.data) {
				return "", "", false, errs.Fatal(errs.ErrParseMalformed, "parse apertium prot marker", "", nil)
			}
			b.WriteRune(marker.ProtOpen)
			b.WriteString(string(r.data[r.pos+len("[tf:") : k]))
			b.WriteRune(marker.ProtClose)
			r.pos = k + 1
			continue
		}

		b.WriteRune(c)
		r.pos++
	}
	return "", "", false, errs.Warn(errs.ErrBlockMissing, "apertium stream ended without block terminator", id)
}

// dedupInlineParts splits a "t:"-prefixed, ';'-separated tag list, strips
// the "t:" prefix, removes duplicates, and rejoins with ';'.
func dedupInlineParts(inner string) string {
	parts := strings.Split(inner, ";")
	seen := make(map[string]bool, len(parts))
	var out []string
	for _, p := range parts {
		p = strings.TrimPrefix(p, "t:")
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return strings.Join(out, ";")
}

var (
	vislStyleOpen  = regexp.MustCompile(`<STYLE:([^>]*)>`)
	vislStyleClose = regexp.MustCompile(`</STYLE>`)
	vislProt       = regexp.MustCompile(`<PROT:([^/]*)/>`)
)

// getBlockVISL locates the next "<s id=\"ID\">...</s>" region and decodes
// its body. CG additionally injects SENTINEL after every source line, so a
// downstream constraint-grammar parser retains line boundaries through
// marker substitution.
func (r *Reader) getBlockVISL() (string, string, bool, error) {
	idx := r.indexFrom(r.pos, `<s id="`)
	if idx < 0 {
		return "", "", false, nil
	}
	j := idx + len(`<s id="`)
	end := j
	for end < len(r.data) && r.data[end] != '"' {
		end++
	}
	if end >= len(r.data) {
		return "", "", false, errs.Fatal(errs.ErrParseMalformed, "parse visl block header", "", nil)
	}
	id := string(r.data[j:end])
	r.pos = end + 1
	for r.pos < len(r.data) && r.data[r.pos] != '>' {
		r.pos++
	}
	r.pos++
	r.skipWhile(func(c rune) bool { return c == '\n' || c == '\r' })

	closeIdx := r.indexFrom(r.pos, "</s>")
	if closeIdx < 0 {
		return "", "", false, errs.Fatal(errs.ErrParseMalformed, "find visl block close", id, nil)
	}
	raw := strings.TrimRight(string(r.data[r.pos:closeIdx]), "\r\n")
	r.pos = closeIdx + len("</s>")

	body := decodeVISLBody(raw)
	if r.dialect == CG {
		body = strings.ReplaceAll(body, "\n", string(marker.Sentinel)+"\n")
	}
	return id, body, true, nil
}

func decodeVISLBody(s string) string {
	s = vislStyleOpen.ReplaceAllString(s, string(marker.InlOpenB)+"$1"+string(marker.InlOpenE))
	s = vislStyleClose.ReplaceAllString(s, string(marker.InlClose))
	s = vislProt.ReplaceAllString(s, string(marker.ProtOpen)+"$1"+string(marker.ProtClose))
	return s
}
