// Package cleanup implements CleanupRewriter: a fixed-point textual rewrite
// over marker-bearing strings that merges adjacent identical inline spans,
// flattens perfectly nested spans, absorbs boundary alphanumerics into a
// span, and evicts boundary whitespace out of a span. Rounds repeat until
// no rule changes the string, bounded at maxRounds as an escape hatch
// against pathological input.
package cleanup

import (
	"errors"
	"regexp"
	"strings"

	"github.com/transfuse/transfuse/core/marker"
	"github.com/transfuse/transfuse/internal/errs"
)

const maxRounds = 100

var (
	openB  = regexp.QuoteMeta(string(marker.InlOpenB))
	openE  = regexp.QuoteMeta(string(marker.InlOpenE))
	closeM = regexp.QuoteMeta(string(marker.InlClose))

	// spanFull matches one top-level span: group 1 the tagspec, group 2
	// the body. Non-greedy, so it stops at the nearest close marker;
	// perfectly nested spans are resolved by flattenPass before a later
	// round's spanFull scan needs to see past them.
	spanFull = regexp.MustCompile(openB + `(.*?)` + openE + `(.*?)` + closeM)

	// nestedSpan matches a span whose entire body is itself one full span
	// (rule 2: perfect nesting).
	nestedSpan = regexp.MustCompile(openB + `(.*?)` + openE + openB + `(.*?)` + openE + `(.*?)` + closeM + closeM)

	leadingAlnumRun  = regexp.MustCompile(`[\w\p{L}\p{N}\p{M}]*\p{L}$`)
	trailingAlnumRun = regexp.MustCompile(`^\p{L}[\w\p{L}\p{N}\p{M}]*`)
	leadingSpaceRun  = regexp.MustCompile(`^[\s\p{Z}]+`)
	trailingSpaceRun = regexp.MustCompile(`[\s\p{Z}]+$`)

	// bodyStartsWithLetter/bodyEndsWithLetter gate rules 3/4: a boundary run
	// is only absorbed into a span when the span's own body already begins
	// (prefix rule) or ends (suffix rule) with a letter. A body starting
	// with a digit or punctuation run leaves the outside text alone.
	bodyStartsWithLetter = regexp.MustCompile(`^\p{L}`)
	bodyEndsWithLetter   = regexp.MustCompile(`\p{L}$`)
)

var errNotConverged = errors.New("cleanup rewriter did not reach a fixed point")

// Run applies the fixed-point rewrite to s and returns the result. extend
// controls whether rules 3/4 (alphanumeric absorption) run, matching the
// CLI's --no-extend flag. A non-nil error is always an
// errs.Warning (IterationBudgetExceeded): the caller should log it and use
// the returned string, which is still usable.
func Run(s string, extend bool) (string, error) {
	for round := 0; round < maxRounds; round++ {
		next := mergePass(s)
		next = flattenPass(next)
		if extend {
			next = absorbPrefixPass(next)
			next = absorbSuffixPass(next)
		}
		next = evictPrefixSpacePass(next)
		next = evictSuffixSpacePass(next)
		next = mergePass(next)
		if next == s {
			return next, nil
		}
		s = next
	}
	return s, errs.Warn(errNotConverged, "cleanup", "")
}

// mergePass repeatedly merges the first pair of adjacent, tagspec-equal
// spans (only whitespace between them) until no such pair remains.
func mergePass(s string) string {
	for {
		matches := spanFull.FindAllStringSubmatchIndex(s, -1)
		merged := false
		for i := 0; i+1 < len(matches); i++ {
			m1, m2 := matches[i], matches[i+1]
			between := s[m1[1]:m2[0]]
			if strings.TrimSpace(between) != "" {
				continue
			}
			tag1, tag2 := s[m1[2]:m1[3]], s[m2[2]:m2[3]]
			if tag1 != tag2 {
				continue
			}
			body1, body2 := s[m1[4]:m1[5]], s[m2[4]:m2[5]]
			replacement := marker.InlineSpan(tag1, body1+between+body2)
			s = s[:m1[0]] + replacement + s[m2[1]:]
			merged = true
			break
		}
		if !merged {
			return s
		}
	}
}

// flattenPass repeatedly flattens the first perfectly-nested span pair
// found until none remain.
func flattenPass(s string) string {
	for {
		loc := nestedSpan.FindStringSubmatchIndex(s)
		if loc == nil {
			return s
		}
		outer := s[loc[2]:loc[3]]
		inner := s[loc[4]:loc[5]]
		body := s[loc[6]:loc[7]]
		tagspec := strings.TrimSpace(outer) + ";" + strings.TrimSpace(inner)
		s = s[:loc[0]] + marker.InlineSpan(tagspec, body) + s[loc[1]:]
	}
}

// absorbPrefixPass moves a maximal alphanumeric run (ending in a letter)
// immediately preceding each span into the start of its body (rule 3).
// Only applies when the body itself already starts with a letter; a body
// starting with a digit or punctuation run is left alone.
func absorbPrefixPass(s string) string {
	return rewriteSpans(s, func(before, tagspec, body string) (string, string, string) {
		if !bodyStartsWithLetter.MatchString(body) {
			return before, tagspec, body
		}
		run := leadingAlnumRun.FindString(before)
		if run == "" {
			return before, tagspec, body
		}
		return before[:len(before)-len(run)], tagspec, run + body
	})
}

// absorbSuffixPass moves a maximal alphanumeric run (starting with a
// letter) immediately following each span into the end of its body
// (rule 4). Only applies when the body itself already ends with a letter;
// a body ending in a digit or punctuation run is left alone.
func absorbSuffixPass(s string) string {
	return rewriteSpansWithAfter(s, func(tagspec, body, after string) (string, string) {
		if !bodyEndsWithLetter.MatchString(body) {
			return body, after
		}
		run := trailingAlnumRun.FindString(after)
		if run == "" {
			return body, after
		}
		return body + run, after[len(run):]
	})
}

// evictPrefixSpacePass moves whitespace immediately inside a span's open
// marker out before the span (rule 5).
func evictPrefixSpacePass(s string) string {
	return rewriteSpans(s, func(before, tagspec, body string) (string, string, string) {
		run := leadingSpaceRun.FindString(body)
		if run == "" {
			return before, tagspec, body
		}
		return before + run, tagspec, body[len(run):]
	})
}

// evictSuffixSpacePass moves whitespace immediately before a span's close
// marker out after the span (rule 6).
func evictSuffixSpacePass(s string) string {
	return rewriteSpansWithAfter(s, func(tagspec, body, after string) (string, string) {
		run := trailingSpaceRun.FindString(body)
		if run == "" {
			return body, after
		}
		return body[:len(body)-len(run)], run + after
	})
}

// rewriteSpans scans s left to right for top-level spans, offering fn the
// text immediately preceding each span so it can move a boundary run from
// that text into (or the reverse, out of) the span body. fn returns the
// possibly-rewritten before/tagspec/body; the preceding text not consumed
// by a previous span is always flushed first.
func rewriteSpans(s string, fn func(before, tagspec, body string) (string, string, string)) string {
	var b strings.Builder
	last := 0
	for _, m := range spanFull.FindAllStringSubmatchIndex(s, -1) {
		before := s[last:m[0]]
		tagspec := s[m[2]:m[3]]
		body := s[m[4]:m[5]]
		newBefore, newTagspec, newBody := fn(before, tagspec, body)
		b.WriteString(newBefore)
		b.WriteString(marker.InlineSpan(newTagspec, newBody))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// rewriteSpansWithAfter is rewriteSpans' mirror for rules that move a
// boundary run between a span's body and the text that follows it. Since
// spans are processed left to right and don't overlap, "after" is always
// just the text up to the next span (or end of string). Spans are found
// once up front, so fn's change to "after" is written out as is and is not
// scanned again in the same pass.
func rewriteSpansWithAfter(s string, fn func(tagspec, body, after string) (string, string)) string {
	matches := spanFull.FindAllStringSubmatchIndex(s, -1)
	var b strings.Builder
	last := 0
	for i, m := range matches {
		b.WriteString(s[last:m[0]])
		tagspec := s[m[2]:m[3]]
		body := s[m[4]:m[5]]

		afterEnd := len(s)
		if i+1 < len(matches) {
			afterEnd = matches[i+1][0]
		}
		after := s[m[1]:afterEnd]

		newBody, newAfter := fn(tagspec, body, after)
		b.WriteString(marker.InlineSpan(tagspec, newBody))
		b.WriteString(newAfter)
		last = afterEnd
	}
	b.WriteString(s[last:])
	return b.String()
}
