// Package inject implements the Injector: it splices
// translated block bodies back into the persisted content string,
// rehydrates inline and protected-content markers via the StyleStore, and
// reparses the result into a tree ready for space restoration and
// adapter-specific repackaging.
package inject

import (
	"strings"

	"github.com/transfuse/transfuse/core/cleanup"
	"github.com/transfuse/transfuse/core/encoding"
	"github.com/transfuse/transfuse/core/marker"
	"github.com/transfuse/transfuse/core/space"
	"github.com/transfuse/transfuse/core/stream"
	"github.com/transfuse/transfuse/core/stylestore"
	"github.com/transfuse/transfuse/core/xmldoc"
	"github.com/transfuse/transfuse/internal/errs"
)

// Options configures the injection pass.
type Options struct {
	Raw    bool // --inject-raw: splice translated bodies verbatim, no XML re-escape
	Extend bool // passed through to CleanupRewriter (--no-extend inverse)
}

// Run performs the splice-rehydrate-reparse pass over content (the
// persisted content.xml body, already carrying BLK_OPEN/BLK_CLOSE markers around
// each block) and r (the translated stream). It returns the rehydrated
// document and any recoverable warnings collected along the way; a non-nil
// error is always fatal (RehydratedMalformed). An error the stream reader
// reports ends the splice and is returned among the warnings.
func Run(content string, r *stream.Reader, store *stylestore.Store, opts Options) (*xmldoc.Document, []error, error) {
	var warnings []error

	content, spliceWarnings := spliceBlocks(content, r, opts.Raw)
	warnings = append(warnings, spliceWarnings...)

	content = stripOrphanBlockMarkers(content)

	cleaned, err := cleanup.Run(content, opts.Extend)
	if err != nil {
		warnings = append(warnings, err)
	}
	content = cleaned

	content, rehydrateWarnings := rehydrateToFixpoint(content, store)
	warnings = append(warnings, rehydrateWarnings...)

	doc, err := xmldoc.ParseXML([]byte(content))
	if err != nil {
		return nil, warnings, errs.Fatal(errs.ErrRehydratedMalformed, "reparse rehydrated document", "", err)
	}

	space.RestoreSpaces(doc.RootElement())
	space.CreateSpaces(doc.RootElement())

	return doc, warnings, nil
}

// spliceBlocks consumes every (id, body) pair the stream yields and
// replaces the matching BLK_OPEN_B id BLK_OPEN_E ... BLK_CLOSE_B id
// BLK_CLOSE_E span in content with the translated body, searching
// sequentially from a running cursor, which enforces that blocks arrive
// in the same order they were extracted.
func spliceBlocks(content string, r *stream.Reader, raw bool) (string, []error) {
	var warnings []error
	cursor := 0
	for {
		id, body, ok, err := r.GetBlock()
		if err != nil {
			warnings = append(warnings, err)
			break
		}
		if !ok {
			break
		}
		pat := marker.BlockPattern(id)
		loc := pat.FindStringIndex(content[cursor:])
		if loc == nil {
			sentinel := errs.ErrBlockMissing
			if pat.MatchString(content[:cursor]) {
				sentinel = errs.ErrBlockOutOfOrder
			}
			msg := "Block " + id + " did not exist or was out-of-order"
			warnings = append(warnings, errs.WarnMsg(sentinel, "splice block", id, msg))
			continue
		}
		start, end := cursor+loc[0], cursor+loc[1]
		translated := EscapeTranslated(body, raw)
		content = content[:start] + translated + content[end:]
		cursor = start + len(translated)
	}
	return content, warnings
}

func stripOrphanBlockMarkers(content string) string {
	content = marker.AnyBlockOpenPattern().ReplaceAllString(content, "")
	content = marker.AnyBlockClosePattern().ReplaceAllString(content, "")
	return content
}

// rehydrateToFixpoint repeatedly resolves the outermost inline span and
// PROT span until neither pattern matches: inline spans expand to their
// stored open/close fragments (dropping the body when any resolved flag
// contains 'P'), PROT spans carry a "P:"-prefixed hash and expand to
// open+close under the fixed "P" tag (see core/stylefactor.ProtectToStyles).
func rehydrateToFixpoint(content string, store *stylestore.Store) (string, []error) {
	var warnings []error
	inlinePat := marker.InlineSpanPattern()
	protPat := marker.ProtSpanPattern()

	for {
		changed := false

		if loc := inlinePat.FindStringSubmatchIndex(content); loc != nil {
			tagspec := content[loc[2]:loc[3]]
			body := content[loc[4]:loc[5]]
			replacement, ws := rehydrateInlineSpan(tagspec, body, store)
			warnings = append(warnings, ws...)
			content = content[:loc[0]] + replacement + content[loc[1]:]
			changed = true
		}

		if loc := protPat.FindStringSubmatchIndex(content); loc != nil {
			ref := content[loc[2]:loc[3]]
			hash := strings.TrimPrefix(ref, "P:")
			rec, ok, err := store.GetStyle("P", hash)
			if err != nil {
				warnings = append(warnings, err)
			}
			replacement := ""
			if ok {
				replacement = rec.Open + rec.Close
			} else {
				warnings = append(warnings, errs.Warn(errs.ErrStyleMissing, "rehydrate prot", hash))
			}
			content = content[:loc[0]] + replacement + content[loc[1]:]
			changed = true
		}

		if !changed {
			return content, warnings
		}
	}
}

func rehydrateInlineSpan(tagspec, body string, store *stylestore.Store) (string, []error) {
	var warnings []error
	parts := strings.Split(tagspec, ";")
	opens := make([]string, 0, len(parts))
	closes := make([]string, 0, len(parts))
	dropBody := false

	for _, p := range parts {
		tag, hash, ok := splitTagHash(p)
		if !ok {
			continue
		}
		rec, found, err := store.GetStyle(tag, hash)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		if !found {
			warnings = append(warnings, errs.Warn(errs.ErrStyleMissing, "rehydrate inline", p))
			continue
		}
		if rec.HasFlag('P') {
			dropBody = true
		}
		opens = append(opens, rec.Open)
		closes = append(closes, rec.Close)
	}

	var b strings.Builder
	for _, o := range opens {
		b.WriteString(o)
	}
	if !dropBody {
		b.WriteString(body)
	}
	for i := len(closes) - 1; i >= 0; i-- {
		b.WriteString(closes[i])
	}
	return b.String(), warnings
}

func splitTagHash(part string) (tag, hash string, ok bool) {
	i := strings.LastIndex(part, ":")
	if i < 0 {
		return "", "", false
	}
	return part[:i], part[i+1:], true
}

// EscapeTranslated re-escapes a translated block body for splicing back
// into content.xml, unless opts.Raw suppresses it (--inject-raw).
func EscapeTranslated(body string, raw bool) string {
	if raw {
		return body
	}
	return encoding.EscapeXMLText(body)
}
