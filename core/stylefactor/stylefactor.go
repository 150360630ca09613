// Package stylefactor implements StyleFactor: it serializes
// a tree into marker-bearing text, converting eligible inline elements into
// inline-marker spans that reference fragments persisted in the
// StyleStore, and wrapping protected content in placeholder markers rather
// than recursing into it.
package stylefactor

import (
	"regexp"
	"strings"

	"github.com/transfuse/transfuse/core/encoding"
	"github.com/transfuse/transfuse/core/marker"
	"github.com/transfuse/transfuse/core/space"
	"github.com/transfuse/transfuse/core/stylestore"
	"github.com/transfuse/transfuse/core/tagset"
	"github.com/transfuse/transfuse/core/xmldoc"
)

// Factor renders n's children into buf as marker-bearing text, dispatching
// on node kind and tag-set membership. protect, once true for an ancestor,
// stays true for the whole subtree (fully-protected content is emitted
// literally, never recursed as eligible-inline or block-extractable).
func Factor(buf *strings.Builder, n *xmldoc.Node, sets tagset.Sets, store *stylestore.Store, protect bool) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := factorNode(buf, c, sets, store, protect); err != nil {
			return err
		}
	}
	return nil
}

func factorNode(buf *strings.Builder, c *xmldoc.Node, sets tagset.Sets, store *stylestore.Store, protect bool) error {
	switch c.Type {
	case xmldoc.TextNode:
		if protect {
			buf.WriteString(c.Data)
			return nil
		}
		if c.Parent != nil && sets.Raw.Has(c.Parent.Name) {
			buf.WriteString(c.Data)
		} else {
			buf.WriteString(encoding.EscapeXMLText(c.Data))
		}
		return nil

	case xmldoc.CommentNode:
		buf.WriteString(marker.ProtSpan("<!--" + c.Data + "-->"))
		return nil

	case xmldoc.ProcInstNode:
		buf.WriteString(marker.ProtSpan("<?" + c.Name + " " + c.Data + "?>"))
		return nil

	case xmldoc.ElementNode:
		return factorElement(buf, c, sets, store, protect)
	}
	return nil
}

func factorElement(buf *strings.Builder, c *xmldoc.Node, sets tagset.Sets, store *stylestore.Store, protect bool) error {
	hasChildren := c.FirstChild != nil
	fullyProtectedHere := sets.Prot.Has(c.Name)

	if protect || fullyProtectedHere {
		buf.WriteString(xmldoc.OpenTagRaw(c, !hasChildren))
		if hasChildren {
			if err := Factor(buf, c, sets, store, true); err != nil {
				return err
			}
			buf.WriteString(xmldoc.CloseTag(c))
		}
		return nil
	}

	if !hasChildren {
		open := xmldoc.OpenTagRaw(c, true)
		if sets.ProtInline.Has(c.Name) {
			buf.WriteString(marker.ProtSpan(open))
		} else {
			buf.WriteString(open)
		}
		return nil
	}

	if sets.ProtInline.Has(c.Name) {
		var lit strings.Builder
		lit.WriteString(xmldoc.OpenTagRaw(c, false))
		if err := Factor(&lit, c, sets, store, true); err != nil {
			return err
		}
		lit.WriteString(xmldoc.CloseTag(c))
		buf.WriteString(marker.ProtSpan(lit.String()))
		return nil
	}

	if eligible(c, sets) {
		open := xmldoc.OpenTagRaw(c, false)
		close_ := xmldoc.CloseTag(c)
		hash, err := store.PutStyle(c.Name, open, close_, "")
		if err != nil {
			return err
		}
		buf.WriteString(marker.InlineOpen(c.Name + ":" + hash))
		if err := Factor(buf, c, sets, store, false); err != nil {
			return err
		}
		buf.WriteString(marker.InlineClose())
		return nil
	}

	buf.WriteString(xmldoc.OpenTagRaw(c, false))
	if err := Factor(buf, c, sets, store, false); err != nil {
		return err
	}
	buf.WriteString(xmldoc.CloseTag(c))
	return nil
}

// eligible reports inline eligibility: name in tags_inline, not protected,
// first child not in tags_prot, not the only child of an inline ancestor,
// and no block-level descendant.
func eligible(c *xmldoc.Node, sets tagset.Sets) bool {
	if !sets.Inline.Has(c.Name) {
		return false
	}
	if first := firstElementChild(c); first != nil && sets.Prot.Has(first.Name) {
		return false
	}
	if space.IsOnlyChild(c, sets.Inline) {
		return false
	}
	if space.HasBlockChild(c, sets.Inline, sets.ProtInline) {
		return false
	}
	return true
}

func firstElementChild(n *xmldoc.Node) *xmldoc.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmldoc.ElementNode {
			return c
		}
	}
	return nil
}

var (
	protMerge = regexp.MustCompile(
		regexp.QuoteMeta(string(marker.ProtClose)) + `([\s\r\n\p{Z}]*)` + regexp.QuoteMeta(string(marker.ProtOpen)))
	protFull = marker.ProtSpanPattern()
)

// ProtectToStyles collapses every literal PROT_OPEN...PROT_CLOSE span Factor
// produced into a content-addressed hash reference, persisting the literal
// markup as a style record under the fixed tag "P". Without this pass, a
// protected element with real angle brackets (e.g. "<br/>") would survive
// into the reparsed tree as an actual child element again, splitting what
// should be one translatable text run into several; collapsing it to an
// opaque hash first keeps it inside a single text node. Adjacent protected
// regions separated only by whitespace are merged first, producing the
// "P:"-prefixed-hash PROT_OPEN P:hash PROT_CLOSE wire shape.
func ProtectToStyles(s string, store *stylestore.Store) (string, error) {
	for {
		loc := protMerge.FindStringSubmatchIndex(s)
		if loc == nil {
			break
		}
		s = s[:loc[0]] + s[loc[2]:loc[3]] + s[loc[1]:]
	}

	var b strings.Builder
	last := 0
	for _, m := range protFull.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(s[last:m[0]])
		content := s[m[2]:m[3]]
		hash, err := store.PutStyle("P", content, "", "")
		if err != nil {
			return "", err
		}
		b.WriteString(marker.ProtSpan("P:" + hash))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}
