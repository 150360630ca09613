// Package space implements SpaceEngine: saving whitespace
// that sits at element boundaries into sidecar attributes before
// StyleFactor runs, and restoring or re-materializing it after injection,
// so factored inline markers never carry leading/trailing whitespace
// inside their own span.
package space

import (
	"regexp"
	"strings"

	"github.com/transfuse/transfuse/core/domwalker"
	"github.com/transfuse/transfuse/core/marker"
	"github.com/transfuse/transfuse/core/tagset"
	"github.com/transfuse/transfuse/core/xmldoc"
)

const (
	attrPrefix    = "tf-space-prefix"
	attrSuffix    = "tf-space-suffix"
	attrAfter     = "tf-space-after"
	attrBefore    = "tf-space-before"
	attrAddBefore = "tf-added-before"
	attrAddAfter  = "tf-added-after"
)

var (
	leadingWS  = regexp.MustCompile(`^[\s\r\n\p{Z}]+`)
	trailingWS = regexp.MustCompile(`[\s\r\n\p{Z}]+$`)
)

// SaveSpaces walks tree recording boundary whitespace as sidecar attributes,
// for every text node whose parent is not fully protected.
func SaveSpaces(n *xmldoc.Node, prot tagset.Set) {
	if n.Type == xmldoc.ElementNode && prot.Has(n.Name) {
		return
	}
	domwalker.ForEachChild(n, func(c *xmldoc.Node) {
		if c.Type == xmldoc.TextNode {
			saveTextSpaces(c)
		}
		SaveSpaces(c, prot)
	})
}

func saveTextSpaces(t *xmldoc.Node) {
	if marker.Whitespace.MatchString(t.Data) {
		recordWholeWhitespace(t)
		return
	}
	if lead := leadingWS.FindString(t.Data); lead != "" {
		recordEdge(t, lead, false)
	}
	if trail := trailingWS.FindString(t.Data); trail != "" {
		recordEdge(t, trail, true)
	}
}

// recordWholeWhitespace handles a text node whose entire content is
// whitespace: it is left in place and a sidecar attribute duplicates it on
// the appropriate neighbor, per a four-way policy keyed on which side has
// a real sibling.
func recordWholeWhitespace(t *xmldoc.Node) {
	parent := t.Parent
	switch {
	case t.PrevSibling == nil:
		xmldoc.SetAttr(parent, attrPrefix, t.Data)
	case t.NextSibling == nil:
		xmldoc.SetAttr(parent, attrSuffix, t.Data)
	case t.PrevSibling.Type == xmldoc.ElementNode || xmldoc.HasAttrs(t.PrevSibling):
		xmldoc.SetAttr(t.PrevSibling, attrAfter, t.Data)
	case t.NextSibling.Type == xmldoc.ElementNode || xmldoc.HasAttrs(t.NextSibling):
		xmldoc.SetAttr(t.NextSibling, attrBefore, t.Data)
	}
}

// recordEdge handles a leading (trailing=false) or trailing (trailing=true)
// whitespace run on a text node that also has non-whitespace content.
func recordEdge(t *xmldoc.Node, ws string, trailing bool) {
	parent := t.Parent
	if !trailing {
		switch {
		case t.PrevSibling == nil:
			xmldoc.SetAttr(parent, attrPrefix, ws)
		case t.PrevSibling.Type == xmldoc.ElementNode || xmldoc.HasAttrs(t.PrevSibling):
			xmldoc.SetAttr(t.PrevSibling, attrAfter, ws)
		}
		return
	}
	switch {
	case t.NextSibling == nil:
		xmldoc.SetAttr(parent, attrSuffix, ws)
	case t.NextSibling.Type == xmldoc.ElementNode || xmldoc.HasAttrs(t.NextSibling):
		xmldoc.SetAttr(t.NextSibling, attrBefore, ws)
	}
}

// RestoreSpaces re-inserts saved whitespace into neighboring text content
// and consumes tf-added-before/tf-added-after sidecars by trimming the
// adjacent text node, then replaces any SENTINEL occurrences with a
// newline.
func RestoreSpaces(n *xmldoc.Node) {
	domwalker.ForEachChild(n, func(c *xmldoc.Node) {
		RestoreSpaces(c)
	})
	if n.Type != xmldoc.ElementNode {
		return
	}
	restoreOnSelf(n)
}

func restoreOnSelf(n *xmldoc.Node) {
	if v, ok := xmldoc.GetAttr(n, attrPrefix); ok {
		prependInto(n.FirstChild, n, v)
		xmldoc.RemoveAttr(n, attrPrefix)
	}
	if v, ok := xmldoc.GetAttr(n, attrSuffix); ok {
		appendInto(n.LastChild, n, v, true)
		xmldoc.RemoveAttr(n, attrSuffix)
	}
	if v, ok := xmldoc.GetAttr(n, attrAfter); ok {
		prependInto(n.NextSibling, nil, v)
		xmldoc.RemoveAttr(n, attrAfter)
	}
	if v, ok := xmldoc.GetAttr(n, attrBefore); ok {
		appendInto(n.PrevSibling, nil, v, false)
		xmldoc.RemoveAttr(n, attrBefore)
	}
	if _, ok := xmldoc.GetAttr(n, attrAddBefore); ok {
		if n.PrevSibling != nil && n.PrevSibling.Type == xmldoc.TextNode {
			n.PrevSibling.Data = trailingWS.ReplaceAllString(n.PrevSibling.Data, "")
		}
		xmldoc.RemoveAttr(n, attrAddBefore)
	}
	if _, ok := xmldoc.GetAttr(n, attrAddAfter); ok {
		if n.NextSibling != nil && n.NextSibling.Type == xmldoc.TextNode {
			n.NextSibling.Data = leadingWS.ReplaceAllString(n.NextSibling.Data, "")
		}
		xmldoc.RemoveAttr(n, attrAddAfter)
	}
	replaceSentinel(n)
}

func replaceSentinel(n *xmldoc.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmldoc.TextNode && strings.ContainsRune(c.Data, marker.Sentinel) {
			c.Data = strings.ReplaceAll(c.Data, string(marker.Sentinel), "\n")
		}
	}
}

// prependInto prepends ws to target's content after left-trimming the
// existing whitespace on the contact edge. target is the first child of
// fallbackParent if non-nil and target is nil (an empty element).
func prependInto(target, fallbackParent *xmldoc.Node, ws string) {
	if target != nil && target.Type == xmldoc.TextNode {
		target.Data = ws + leadingWS.ReplaceAllString(target.Data, "")
		return
	}
	newText := xmldoc.NewText(ws)
	if target != nil {
		xmldoc.InsertBefore(target, newText)
		return
	}
	if fallbackParent != nil {
		xmldoc.AppendChild(fallbackParent, newText)
	}
}

// appendInto appends ws to target's content after right-trimming the
// existing whitespace on the contact edge. If last is true, target is
// fallbackParent's last child (so the new text becomes the new last
// child when target is nil).
func appendInto(target, fallbackParent *xmldoc.Node, ws string, last bool) {
	if target != nil && target.Type == xmldoc.TextNode {
		target.Data = trailingWS.ReplaceAllString(target.Data, "") + ws
		return
	}
	newText := xmldoc.NewText(ws)
	if target != nil {
		xmldoc.InsertAfter(target, newText)
		return
	}
	if fallbackParent != nil {
		xmldoc.AppendChild(fallbackParent, newText)
	}
}

// CreateSpaces materializes any sidecar attribute still present (because
// the text node that would have carried restoreSpaces' edit was lost
// during translation) as a freshly built text node at the correct side of
// the element.
func CreateSpaces(n *xmldoc.Node) {
	domwalker.ForEachChild(n, func(c *xmldoc.Node) {
		CreateSpaces(c)
	})
	if n.Type != xmldoc.ElementNode {
		return
	}
	if v, ok := xmldoc.GetAttr(n, attrPrefix); ok {
		xmldoc.InsertBefore(firstOrSelf(n), xmldoc.NewText(v))
		xmldoc.RemoveAttr(n, attrPrefix)
	}
	if v, ok := xmldoc.GetAttr(n, attrSuffix); ok {
		xmldoc.AppendChild(n, xmldoc.NewText(v))
		xmldoc.RemoveAttr(n, attrSuffix)
	}
	if v, ok := xmldoc.GetAttr(n, attrAfter); ok {
		xmldoc.InsertAfter(n, xmldoc.NewText(v))
		xmldoc.RemoveAttr(n, attrAfter)
	}
	if v, ok := xmldoc.GetAttr(n, attrBefore); ok {
		xmldoc.InsertBefore(n, xmldoc.NewText(v))
		xmldoc.RemoveAttr(n, attrBefore)
	}
}

// firstOrSelf returns n's first child if it has one, else n itself, so
// InsertBefore always has a valid sibling anchor within the parent.
func firstOrSelf(n *xmldoc.Node) *xmldoc.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	return n
}

// IsOnlyChild reports whether node is the sole non-whitespace child of its
// parent, recursively up through ancestors whose names are in the inline
// set.
func IsOnlyChild(node *xmldoc.Node, inline tagset.Set) bool {
	parent := node.Parent
	if parent == nil {
		return false
	}
	if !soleNonWhitespaceChild(parent, node) {
		return false
	}
	if parent.Type == xmldoc.ElementNode && inline.Has(parent.Name) {
		return IsOnlyChild(parent, inline)
	}
	return true
}

func soleNonWhitespaceChild(parent, node *xmldoc.Node) bool {
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c == node {
			continue
		}
		if xmldoc.IsWhitespaceOnlyText(c) {
			continue
		}
		return false
	}
	return true
}

// HasBlockChild reports whether node has any element descendant whose name
// is neither inline nor protected-inline.
func HasBlockChild(node *xmldoc.Node, inline, protInline tagset.Set) bool {
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmldoc.ElementNode {
			continue
		}
		if !inline.Has(c.Name) && !protInline.Has(c.Name) {
			return true
		}
		if HasBlockChild(c, inline, protInline) {
			return true
		}
	}
	return false
}
