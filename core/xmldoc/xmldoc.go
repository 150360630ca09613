// Package xmldoc is the DOM facade DomWalker, SpaceEngine, StyleFactor, and
// BlockExtractor operate on. It is a small mutable tree
// — parent/sibling/child pointers plus attributes — built directly rather
// than wrapping a third-party tree, because the core passes splice,
// replace, and relabel nodes in place (sidecar whitespace attributes,
// marker substitution) and need full control over that linked structure.
//
// XML input is parsed with the standard library's encoding/xml.Decoder.
// HTML input is parsed with golang.org/x/net/html and converted into the
// same Node shape via FromHTML, so every later pass is format-agnostic.
package xmldoc

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"

	"github.com/transfuse/transfuse/core/encoding"
)

// NodeType distinguishes element, text, comment, and processing-instruction
// nodes.
type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
	ProcInstNode
)

// Attr is one attribute: a namespace-prefixed name and its value.
type Attr struct {
	Space string
	Local string
	Value string
}

// Node is one tree node. Element nodes carry Name/Prefix/Attr; text and
// comment nodes carry Data.
type Node struct {
	Type NodeType

	Name   string // element/PI name
	Prefix string // namespace prefix, if any
	Attr   []Attr
	Data   string // text/comment/PI content

	Parent, FirstChild, LastChild, PrevSibling, NextSibling *Node
}

// Document is a parsed tree.
type Document struct {
	Root *Node // synthetic DocumentNode holding the real root(s) as children
}

// ParseXML parses XML (or an XML-shaped fragment produced by StyleFactor)
// into a Document, preserving element/text/comment/PI nodes and attribute
// order.
func ParseXML(data []byte) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	root := &Node{Type: DocumentNode}
	stack := []*Node{root}
	top := func() *Node { return stack[len(stack)-1] }

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("parsing xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Type: ElementNode, Name: t.Name.Local, Prefix: localPrefix(t.Name.Space)}
			for _, a := range t.Attr {
				n.Attr = append(n.Attr, Attr{Space: a.Name.Space, Local: a.Name.Local, Value: a.Value})
			}
			AppendChild(top(), n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			AppendChild(top(), &Node{Type: TextNode, Data: string(t)})
		case xml.Comment:
			AppendChild(top(), &Node{Type: CommentNode, Data: string(t)})
		case xml.ProcInst:
			AppendChild(top(), &Node{Type: ProcInstNode, Name: t.Target, Data: string(t.Inst)})
		}
	}
	return &Document{Root: root}, nil
}

// localPrefix is a placeholder hook: encoding/xml resolves namespace URIs,
// not prefixes, by the time tokens reach us, so Transfuse (which only needs
// to round-trip the literal prefix text) keeps Space empty unless the
// caller's adapter re-derives one from the URI. Most of the supported
// formats (HTML, TEI, OOXML, ODT) don't rely on prefix round-tripping for
// the text Transfuse touches.
func localPrefix(space string) string { return "" }

// ParseHTML parses HTML (or an XHTML fragment treated permissively) via
// golang.org/x/net/html and converts the result into a Document built from
// the same Node type XML documents use.
func ParseHTML(data []byte) (*Document, error) {
	htmlRoot, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	root := &Node{Type: DocumentNode}
	convertChildren(htmlRoot, root)
	return &Document{Root: root}, nil
}

// ParseHTMLFragment parses an HTML fragment (no implied <html>/<body>) in
// the given context element, as html-fragment format requires.
func ParseHTMLFragment(data []byte, context string) (*Document, error) {
	ctxNode := &html.Node{Type: html.ElementNode, Data: context, DataAtom: 0}
	nodes, err := html.ParseFragment(bytes.NewReader(data), ctxNode)
	if err != nil {
		return nil, fmt.Errorf("parsing html fragment: %w", err)
	}
	root := &Node{Type: DocumentNode}
	for _, n := range nodes {
		dst := convertNode(n)
		if dst == nil {
			continue
		}
		AppendChild(root, dst)
		convertChildren(n, dst)
	}
	return &Document{Root: root}, nil
}

func convertChildren(src *html.Node, dstParent *Node) {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		dst := convertNode(c)
		if dst == nil {
			continue
		}
		AppendChild(dstParent, dst)
		convertChildren(c, dst)
	}
}

func convertNode(n *html.Node) *Node {
	switch n.Type {
	case html.ElementNode:
		dst := &Node{Type: ElementNode, Name: n.Data}
		for _, a := range n.Attr {
			dst.Attr = append(dst.Attr, Attr{Space: a.Namespace, Local: a.Key, Value: a.Val})
		}
		return dst
	case html.TextNode:
		return &Node{Type: TextNode, Data: n.Data}
	case html.CommentNode:
		return &Node{Type: CommentNode, Data: n.Data}
	default:
		return nil
	}
}

// RootElement returns the first element child of the document node.
func (d *Document) RootElement() *Node {
	for c := d.Root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

// Serialize renders the document back to XML/HTML text, stripping any
// internal tf- sidecar attribute still left on the tree.
func (d *Document) Serialize() []byte {
	var b strings.Builder
	for c := d.Root.FirstChild; c != nil; c = c.NextSibling {
		writeNode(&b, c, true)
	}
	return []byte(b.String())
}

// SerializeRaw renders the document like Serialize but keeps tf- sidecar
// attributes, for writing the intermediate styled.xml/content.xml work-dir
// artifacts that a later reparse must recover them from.
func (d *Document) SerializeRaw() []byte {
	var b strings.Builder
	for c := d.Root.FirstChild; c != nil; c = c.NextSibling {
		writeNode(&b, c, false)
	}
	return []byte(b.String())
}

// SerializeNode renders n and its subtree the same way Serialize/SerializeRaw
// render a document, for callers (format adapters) that need one node's
// literal markup rather than a whole document's.
func SerializeNode(n *Node, stripSidecars bool) []byte {
	var b strings.Builder
	writeNode(&b, n, stripSidecars)
	return []byte(b.String())
}

func writeNode(b *strings.Builder, n *Node, stripSidecars bool) {
	switch n.Type {
	case ElementNode:
		hasChildren := n.FirstChild != nil
		b.WriteString(openTag(n, !hasChildren, stripSidecars))
		if hasChildren {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				writeNode(b, c, stripSidecars)
			}
			b.WriteString(CloseTag(n))
		}
	case TextNode:
		b.WriteString(encoding.EscapeXMLText(n.Data))
	case CommentNode:
		b.WriteString("<!--")
		b.WriteString(n.Data)
		b.WriteString("-->")
	case ProcInstNode:
		b.WriteString("<?")
		b.WriteString(n.Name)
		b.WriteByte(' ')
		b.WriteString(n.Data)
		b.WriteString("?>")
	}
}

// SniffRootElement uses antchfx/xmlquery + antchfx/xpath to identify a
// document's root element name for format auto-detection, without
// requiring our own mutable parse. This is a read-only diagnostic query
// and the only place the module uses xmlquery/xpath.
func SniffRootElement(data []byte) (string, error) {
	const expr = "/*"
	if _, err := xpath.Compile(expr); err != nil {
		return "", fmt.Errorf("invalid xpath: %w", err)
	}
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("sniffing root element: %w", err)
	}
	nodes, err := xmlquery.QueryAll(doc, expr)
	if err != nil {
		return "", fmt.Errorf("xpath query failed: %w", err)
	}
	if len(nodes) == 0 {
		return "", nil
	}
	return nodes[0].Data, nil
}

// --- mutation helpers ---

// AppendChild appends child as parent's last child, fixing up sibling and
// parent pointers. Safe to call while constructing a tree top-down.
func AppendChild(parent, child *Node) {
	child.Parent = parent
	if parent.FirstChild == nil {
		parent.FirstChild = child
		child.PrevSibling = nil
	} else {
		parent.LastChild.NextSibling = child
		child.PrevSibling = parent.LastChild
	}
	parent.LastChild = child
	child.NextSibling = nil
}

// InsertBefore inserts newNode immediately before ref among ref's siblings.
func InsertBefore(ref, newNode *Node) {
	newNode.Parent = ref.Parent
	newNode.PrevSibling = ref.PrevSibling
	newNode.NextSibling = ref
	if ref.PrevSibling != nil {
		ref.PrevSibling.NextSibling = newNode
	} else if ref.Parent != nil {
		ref.Parent.FirstChild = newNode
	}
	ref.PrevSibling = newNode
}

// InsertAfter inserts newNode immediately after ref among ref's siblings.
func InsertAfter(ref, newNode *Node) {
	newNode.Parent = ref.Parent
	newNode.NextSibling = ref.NextSibling
	newNode.PrevSibling = ref
	if ref.NextSibling != nil {
		ref.NextSibling.PrevSibling = newNode
	} else if ref.Parent != nil {
		ref.Parent.LastChild = newNode
	}
	ref.NextSibling = newNode
}

// Remove unlinks n from its parent/siblings.
func Remove(n *Node) {
	if n.PrevSibling != nil {
		n.PrevSibling.NextSibling = n.NextSibling
	} else if n.Parent != nil {
		n.Parent.FirstChild = n.NextSibling
	}
	if n.NextSibling != nil {
		n.NextSibling.PrevSibling = n.PrevSibling
	} else if n.Parent != nil {
		n.Parent.LastChild = n.PrevSibling
	}
	n.Parent, n.PrevSibling, n.NextSibling = nil, nil, nil
}

// ReplaceWith swaps old for replacement in old's sibling chain.
func ReplaceWith(old, replacement *Node) {
	InsertBefore(old, replacement)
	Remove(old)
}

// NewText builds a standalone text node.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// GetAttr reads a named attribute's value, ignoring namespace.
func GetAttr(n *Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets (or inserts) a named attribute.
func SetAttr(n *Node, name, value string) {
	for i, a := range n.Attr {
		if a.Local == name {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, Attr{Local: name, Value: value})
}

// RemoveAttr deletes a named attribute if present.
func RemoveAttr(n *Node, name string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Local != name {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// HasAttrs reports whether n carries any attributes.
func HasAttrs(n *Node) bool { return len(n.Attr) > 0 }

// IsWhitespaceOnlyText reports whether n is a text node whose content is
// empty or whitespace-only (adjacent elements with no non-whitespace text
// don't count as "children" for only-child purposes).
func IsWhitespaceOnlyText(n *Node) bool {
	if n.Type != TextNode {
		return false
	}
	return strings.TrimSpace(n.Data) == ""
}

// OpenTag renders "<name attrs>" (or "<name attrs/>" if selfClose),
// stripping any attribute whose name begins with "tf-" (internal sidecars).
// Used for final output, where no internal sidecar should ever be visible
// even if space restoration missed one.
func OpenTag(n *Node, selfClose bool) string {
	return openTag(n, selfClose, true)
}

// OpenTagRaw renders "<name attrs>" like OpenTag but keeps tf- prefixed
// attributes. StyleFactor serializes through this variant so that
// sidecar attributes SaveSpaces recorded on the tree survive into
// content.xml's text form and come back out the other side when that text
// is reparsed after injection.
func OpenTagRaw(n *Node, selfClose bool) string {
	return openTag(n, selfClose, false)
}

func openTag(n *Node, selfClose, stripSidecars bool) string {
	var b strings.Builder
	b.WriteByte('<')
	if n.Prefix != "" {
		b.WriteString(n.Prefix)
		b.WriteByte(':')
	}
	b.WriteString(n.Name)
	for _, a := range n.Attr {
		if stripSidecars && strings.HasPrefix(a.Local, "tf-") {
			continue
		}
		b.WriteByte(' ')
		if a.Space != "" {
			b.WriteString(a.Space)
			b.WriteByte(':')
		}
		b.WriteString(a.Local)
		b.WriteString(`="`)
		b.WriteString(encoding.EscapeXMLAttr(a.Value))
		b.WriteByte('"')
	}
	if selfClose {
		b.WriteString("/>")
	} else {
		b.WriteByte('>')
	}
	return b.String()
}

// CloseTag renders "</name>".
func CloseTag(n *Node) string {
	if n.Prefix != "" {
		return "</" + n.Prefix + ":" + n.Name + ">"
	}
	return "</" + n.Name + ">"
}
