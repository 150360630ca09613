package adapter

import (
	"strings"

	"github.com/transfuse/transfuse/core/marker"
	"github.com/transfuse/transfuse/core/stylestore"
	"github.com/transfuse/transfuse/core/tagset"
	"github.com/transfuse/transfuse/core/xmldoc"
	"github.com/transfuse/transfuse/internal/errs"
)

const docxDocumentMember = "word/document.xml"

// docxAdapter implements --format docx. OOXML splits one visual run of
// text across several <w:r><w:t> runs whenever Word toggles formatting
// mid-sentence, which would otherwise fragment every sentence into
// disconnected text nodes for StyleFactor/BlockExtractor to see; Extract
// merges every run directly inside a <w:p> into one synthetic <tf-text>
// wrapper, folding each run's bold/italic/hyperlink formatting into a
// style-store-backed inline marker span rather than discarding it, and
// Inject reverses this once rehydration has reconstructed those spans back
// into real <w:r>/<w:hyperlink> elements.
type docxAdapter struct{}

func newDOCXAdapter() (Adapter, error) {
	return docxAdapter{}, nil
}

var docxParentsAllow = []string{"tf-text"}

func docxTagSets() tagset.Sets {
	sets := tagset.New()
	sets.ParentsAllow.Add("tf-text")
	sets.ProtInline.Add("br")
	sets.ProtInline.Add("tab")
	return sets
}

func (docxAdapter) Extract(input []byte, store *stylestore.Store) (*xmldoc.Document, tagset.Sets, error) {
	members, err := readZip(input)
	if err != nil {
		return nil, tagset.Sets{}, err
	}
	idx := findMember(members, docxDocumentMember)
	if idx < 0 {
		return nil, tagset.Sets{}, errs.Fatal(errs.ErrParseMalformed, "missing word/document.xml", "", nil)
	}
	doc, err := xmldoc.ParseXML(members[idx].data)
	if err != nil {
		return nil, tagset.Sets{}, err
	}

	root := doc.RootElement()
	if root != nil {
		if err := mergeRunsRecursive(root, "p", store); err != nil {
			return nil, tagset.Sets{}, err
		}
	}

	return doc, docxTagSets(), nil
}

func (docxAdapter) Inject(doc *xmldoc.Document, original []byte) ([]byte, string, error) {
	root := doc.RootElement()
	if root != nil {
		unmergeRunsRecursive(root)
	}

	members, err := readZip(original)
	if err != nil {
		return nil, "", err
	}
	idx := findMember(members, docxDocumentMember)
	if idx < 0 {
		return nil, "", errs.Fatal(errs.ErrParseMalformed, "missing word/document.xml", "", nil)
	}
	members[idx].data = doc.Serialize()

	out, err := writeZip(members)
	if err != nil {
		return nil, "", err
	}
	return out, "injected.docx", nil
}

// mergeRunsRecursive walks n looking for elements named paraTag ("p" for
// DOCX <w:p>, "txBody"'s own "p" for PPTX) and merges their run children
// into a single <tf-text>.
func mergeRunsRecursive(n *xmldoc.Node, paraTag string, store *stylestore.Store) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmldoc.ElementNode && c.Name == paraTag {
			if err := mergeRuns(c, store); err != nil {
				return err
			}
		}
		if err := mergeRunsRecursive(c, paraTag, store); err != nil {
			return err
		}
	}
	return nil
}

// mergeRuns collapses every run ("r") or hyperlink child of para into one
// <tf-text> text node. A run's bold/italic/hyperlink formatting is not
// discarded: encodeRun/encodeHyperlink persist the run's (or hyperlink's)
// open/close markup into store under the same StyleFactor-style tag:hash
// convention used for ordinary inline elements, and wrap the run's text in
// the matching marker.InlineSpan, so rehydration reconstructs the real
// <r>/<hyperlink> element later the same way it reconstructs any other
// protected inline element.
func mergeRuns(para *xmldoc.Node, store *stylestore.Store) error {
	var text strings.Builder
	var firstRun *xmldoc.Node
	var runs []*xmldoc.Node

	for c := para.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmldoc.ElementNode {
			continue
		}
		switch c.Name {
		case "r":
			encoded, err := encodeRun(c, store)
			if err != nil {
				return err
			}
			text.WriteString(encoded)
		case "hyperlink":
			encoded, err := encodeHyperlink(c, store)
			if err != nil {
				return err
			}
			text.WriteString(encoded)
		default:
			continue
		}
		runs = append(runs, c)
		if firstRun == nil {
			firstRun = c
		}
	}
	if firstRun == nil {
		return nil
	}

	wrapper := &xmldoc.Node{Type: xmldoc.ElementNode, Name: "tf-text"}
	xmldoc.AppendChild(wrapper, xmldoc.NewText(text.String()))
	xmldoc.InsertBefore(firstRun, wrapper)
	for _, r := range runs {
		xmldoc.Remove(r)
	}
	return nil
}

// encodeRun returns a run's text, wrapped in a bold/italic inline-style
// marker span when the run carries one. rPr's b/i children are detected the
// way docx_merge_wt classifies a run's type ("b", "i" or "b+i"); the run's
// open tag plus its rPr subtree become the style record's "open" half so
// unmergeOne's later rehydration can rebuild the exact <w:rPr> the run had.
func encodeRun(run *xmldoc.Node, store *stylestore.Store) (string, error) {
	var text strings.Builder
	for rc := run.FirstChild; rc != nil; rc = rc.NextSibling {
		switch rc.Name {
		case "t":
			text.WriteString(collectText(rc))
		case "tab":
			text.WriteByte('\t')
		case "br":
			text.WriteByte('\n')
		}
	}
	body := text.String()

	rPr, kind := runFormatting(run)
	if kind == "" {
		return body, nil
	}

	open := xmldoc.OpenTagRaw(run, false)
	if rPr != nil {
		open += string(xmldoc.SerializeNode(rPr, false))
	}
	close_ := xmldoc.CloseTag(run)
	hash, err := store.PutStyle(kind, open, close_, "")
	if err != nil {
		return "", err
	}
	return marker.InlineSpan(kind+":"+hash, body), nil
}

// encodeHyperlink mirrors docx_merge_wt's hyperlink pass: only a hyperlink
// wrapping exactly one run is folded into an "a:hash" style span around that
// run's own (possibly bold/italic) span, matching the single-nested-marker
// shape core/cleanup's flattenPass already collapses; a hyperlink around
// anything more complex (e.g. a TOC entry) falls back to plain text so it
// is never misrepresented as a simple link.
func encodeHyperlink(link *xmldoc.Node, store *stylestore.Store) (string, error) {
	var only *xmldoc.Node
	count := 0
	for c := link.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmldoc.ElementNode {
			count++
			only = c
		}
	}
	if count != 1 || only.Name != "r" {
		return collectText(link), nil
	}

	inner, err := encodeRun(only, store)
	if err != nil {
		return "", err
	}

	open := xmldoc.OpenTagRaw(link, false)
	close_ := xmldoc.CloseTag(link)
	hash, err := store.PutStyle("a", open, close_, "")
	if err != nil {
		return "", err
	}
	return marker.InlineSpan("a:"+hash, inner), nil
}

// runFormatting reports run's rPr child (if any) and its classification:
// "b", "i", "b+i", or "" when the run carries no bold/italic toggle.
func runFormatting(run *xmldoc.Node) (*xmldoc.Node, string) {
	var rPr *xmldoc.Node
	for c := run.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmldoc.ElementNode && c.Name == "rPr" {
			rPr = c
			break
		}
	}
	if rPr == nil {
		return nil, ""
	}

	bold, italic := false, false
	for c := rPr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmldoc.ElementNode {
			continue
		}
		switch c.Name {
		case "b":
			if !toggledOff(c) {
				bold = true
			}
		case "i":
			if !toggledOff(c) {
				italic = true
			}
		}
	}

	switch {
	case bold && italic:
		return rPr, "b+i"
	case bold:
		return rPr, "b"
	case italic:
		return rPr, "i"
	default:
		return rPr, ""
	}
}

// toggledOff reports whether a <w:b/>/<w:i/> element explicitly turns the
// toggle off via w:val="0"/"false", rather than turning it on (the default
// when the attribute is absent).
func toggledOff(c *xmldoc.Node) bool {
	v, ok := xmldoc.GetAttr(c, "val")
	if !ok {
		return false
	}
	return v == "0" || v == "false"
}

// unmergeRunsRecursive reverses mergeRunsRecursive: every <tf-text> is
// unwrapped back into its (by then rehydrated) run/hyperlink children.
func unmergeRunsRecursive(n *xmldoc.Node) {
	var next *xmldoc.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == xmldoc.ElementNode && c.Name == "tf-text" {
			unmergeOne(c)
			continue
		}
		unmergeRunsRecursive(c)
	}
}

// unmergeOne unwraps wrapper's children in place rather than emitting a
// single hardcoded <r><t>: by injection time, rehydrateToFixpoint has
// already spliced each style span's stored open+body+close markup back into
// the content string before it was reparsed, so a wrapper that held a
// bold/italic/hyperlinked run now holds a real reconstructed <r>/<hyperlink>
// element alongside any untouched plain text; each bare text stretch still
// needs a fresh <r><t> of its own, but an already-reconstructed element
// passes through unchanged.
func unmergeOne(wrapper *xmldoc.Node) {
	var children []*xmldoc.Node
	for c := wrapper.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}

	var out []*xmldoc.Node
	for _, c := range children {
		switch c.Type {
		case xmldoc.ElementNode:
			xmldoc.Remove(c)
			out = append(out, c)
		case xmldoc.TextNode:
			if c.Data == "" {
				continue
			}
			out = append(out, plainRun(c.Data))
		}
	}
	if len(out) == 0 {
		out = append(out, plainRun(""))
	}

	for _, n := range out {
		xmldoc.InsertBefore(wrapper, n)
	}
	xmldoc.Remove(wrapper)
}

func plainRun(text string) *xmldoc.Node {
	run := &xmldoc.Node{Type: xmldoc.ElementNode, Name: "r"}
	t := &xmldoc.Node{Type: xmldoc.ElementNode, Name: "t", Attr: []xmldoc.Attr{{Space: "xml", Local: "space", Value: "preserve"}}}
	xmldoc.AppendChild(t, xmldoc.NewText(text))
	xmldoc.AppendChild(run, t)
	return run
}
