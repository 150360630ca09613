package adapter

import (
	"strings"

	"github.com/transfuse/transfuse/core/stylestore"
	"github.com/transfuse/transfuse/core/tagset"
	"github.com/transfuse/transfuse/core/xmldoc"
)

// textAdapter implements --format text: plain text with no markup at all.
// Paragraphs (blank-line-separated runs) become <p> children of a synthetic
// <tf-text> root so BlockExtractor has block-eligible elements to number;
// Inject reverses this by joining each surviving <p>'s text with blank
// lines.
type textAdapter struct{}

func (textAdapter) Extract(input []byte, store *stylestore.Store) (*xmldoc.Document, tagset.Sets, error) {
	doc := &xmldoc.Document{Root: &xmldoc.Node{Type: xmldoc.DocumentNode}}
	root := &xmldoc.Node{Type: xmldoc.ElementNode, Name: "tf-text"}
	xmldoc.AppendChild(doc.Root, root)

	for _, para := range splitParagraphs(string(input)) {
		p := &xmldoc.Node{Type: xmldoc.ElementNode, Name: "p"}
		xmldoc.AppendChild(root, p)
		xmldoc.AppendChild(p, xmldoc.NewText(para))
	}

	return doc, tagset.New(), nil
}

func (textAdapter) Inject(doc *xmldoc.Document, original []byte) ([]byte, string, error) {
	root := doc.RootElement()
	var paras []string
	if root != nil {
		for c := root.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmldoc.ElementNode && c.Name == "p" {
				paras = append(paras, collectText(c))
			}
		}
	}
	return []byte(strings.Join(paras, "\n\n")), "injected.txt", nil
}

// lineAdapter implements --format line: one translation unit per input
// line (used by line-oriented CG/MT tooling that already segments text).
// Every line, including empty ones, becomes an <l> child of <tf-lines> so
// line count and order are preserved exactly.
type lineAdapter struct{}

func (lineAdapter) Extract(input []byte, store *stylestore.Store) (*xmldoc.Document, tagset.Sets, error) {
	doc := &xmldoc.Document{Root: &xmldoc.Node{Type: xmldoc.DocumentNode}}
	root := &xmldoc.Node{Type: xmldoc.ElementNode, Name: "tf-lines"}
	xmldoc.AppendChild(doc.Root, root)

	text := strings.TrimSuffix(string(input), "\n")
	for _, line := range strings.Split(text, "\n") {
		l := &xmldoc.Node{Type: xmldoc.ElementNode, Name: "l"}
		xmldoc.AppendChild(root, l)
		if line != "" {
			xmldoc.AppendChild(l, xmldoc.NewText(line))
		}
	}

	return doc, tagset.New(), nil
}

func (lineAdapter) Inject(doc *xmldoc.Document, original []byte) ([]byte, string, error) {
	root := doc.RootElement()
	var lines []string
	if root != nil {
		for c := root.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmldoc.ElementNode && c.Name == "l" {
				lines = append(lines, collectText(c))
			}
		}
	}
	out := strings.Join(lines, "\n")
	if out != "" {
		out += "\n"
	}
	return []byte(out), "injected.txt", nil
}

// splitParagraphs splits on runs of two or more newlines, trimming newlines
// left at each paragraph's edges (other whitespace is kept) but keeping
// interior single newlines (soft-wrapped lines within one paragraph).
func splitParagraphs(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	raw := strings.Split(s, "\n\n")
	var out []string
	for _, p := range raw {
		p = strings.Trim(p, "\n")
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		out = append(out, "")
	}
	return out
}

// collectText concatenates every text-node descendant of n in document
// order, the inverse of splitParagraphs/line-splitting above.
func collectText(n *xmldoc.Node) string {
	var b strings.Builder
	var walk func(*xmldoc.Node)
	walk = func(n *xmldoc.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmldoc.TextNode {
				b.WriteString(c.Data)
			}
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
