package adapter

import (
	"strings"

	"github.com/transfuse/transfuse/core/marker"
	"github.com/transfuse/transfuse/core/stylestore"
	"github.com/transfuse/transfuse/core/tagset"
	"github.com/transfuse/transfuse/core/xmldoc"
)

// htmlAdapter implements --format html and --format html-fragment. Inline
// styling (b/i/em/strong/span/a/...) is configured onto tags_inline so
// StyleFactor turns it into inline markers; block text lives under
// p/li/td/h1-h6/etc, configured onto tags_parents_allow.
type htmlAdapter struct {
	fragment bool
	context  string // fragment parse context element, e.g. "body"
}

var htmlInline = []string{
	"a", "b", "i", "u", "em", "strong", "span", "sub", "sup", "small",
	"big", "code", "kbd", "var", "cite", "q", "abbr", "font", "s", "strike",
	"mark", "ins", "del", "time",
}

var htmlProtInline = []string{"br", "img", "hr", "wbr"}

var htmlProt = []string{"script", "style", "noscript", "textarea"}

var htmlParentsAllow = []string{
	"p", "li", "td", "th", "caption", "figcaption", "dt", "dd", "blockquote",
	"h1", "h2", "h3", "h4", "h5", "h6", "title", "label", "legend", "summary",
}

func htmlTagSets() tagset.Sets {
	sets := tagset.New()
	for _, t := range htmlInline {
		sets.Inline.Add(t)
	}
	for _, t := range htmlProtInline {
		sets.ProtInline.Add(t)
	}
	for _, t := range htmlProt {
		sets.Prot.Add(t)
	}
	for _, t := range htmlParentsAllow {
		sets.ParentsAllow.Add(t)
	}
	sets.Headers.Add("h1")
	sets.Headers.Add("h2")
	sets.Headers.Add("h3")
	sets.Headers.Add("h4")
	sets.Headers.Add("h5")
	sets.Headers.Add("h6")
	return sets
}

func (a htmlAdapter) Extract(input []byte, store *stylestore.Store) (*xmldoc.Document, tagset.Sets, error) {
	var doc *xmldoc.Document
	var err error
	if a.fragment {
		doc, err = xmldoc.ParseHTMLFragment(input, a.context)
	} else {
		doc, err = xmldoc.ParseHTML(input)
	}
	if err != nil {
		return nil, tagset.Sets{}, err
	}

	substituteCharsetOut(doc.Root)

	return doc, htmlTagSets(), nil
}

func (a htmlAdapter) Inject(doc *xmldoc.Document, original []byte) ([]byte, string, error) {
	substituteCharsetIn(doc.Root)

	name := "injected.html"
	if a.fragment {
		name = "injected.frag.html"
	}
	return doc.Serialize(), name, nil
}

// substituteCharsetOut replaces a <meta> tag's charset declaration with
// marker.XMLEncPlaceholder so later translation passes never see (or
// corrupt) the literal encoding name; substituteCharsetIn restores it to
// "UTF-8" on the way back out, since Transfuse always normalizes text to
// UTF-8 internally.
func substituteCharsetOut(n *xmldoc.Node) {
	forEachMeta(n, func(m *xmldoc.Node) {
		if _, ok := xmldoc.GetAttr(m, "charset"); ok {
			xmldoc.SetAttr(m, "charset", string(marker.XMLEncPlaceholder))
			return
		}
		if v, ok := xmldoc.GetAttr(m, "content"); ok {
			if replaced, changed := replaceCharsetValue(v, string(marker.XMLEncPlaceholder)); changed {
				xmldoc.SetAttr(m, "content", replaced)
			}
		}
	})
}

func substituteCharsetIn(n *xmldoc.Node) {
	placeholder := string(marker.XMLEncPlaceholder)
	forEachMeta(n, func(m *xmldoc.Node) {
		if v, ok := xmldoc.GetAttr(m, "charset"); ok && v == placeholder {
			xmldoc.SetAttr(m, "charset", "UTF-8")
			return
		}
		if v, ok := xmldoc.GetAttr(m, "content"); ok && strings.Contains(v, placeholder) {
			xmldoc.SetAttr(m, "content", strings.ReplaceAll(v, placeholder, "UTF-8"))
		}
	})
}

func forEachMeta(n *xmldoc.Node, fn func(*xmldoc.Node)) {
	if n.Type == xmldoc.ElementNode && strings.EqualFold(n.Name, "meta") {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		forEachMeta(c, fn)
	}
}

// replaceCharsetValue replaces the charset name inside a Content-Type
// header value ("text/html; charset=iso-8859-1") with replacement.
func replaceCharsetValue(contentType, replacement string) (string, bool) {
	idx := strings.Index(strings.ToLower(contentType), "charset=")
	if idx < 0 {
		return contentType, false
	}
	prefix := contentType[:idx+len("charset=")]
	rest := contentType[idx+len("charset="):]
	end := strings.IndexAny(rest, "; \t")
	if end < 0 {
		end = len(rest)
	}
	return prefix + replacement + rest[end:], true
}
