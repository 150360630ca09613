package adapter

import (
	"github.com/transfuse/transfuse/core/stylestore"
	"github.com/transfuse/transfuse/core/tagset"
	"github.com/transfuse/transfuse/core/xmldoc"
	"github.com/transfuse/transfuse/internal/errs"
)

// odfContentMember names the single zip member each ODF format keeps its
// translatable text in; every other archive member (styles.xml, manifest,
// media, mimetype) passes through untouched, per the Non-goal that only
// the textual payload (not bit-identical archive structure) needs to
// round-trip.
var odfContentMember = map[Format]string{
	ODT: "content.xml",
	ODP: "content.xml",
}

// odfAdapter implements --format odt/odp. Both formats share the same ODF
// content.xml shape (office:document-content wrapping text/draw elements
// with text:, draw:, table: prefixes that core/xmldoc.ParseXML reduces to
// their local names), so one adapter serves both.
type odfAdapter struct {
	format Format
}

func newODFAdapter(format Format) (Adapter, error) {
	if _, ok := odfContentMember[format]; !ok {
		return nil, errs.Fatal(errs.ErrFormatUnknown, "odf adapter", string(format), nil)
	}
	return odfAdapter{format: format}, nil
}

var odfInline = []string{"span", "a", "note", "s", "tab", "line-break"}

var odfParentsAllow = []string{
	"p", "h", "table-cell", "list-item", "text-box", "caption",
}

func odfTagSets() tagset.Sets {
	sets := tagset.New()
	for _, t := range odfInline {
		sets.Inline.Add(t)
	}
	for _, t := range odfParentsAllow {
		sets.ParentsAllow.Add(t)
	}
	sets.ProtInline.Add("line-break")
	sets.Headers.Add("h")
	return sets
}

func (a odfAdapter) Extract(input []byte, store *stylestore.Store) (*xmldoc.Document, tagset.Sets, error) {
	members, err := readZip(input)
	if err != nil {
		return nil, tagset.Sets{}, err
	}
	idx := findMember(members, odfContentMember[a.format])
	if idx < 0 {
		return nil, tagset.Sets{}, errs.Fatal(errs.ErrParseMalformed, "missing content.xml", string(a.format), nil)
	}
	doc, err := xmldoc.ParseXML(members[idx].data)
	if err != nil {
		return nil, tagset.Sets{}, err
	}
	return doc, odfTagSets(), nil
}

func (a odfAdapter) Inject(doc *xmldoc.Document, original []byte) ([]byte, string, error) {
	members, err := readZip(original)
	if err != nil {
		return nil, "", err
	}
	idx := findMember(members, odfContentMember[a.format])
	if idx < 0 {
		return nil, "", errs.Fatal(errs.ErrParseMalformed, "missing content.xml", string(a.format), nil)
	}
	members[idx].data = doc.Serialize()

	out, err := writeZip(members)
	if err != nil {
		return nil, "", err
	}

	name := "injected.odt"
	if a.format == ODP {
		name = "injected.odp"
	}
	return out, name, nil
}
