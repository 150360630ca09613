package adapter

import (
	"github.com/transfuse/transfuse/core/stylestore"
	"github.com/transfuse/transfuse/core/tagset"
	"github.com/transfuse/transfuse/core/xmldoc"
)

// teiAdapter implements --format tei: TEI XML is parsed directly (no
// run-merging or charset substitution needed, unlike the OOXML/HTML
// adapters) and serialized back out unchanged in shape.
type teiAdapter struct{}

var teiInline = []string{"hi", "foreign", "name", "persName", "placeName", "term", "ref", "date", "num"}

var teiProtInline = []string{"lb", "pb", "gb"}

var teiParentsAllow = []string{
	"p", "head", "l", "item", "cell", "label", "note", "title", "ab", "seg",
}

func teiTagSets() tagset.Sets {
	sets := tagset.New()
	for _, t := range teiInline {
		sets.Inline.Add(t)
	}
	for _, t := range teiProtInline {
		sets.ProtInline.Add(t)
	}
	for _, t := range teiParentsAllow {
		sets.ParentsAllow.Add(t)
	}
	sets.Headers.Add("head")
	return sets
}

func (teiAdapter) Extract(input []byte, store *stylestore.Store) (*xmldoc.Document, tagset.Sets, error) {
	doc, err := xmldoc.ParseXML(input)
	if err != nil {
		return nil, tagset.Sets{}, err
	}
	return doc, teiTagSets(), nil
}

func (teiAdapter) Inject(doc *xmldoc.Document, original []byte) ([]byte, string, error) {
	return doc.Serialize(), "injected.xml", nil
}
