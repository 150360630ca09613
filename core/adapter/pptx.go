package adapter

import (
	"github.com/transfuse/transfuse/core/stylestore"
	"github.com/transfuse/transfuse/core/tagset"
	"github.com/transfuse/transfuse/core/xmldoc"
	"github.com/transfuse/transfuse/internal/errs"
)

// pptxAdapter implements --format pptx. A presentation's text is spread
// across one ppt/slides/slideN.xml part per slide, each itself splitting
// sentences across <a:r><a:t> runs the same way DOCX splits <w:r><w:t>
// runs. Extract parses every slide part, run-merges it with the same
// <tf-text> technique docxAdapter uses (including folding bold/italic/
// hyperlink runs into style-store-backed marker spans), and stitches the
// parts together under one synthetic <tf-archive> root (each part a
// <tf-part> child, in slide order) so the rest of the pipeline sees one
// document; Inject splits tf-archive back into its per-slide parts by
// position and rewrites each slide member in place.
type pptxAdapter struct{}

func newPPTXAdapter() (Adapter, error) {
	return pptxAdapter{}, nil
}

func pptxTagSets() tagset.Sets {
	sets := tagset.New()
	sets.ParentsAllow.Add("tf-text")
	sets.ProtInline.Add("br")
	sets.ProtInline.Add("tab")
	return sets
}

func (pptxAdapter) Extract(input []byte, store *stylestore.Store) (*xmldoc.Document, tagset.Sets, error) {
	members, err := readZip(input)
	if err != nil {
		return nil, tagset.Sets{}, err
	}
	slideNames := sortedSlideNames(members)
	if len(slideNames) == 0 {
		return nil, tagset.Sets{}, errs.Fatal(errs.ErrParseMalformed, "no slides found", "", nil)
	}

	doc := &xmldoc.Document{Root: &xmldoc.Node{Type: xmldoc.DocumentNode}}
	archiveRoot := &xmldoc.Node{Type: xmldoc.ElementNode, Name: "tf-archive"}
	xmldoc.AppendChild(doc.Root, archiveRoot)

	for _, name := range slideNames {
		idx := findMember(members, name)
		slideDoc, err := xmldoc.ParseXML(members[idx].data)
		if err != nil {
			return nil, tagset.Sets{}, err
		}
		slideRoot := slideDoc.RootElement()
		if slideRoot == nil {
			continue
		}
		if err := mergeRunsRecursive(slideRoot, "p", store); err != nil {
			return nil, tagset.Sets{}, err
		}

		part := &xmldoc.Node{Type: xmldoc.ElementNode, Name: "tf-part"}
		xmldoc.AppendChild(archiveRoot, part)
		xmldoc.AppendChild(part, slideRoot)
	}

	return doc, pptxTagSets(), nil
}

func (pptxAdapter) Inject(doc *xmldoc.Document, original []byte) ([]byte, string, error) {
	members, err := readZip(original)
	if err != nil {
		return nil, "", err
	}
	slideNames := sortedSlideNames(members)

	root := doc.RootElement()
	if root == nil {
		return nil, "", errs.Fatal(errs.ErrRehydratedMalformed, "missing tf-archive root", "", nil)
	}

	var parts []*xmldoc.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmldoc.ElementNode && c.Name == "tf-part" {
			parts = append(parts, c)
		}
	}
	if len(parts) != len(slideNames) {
		return nil, "", errs.Fatal(errs.ErrRehydratedMalformed, "slide count mismatch", "", nil)
	}

	for i, part := range parts {
		slideRoot := part.FirstChild
		if slideRoot == nil {
			continue
		}
		unmergeRunsRecursive(slideRoot)

		partDoc := &xmldoc.Document{Root: &xmldoc.Node{Type: xmldoc.DocumentNode}}
		xmldoc.Remove(slideRoot)
		xmldoc.AppendChild(partDoc.Root, slideRoot)

		idx := findMember(members, slideNames[i])
		members[idx].data = partDoc.Serialize()
	}

	out, err := writeZip(members)
	if err != nil {
		return nil, "", err
	}
	return out, "injected.pptx", nil
}
