// Package pipeline wires the core components into the two work-dir-facing
// operations: Extract turns a parsed document into
// content.xml/styled.xml/extracted, and Inject turns a stream back into a
// rehydrated document. internal/cli calls these between a format adapter's
// own format-specific parsing and repackaging.
package pipeline

import (
	"strings"

	"github.com/transfuse/transfuse/core/blockextract"
	"github.com/transfuse/transfuse/core/inject"
	"github.com/transfuse/transfuse/core/space"
	"github.com/transfuse/transfuse/core/stream"
	"github.com/transfuse/transfuse/core/stylefactor"
	"github.com/transfuse/transfuse/core/stylestore"
	"github.com/transfuse/transfuse/core/tagset"
	"github.com/transfuse/transfuse/core/xmldoc"
	"github.com/transfuse/transfuse/internal/errs"
)

// ExtractResult holds the three work-dir artifacts one extraction produces:
// styled.xml (debug, post-StyleFactor), content.xml (post-BlockExtractor,
// block-marker-bearing), and the stream body an adapter writes to
// "extracted".
type ExtractResult struct {
	StyledXML string
	ContentXML string
	Stream     string
	Blocks     int
}

// Extract runs SpaceEngine, StyleFactor, and BlockExtractor over doc
// and emits the wire stream through dialect, using store to
// persist style records. markHeaders appends the header glyph to blocks
// under a heading tag (--mark-headers); apertiumNoTerm suppresses the
// Apertium ".[]" terminator (--apertium-n).
func Extract(doc *xmldoc.Document, sets tagset.Sets, store *stylestore.Store, dialect stream.Dialect, workDir string, markHeaders, apertiumNoTerm bool) (*ExtractResult, error) {
	root := doc.RootElement()
	if root == nil {
		return nil, errs.Fatal(errs.ErrParseMalformed, "extract", "", nil)
	}

	space.SaveSpaces(root, sets.Prot)

	var factored strings.Builder
	factored.WriteString(xmldoc.OpenTagRaw(root, false))
	if err := stylefactor.Factor(&factored, root, sets, store, false); err != nil {
		return nil, err
	}
	factored.WriteString(xmldoc.CloseTag(root))

	protected, err := stylefactor.ProtectToStyles(factored.String(), store)
	if err != nil {
		return nil, err
	}

	styledDoc, err := xmldoc.ParseXML([]byte(protected))
	if err != nil {
		return nil, errs.Fatal(errs.ErrParseMalformed, "reparse styled document", "", err)
	}
	styledRoot := styledDoc.RootElement()
	styledXML := string(styledDoc.SerializeRaw())

	var buf strings.Builder
	w := stream.NewWriter(&buf, dialect, apertiumNoTerm, markHeaders)
	w.Header(workDir)

	extractor := blockextract.New(sets, w)
	extractor.ExtractBlocks(styledRoot, sets.ParentsAllow.Empty(), false)
	if err := w.Err(); err != nil {
		return nil, err
	}

	return &ExtractResult{
		StyledXML:  styledXML,
		ContentXML: string(styledDoc.SerializeRaw()),
		Stream:     buf.String(),
		Blocks:     extractor.Count(),
	}, nil
}

// Inject runs the Injector over content, splicing in the
// translated blocks r yields and rehydrating every inline/protected marker
// via store, returning the reparsed, space-restored document ready for an
// adapter to serialize and repackage.
func Inject(content string, r *stream.Reader, store *stylestore.Store, opts inject.Options) (*xmldoc.Document, []error, error) {
	return inject.Run(content, r, store, opts)
}
