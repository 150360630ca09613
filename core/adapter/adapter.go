// Package adapter implements the format-adapter collaborator contract: each
// adapter parses one input format into the XML-shaped tree core/xmldoc and
// the rest of the core pipeline operate on,
// pre-processing the format's own quirks (OOXML run-splitting, HTML
// charset declarations) before handing off to SpaceEngine/StyleFactor/
// BlockExtractor, and reverses that pre-processing on the way back out.
package adapter

import (
	"bytes"
	"fmt"

	"github.com/transfuse/transfuse/core/stylestore"
	"github.com/transfuse/transfuse/core/tagset"
	"github.com/transfuse/transfuse/core/xmldoc"
	"github.com/transfuse/transfuse/internal/errs"
)

// Format names one of the input formats the --format flag recognizes.
type Format string

const (
	Text         Format = "text"
	Line         Format = "line"
	HTML         Format = "html"
	HTMLFragment Format = "html-fragment"
	TEI          Format = "tei"
	ODT          Format = "odt"
	ODP          Format = "odp"
	DOCX         Format = "docx"
	PPTX         Format = "pptx"
	Auto         Format = "auto"
)

// Adapter is the collaborator contract each input format implements: Extract
// parses raw input into a tree ready for the core pipeline, returning the
// tag sets that configure it. store is open for writes by the time Extract
// runs so an adapter whose format splits one visual run across several
// markup elements (DOCX/PPTX run-splitting) can persist each run's own
// formatting as a style record the same way StyleFactor persists inline
// elements, rather than discarding it. Inject takes the rehydrated,
// space-restored tree the Injector produced and the original input bytes
// (needed by archive formats to recover every zip member besides the one
// that was translated) and produces the final output bytes plus the
// filename an adapter chooses for it under the work dir ("injected.*").
type Adapter interface {
	Extract(input []byte, store *stylestore.Store) (*xmldoc.Document, tagset.Sets, error)
	Inject(doc *xmldoc.Document, original []byte) (output []byte, filename string, err error)
}

// New builds the Adapter for format. Auto is not a concrete adapter; callers
// resolve it via Detect first.
func New(format Format) (Adapter, error) {
	switch format {
	case Text:
		return textAdapter{}, nil
	case Line:
		return lineAdapter{}, nil
	case HTML:
		return htmlAdapter{fragment: false}, nil
	case HTMLFragment:
		return htmlAdapter{fragment: true, context: "body"}, nil
	case TEI:
		return teiAdapter{}, nil
	case ODT:
		return newODFAdapter(ODT)
	case ODP:
		return newODFAdapter(ODP)
	case DOCX:
		return newDOCXAdapter()
	case PPTX:
		return newPPTXAdapter()
	default:
		return nil, fmt.Errorf("%w: %q", errs.ErrFormatUnknown, format)
	}
}

// Detect identifies format from the input bytes and, where the magic bytes
// alone are ambiguous (every zip-based OOXML/ODF format shares the same
// "PK\x03\x04" signature), the archive's own manifest member.
func Detect(data []byte) (Format, error) {
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return detectArchiveFormat(data)
	}
	if looksLikeHTML(data) {
		return HTML, nil
	}
	if root, err := xmldoc.SniffRootElement(data); err == nil && (root == "TEI" || root == "TEI.2") {
		return TEI, nil
	}
	return Text, nil
}

func looksLikeHTML(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	lower := bytes.ToLower(trimmed)
	return bytes.HasPrefix(lower, []byte("<!doctype html")) ||
		bytes.HasPrefix(lower, []byte("<html")) ||
		bytes.HasPrefix(lower, []byte("<!doctype html>"))
}
