// Package blockextract implements BlockExtractor: it walks
// the style-factored, reparsed tree and emits translatable text blocks and
// attribute-value blocks, replacing each with block-boundary markers and
// handing the block's stream tokens to a StreamCodec.
package blockextract

import (
	"strconv"

	"github.com/transfuse/transfuse/core/hasher"
	"github.com/transfuse/transfuse/core/marker"
	"github.com/transfuse/transfuse/core/tagset"
	"github.com/transfuse/transfuse/core/xmldoc"
)

// Codec is the subset of StreamCodec BlockExtractor needs to emit a block's
// wire tokens as it discovers them.
type Codec interface {
	BlockOpen(id string)
	BlockBody(body string)
	BlockTermHeader()
	BlockClose(id string)
}

// Extractor tracks the running block counter across one extraction pass.
type Extractor struct {
	sets   tagset.Sets
	codec  Codec
	blocks int
}

// New builds an Extractor bound to sets and the codec blocks are streamed
// to as they're discovered.
func New(sets tagset.Sets, codec Codec) *Extractor {
	return &Extractor{sets: sets, codec: codec}
}

// Count returns the number of blocks emitted so far.
func (e *Extractor) Count() int { return e.blocks }

// ExtractBlocks walks n's subtree, extracting attribute-value blocks and
// text blocks in document order (a node is processed before its children;
// attribute blocks precede an element's children in the stream).
func (e *Extractor) ExtractBlocks(n *xmldoc.Node, eligible, header bool) {
	if n.Type == xmldoc.ElementNode {
		if e.sets.Prot.Has(n.Name) || e.sets.ProtInline.Has(n.Name) {
			return
		}
		e.extractAttrBlocks(n)

		childEligible, childHeader := eligible, header
		if e.sets.ParentsAllow.Empty() || e.sets.ParentsAllow.Has(n.Name) {
			childEligible = true
		}
		if e.sets.Headers.Has(n.Name) {
			childHeader = true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			e.ExtractBlocks(c, childEligible, childHeader)
		}
		return
	}

	if n.Type != xmldoc.TextNode {
		return
	}
	if n.Data == "" || !eligible {
		return
	}
	if n.Parent != nil {
		if _, protect := xmldoc.GetAttr(n.Parent, "tf-protect"); protect {
			return
		}
		if !e.sets.ParentsDirect.Empty() && !e.sets.ParentsDirect.Has(n.Parent.Name) {
			return
		}
	}
	if !marker.AlphaNum.MatchString(n.Data) {
		return
	}
	id := e.emit(n.Data, header)
	n.Data = marker.BlockWrap(id, n.Data)
}

func (e *Extractor) extractAttrBlocks(n *xmldoc.Node) {
	if e.sets.TagAttrs.Empty() {
		return
	}
	for i, a := range n.Attr {
		if !e.sets.TagAttrs.Has(a.Local) {
			continue
		}
		if a.Value == "" || !marker.AlphaNum.MatchString(a.Value) {
			continue
		}
		header := e.sets.AttrsHeaders.Has(a.Local)
		id := e.emit(a.Value, header)
		n.Attr[i].Value = marker.BlockWrap(id, a.Value)
	}
}

// emit runs the shared block-emission steps: bump the
// counter, compute the content hash, build the block id, stream the
// tokens, and return the id so the caller can splice boundary markers
// around the original body.
func (e *Extractor) emit(body string, header bool) string {
	e.blocks++
	bhash := hasher.EncodeURL64(hasher.Uint32Bytes(hasher.Hash32([]byte(body))))
	id := strconv.Itoa(e.blocks) + "-" + bhash

	e.codec.BlockOpen(id)
	e.codec.BlockBody(body)
	if header {
		e.codec.BlockTermHeader()
	}
	e.codec.BlockClose(id)

	return id
}
