package blockextract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transfuse/transfuse/core/marker"
	"github.com/transfuse/transfuse/core/tagset"
	"github.com/transfuse/transfuse/core/xmldoc"
)

type fakeCodec struct {
	opens  []string
	bodies []string
	closes []string
}

func (f *fakeCodec) BlockOpen(id string)  { f.opens = append(f.opens, id) }
func (f *fakeCodec) BlockBody(body string) { f.bodies = append(f.bodies, body) }
func (f *fakeCodec) BlockTermHeader()      {}
func (f *fakeCodec) BlockClose(id string)  { f.closes = append(f.closes, id) }

func TestExtractBlocksSingleParagraph(t *testing.T) {
	doc, err := xmldoc.ParseXML([]byte(`<p>Hello world.</p>`))
	require.NoError(t, err)
	codec := &fakeCodec{}
	e := New(tagset.New(), codec)
	e.ExtractBlocks(doc.RootElement(), true, false)

	require.Len(t, codec.bodies, 1)
	assert.Equal(t, "Hello world.", codec.bodies[0])
	assert.Equal(t, 1, e.Count())

	out := string(doc.Serialize())
	assert.True(t, strings.HasPrefix(out, "<p>"+string(marker.BlkOpenB)))
}

func TestExtractBlocksSkipsWhitespaceOnly(t *testing.T) {
	doc, err := xmldoc.ParseXML([]byte(`<p>   </p>`))
	require.NoError(t, err)
	codec := &fakeCodec{}
	e := New(tagset.New(), codec)
	e.ExtractBlocks(doc.RootElement(), true, false)
	assert.Equal(t, 0, e.Count())
}

func TestExtractBlocksRequiresParentsAllow(t *testing.T) {
	doc, err := xmldoc.ParseXML([]byte(`<body><footer>skip</footer><p>keep</p></body>`))
	require.NoError(t, err)
	sets := tagset.New()
	sets.ParentsAllow.Add("p")
	codec := &fakeCodec{}
	e := New(sets, codec)
	e.ExtractBlocks(doc.RootElement(), false, false)

	require.Len(t, codec.bodies, 1)
	assert.Equal(t, "keep", codec.bodies[0])
}

func TestExtractAttrBlocks(t *testing.T) {
	doc, err := xmldoc.ParseXML([]byte(`<img alt="a cat" src="x.png"/>`))
	require.NoError(t, err)
	sets := tagset.New()
	sets.TagAttrs.Add("alt")
	codec := &fakeCodec{}
	e := New(sets, codec)
	e.ExtractBlocks(doc.RootElement(), true, false)

	require.Len(t, codec.bodies, 1)
	assert.Equal(t, "a cat", codec.bodies[0])

	v, ok := xmldoc.GetAttr(doc.RootElement(), "alt")
	require.True(t, ok)
	assert.True(t, strings.Contains(v, "a cat"))
	assert.True(t, strings.HasPrefix(v, string(marker.BlkOpenB)))
}

func TestExtractBlocksFullyProtectedSkipped(t *testing.T) {
	doc, err := xmldoc.ParseXML([]byte(`<p><pre>raw text here</pre></p>`))
	require.NoError(t, err)
	sets := tagset.New()
	sets.Prot.Add("pre")
	codec := &fakeCodec{}
	e := New(sets, codec)
	e.ExtractBlocks(doc.RootElement(), true, false)
	assert.Equal(t, 0, e.Count())
}
