package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const odtContentFixture = `<document-content><body><text><p>Hello <span>world</span>.</p></text></body></document-content>`

func TestODFAdapterExtractsContentXML(t *testing.T) {
	input := buildZipFixture(t, map[string]string{
		"mimetype":   "application/vnd.oasis.opendocument.text",
		"content.xml": odtContentFixture,
		"styles.xml":  "<styles/>",
	})

	a, err := newODFAdapter(ODT)
	require.NoError(t, err)
	doc, sets, err := a.Extract(input, openStore(t))
	require.NoError(t, err)
	assert.True(t, sets.Inline.Has("span"))
	assert.True(t, sets.ParentsAllow.Has("p"))

	assert.Contains(t, string(doc.SerializeRaw()), "Hello")
}

func TestODFAdapterInjectPreservesOtherMembers(t *testing.T) {
	input := buildZipFixture(t, map[string]string{
		"mimetype":   "application/vnd.oasis.opendocument.text",
		"content.xml": odtContentFixture,
		"styles.xml":  "<styles/>",
	})

	a, err := newODFAdapter(ODT)
	require.NoError(t, err)
	doc, _, err := a.Extract(input, openStore(t))
	require.NoError(t, err)

	out, name, err := a.Inject(doc, input)
	require.NoError(t, err)
	assert.Equal(t, "injected.odt", name)

	members, err := readZip(out)
	require.NoError(t, err)
	idx := findMember(members, "styles.xml")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "<styles/>", string(members[idx].data))
}

func TestDetectArchiveFormatDistinguishesContainers(t *testing.T) {
	odt := buildZipFixture(t, map[string]string{"mimetype": "application/vnd.oasis.opendocument.text"})
	format, err := detectArchiveFormat(odt)
	require.NoError(t, err)
	assert.Equal(t, ODT, format)

	odp := buildZipFixture(t, map[string]string{"mimetype": "application/vnd.oasis.opendocument.presentation"})
	format, err = detectArchiveFormat(odp)
	require.NoError(t, err)
	assert.Equal(t, ODP, format)

	docx := buildZipFixture(t, map[string]string{"word/document.xml": "<document/>"})
	format, err = detectArchiveFormat(docx)
	require.NoError(t, err)
	assert.Equal(t, DOCX, format)

	pptx := buildZipFixture(t, map[string]string{"ppt/presentation.xml": "<presentation/>"})
	format, err = detectArchiveFormat(pptx)
	require.NoError(t, err)
	assert.Equal(t, PPTX, format)
}
