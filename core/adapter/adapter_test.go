package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReturnsEveryConcreteFormat(t *testing.T) {
	for _, f := range []Format{Text, Line, HTML, HTMLFragment, TEI} {
		a, err := New(f)
		require.NoError(t, err)
		assert.NotNil(t, a)
	}
}

func TestNewRejectsAutoAndUnknown(t *testing.T) {
	_, err := New(Auto)
	assert.Error(t, err)

	_, err = New(Format("bogus"))
	assert.Error(t, err)
}

func TestDetectRecognizesHTML(t *testing.T) {
	format, err := Detect([]byte(`<!doctype html><html><body>hi</body></html>`))
	require.NoError(t, err)
	assert.Equal(t, HTML, format)
}

func TestDetectRecognizesTEI(t *testing.T) {
	format, err := Detect([]byte(`<TEI><text/></TEI>`))
	require.NoError(t, err)
	assert.Equal(t, TEI, format)
}

func TestDetectFallsBackToText(t *testing.T) {
	format, err := Detect([]byte("just some plain words"))
	require.NoError(t, err)
	assert.Equal(t, Text, format)
}

func TestDetectRecognizesDOCXArchive(t *testing.T) {
	docx := buildZipFixture(t, map[string]string{"word/document.xml": "<document/>"})
	format, err := Detect(docx)
	require.NoError(t, err)
	assert.Equal(t, DOCX, format)
}
