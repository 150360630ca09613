package adapter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transfuse/transfuse/core/marker"
)

func TestHTMLAdapterSubstitutesCharsetMetaTag(t *testing.T) {
	a := htmlAdapter{}
	input := []byte(`<!doctype html><html><head><meta charset="iso-8859-1"></head><body><p>Hi</p></body></html>`)

	doc, sets, err := a.Extract(input, openStore(t))
	require.NoError(t, err)
	assert.True(t, sets.Inline.Has("b"))

	serialized := string(doc.SerializeRaw())
	assert.Contains(t, serialized, string(marker.XMLEncPlaceholder))
	assert.NotContains(t, serialized, "iso-8859-1")

	out, name, err := a.Inject(doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "injected.html", name)
	assert.True(t, strings.Contains(string(out), "UTF-8") || strings.Contains(string(out), "utf-8"))
	assert.NotContains(t, string(out), string(marker.XMLEncPlaceholder))
}

func TestHTMLAdapterSubstitutesContentTypeCharset(t *testing.T) {
	input := []byte(`<html><head><meta http-equiv="Content-Type" content="text/html; charset=windows-1252"></head><body></body></html>`)
	a := htmlAdapter{}
	doc, _, err := a.Extract(input, openStore(t))
	require.NoError(t, err)

	serialized := string(doc.SerializeRaw())
	assert.Contains(t, serialized, string(marker.XMLEncPlaceholder))
	assert.NotContains(t, serialized, "windows-1252")
}
