package pipeline

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transfuse/transfuse/core/inject"
	"github.com/transfuse/transfuse/core/stream"
	"github.com/transfuse/transfuse/core/stylestore"
	"github.com/transfuse/transfuse/core/tagset"
	"github.com/transfuse/transfuse/core/xmldoc"
)

func openStore(t *testing.T) *stylestore.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.sqlite3")
	s, err := stylestore.Open(path, false)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestExtractProducesStyledContentAndStream(t *testing.T) {
	doc, err := xmldoc.ParseXML([]byte(`<doc><p>Hello <b>world</b>.</p></doc>`))
	require.NoError(t, err)

	sets := tagset.New()
	sets.Inline.Add("b")

	store := openStore(t)
	res, err := Extract(doc, sets, store, stream.Apertium, "/tmp/work", false, false)
	require.NoError(t, err)

	assert.Contains(t, res.StyledXML, "<doc>")
	assert.Contains(t, res.ContentXML, "<doc>")
	assert.True(t, strings.HasPrefix(res.Stream, "[transfuse:\\/tmp\\/work]"))
	assert.Equal(t, 1, res.Blocks)
}

func TestExtractThenInjectRoundTripsPlainText(t *testing.T) {
	doc, err := xmldoc.ParseXML([]byte(`<doc><p>Hello <b>world</b>.</p></doc>`))
	require.NoError(t, err)

	sets := tagset.New()
	sets.Inline.Add("b")

	store := openStore(t)
	res, err := Extract(doc, sets, store, stream.Apertium, "/tmp/work", false, false)
	require.NoError(t, err)

	r := stream.NewReader(res.Stream, stream.Apertium)
	out, warnings, err := Inject(res.ContentXML, r, store, inject.Options{Extend: true})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	serialized := string(out.Serialize())
	assert.Contains(t, serialized, "<b>world</b>")
	assert.Contains(t, serialized, "Hello")
}
