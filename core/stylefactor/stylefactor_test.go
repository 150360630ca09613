package stylefactor

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestFactorInlineBold(t *testing.T) {
	doc, err := xmldoc.ParseXML([]byte(`<p>Hello <b>bold</b> world.</p>`))
	require.NoError(t, err)
	sets := tagset.New()
	sets.Inline.Add("b")

	store := openStore(t)
	var buf strings.Builder
	require.NoError(t, Factor(&buf, doc.RootElement(), sets, store, false))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Hello "))
	assert.Contains(t, out, "bold")
	assert.Contains(t, out, string(rune(0xE011))+"b:")
}

func TestFactorProtectedInlineNoChildren(t *testing.T) {
	doc, err := xmldoc.ParseXML([]byte(`<p>a<br/>b</p>`))
	require.NoError(t, err)
	sets := tagset.New()
	sets.ProtInline.Add("br")

	store := openStore(t)
	var buf strings.Builder
	require.NoError(t, Factor(&buf, doc.RootElement(), sets, store, false))

	out := buf.String()
	assert.Equal(t, "a"+string(rune(0xE020))+"<br/>"+string(rune(0xE021))+"b", out)
}

func TestFactorFullyProtectedRecursesLiterally(t *testing.T) {
	doc, err := xmldoc.ParseXML([]byte(`<p><pre><b>x</b></pre></p>`))
	require.NoError(t, err)
	sets := tagset.New()
	sets.Prot.Add("pre")
	sets.Inline.Add("b")

	store := openStore(t)
	var buf strings.Builder
	require.NoError(t, Factor(&buf, doc.RootElement(), sets, store, false))

	out := buf.String()
	assert.Equal(t, "<pre><b>x</b></pre>", out)
}

func TestFactorNotEligibleWhenOnlyChild(t *testing.T) {
	doc, err := xmldoc.ParseXML([]byte(`<p><b>solo</b></p>`))
	require.NoError(t, err)
	sets := tagset.New()
	sets.Inline.Add("b")

	store := openStore(t)
	var buf strings.Builder
	require.NoError(t, Factor(&buf, doc.RootElement(), sets, store, false))

	out := buf.String()
	assert.Equal(t, "<b>solo</b>", out)
}

func TestFactorCommentBecomesProtSpan(t *testing.T) {
	doc, err := xmldoc.ParseXML([]byte(`<p><!--c--></p>`))
	require.NoError(t, err)
	sets := tagset.New()

	store := openStore(t)
	var buf strings.Builder
	require.NoError(t, Factor(&buf, doc.RootElement(), sets, store, false))

	out := buf.String()
	assert.Equal(t, string(rune(0xE020))+"<!--c-->"+string(rune(0xE021)), out)
}

func TestProtectToStylesCollapsesLiteralMarkupToHash(t *testing.T) {
	doc, err := xmldoc.ParseXML([]byte(`<p>a<br/>b</p>`))
	require.NoError(t, err)
	sets := tagset.New()
	sets.ProtInline.Add("br")

	store := openStore(t)
	var buf strings.Builder
	require.NoError(t, Factor(&buf, doc.RootElement(), sets, store, false))

	out, err := ProtectToStyles(buf.String(), store)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(out, "a"+string(rune(0xE020))))
	require.True(t, strings.HasSuffix(out, string(rune(0xE021))+"b"))
	assert.False(t, strings.Contains(out, "<br/>"))

	ref := out[len("a")+len(string(rune(0xE020))) : len(out)-len("b")-len(string(rune(0xE021)))]
	require.True(t, strings.HasPrefix(ref, "P:"))
	rec, ok, err := store.GetStyle("P", strings.TrimPrefix(ref, "P:"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "<br/>", rec.Open)
}

func TestProtectToStylesMergesAdjacentRegions(t *testing.T) {
	store := openStore(t)
	in := string(rune(0xE020)) + "<b>x</b>" + string(rune(0xE021)) + "  " + string(rune(0xE020)) + "<i>y</i>" + string(rune(0xE021))
	out, err := ProtectToStyles(in, store)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, string(rune(0xE020))))
	ref := out[len(string(rune(0xE020))) : len(out)-len(string(rune(0xE021)))]
	require.True(t, strings.HasPrefix(ref, "P:"))
	rec, ok, err := store.GetStyle("P", strings.TrimPrefix(ref, "P:"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "<b>x</b>  <i>y</i>", rec.Open)
}
