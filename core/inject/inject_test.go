package inject

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transfuse/transfuse/core/marker"
	"github.com/transfuse/transfuse/core/stream"
	"github.com/transfuse/transfuse/core/stylestore"
)

func openStore(t *testing.T) *stylestore.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.sqlite3")
	s, err := stylestore.Open(path, false)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunSplicesRehydratesAndReparses(t *testing.T) {
	store := openStore(t)
	hash, err := store.PutStyle("b", "<b>", "</b>", "")
	require.NoError(t, err)

	body := "Hello " + marker.InlineSpan("b:"+hash, "bold") + " world."
	content := "<p>" + marker.BlockWrap("1-AAA", body) + "</p>"

	var buf strings.Builder
	w := stream.NewWriter(&buf, stream.Apertium, false, false)
	w.BlockOpen("1-AAA")
	w.BlockBody(body)
	w.BlockClose("1-AAA")

	r := stream.NewReader(buf.String(), stream.Apertium)
	doc, warnings, err := Run(content, r, store, Options{Extend: true})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	out := string(doc.Serialize())
	assert.Contains(t, out, "<b>bold</b>")
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "world.")
}

func TestRunWarnsOnMissingBlock(t *testing.T) {
	store := openStore(t)
	content := "<p>" + marker.BlockWrap("1-AAA", "Hello") + "</p>"

	var buf strings.Builder
	w := stream.NewWriter(&buf, stream.Apertium, false, false)
	w.BlockOpen("2-ZZZ")
	w.BlockBody("other")
	w.BlockClose("2-ZZZ")

	r := stream.NewReader(buf.String(), stream.Apertium)
	_, warnings, err := Run(content, r, store, Options{Extend: true})
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
}

func TestRunDropsBodyForPFlaggedStyle(t *testing.T) {
	store := openStore(t)
	hash, err := store.PutStyle("note", "<note/>", "", "P")
	require.NoError(t, err)

	body := marker.InlineSpan("note:"+hash, "hidden")
	content := "<p>" + marker.BlockWrap("1-AAA", body) + "</p>"

	var buf strings.Builder
	w := stream.NewWriter(&buf, stream.Apertium, false, false)
	w.BlockOpen("1-AAA")
	w.BlockBody(body)
	w.BlockClose("1-AAA")

	r := stream.NewReader(buf.String(), stream.Apertium)
	doc, _, err := Run(content, r, store, Options{Extend: true})
	require.NoError(t, err)

	out := string(doc.Serialize())
	assert.Contains(t, out, "<note/>")
	assert.NotContains(t, out, "hidden")
}

func TestRunResolvesProtSpan(t *testing.T) {
	store := openStore(t)
	hash, err := store.PutStyle("P", "<br/>", "", "")
	require.NoError(t, err)

	body := "a" + marker.ProtSpan("P:"+hash) + "b"
	content := "<p>" + marker.BlockWrap("1-AAA", body) + "</p>"

	var buf strings.Builder
	w := stream.NewWriter(&buf, stream.Apertium, false, false)
	w.BlockOpen("1-AAA")
	w.BlockBody(body)
	w.BlockClose("1-AAA")

	r := stream.NewReader(buf.String(), stream.Apertium)
	doc, _, err := Run(content, r, store, Options{Extend: true})
	require.NoError(t, err)

	out := string(doc.Serialize())
	assert.Contains(t, out, "a<br/>b")
}
