package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transfuse/transfuse/core/marker"
)

func TestApertiumWriterRoundTrip(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, Apertium, false, false)
	w.Header("/tmp/work")
	body := "Hello " + marker.InlineSpan("b:h1", "bold") + " world."
	w.BlockOpen("1-AAA")
	w.BlockBody(body)
	w.BlockClose("1-AAA")
	require.NoError(t, w.Err())

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[transfuse:\\/tmp\\/work]\n\x00"))
	assert.Contains(t, out, "[tf-block:1-AAA]")
	assert.Contains(t, out, "Hello [[t:b:h1]]bold[[/]] world.")
	assert.Contains(t, out, ".[]\n\x00")

	dialect, ok := DetectDialect(strings.SplitN(out, "\n", 2)[0])
	require.True(t, ok)
	assert.Equal(t, Apertium, dialect)

	wd, ok := GetWorkDir(strings.SplitN(out, "\n", 2)[0], Apertium)
	require.True(t, ok)
	assert.Equal(t, "/tmp/work", wd)

	r := NewReader(out, Apertium)
	id, decoded, ok, err := r.GetBlock()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1-AAA", id)
	assert.Equal(t, body, decoded)
}

func TestApertiumEscapesReservedChars(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, Apertium, false, false)
	w.BlockOpen("1-X")
	w.BlockBody("a[b]c$d^e")
	w.BlockClose("1-X")
	require.NoError(t, w.Err())

	out := buf.String()
	assert.Contains(t, out, `a\[b\]c\$d\^e`)

	r := NewReader(out, Apertium)
	_, body, ok, err := r.GetBlock()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a[b]c$d^e", body)
}

func TestApertiumProtSpanRoundTrip(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, Apertium, false, false)
	w.BlockOpen("1-X")
	w.BlockBody("a" + marker.ProtSpan("P:h1") + "b")
	w.BlockClose("1-X")

	out := buf.String()
	assert.Contains(t, out, "a[tf:P:h1]b")

	r := NewReader(out, Apertium)
	_, body, ok, err := r.GetBlock()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a"+marker.ProtSpan("P:h1")+"b", body)
}

func TestApertiumNoTermOmitsTerminator(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, Apertium, true, false)
	w.BlockOpen("1-X")
	w.BlockBody("hi")
	w.BlockClose("1-X")
	assert.NotContains(t, buf.String(), ".[]")
}

func TestApertiumMarkHeadersAppendsGlyph(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, Apertium, false, true)
	w.BlockOpen("1-X")
	w.BlockBody("hi")
	w.BlockTermHeader()
	w.BlockClose("1-X")
	assert.Contains(t, buf.String(), headerMark)
}

func TestVISLWriterRoundTrip(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, VISL, false, false)
	w.Header("/tmp/work")
	body := "Hello " + marker.InlineSpan("b:h1", "bold") + " world."
	w.BlockOpen("1-AAA")
	w.BlockBody(body)
	w.BlockClose("1-AAA")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<STREAMCMD:TRANSFUSE:/tmp/work>\n\n"))
	assert.Contains(t, out, `<s id="1-AAA">`)
	assert.Contains(t, out, "Hello <STYLE:b:h1>bold</STYLE> world.")
	assert.Contains(t, out, "</s>")

	dialect, ok := DetectDialect(strings.SplitN(out, "\n", 2)[0])
	require.True(t, ok)
	assert.Equal(t, VISL, dialect)

	r := NewReader(out, VISL)
	id, decoded, ok, err := r.GetBlock()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1-AAA", id)
	assert.Equal(t, body, decoded)
}

func TestCGReaderInjectsSentinelPerLine(t *testing.T) {
	var buf strings.Builder
	w := NewWriter(&buf, CG, false, false)
	w.BlockOpen("1-X")
	w.BlockBody("line one\nline two")
	w.BlockClose("1-X")

	r := NewReader(buf.String(), CG)
	_, body, ok, err := r.GetBlock()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "line one"+string(marker.Sentinel)+"\nline two", body)
}

func TestGetBlockReturnsFalseAtEnd(t *testing.T) {
	r := NewReader("no blocks here", Apertium)
	_, _, ok, err := r.GetBlock()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDetectDialectUnknown(t *testing.T) {
	_, ok := DetectDialect("not a transfuse stream")
	assert.False(t, ok)
}
