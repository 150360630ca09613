package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transfuse/transfuse/core/tagset"
)

func TestResolveMode(t *testing.T) {
	assert.Equal(t, "extract", ResolveMode("", "tf-extract"))
	assert.Equal(t, "inject", ResolveMode("", "tf-inject"))
	assert.Equal(t, "clean", ResolveMode("", "tf-clean"))
	assert.Equal(t, "clean", ResolveMode("", "transfuse"))
	assert.Equal(t, "extract", ResolveMode("extract", "tf-inject"))
}

func TestApplyTagOverridesReplacesByDefault(t *testing.T) {
	c := &CLI{TagsInline: []string{"i", "em"}}
	sets := tagset.New()
	sets.Inline.Add("b")
	require.NoError(t, c.applyTagOverrides(&sets))
	assert.True(t, sets.Inline.Has("i"))
	assert.True(t, sets.Inline.Has("em"))
	assert.False(t, sets.Inline.Has("b"))
}

func TestApplyTagOverridesExtendsWithLeadingPlus(t *testing.T) {
	c := &CLI{TagsInline: []string{"+i"}}
	sets := tagset.New()
	sets.Inline.Add("b")
	require.NoError(t, c.applyTagOverrides(&sets))
	assert.True(t, sets.Inline.Has("b"))
	assert.True(t, sets.Inline.Has("i"))
}

func TestDiagnosticURL64(t *testing.T) {
	c := &CLI{URL64: "hello"}
	var buf bytes.Buffer
	handled := c.Diagnostic(&buf)
	assert.True(t, handled)
	assert.NotEmpty(t, buf.String())
}

func TestDiagnosticNoFlagsSet(t *testing.T) {
	c := &CLI{}
	var buf bytes.Buffer
	assert.False(t, c.Diagnostic(&buf))
	assert.Empty(t, buf.String())
}

func TestRunCleanRoundTripsPlainText(t *testing.T) {
	c := &CLI{
		Format: "text",
		Stream: "apertium",
		Dir:    filepath.Join(t.TempDir(), "work"),
	}
	var out bytes.Buffer
	in := strings.NewReader("Hello there.")

	err := c.Run("tf-clean", in, &out, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Hello there.")
}
