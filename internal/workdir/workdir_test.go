package workdir

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "work")
	d, err := Open(path, false)
	require.NoError(t, err)
	info, err := os.Stat(d.Path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestHasExtractedReflectsFilePresence(t *testing.T) {
	d, err := Open(t.TempDir(), false)
	require.NoError(t, err)
	assert.False(t, d.HasExtracted())
	require.NoError(t, d.WriteString(ExtractedFile, "body"))
	assert.True(t, d.HasExtracted())
}

func TestReadyRequiresCoreFiles(t *testing.T) {
	d, err := Open(t.TempDir(), false)
	require.NoError(t, err)
	assert.False(t, d.Ready())

	require.NoError(t, d.SaveOriginal(strings.NewReader("orig")))
	require.NoError(t, d.WriteString(ContentFile, "<p/>"))
	assert.False(t, d.Ready())

	require.NoError(t, os.WriteFile(d.State(), []byte{}, 0o644))
	assert.True(t, d.Ready())
}

func TestWipeRemovesPriorContents(t *testing.T) {
	path := t.TempDir()
	d, err := Open(path, false)
	require.NoError(t, err)
	require.NoError(t, d.WriteString(ExtractedFile, "stale"))

	d2, err := Open(path, true)
	require.NoError(t, err)
	assert.False(t, d2.HasExtracted())
}

func TestRemoveDeletesDirectory(t *testing.T) {
	d, err := Open(t.TempDir(), false)
	require.NoError(t, err)
	require.NoError(t, d.Remove())
	_, err = os.Stat(d.Path)
	assert.True(t, os.IsNotExist(err))
}
