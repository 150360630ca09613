package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextAdapterRoundTripsParagraphs(t *testing.T) {
	a := textAdapter{}
	doc, sets, err := a.Extract([]byte("First paragraph.\n\nSecond paragraph\nstill second."), openStore(t))
	require.NoError(t, err)
	assert.True(t, sets.Inline.Empty())

	root := doc.RootElement()
	require.NotNil(t, root)
	assert.Equal(t, "tf-text", root.Name)

	var paraCount int
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		paraCount++
	}
	assert.Equal(t, 2, paraCount)

	out, name, err := a.Inject(doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "injected.txt", name)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph\nstill second.", string(out))
}

func TestLineAdapterPreservesEmptyLines(t *testing.T) {
	a := lineAdapter{}
	doc, _, err := a.Extract([]byte("one\n\nthree\n"), openStore(t))
	require.NoError(t, err)

	root := doc.RootElement()
	require.NotNil(t, root)

	count := 0
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	assert.Equal(t, 3, count)

	out, name, err := a.Inject(doc, nil)
	require.NoError(t, err)
	assert.Equal(t, "injected.txt", name)
	assert.Equal(t, "one\n\nthree\n", string(out))
}
