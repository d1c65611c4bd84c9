package linkidx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinksBasic(t *testing.T) {
	links := ExtractLinks("See [[Project Plan]] and [[Notes|my notes]].")
	require.Len(t, links, 2)
	assert.Equal(t, "Project Plan", links[0].Name)
	assert.Equal(t, "", links[0].Alias)
	assert.Equal(t, "Notes", links[1].Name)
	assert.Equal(t, "my notes", links[1].Alias)
}

func TestExtractLinksAnchor(t *testing.T) {
	links := ExtractLinks("[[Design Doc#Open Questions]]")
	require.Len(t, links, 1)
	assert.Equal(t, "Design Doc", links[0].Name)
	assert.Equal(t, "#Open Questions", links[0].Anchor)
}

func TestExtractLinksIgnoresFencedCode(t *testing.T) {
	text := "before\n```\n[[Ignored]]\n```\nafter [[Kept]]"
	links := ExtractLinks(text)
	require.Len(t, links, 1)
	assert.Equal(t, "Kept", links[0].Name)
}

func TestExtractLinksIgnoresInlineCode(t *testing.T) {
	text := "see `[[Ignored]]` but not [[Kept]]"
	links := ExtractLinks(text)
	require.Len(t, links, 1)
	assert.Equal(t, "Kept", links[0].Name)
}

func TestExtractLinksOffsetsRoundTrip(t *testing.T) {
	text := "prefix [[Alpha]] suffix"
	links := ExtractLinks(text)
	require.Len(t, links, 1)
	l := links[0]
	assert.Equal(t, "[[Alpha]]", text[l.Start:l.End])
}

func TestExtractLinksEmptyNameIgnored(t *testing.T) {
	links := ExtractLinks("[[]] and [[#just-anchor]]")
	assert.Empty(t, links)
}
