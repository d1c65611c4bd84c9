package searchidx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeExceptMarkPreservesTags(t *testing.T) {
	got := escapeExceptMark("a <mark>b & c</mark> <script>")
	assert.Equal(t, "a <mark>b &amp; c</mark> &lt;script&gt;", got)
}

func TestEscapeExceptMarkNoTags(t *testing.T) {
	got := escapeExceptMark("plain & simple")
	assert.Equal(t, "plain &amp; simple", got)
}

func TestRenderSnippetJoinsFragments(t *testing.T) {
	got := renderSnippet([]string{"first <mark>hit</mark>", "second <mark>hit</mark>"})
	assert.Equal(t, "first <mark>hit</mark> … second <mark>hit</mark>", got)
}

func TestRenderSnippetEmpty(t *testing.T) {
	assert.Equal(t, "", renderSnippet(nil))
}
