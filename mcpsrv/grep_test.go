package mcpsrv

import (
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileRE(t *testing.T, pattern string) *regexp2.Regexp {
	t.Helper()
	re, err := regexp2.Compile(pattern, regexp2.RE2)
	require.NoError(t, err)
	return re
}

func TestGrepFileNoContext(t *testing.T) {
	body := "one\ntwo needle\nthree\nfour needle\nfive"
	lines, count := grepFile(compileRE(t, "needle"), body, 0, 0)
	require.Equal(t, 2, count)
	require.Len(t, lines, 3) // two match lines + one "--" separator between them
	assert.Equal(t, 2, lines[0].lineNo)
	assert.Equal(t, -1, lines[1].lineNo)
	assert.Equal(t, 4, lines[2].lineNo)
}

func TestGrepFileContextCoalesces(t *testing.T) {
	body := "a\nb needle\nc\nd needle\ne"
	lines, count := grepFile(compileRE(t, "needle"), body, 1, 1)
	require.Equal(t, 2, count)
	// Context windows [1,3] and [3,5] (1-indexed) overlap at line 3, so the
	// whole run is contiguous -- no "--" separator expected.
	for _, l := range lines {
		assert.NotEqual(t, -1, l.lineNo)
	}
	assert.Equal(t, 5, len(lines))
}

func TestGrepFileNoMatch(t *testing.T) {
	lines, count := grepFile(compileRE(t, "absent"), "nothing here", 0, 0)
	assert.Equal(t, 0, count)
	assert.Nil(t, lines)
}

func TestGrepFileMarksNonMatchContextLines(t *testing.T) {
	body := "before\nneedle\nafter"
	lines, _ := grepFile(compileRE(t, "needle"), body, 1, 1)
	require.Len(t, lines, 3)
	assert.False(t, lines[0].isMatch)
	assert.True(t, lines[1].isMatch)
	assert.False(t, lines[2].isMatch)
}
