package shell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCommandLineBasic(t *testing.T) {
	words, err := splitCommandLine("insert cat.jpg /tmp/cat.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"insert", "cat.jpg", "/tmp/cat.jpg"}, words)
}

func TestSplitCommandLineEmpty(t *testing.T) {
	words, err := splitCommandLine("")
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestSplitCommandLineCollapsesWhitespace(t *testing.T) {
	words, err := splitCommandLine("  list   ")
	require.NoError(t, err)
	assert.Equal(t, []string{"list"}, words)
}

func TestSplitCommandLineQuotedPathWithSpaces(t *testing.T) {
	words, err := splitCommandLine(`insert "my photo" "/tmp/my photo.jpg"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"insert", "my photo", "/tmp/my photo.jpg"}, words)
}

func TestSplitCommandLineSingleQuotesPreserveBackslashes(t *testing.T) {
	words, err := splitCommandLine(`insert 'a\b.jpg' path.jpg`)
	require.NoError(t, err)
	assert.Equal(t, []string{"insert", `a\b.jpg`, "path.jpg"}, words)
}

func TestSplitCommandLineEscapedSpace(t *testing.T) {
	words, err := splitCommandLine(`insert my\ photo.jpg path.jpg`)
	require.NoError(t, err)
	assert.Equal(t, []string{"insert", "my photo.jpg", "path.jpg"}, words)
}

func TestSplitCommandLineEscapedQuoteInsideDoubleQuotes(t *testing.T) {
	words, err := splitCommandLine(`export "archive \"v2\".tar"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"export", `archive "v2".tar`}, words)
}

func TestSplitCommandLineUnclosedQuote(t *testing.T) {
	_, err := splitCommandLine(`insert "unterminated`)
	assert.True(t, errors.Is(err, errUnclosedQuote))
}

func TestSplitCommandLineTrailingEscape(t *testing.T) {
	_, err := splitCommandLine(`insert img.jpg\`)
	assert.True(t, errors.Is(err, errTrailingEscape))
}

func TestParseResolutionAliases(t *testing.T) {
	for _, name := range []string{"thumb", "thumbnail", "0"} {
		res, err := parseResolution(name)
		require.NoError(t, err)
		assert.Equal(t, 0, res)
	}
	_, err := parseResolution("bogus")
	assert.Error(t, err)
}
