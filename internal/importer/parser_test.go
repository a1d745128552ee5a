package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCountsNonEmptyDataLines(t *testing.T) {
	doc, err := Parse("Name,Phone\nAda,08011112222\n\n,09022223333\n   ,  \n")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Phone"}, doc.Headers)
	// the blank line and the whitespace-only line are skipped
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, Row{"Name": "Ada", "Phone": "08011112222"}, doc.Rows[0])
	assert.Equal(t, Row{"Name": "", "Phone": "09022223333"}, doc.Rows[1])
}

func TestParseShortRowLeavesColumnsAbsent(t *testing.T) {
	doc, err := Parse("a,b,c\n1,2\n")
	require.NoError(t, err)
	require.Len(t, doc.Rows, 1)
	_, present := doc.Rows[0]["c"]
	assert.False(t, present)
	assert.Equal(t, "2", doc.Rows[0]["b"])
}

func TestParseDuplicateHeadersLastValueWins(t *testing.T) {
	doc, err := Parse("id,id\nfirst,second\n")
	require.NoError(t, err)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "second", doc.Rows[0]["id"])
}

func TestParseValuesStayText(t *testing.T) {
	doc, err := Parse("qty\n0042\n")
	require.NoError(t, err)
	assert.Equal(t, "0042", doc.Rows[0]["qty"])
}

func TestParseStructuralErrorAborts(t *testing.T) {
	_, err := Parse("h1,h2\n\"bad\"x,2\n")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.NotEmpty(t, parseErr.Lines)
}

func TestParseEmptyInput(t *testing.T) {
	doc, err := Parse("")
	require.NoError(t, err)
	assert.Empty(t, doc.Headers)
	assert.Empty(t, doc.Rows)
}

func TestDetectHeaders(t *testing.T) {
	headers, err := DetectHeaders("Name,Phone\nAda,08011112222\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Phone"}, headers)
}

func TestDetectHeadersZeroDataRows(t *testing.T) {
	headers, err := DetectHeaders("Name,Phone\n")
	require.NoError(t, err)
	assert.Nil(t, headers)
}

func TestDetectHeadersShortFirstRow(t *testing.T) {
	// the first data row's key set is the proxy for available headers
	headers, err := DetectHeaders("a,b,c\n1,2\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, headers)
}
