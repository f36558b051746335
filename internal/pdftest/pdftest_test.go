package pdftest

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_XrefOffsetsPointAtObjects(t *testing.T) {
	t.Parallel()

	doc := Document(3)
	require.True(t, bytes.HasPrefix(doc, []byte("%PDF-1.4")))
	assert.Contains(t, string(doc), "/Count 3")

	entries := regexp.MustCompile(`(\d{10}) 00000 n`).FindAllSubmatch(doc, -1)
	require.Len(t, entries, 3+2*3)
	for i, e := range entries {
		off, err := strconv.Atoi(string(e[1]))
		require.NoError(t, err)
		want := fmt.Sprintf("%d 0 obj", i+1)
		assert.True(t, bytes.HasPrefix(doc[off:], []byte(want)), "object %d at offset %d", i+1, off)
	}
}

func TestDocumentWithSizes(t *testing.T) {
	t.Parallel()

	doc := DocumentWithSizes(Letter, A4)
	assert.Contains(t, string(doc), "/MediaBox [0 0 612 792]")
	assert.Contains(t, string(doc), "/MediaBox [0 0 595 842]")
	assert.Contains(t, string(doc), "/Count 2")
}

func TestLabeled(t *testing.T) {
	t.Parallel()

	doc := Labeled(2, "Region: (EU)")
	assert.Contains(t, string(doc), "/Count 2")
	assert.Equal(t, 2, strings.Count(string(doc), `(Region: \(EU\)) Tj`))
}

func TestStamps_RejectsUnstampedDocument(t *testing.T) {
	t.Parallel()

	_, err := Stamps(Document(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 1 has no overlay")

	_, err = Stamps(HTMLErrorPage)
	assert.Error(t, err)
}
