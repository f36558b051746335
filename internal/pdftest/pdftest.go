// Package pdftest builds small, valid PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Letter is the US Letter media box in points.
var Letter = [2]float64{612, 792}

// A4 is the ISO A4 media box in points.
var A4 = [2]float64{595, 842}

// Document returns an n-page Letter-sized PDF. Each page prints its own
// page number so pages are distinguishable.
func Document(n int) []byte {
	sizes := make([][2]float64, n)
	for i := range sizes {
		sizes[i] = Letter
	}
	return DocumentWithSizes(sizes...)
}

// DocumentWithSizes returns a PDF with one page per media box size.
func DocumentWithSizes(sizes ...[2]float64) []byte {
	return build("", sizes)
}

// Labeled returns an n-page Letter PDF that also prints note at 50,50 on
// every page. It stands in for labeler output in fakes.
func Labeled(n int, note string) []byte {
	sizes := make([][2]float64, n)
	for i := range sizes {
		sizes[i] = Letter
	}
	return build(note, sizes)
}

var escaper = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)

func build(note string, sizes [][2]float64) []byte {
	n := len(sizes)
	// 1 catalog, 2 pages tree, 3 font, then a page and content object per page.
	total := 3 + 2*n
	offsets := make([]int, total+1)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	object := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	object(1, "<< /Type /Catalog /Pages 2 0 R >>")

	var kids bytes.Buffer
	for i := 0; i < n; i++ {
		fmt.Fprintf(&kids, "%d 0 R ", 4+2*i)
	}
	object(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", bytes.TrimSpace(kids.Bytes()), n))
	object(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for i, size := range sizes {
		pageNum, contentNum := 4+2*i, 5+2*i
		object(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			size[0], size[1], contentNum))
		content := fmt.Sprintf("BT /F1 24 Tf 72 %g Td (Page %d) Tj ET", size[1]-100, i+1)
		if note != "" {
			content += fmt.Sprintf(" BT /F1 12 Tf 50 50 Td (%s) Tj ET", escaper.Replace(note))
		}
		object(contentNum, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", total+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= total; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xref)
	return buf.Bytes()
}

// HTMLErrorPage is what a misbehaving backend might send with status 200.
var HTMLErrorPage = []byte("<!DOCTYPE html><html><body><h1>Session expired</h1></body></html>")
