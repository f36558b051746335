// Package labeler stamps a text label onto every page of a PDF, either
// in-process with pdfcpu or by delegating to a remote labeling service.
package labeler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/Lllllllleong/reportlabeler/internal/failure"
)

// Document is a named PDF byte stream.
type Document struct {
	Name string
	Data []byte
}

// Labeler produces a copy of doc with text stamped onto every page.
type Labeler interface {
	Label(ctx context.Context, doc Document, text string) ([]byte, error)
}

// Overlay placement shared by every label: Helvetica 12pt, black, 50pt in
// from the left and bottom edges of each page, unrotated.
const (
	FontName   = "Helvetica"
	FontSize   = 12
	OffsetX    = 50
	OffsetY    = 50
	overlayFmt = "fontname:%s, points:%d, position:bl, offset:%d %d, scalefactor:1 abs, rotation:0, fillcolor:#000000, opacity:1"
)

// OverlayDescription is the pdfcpu stamp description for the label overlay.
var OverlayDescription = fmt.Sprintf(overlayFmt, FontName, FontSize, OffsetX, OffsetY)

// Stamper labels documents in-process using pdfcpu.
type Stamper struct {
	logger *zap.Logger
}

// NewStamper builds a Stamper.
func NewStamper(logger *zap.Logger) *Stamper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stamper{logger: logger}
}

// newConfiguration returns a fresh pdfcpu configuration. pdfcpu mutates the
// configuration it is handed, so every call gets its own.
func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCount parses data and returns its page count.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), newConfiguration())
	if err != nil {
		return 0, failure.New(failure.KindParse, "read pdf", err)
	}
	if n < 1 {
		return 0, failure.New(failure.KindParse, "read pdf", errors.New("document has no pages"))
	}
	return n, nil
}

// VerifyPages checks that labeled parses and has exactly want pages.
func VerifyPages(labeled []byte, want int) error {
	got, err := api.PageCount(bytes.NewReader(labeled), newConfiguration())
	if err != nil {
		return failure.New(failure.KindComposition, "verify output", err)
	}
	if got != want {
		return failure.New(failure.KindComposition, "verify output",
			fmt.Errorf("labeled document has %d pages, source has %d", got, want))
	}
	return nil
}

// Overlay renders the one-page label overlay for text.
func Overlay(text string) (*model.Watermark, error) {
	if strings.TrimSpace(text) == "" {
		return nil, failure.New(failure.KindRender, "render overlay", errors.New("label text is empty"))
	}
	wm, err := api.TextWatermark(text, OverlayDescription, true, false, types.POINTS)
	if err != nil {
		return nil, failure.New(failure.KindRender, "render overlay", err)
	}
	return wm, nil
}

// Label parses doc, renders the overlay for text and composites it on top of
// every page. The output has exactly as many pages as the input, in the same
// order; any failure aborts the whole document.
func (s *Stamper) Label(ctx context.Context, doc Document, text string) ([]byte, error) {
	pages, err := PageCount(doc.Data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wm, err := Overlay(text)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(doc.Data), &out, nil, wm, newConfiguration()); err != nil {
		return nil, failure.New(failure.KindComposition, "stamp pages", err)
	}

	if err := VerifyPages(out.Bytes(), pages); err != nil {
		return nil, err
	}

	s.logger.Debug("Stamped document.",
		zap.String("document", doc.Name),
		zap.Int("pageCount", pages),
		zap.Int("bytes", out.Len()),
	)
	return out.Bytes(), nil
}
