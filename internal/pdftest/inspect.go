package pdftest

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Stamp is the overlay invocation found on one page.
type Stamp struct {
	Page int
	// X and Y are the translation of the overlay's transform matrix.
	X, Y float64
	// Form is the decoded content of the form XObject the page draws.
	Form string
	// Content is the page's own decoded content stream.
	Content string
}

var stampOp = regexp.MustCompile(`q ([-\d.]+) ([-\d.]+) ([-\d.]+) ([-\d.]+) ([-\d.]+) ([-\d.]+) cm /\w+ gs /(\w+) Do Q`)

// Stamps reads data and returns the overlay drawn on each page, in page
// order. A page without an overlay is an error.
func Stamps(data []byte) ([]Stamp, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadAndValidate(bytes.NewReader(data), conf)
	if err != nil {
		return nil, err
	}

	stamps := make([]Stamp, 0, ctx.PageCount)
	for nr := 1; nr <= ctx.PageCount; nr++ {
		d, _, inherited, err := ctx.PageDict(nr, false)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", nr, err)
		}
		content, err := ctx.PageContent(d, nr)
		if err != nil {
			return nil, fmt.Errorf("page %d content: %w", nr, err)
		}
		m := stampOp.FindSubmatch(content)
		if m == nil {
			return nil, fmt.Errorf("page %d has no overlay", nr)
		}
		x, err := strconv.ParseFloat(string(m[5]), 64)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", nr, err)
		}
		y, err := strconv.ParseFloat(string(m[6]), 64)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", nr, err)
		}

		form, err := formContent(ctx, d, inherited, string(m[7]))
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", nr, err)
		}
		stamps = append(stamps, Stamp{Page: nr, X: x, Y: y, Form: string(form), Content: string(content)})
	}
	return stamps, nil
}

func formContent(ctx *model.Context, page types.Dict, inherited *model.InheritedPageAttrs, name string) ([]byte, error) {
	res, err := ctx.DereferenceDict(page["Resources"])
	if err != nil {
		return nil, err
	}
	if res == nil && inherited != nil {
		res = inherited.Resources
	}
	if res == nil {
		return nil, fmt.Errorf("no resources")
	}
	xobjects, err := ctx.DereferenceDict(res["XObject"])
	if err != nil {
		return nil, err
	}
	if xobjects == nil {
		return nil, fmt.Errorf("no XObject resources")
	}
	sd, _, err := ctx.DereferenceStreamDict(xobjects[name])
	if err != nil {
		return nil, err
	}
	if sd == nil {
		return nil, fmt.Errorf("form %s not found", name)
	}
	if err := sd.Decode(); err != nil {
		return nil, fmt.Errorf("decode form %s: %w", name, err)
	}
	return sd.Content, nil
}
