package models

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsFromQuery(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		query string
		want  RequestParameters
	}{
		{"both present", "sheet_name=Sales&region=APAC", RequestParameters{SheetName: "Sales", Region: "APAC"}},
		{"region missing", "sheet_name=Sales", RequestParameters{SheetName: "Sales", Region: NotProvided}},
		{"both missing", "", RequestParameters{SheetName: NotProvided, Region: NotProvided}},
		{"empty value kept", "sheet_name=&region=EMEA", RequestParameters{SheetName: "", Region: "EMEA"}},
		{"encoded value", "region=North%20America", RequestParameters{SheetName: NotProvided, Region: "North America"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, ParamsFromQuery(q))
		})
	}
}

func TestDownloadName(t *testing.T) {
	t.Parallel()

	p := RequestParameters{SheetName: "Overview", Region: "APAC"}
	assert.Equal(t, "labeled_Overview_APAC.pdf", p.DownloadName())

	missing := ParamsFromQuery(url.Values{})
	assert.Equal(t, "labeled_Not provided_Not provided.pdf", missing.DownloadName())
}

func TestNewErrorResponse(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ErrorResponse{Status: "error", Message: "boom"}, NewErrorResponse("boom"))
}
