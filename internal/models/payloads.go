package models

import (
	"fmt"
	"net/url"
)

// NotProvided stands in for request parameters the caller left out.
const NotProvided = "Not provided"

// RequestParameters identify the report view to label.
type RequestParameters struct {
	SheetName string `json:"sheetName"`
	Region    string `json:"region"`
}

// ParamsFromQuery reads sheet_name and region from a query string. Missing
// keys resolve to NotProvided; a key sent with an empty value stays empty.
func ParamsFromQuery(q url.Values) RequestParameters {
	return RequestParameters{
		SheetName: lookup(q, "sheet_name"),
		Region:    lookup(q, "region"),
	}
}

func lookup(q url.Values, key string) string {
	if _, ok := q[key]; !ok {
		return NotProvided
	}
	return q.Get(key)
}

// DownloadName is the attachment filename offered to the caller.
func (p RequestParameters) DownloadName() string {
	return fmt.Sprintf("labeled_%s_%s.pdf", p.SheetName, p.Region)
}

// ErrorResponse is the JSON body returned for any failed request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewErrorResponse builds the error payload.
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Status: "error", Message: message}
}

// GCSEvent is the storage.object.v1.finalized payload.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}
