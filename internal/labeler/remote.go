package labeler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"github.com/Lllllllleong/reportlabeler/internal/failure"
)

// Multipart field names understood by the labeling service.
const (
	FileField  = "pdf"
	LabelField = "label_text"
)

// DefaultMaxBytes caps a labeling service response when RemoteConfig.MaxBytes
// is unset.
const DefaultMaxBytes int64 = 64 << 20

// RemoteConfig locates the labeling service.
type RemoteConfig struct {
	Endpoint string
	MaxBytes int64
}

// Remote delegates labeling to a labeling service over HTTP.
type Remote struct {
	endpoint string
	maxBytes int64
	client   *http.Client
	logger   *zap.Logger
}

// NewRemote builds a Remote that posts to cfg.Endpoint. A nil client gets
// http.DefaultClient.
func NewRemote(cfg RemoteConfig, client *http.Client, logger *zap.Logger) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Remote{endpoint: cfg.Endpoint, maxBytes: maxBytes, client: client, logger: logger}
}

// Label uploads doc and text as a multipart form and returns the labeled
// document from the response. A response that does not parse as a PDF is
// rejected. Every failure is failure.KindDelegation.
func (r *Remote) Label(ctx context.Context, doc Document, text string) ([]byte, error) {
	op := "POST " + r.endpoint

	body, contentType, err := encodeForm(doc, text)
	if err != nil {
		return nil, failure.New(failure.KindDelegation, op, fmt.Errorf("encode form: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, body)
	if err != nil {
		return nil, failure.New(failure.KindDelegation, op, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, failure.New(failure.KindDelegation, op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, failure.New(failure.KindDelegation, op, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(payload) > 512 {
			payload = payload[:512]
		}
		return nil, failure.Status(failure.KindDelegation, op, resp.StatusCode,
			fmt.Errorf("labeling service returned %s: %s", resp.Status, bytes.TrimSpace(payload)))
	}
	if int64(len(payload)) > r.maxBytes {
		return nil, failure.New(failure.KindDelegation, op, fmt.Errorf("response exceeds %d bytes", r.maxBytes))
	}

	got, err := PageCount(payload)
	if err != nil {
		return nil, failure.New(failure.KindDelegation, op,
			fmt.Errorf("response is not a PDF (content type %q): %w", resp.Header.Get("Content-Type"), err))
	}

	r.logger.Debug("Remote labeling complete.",
		zap.String("document", doc.Name),
		zap.Int("pageCount", got),
		zap.Int("bytes", len(payload)),
	)
	return payload, nil
}

func encodeForm(doc Document, text string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := doc.Name
	if name == "" {
		name = "document.pdf"
	}
	part, err := w.CreateFormFile(FileField, name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(doc.Data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField(LabelField, text); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
