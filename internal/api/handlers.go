package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Lllllllleong/reportlabeler/internal/artifacts"
	"github.com/Lllllllleong/reportlabeler/internal/failure"
	"github.com/Lllllllleong/reportlabeler/internal/labeler"
	"github.com/Lllllllleong/reportlabeler/internal/models"
	"github.com/Lllllllleong/reportlabeler/internal/services"
)

const defaultMaxUploadBytes int64 = 64 << 20

// Error classes reported in the message of a failed run.
const (
	ClassFetch    = "fetch_error"
	ClassPersist  = "persist_error"
	ClassLabel    = "label_error"
	ClassInternal = "internal_error"
)

func (s *Server) labelReport(w http.ResponseWriter, r *http.Request) {
	params := models.ParamsFromQuery(r.URL.Query())
	report, err := s.reports.Process(r.Context(), params)
	if err != nil {
		s.writeRunError(w, r, err)
		return
	}
	s.writePDF(w, report.Filename, report.Data)
}

func (s *Server) processUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds "+strconv.FormatInt(s.maxBytes, 10)+" bytes")
			return
		}
		s.writeError(w, http.StatusBadRequest, "No PDF file provided")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(labeler.FileField)
	if err != nil {
		// A part sent with an empty filename is parsed as a plain value.
		if _, ok := r.MultipartForm.Value[labeler.FileField]; ok {
			s.writeError(w, http.StatusBadRequest, "No selected file")
			return
		}
		s.writeError(w, http.StatusBadRequest, "No PDF file provided")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		s.writeError(w, http.StatusBadRequest, "No selected file")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	result, err := s.uploads.Process(r.Context(), services.Upload{Filename: header.Filename, Data: data}, r.FormValue(labeler.LabelField))
	if err != nil {
		s.writeRunError(w, r, err)
		return
	}
	s.writePDF(w, result.DownloadName, result.Data)
}

func (s *Server) writePDF(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", artifacts.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("Failed to write PDF response.", zap.String("filename", filename), zap.Error(err))
	}
}

func (s *Server) writeRunError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := ErrorResponse(err)
	s.logger.Warn("Run failed.",
		zap.String("requestID", RequestID(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	)
	s.writeError(w, status, msg)
}

// ErrorResponse maps a failed run to an HTTP status and a
// "<class>: <detail>" message. Backend 4xx rejections are the caller's
// fault and map to 400; everything else is a 500. The detail names only the
// failure kind and peer status; backend and labeling service addresses stay
// in the logs.
func ErrorResponse(err error) (int, string) {
	status := http.StatusInternalServerError
	if failure.Is(err, failure.KindFetch) {
		if code := failure.StatusCode(err); code >= 400 && code < 500 {
			status = http.StatusBadRequest
		}
	}
	return status, errorClass(err) + ": " + errorDetail(err)
}

func errorDetail(err error) string {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return fe.Brief()
	}
	var stageErr *services.StageError
	if errors.As(err, &stageErr) {
		return string(stageErr.Stage) + " failed"
	}
	return "unexpected error"
}

func errorClass(err error) string {
	if kind, ok := failure.KindOf(err); ok {
		switch {
		case kind == failure.KindFetch:
			return ClassFetch
		case kind == failure.KindPersist:
			return ClassPersist
		case failure.IsLabeling(err):
			return ClassLabel
		}
	}
	var stageErr *services.StageError
	if errors.As(err, &stageErr) {
		switch stageErr.Stage {
		case services.StageFetching:
			return ClassFetch
		case services.StagePersistingRaw, services.StagePersistingLabeled:
			return ClassPersist
		case services.StageLabeling:
			return ClassLabel
		}
	}
	return ClassInternal
}
