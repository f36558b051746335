package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/reportlabeler/internal/failure"
	"github.com/Lllllllleong/reportlabeler/internal/models"
)

func TestShouldLabel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		object string
		want   bool
	}{
		{"report.pdf", true},
		{"incoming/REPORT.PDF", true},
		{"labeled_report.pdf", false},
		{"incoming/labeled_report.pdf", false},
		{"notes.txt", false},
		{"pdf", false},
	}
	for _, tc := range testCases {
		t.Run(tc.object, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldLabel(tc.object))
		})
	}
}

func TestUploadLabeler_Process(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{data: []byte("SRC")}
	store := newMemStore()
	fn, err := NewUploadLabeler(reader, store, echoLabeler{}, "Internal", nil)
	require.NoError(t, err)

	require.NoError(t, fn.Process(context.Background(), models.GCSEvent{Bucket: "uploads", Name: "incoming/q3.pdf"}))

	assert.Equal(t, []string{"uploads/incoming/q3.pdf"}, reader.read)
	labeled, ok := store.get("labeled_q3.pdf")
	require.True(t, ok)
	assert.Equal(t, "SRC|Internal", string(labeled))
}

func TestUploadLabeler_SkipsNonCandidates(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{data: []byte("SRC")}
	fn, err := NewUploadLabeler(reader, newMemStore(), echoLabeler{}, "Internal", nil)
	require.NoError(t, err)

	require.NoError(t, fn.Process(context.Background(), models.GCSEvent{Bucket: "uploads", Name: "labeled_q3.pdf"}))
	require.NoError(t, fn.Process(context.Background(), models.GCSEvent{Bucket: "uploads", Name: "readme.md"}))
	assert.Empty(t, reader.read)
}

type conflictStore struct{}

func (conflictStore) Put(_ context.Context, name string, _ []byte) (string, error) {
	return "", failure.Status(failure.KindPersist, "put "+name, http.StatusPreconditionFailed, errors.New("exists"))
}

func TestUploadLabeler_ExistingOutputIsSkipped(t *testing.T) {
	t.Parallel()

	fn, err := NewUploadLabeler(&fakeReader{data: []byte("SRC")}, conflictStore{}, echoLabeler{}, "Internal", nil)
	require.NoError(t, err)
	assert.NoError(t, fn.Process(context.Background(), models.GCSEvent{Bucket: "uploads", Name: "q3.pdf"}))
}

func TestUploadLabeler_Errors(t *testing.T) {
	t.Parallel()

	t.Run("read", func(t *testing.T) {
		fn, err := NewUploadLabeler(&fakeReader{err: errors.New("object not found")}, newMemStore(), echoLabeler{}, "Internal", nil)
		require.NoError(t, err)
		err = fn.Process(context.Background(), models.GCSEvent{Bucket: "uploads", Name: "q3.pdf"})
		assert.True(t, failure.Is(err, failure.KindFetch))
	})

	t.Run("label", func(t *testing.T) {
		lab := echoLabeler{err: failure.New(failure.KindParse, "read pdf", errors.New("garbage"))}
		store := newMemStore()
		fn, err := NewUploadLabeler(&fakeReader{data: []byte("junk")}, store, lab, "Internal", nil)
		require.NoError(t, err)
		err = fn.Process(context.Background(), models.GCSEvent{Bucket: "uploads", Name: "q3.pdf"})
		assert.True(t, failure.Is(err, failure.KindParse))
		assert.Empty(t, store.names())
	})

	t.Run("persist", func(t *testing.T) {
		store := newMemStore()
		store.failOn = "labeled_"
		fn, err := NewUploadLabeler(&fakeReader{data: []byte("SRC")}, store, echoLabeler{}, "Internal", nil)
		require.NoError(t, err)
		err = fn.Process(context.Background(), models.GCSEvent{Bucket: "uploads", Name: "q3.pdf"})
		assert.True(t, failure.Is(err, failure.KindPersist))
	})
}

func TestNewUploadLabeler_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewUploadLabeler(nil, newMemStore(), echoLabeler{}, "x", nil)
	assert.Error(t, err)
	_, err = NewUploadLabeler(&fakeReader{}, newMemStore(), echoLabeler{}, " ", nil)
	assert.Error(t, err)
}
