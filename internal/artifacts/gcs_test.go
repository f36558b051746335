package artifacts_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	gcs "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/Lllllllleong/reportlabeler/internal/artifacts"
	"github.com/Lllllllleong/reportlabeler/internal/failure"
)

func newTestGCSStore(t *testing.T, handler http.Handler) *artifacts.GCSStore {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := gcs.NewClient(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := artifacts.NewGCSStore(client, "test-bucket", "reports")
	require.NoError(t, err)
	return store
}

func TestNewGCSStore_Validation(t *testing.T) {
	_, err := artifacts.NewGCSStore(nil, "bucket", "")
	assert.Error(t, err)

	client, err := gcs.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	_, err = artifacts.NewGCSStore(client, "", "")
	assert.Error(t, err)
}

func TestGCSStore_Put(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/b/test-bucket/o")
		assert.Equal(t, "0", r.URL.Query().Get("ifGenerationMatch"), "write must be conditional on absence")

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "%PDF-1.4 data")
		assert.Contains(t, string(body), "reports/abc.pdf")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"bucket":"test-bucket","name":"reports/abc.pdf"}`)
	})

	store := newTestGCSStore(t, handler)
	uri, err := store.Put(context.Background(), "abc.pdf", []byte("%PDF-1.4 data"))
	require.NoError(t, err)
	assert.Equal(t, "gs://test-bucket/reports/abc.pdf", uri)
}

func TestGCSStore_PutCollision(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPreconditionFailed)
		fmt.Fprintln(w, `{"error":{"code":412,"message":"At least one of the pre-conditions you specified did not hold."}}`)
	})

	store := newTestGCSStore(t, handler)
	_, err := store.Put(context.Background(), "abc.pdf", []byte("data"))
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindPersist))
	assert.Equal(t, http.StatusPreconditionFailed, failure.StatusCode(err))
}

func TestGCSStore_PutRejectsNestedName(t *testing.T) {
	store := newTestGCSStore(t, http.NotFoundHandler())
	_, err := store.Put(context.Background(), "a/b.pdf", []byte("data"))
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.KindPersist))
}
