package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf_ThroughWrapping(t *testing.T) {
	t.Parallel()

	base := New(KindParse, "read pdf", errors.New("bad xref"))
	wrapped := fmt.Errorf("label document: %w", base)

	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindParse, kind)
	assert.True(t, Is(wrapped, KindParse))
	assert.False(t, Is(wrapped, KindFetch))
	assert.True(t, IsLabeling(wrapped))
}

func TestKindOf_Unclassified(t *testing.T) {
	t.Parallel()

	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsLabeling(errors.New("plain")))
	assert.Zero(t, StatusCode(errors.New("plain")))
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	err := Status(KindFetch, "GET http://backend", 404, errors.New("Not Found"))
	assert.Equal(t, "GET http://backend: fetch failure (status 404): Not Found", err.Error())
	assert.Equal(t, 404, StatusCode(fmt.Errorf("outer: %w", err)))
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := New(KindPersist, "", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "persist failure: disk full", err.Error())
	assert.False(t, IsLabeling(err))
}

func TestError_Brief(t *testing.T) {
	t.Parallel()

	err := Status(KindFetch, "GET https://backend.internal/view.pdf", 502, errors.New("bad gateway"))
	assert.Equal(t, "fetch failure (status 502)", err.Brief())
	assert.Equal(t, "persist failure", New(KindPersist, "put /var/lib/x.pdf", errors.New("disk full")).Brief())
}
