package artifact

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medichain/pkg/platform/sentinel"
)

func TestInMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	hash, err := store.Store(ctx, []byte("lab results"))
	require.NoError(t, err)
	assert.Equal(t, Hash([]byte("lab results")), hash)

	data, err := store.Retrieve(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, []byte("lab results"), data)

	exists, err := store.Exists(ctx, hash)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInMemory_SameBytesSameHash(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	first, err := store.Store(ctx, []byte("scan"))
	require.NoError(t, err)
	second, err := store.Store(ctx, []byte("scan"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := store.Store(ctx, []byte("different scan"))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestInMemory_RetrieveUnknown(t *testing.T) {
	store := NewInMemory()

	_, err := store.Retrieve(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemory_RetrievedCopyIsIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	hash, err := store.Store(ctx, []byte("original"))
	require.NoError(t, err)

	data, err := store.Retrieve(ctx, hash)
	require.NoError(t, err)
	data[0] = 'X'

	again, err := store.Retrieve(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestPinner_Pin(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"hash": "Qm" + header.Filename})
	}))
	defer server.Close()

	pinner := NewPinner(server.URL, slog.Default())
	remote, err := pinner.Pin(context.Background(), "abc123", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "/pins", gotPath)
	assert.Equal(t, "Qmabc123", remote)
}

func TestPinner_RemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	pinner := NewPinner(server.URL, slog.Default())
	_, err := pinner.Pin(context.Background(), "abc123", []byte("payload"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
