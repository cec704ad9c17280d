package resources

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/homeserver/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContentRepo(t *testing.T) *ContentRepo {
	t.Helper()
	repo, err := NewContentRepo(filepath.Join(t.TempDir(), "uploads"), "example.org", logging.Discard())
	require.NoError(t, err)
	return repo
}

func TestNewContentRepo_CreatesDir(t *testing.T) {
	repo := newTestContentRepo(t)

	info, err := os.Stat(repo.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.True(t, filepath.IsAbs(repo.Dir()))
}

func TestContentRepo_UploadThenDownload(t *testing.T) {
	repo := newTestContentRepo(t)

	rec := httptest.NewRecorder()
	repo.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("hello media")))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	uri := resp["content_uri"]
	require.True(t, strings.HasPrefix(uri, "mxc://example.org/"), uri)
	id := strings.TrimPrefix(uri, "mxc://example.org/")
	assert.Regexp(t, `^[0-9a-f]{32}$`, id)

	rec = httptest.NewRecorder()
	repo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello media", rec.Body.String())
}

func TestContentRepo_UploadTooLarge(t *testing.T) {
	repo := newTestContentRepo(t)
	repo.maxSize = 4

	rec := httptest.NewRecorder()
	repo.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("more than four bytes")))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	entries, err := os.ReadDir(repo.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestContentRepo_DownloadUnknown(t *testing.T) {
	repo := newTestContentRepo(t)

	for _, path := range []string{
		"/download/" + strings.Repeat("a", 32),
		"/download/not-a-media-id",
	} {
		rec := httptest.NewRecorder()
		repo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, ErrCodeNotFound, decodeBody(t, rec)["errcode"], path)
	}
}
