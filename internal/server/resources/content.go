package resources

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/dmitrijs2005/homeserver/internal/common"
	"github.com/dmitrijs2005/homeserver/internal/dispatch"
	"github.com/dmitrijs2005/homeserver/internal/filex"
	"github.com/dmitrijs2005/homeserver/internal/logging"
)

// MaxUploadSize caps a single upload.
const MaxUploadSize = 50 << 20

const mediaIDBytes = 16

var mediaIDRe = regexp.MustCompile(`^[0-9a-f]{32}$`)

// ContentRepo stores uploaded media as flat files under one directory.
type ContentRepo struct {
	mux        *http.ServeMux
	dir        string
	serverName string
	maxSize    int64
	logger     logging.Logger
}

// NewContentRepo creates dir if needed and serves uploads from it.
func NewContentRepo(dir, serverName string, l logging.Logger) (*ContentRepo, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}

	c := &ContentRepo{
		mux:        http.NewServeMux(),
		dir:        abs,
		serverName: serverName,
		maxSize:    MaxUploadSize,
		logger:     l.With("module", "content_repo"),
	}
	c.mux.HandleFunc("POST /upload", c.upload)
	c.mux.HandleFunc("GET /download/{id}", c.download)
	c.mux.HandleFunc("/", dispatch.Unrecognized)
	return c, nil
}

// Dir is the absolute upload directory.
func (c *ContentRepo) Dir() string {
	return c.dir
}

func (c *ContentRepo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mux.ServeHTTP(w, r)
}

func (c *ContentRepo) upload(w http.ResponseWriter, r *http.Request) {
	id, err := common.MakeRandHexString(mediaIDBytes)
	if err != nil {
		c.logger.Error(r.Context(), "media id", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeUnknown, "internal error")
		return
	}

	path := filepath.Join(c.dir, id)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		c.logger.Error(r.Context(), "create media file", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeUnknown, "internal error")
		return
	}

	_, err = io.Copy(f, http.MaxBytesReader(w, r.Body, c.maxSize))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "upload too large")
			return
		}
		c.logger.Error(r.Context(), "write media file", "error", err)
		writeError(w, http.StatusInternalServerError, ErrCodeUnknown, "internal error")
		return
	}

	c.logger.Info(r.Context(), "stored upload", "media_id", id)
	writeJSON(w, http.StatusOK, map[string]string{
		"content_uri": "mxc://" + c.serverName + "/" + id,
	})
}

func (c *ContentRepo) download(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !mediaIDRe.MatchString(id) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "unknown media")
		return
	}

	path := filepath.Join(c.dir, id)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "unknown media")
		return
	}
	http.ServeFile(w, r, path)
}
