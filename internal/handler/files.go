package handler

import (
	"errors"
	"mime"
	"net/http"
	"net/url"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/yacht-charter/internal/config"
	"github.com/iliyamo/yacht-charter/internal/storage"
)

// FileHandler serves objects of the local store under /files.  Public
// buckets are open; private ones need a URL from SignedURL.
type FileHandler struct {
	Store   *storage.LocalStore
	Storage config.StorageConfig
}

func NewFileHandler(store *storage.LocalStore, cfg config.StorageConfig) *FileHandler {
	return &FileHandler{Store: store, Storage: cfg}
}

// Serve handles GET /files/:bucket/*.
func (h *FileHandler) Serve(c echo.Context) error {
	bucket := c.Param("bucket")
	key, err := url.PathUnescape(c.Param("*"))
	if err != nil || key == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	if !h.Storage.IsPublic(bucket) &&
		!h.Store.Verify(bucket, key, c.QueryParam("expires"), c.QueryParam("signature")) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	f, err := h.Store.Open(bucket, key)
	if errors.Is(err, storage.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid path"})
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil || st.IsDir() {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		c.Response().Header().Set(echo.HeaderContentType, ct)
	}
	http.ServeContent(c.Response(), c.Request(), st.Name(), st.ModTime(), f)
	return nil
}
