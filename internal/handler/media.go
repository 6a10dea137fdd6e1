package handler

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/yacht-charter/internal/middleware"
	"github.com/iliyamo/yacht-charter/internal/service"
)

// MediaHandler exposes the media library to the admin panel.
type MediaHandler struct {
	Media       *service.MediaService
	MaxUploadMB int
}

func NewMediaHandler(media *service.MediaService, maxUploadMB int) *MediaHandler {
	return &MediaHandler{Media: media, MaxUploadMB: maxUploadMB}
}

func (h *MediaHandler) maxBytes() int64 {
	if h.MaxUploadMB <= 0 {
		return 25 << 20
	}
	return int64(h.MaxUploadMB) << 20
}

// uploadOptions reads the form fields shared by single and batch uploads:
// bucket, metadata (a JSON object) and category_ids (comma separated or
// repeated).
func uploadOptions(c echo.Context) (service.UploadOptions, error) {
	opts := service.UploadOptions{Bucket: c.FormValue("bucket")}
	opts.OwnerID, _ = middleware.UserID(c)
	if raw := strings.TrimSpace(c.FormValue("metadata")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.Metadata); err != nil {
			return opts, errors.New("metadata must be a JSON object")
		}
	}
	form, err := c.MultipartForm()
	if err != nil {
		return opts, errors.New("multipart form required")
	}
	for _, v := range form.Value["category_ids"] {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, ok := parseUint(part)
			if !ok {
				return opts, errors.New("category_ids must be positive integers")
			}
			opts.CategoryIDs = append(opts.CategoryIDs, id)
		}
	}
	return opts, nil
}

func toUpload(fh *multipart.FileHeader) (service.Upload, multipart.File, error) {
	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, nil, err
	}
	return service.Upload{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Body:        f,
	}, f, nil
}

// Upload handles POST /v1/admin/media with one "file" part.
func (h *MediaHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}
	if fh.Size > h.maxBytes() {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "file too large"})
	}
	opts, err := uploadOptions(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	up, f, err := toUpload(fh)
	if err != nil {
		return badRequest(c, "cannot read file")
	}
	defer f.Close()

	ctx, cancel := transferCtx(c)
	defer cancel()
	it, err := h.Media.UploadFile(ctx, up, opts)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, it)
}

// UploadBatch handles POST /v1/admin/media/batch with any number of
// "files" parts.  The response reports each file; it is 207 when some
// failed.
func (h *MediaHandler) UploadBatch(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		return badRequest(c, "files are required")
	}
	opts, err := uploadOptions(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var (
		uploads  []service.Upload
		rejected []service.BatchFailure
	)
	for _, fh := range form.File["files"] {
		if fh.Size > h.maxBytes() {
			rejected = append(rejected, service.BatchFailure{Ref: fh.Filename, Error: "file too large"})
			continue
		}
		up, f, err := toUpload(fh)
		if err != nil {
			rejected = append(rejected, service.BatchFailure{Ref: fh.Filename, Error: "cannot read file"})
			continue
		}
		defer f.Close()
		uploads = append(uploads, up)
	}

	ctx, cancel := transferCtx(c)
	defer cancel()
	res := h.Media.UploadFiles(ctx, uploads, opts)
	res.Failed = append(res.Failed, rejected...)
	return c.JSON(batchStatus(res, http.StatusCreated), res)
}

func batchStatus(res service.BatchResult, ok int) int {
	switch {
	case len(res.Failed) == 0:
		return ok
	case len(res.Succeeded) == 0:
		return http.StatusBadRequest
	}
	return http.StatusMultiStatus
}

// List handles GET /v1/admin/media.
func (h *MediaHandler) List(c echo.Context) error {
	limit, ok1 := queryInt(c, "limit", 50)
	offset, ok2 := queryInt(c, "offset", 0)
	if !ok1 || !ok2 || limit < 0 || offset < 0 {
		return badRequest(c, "limit and offset must be non-negative numbers")
	}
	q := service.ItemQuery{
		Limit:    limit,
		Offset:   offset,
		Search:   strings.TrimSpace(c.QueryParam("search")),
		MimeType: strings.TrimSpace(c.QueryParam("mime_type")),
	}
	if s := c.QueryParam("category_id"); s != "" {
		id, ok := parseUint(s)
		if !ok {
			return badRequest(c, "category_id must be a positive integer")
		}
		q.CategoryID = id
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	page, err := h.Media.GetStorageItems(ctx, c.QueryParam("bucket"), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Get handles GET /v1/admin/media/:id.
func (h *MediaHandler) Get(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	it, err := h.Media.GetStorageItem(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

type updateItemReq struct {
	Name        *string        `json:"name" validate:"omitempty,max=255"`
	Metadata    map[string]any `json:"metadata"`
	CategoryIDs *[]uint64      `json:"category_ids"`
}

// Update handles PATCH /v1/admin/media/:id.  category_ids, when present,
// replaces the item's categories.
func (h *MediaHandler) Update(c echo.Context) error {
	var req updateItemReq
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	actor, _ := middleware.UserID(c)

	ctx, cancel := requestCtx(c)
	defer cancel()
	it, err := h.Media.UpdateStorageItem(ctx, c.Param("id"), service.ItemChanges{
		Name:        req.Name,
		Metadata:    req.Metadata,
		CategoryIDs: req.CategoryIDs,
	}, actor)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, it)
}

// Delete handles DELETE /v1/admin/media/:id.
func (h *MediaHandler) Delete(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Media.DeleteStorageItem(ctx, c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type batchDeleteReq struct {
	IDs []string `json:"ids" validate:"required,min=1,max=200,dive,required"`
}

// DeleteBatch handles DELETE /v1/admin/media/batch with {"ids": [...]}.
func (h *MediaHandler) DeleteBatch(c echo.Context) error {
	var req batchDeleteReq
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx, cancel := transferCtx(c)
	defer cancel()
	res := h.Media.DeleteStorageItems(ctx, req.IDs)
	return c.JSON(batchStatus(res, http.StatusOK), res)
}

// SignedURL handles GET /v1/admin/media/:id/signed-url?ttl=<seconds>.
func (h *MediaHandler) SignedURL(c echo.Context) error {
	secs, ok := queryInt(c, "ttl", 0)
	if !ok || secs < 0 || secs > 7*24*3600 {
		return badRequest(c, "ttl must be between 0 and 604800 seconds")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Media.SignedURL(ctx, c.Param("id"), time.Duration(secs)*time.Second)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"url": u})
}

// Stats handles GET /v1/admin/media/stats.
func (h *MediaHandler) Stats(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	stats, err := h.Media.GetStorageStats(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

type bucketReq struct {
	Name   string `json:"name" validate:"required"`
	Public bool   `json:"public"`
}

// CreateBucket handles POST /v1/admin/buckets.
func (h *MediaHandler) CreateBucket(c echo.Context) error {
	var req bucketReq
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Media.EnsureBucket(ctx, strings.TrimSpace(req.Name), req.Public); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, req)
}
