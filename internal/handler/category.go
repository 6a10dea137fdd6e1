package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/yacht-charter/internal/model"
)

// CategoryStore is implemented by repository.CategoryRepo.
type CategoryStore interface {
	List(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id uint64) error
}

type CategoryHandler struct {
	Categories CategoryStore
}

func NewCategoryHandler(store CategoryStore) *CategoryHandler {
	return &CategoryHandler{Categories: store}
}

func (h *CategoryHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Categories.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": list})
}

type categoryReq struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"omitempty,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// Create returns 409 when the slug is taken.
func (h *CategoryHandler) Create(c echo.Context) error {
	var req categoryReq
	if msg, ok := bind(c, &req); !ok {
		return badRequest(c, msg)
	}
	cat := &model.Category{Name: req.Name, Slug: req.Slug, Description: req.Description}

	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Categories.Create(ctx, cat); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	id, ok := parseUint(c.Param("id"))
	if !ok {
		return badRequest(c, "invalid category id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Categories.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
