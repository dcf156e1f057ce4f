package handlers

import (
	"net/http"
	"strconv"

	"authcore/internal/common"
	"authcore/internal/pagination"
	"authcore/internal/services"

	"github.com/labstack/echo/v4"
)

// PaginationHandlers serves the two pagination demo endpoints over the
// ID-sorted directory collection.
type PaginationHandlers struct {
	directory services.DirectoryService
}

// NewPaginationHandlers creates a new pagination handlers instance.
func NewPaginationHandlers(directory services.DirectoryService) *PaginationHandlers {
	return &PaginationHandlers{directory: directory}
}

// OffsetUsers handles GET /users/offset?limit&offset.
func (h *PaginationHandlers) OffsetUsers(c echo.Context) error {
	limit := pagination.DefaultLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || !pagination.ValidatePageSize(parsed) {
			return common.SendValidationError(c, map[string]string{
				"limit": "The limit must be an integer between 1 and 100",
			})
		}
		limit = parsed
	}

	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return common.SendValidationError(c, map[string]string{
				"offset": "The offset must be an integer of at least 0",
			})
		}
		offset = parsed
	}

	page := pagination.Offset(h.directory.UsersSortedByID(), limit, offset)
	return c.JSON(http.StatusOK, page)
}

// CursorUsers handles GET /users/cursor?per_page&cursor. A malformed cursor
// deterministically falls back to the first page.
func (h *PaginationHandlers) CursorUsers(c echo.Context) error {
	perPage := pagination.DefaultPerPage
	if raw := c.QueryParam("per_page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || !pagination.ValidatePageSize(parsed) {
			return common.SendValidationError(c, map[string]string{
				"per_page": "The per_page must be an integer between 1 and 100",
			})
		}
		perPage = parsed
	}

	page := pagination.Cursor(h.directory.UsersSortedByID(), perPage, c.QueryParam("cursor"))
	return c.JSON(http.StatusOK, page)
}
