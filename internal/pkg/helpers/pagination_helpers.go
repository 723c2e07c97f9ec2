package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/volunnet/volunnet/internal/app/models/dto"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultPage     = 1
)

// clampPage normalizes a 1-based page number and a page size
func clampPage(page, size int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page, size
}

// CalculateOffsetLimit turns a 1-based page into the OFFSET/LIMIT pair used by the repositories.
func CalculateOffsetLimit(page, size int) (offset uint64, limit int) {
	page, limit = clampPage(page, size)
	return uint64(page-1) * uint64(limit), limit
}

// NewPaginationInfo describes the page that was served. An empty result still reports one page.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = DefaultPage
	}

	totalPages := int((totalItems + int64(size) - 1) / int64(size))
	if totalPages == 0 && page == 1 {
		totalPages = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	return dto.PaginationInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

// ParsePaginationParams reads ?page= and ?pageSize= (or the legacy ?size=), falling back to defaults
func ParsePaginationParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page"))

	raw := c.Query("pageSize")
	if raw == "" {
		raw = c.Query("size")
	}
	size, _ = strconv.Atoi(raw)

	return clampPage(page, size)
}
