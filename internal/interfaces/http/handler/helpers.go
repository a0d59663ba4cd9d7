package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// paginationParams reads page and page_size query parameters with defaults
func paginationParams(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if raw := c.Query("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 {
			page = v
		}
	}
	if raw := c.Query("page_size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 && v <= 100 {
			pageSize = v
		}
	}
	return page, pageSize
}
