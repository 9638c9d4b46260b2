package handlers

import (
	"fmt"
	"net/http"

	"innbox/internal/models"
	"innbox/internal/retrieval"

	"github.com/labstack/echo/v4"
)

// SearchHandler finds stored messages similar to a query text
// @Summary Similarity search
// @Description Embeds the query and returns the k most similar messages, at most one per thread
// @Tags responder
// @Accept json
// @Produce json
// @Param request body models.SearchRequest true "Search parameters"
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} models.SearchResponse
// @Failure 500 {object} models.SearchResponse
// @Router /api/search [post]
func SearchHandler(retriever *retrieval.Retriever) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.SearchRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.SearchResponse{
				Success: false,
				Error:   "Invalid request body",
			})
		}

		if req.Query == "" {
			return c.JSON(http.StatusBadRequest, models.SearchResponse{
				Success: false,
				Error:   "Query must not be empty",
			})
		}
		if req.K <= 0 {
			req.K = 3
		}

		matches, err := retriever.Retrieve(c.Request().Context(), req.Query, req.K)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.SearchResponse{
				Success: false,
				Error:   fmt.Sprintf("Search failed: %v", err),
			})
		}

		return c.JSON(http.StatusOK, models.SearchResponse{
			Success: true,
			Matches: matches,
		})
	}
}
