package handlers

import (
	"fmt"
	"net/http"

	"innbox/internal/embeddings"
	"innbox/internal/models"

	"github.com/labstack/echo/v4"
)

// SyncEmbeddingsHandler runs one embedding sweep
// @Summary Run an embedding sweep
// @Description Embeds every stored message that has no vector yet, oldest first
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} models.SyncResponse
// @Failure 500 {object} models.SyncResponse
// @Router /api/admin/sync-embeddings [post]
func SyncEmbeddingsHandler(index *embeddings.Index) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := index.Sync(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.SyncResponse{
				Success: false,
				Error:   fmt.Sprintf("Sweep failed: %v", err),
			})
		}

		return c.JSON(http.StatusOK, models.SyncResponse{
			Success:  true,
			Embedded: stats.Embedded,
			Skipped:  stats.Skipped,
			Failed:   stats.Failed,
		})
	}
}

// VerifyEmbeddingsHandler checks index integrity, optionally cleaning up
// @Summary Verify embedding integrity
// @Description Counts invalid embedding records; with cleanup=true, deletes them so the next sweep re-embeds their messages
// @Tags admin
// @Accept json
// @Produce json
// @Param cleanup query bool false "Delete invalid records" default(false)
// @Success 200 {object} models.VerifyResponse
// @Failure 500 {object} models.VerifyResponse
// @Router /api/admin/verify-embeddings [post]
func VerifyEmbeddingsHandler(index *embeddings.Index) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		invalid, err := index.Verify(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.VerifyResponse{
				Success: false,
				Error:   fmt.Sprintf("Verify failed: %v", err),
			})
		}

		response := models.VerifyResponse{
			Success: true,
			Invalid: invalid,
		}

		if c.QueryParam("cleanup") == "true" && invalid > 0 {
			deleted, err := index.Cleanup(ctx)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, models.VerifyResponse{
					Success: false,
					Invalid: invalid,
					Error:   fmt.Sprintf("Cleanup failed: %v", err),
				})
			}
			response.Deleted = deleted
		}

		return c.JSON(http.StatusOK, response)
	}
}
