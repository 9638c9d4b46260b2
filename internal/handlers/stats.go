package handlers

import (
	"fmt"
	"net/http"
	"time"

	"innbox/internal/cache"
	"innbox/internal/database"
	"innbox/internal/embeddings"
	"innbox/internal/models"

	"github.com/labstack/echo/v4"
)

const statsCacheKey = "collection_stats"
const statsCacheTTL = time.Minute

// StatsHandler reports collection sizes and embedding coverage
// @Summary Collection statistics
// @Description Message counts by sender class plus embedding coverage, cached for one minute
// @Tags responder
// @Accept json
// @Produce json
// @Success 200 {object} models.StatsResponse
// @Failure 500 {object} models.StatsResponse
// @Router /api/stats [get]
func StatsHandler(store *database.MessageStore, index *embeddings.Index, statsCache *cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		if cached, ok := statsCache.Get(statsCacheKey); ok {
			if response, ok := cached.(models.StatsResponse); ok {
				return c.JSON(http.StatusOK, response)
			}
		}

		ctx := c.Request().Context()

		total, operator, external, err := store.CountBySenderClass(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.StatsResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to count messages: %v", err),
			})
		}

		indexStats, err := index.Stats(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.StatsResponse{
				Success: false,
				Error:   fmt.Sprintf("Failed to read index stats: %v", err),
			})
		}

		coverage := 0.0
		if total > 0 {
			coverage = float64(indexStats.Embedded) / float64(total) * 100
		}

		response := models.StatsResponse{
			Success:          true,
			TotalMessages:    total,
			OperatorMessages: operator,
			ExternalMessages: external,
			TotalEmbedded:    indexStats.Embedded,
			Pending:          indexStats.Pending,
			Coverage:         coverage,
		}

		statsCache.Set(statsCacheKey, response, statsCacheTTL)

		return c.JSON(http.StatusOK, response)
	}
}
