package handlers

import (
	"fmt"
	"net/http"

	"innbox/internal/database"
	"innbox/internal/emails"
	"innbox/internal/models"

	"github.com/labstack/echo/v4"
)

// MigrateSenderHandler re-runs sender classification over all messages
// @Summary Backfill sender classification
// @Description Recomputes sender_class from from_header for every stored message and rewrites mismatches; idempotent
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} models.MigrateResponse
// @Failure 500 {object} models.MigrateResponse
// @Router /api/admin/migrate-sender [post]
func MigrateSenderHandler(store *database.MessageStore, classifier *emails.Classifier) echo.HandlerFunc {
	return func(c echo.Context) error {
		fmt.Println("[MIGRATE] Starting sender classification backfill...")

		updated, err := store.MigrateSenderClass(c.Request().Context(), classifier.Classify)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.MigrateResponse{
				Success: false,
				Updated: updated,
				Error:   fmt.Sprintf("Migration failed: %v", err),
			})
		}

		fmt.Printf("[MIGRATE] Backfill complete: %d rows updated\n", updated)

		return c.JSON(http.StatusOK, models.MigrateResponse{
			Success: true,
			Updated: updated,
		})
	}
}
