package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"innbox/internal/models"
	"innbox/internal/respond"

	"github.com/labstack/echo/v4"
)

// UnansweredHandler lists threads awaiting an operator reply
// @Summary List unanswered threads
// @Description Returns the head message of every thread whose last word belongs to a guest
// @Tags responder
// @Accept json
// @Produce json
// @Param days_back query int false "Scan window in days" default(7)
// @Param limit query int false "Maximum threads" default(10)
// @Success 200 {object} models.UnansweredResponse
// @Failure 500 {object} models.UnansweredResponse
// @Router /api/unanswered [get]
func UnansweredHandler(detector *respond.Detector) echo.HandlerFunc {
	return func(c echo.Context) error {
		daysBack := queryInt(c, "days_back", 7)
		limit := queryInt(c, "limit", 10)

		since := time.Now().AddDate(0, 0, -daysBack)
		threads, err := detector.FindUnanswered(c.Request().Context(), since, limit)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.UnansweredResponse{
				Success: false,
				Error:   fmt.Sprintf("Detection failed: %v", err),
			})
		}

		return c.JSON(http.StatusOK, models.UnansweredResponse{
			Success: true,
			Count:   len(threads),
			Threads: threads,
		})
	}
}

// RespondHandler generates draft replies for unanswered threads
// @Summary Generate draft replies
// @Description Runs detection, retrieval and generation for unanswered threads; drafts are staged for review, never sent
// @Tags responder
// @Accept json
// @Produce json
// @Param request body models.RespondRequest false "Sweep parameters"
// @Success 200 {object} models.RespondResponse
// @Failure 400 {object} models.RespondResponse
// @Failure 500 {object} models.RespondResponse
// @Router /api/respond [post]
func RespondHandler(orchestrator *respond.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.RespondRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.RespondResponse{
				Success: false,
				Error:   "Invalid request body",
			})
		}

		if req.DaysBack <= 0 {
			req.DaysBack = 7
		}
		if req.Limit <= 0 {
			req.Limit = 3
		}
		if req.K <= 0 {
			req.K = 3
		}

		since := time.Now().AddDate(0, 0, -req.DaysBack)
		drafts, err := orchestrator.ProcessUnanswered(c.Request().Context(), since, req.Limit, req.K)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.RespondResponse{
				Success: false,
				Error:   fmt.Sprintf("Sweep failed: %v", err),
			})
		}

		return c.JSON(http.StatusOK, models.RespondResponse{
			Success: true,
			Drafts:  drafts,
		})
	}
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
