package handlers

import (
	"fmt"
	"net/http"

	"innbox/internal/auth"
	"innbox/internal/models"

	"github.com/labstack/echo/v4"
)

// AdminLoginHandler handles admin authentication
// @Summary Admin login
// @Description Authenticate admin user and receive auth token
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.AdminAuthRequest true "Login credentials"
// @Success 200 {object} models.AdminAuthResponse
// @Failure 401 {object} models.AdminAuthResponse
// @Router /api/admin/login [post]
func AdminLoginHandler(authManager *auth.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.AdminAuthRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.AdminAuthResponse{
				Success: false,
				Error:   fmt.Sprintf("Invalid request body: %v", err),
			})
		}

		token, err := authManager.Authenticate(req.Username, req.Password)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.AdminAuthResponse{
				Success: false,
				Error:   "Invalid username or password",
			})
		}

		return c.JSON(http.StatusOK, models.AdminAuthResponse{
			Success: true,
			Token:   token,
		})
	}
}
