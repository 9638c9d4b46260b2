package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"innbox/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := HealthHandler("1.0.0")
	err := handler(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var response models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "1.0.0", response.Version)
	assert.WithinDuration(t, time.Now().UTC(), response.Timestamp, 5*time.Second)
}

func TestDBHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(mock sqlmock.Sqlmock)
		nilDB          bool
		expectedStatus int
		checkResponse  func(t *testing.T, resp models.DBHealthResponse)
	}{
		{
			name: "healthy database connection",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp models.DBHealthResponse) {
				assert.Equal(t, "healthy", resp.Status)
				assert.True(t, resp.Connected)
				assert.Empty(t, resp.Error)
			},
		},
		{
			name:           "nil database connection",
			nilDB:          true,
			expectedStatus: http.StatusServiceUnavailable,
			checkResponse: func(t *testing.T, resp models.DBHealthResponse) {
				assert.Equal(t, "unhealthy", resp.Status)
				assert.False(t, resp.Connected)
				assert.Equal(t, "Database connection not initialized", resp.Error)
			},
		},
		{
			name: "query failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectPing()
				mock.ExpectQuery("SELECT 1").WillReturnError(assert.AnError)
			},
			expectedStatus: http.StatusServiceUnavailable,
			checkResponse: func(t *testing.T, resp models.DBHealthResponse) {
				assert.Equal(t, "unhealthy", resp.Status)
				assert.Contains(t, resp.Error, "Database query failed")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var db *sqlx.DB
			if !tt.nilDB {
				mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
				require.NoError(t, err)
				defer mockDB.Close()
				if tt.setupMock != nil {
					tt.setupMock(mock)
				}
				db = sqlx.NewDb(mockDB, "sqlmock")
			}

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/healthz/db", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := DBHealthHandler(db)
			err := handler(c)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, rec.Code)

			var response models.DBHealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			tt.checkResponse(t, response)
		})
	}
}
