package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/segyhp/invoice-followups/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Health(t *testing.T) {
	h := NewHealthHandler(nil, nil, time.Second)

	w := doRequest(t, http.HandlerFunc(h.Health), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var status HealthStatus
	decodeBody(t, w, &status)
	assert.Equal(t, "ok", status.Status)
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name           string
		dbErr          error
		stopRedis      bool
		expectedStatus int
		expectedChecks map[string]string
	}{
		{
			name:           "all dependencies up",
			expectedStatus: http.StatusOK,
			expectedChecks: map[string]string{"database": "ok", "redis": "ok"},
		},
		{
			name:           "database down",
			dbErr:          errors.New("connection refused"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedChecks: map[string]string{"database": "failed: connection refused", "redis": "ok"},
		},
		{
			name:           "redis down",
			stopRedis:      true,
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, sqlMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer db.Close()
			sqlMock.ExpectPing().WillReturnError(tt.dbErr)

			mr := miniredis.RunT(t)
			client := &cache.Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})}
			defer client.Close()
			if tt.stopRedis {
				mr.Close()
			}

			h := NewHealthHandler(db, client, time.Second)
			w := doRequest(t, http.HandlerFunc(h.Ready), http.MethodGet, "/health/ready", nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var status HealthStatus
				decodeBody(t, w, &status)
				assert.Equal(t, tt.expectedChecks, status.Checks)
			} else {
				body := decodeBody(t, w, nil)
				assert.Equal(t, "NOT_READY", body.Error.Code)
				if tt.expectedChecks != nil {
					for name, check := range tt.expectedChecks {
						assert.Equal(t, check, body.Error.Details[name])
					}
				} else {
					assert.Contains(t, body.Error.Details["redis"], "failed")
				}
			}
			assert.NoError(t, sqlMock.ExpectationsWereMet())
		})
	}
}
