package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flexisub/flexisub/internal/auth"
	"github.com/flexisub/flexisub/internal/config"
	ierr "github.com/flexisub/flexisub/internal/errors"
	"github.com/flexisub/flexisub/internal/logger"
	"github.com/flexisub/flexisub/internal/sentry"
	"github.com/flexisub/flexisub/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(cfg *config.Configuration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.NewNopLogger()

	r := gin.New()
	r.Use(RequestIDMiddleware, ErrorHandler(log, sentry.NewSentryService(cfg, log)))
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) ierr.ErrorResponse {
	t.Helper()
	var resp ierr.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetails map[string]any
	}{
		{
			name: "not found with details",
			err: ierr.NewError("subscription not found").
				WithHint("Subscription not found").
				WithReportableDetails(map[string]any{"subscription_id": "subs_1"}).
				Mark(ierr.ErrNotFound),
			wantStatus:  http.StatusNotFound,
			wantCode:    ierr.ErrCodeNotFound,
			wantMessage: "Subscription not found",
			wantDetails: map[string]any{"subscription_id": "subs_1"},
		},
		{
			name:        "invalid transition",
			err:         ierr.NewError("cannot pause").WithHint("Cannot pause a cancelled subscription").Mark(ierr.ErrInvalidTransition),
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    ierr.ErrCodeInvalidTransition,
			wantMessage: "Cannot pause a cancelled subscription",
		},
		{
			name:        "version conflict",
			err:         ierr.NewError("stale").WithHint("Please retry").Mark(ierr.ErrVersionConflict),
			wantStatus:  http.StatusConflict,
			wantCode:    ierr.ErrCodeVersionConflict,
			wantMessage: "Please retry",
		},
		{
			name:        "unmarked error",
			err:         assert.AnError,
			wantStatus:  http.StatusInternalServerError,
			wantCode:    ierr.ErrCodeSystemError,
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestEngine(config.GetDefaultConfig())
			r.GET("/fail", func(c *gin.Context) {
				c.Error(tt.err)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMessage, resp.Error.Display)
			for k, v := range tt.wantDetails {
				assert.Equal(t, v, resp.Error.Details[k])
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newTestEngine(config.GetDefaultConfig())
	r.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, types.GetRequestID(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(types.HeaderRequestID, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(types.HeaderRequestID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))
	assert.NotEmpty(t, w.Body.String())
}

func TestAuthenticateMiddleware(t *testing.T) {
	cfg := config.GetDefaultConfig()
	provider := auth.NewProvider(cfg)

	r := newTestEngine(cfg)
	r.Use(AuthenticateMiddleware(provider, logger.NewNopLogger()))
	r.GET("/me", func(c *gin.Context) {
		ctx := c.Request.Context()
		c.JSON(http.StatusOK, gin.H{
			"user_id": types.GetUserID(ctx),
			"role":    types.GetUserRole(ctx),
		})
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := provider.GenerateToken("user_1", types.UserRoleAdmin, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(types.HeaderAuthorization, "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "user_1", body["user_id"])
		assert.Equal(t, "admin", body["role"])
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, decode(t, w).Success)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(types.HeaderAuthorization, "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := provider.GenerateToken("user_1", types.UserRoleCustomer, -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(types.HeaderAuthorization, "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCronAuthMiddleware(t *testing.T) {
	newEngine := func(apiKey string) *gin.Engine {
		cfg := config.GetDefaultConfig()
		cfg.Cron.APIKey = apiKey
		r := newTestEngine(cfg)
		r.Use(CronAuthMiddleware(cfg, logger.NewNopLogger()))
		r.POST("/cron", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	tests := []struct {
		name       string
		apiKey     string
		header     string
		wantStatus int
	}{
		{name: "matching key", apiKey: "secret", header: "secret", wantStatus: http.StatusOK},
		{name: "wrong key", apiKey: "secret", header: "guess", wantStatus: http.StatusUnauthorized},
		{name: "missing key", apiKey: "secret", header: "", wantStatus: http.StatusUnauthorized},
		{name: "disabled", apiKey: "", header: "anything", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/cron", nil)
			if tt.header != "" {
				req.Header.Set("x-cron-key", tt.header)
			}
			w := httptest.NewRecorder()
			newEngine(tt.apiKey).ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
