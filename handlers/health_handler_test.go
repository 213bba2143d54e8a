package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/llm-content-gateway/repositories/postgres"
	"github.com/upb/llm-content-gateway/services/content"
	"go.uber.org/zap"
)

type staticProviders []string

func (s staticProviders) AvailableProviders() []string { return s }

type fakeStatusService struct {
	status *content.ProviderStatus
}

func (f fakeStatusService) CheckProviderStatus(context.Context) *content.ProviderStatus {
	return f.status
}

func (f fakeStatusService) RecommendedAPIKeys() []content.APIKeyInfo {
	return []content.APIKeyInfo{{Name: "Groq", EnvVar: "GROQ_API_KEY", Free: true}}
}

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(nil, staticProviders{}, zap.NewNop())

	w := httptest.NewRecorder()
	handler.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeHealth(t, w)
	assert.Equal(t, "healthy", response.Status)
	assert.NotEmpty(t, response.Timestamp)
}

func TestHandleReadiness(t *testing.T) {
	logger := zap.NewNop()

	newDB := func(t *testing.T) (*postgres.DB, sqlmock.Sqlmock) {
		t.Helper()
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		return postgres.Wrap(db, logger), mock
	}

	t.Run("ready when database and providers are available", func(t *testing.T) {
		db, mock := newDB(t)
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		handler := NewHealthHandler(db, staticProviders{"Google Gemini", "Groq"}, logger)
		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeHealth(t, w)
		assert.Equal(t, "ready", response.Status)
		assert.Equal(t, "healthy", response.Checks["database"])
		assert.Equal(t, []string{"Google Gemini", "Groq"}, response.Providers)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not ready when database ping fails", func(t *testing.T) {
		db, mock := newDB(t)
		mock.ExpectPing().WillReturnError(sql.ErrConnDone)

		handler := NewHealthHandler(db, staticProviders{"Groq"}, logger)
		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		response := decodeHealth(t, w)
		assert.Equal(t, "not_ready", response.Status)
		assert.Equal(t, "unhealthy", response.Checks["database"])
	})

	t.Run("database disabled does not block readiness", func(t *testing.T) {
		handler := NewHealthHandler(nil, staticProviders{"Groq"}, logger)
		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "disabled", decodeHealth(t, w).Checks["database"])
	})

	t.Run("not ready without providers", func(t *testing.T) {
		handler := NewHealthHandler(nil, staticProviders{}, logger)
		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "none_configured", decodeHealth(t, w).Checks["providers"])
	})
}

func TestStatusHandler(t *testing.T) {
	status := &content.ProviderStatus{
		Available:      []string{"Groq"},
		Health:         map[string]bool{"Groq": true},
		Recommendation: "Only one provider configured. Add more providers for better reliability.",
	}
	h := NewStatusHandler("1.2.0", "staging", staticProviders{"Groq"}, fakeStatusService{status: status}, zap.NewNop())

	t.Run("status", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"service":"content-api","version":"1.2.0","environment":"staging","providers":["Groq"]}`, w.Body.String())
	})

	t.Run("no providers renders an empty list", func(t *testing.T) {
		empty := NewStatusHandler("dev", "development", staticProviders(nil), fakeStatusService{}, zap.NewNop())
		w := httptest.NewRecorder()
		empty.HandleStatus(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

		assert.Contains(t, w.Body.String(), `"providers":[]`)
	})

	t.Run("provider status", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.HandleProviderStatus(w, httptest.NewRequest(http.MethodGet, "/api/v1/providers/status", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"available":["Groq"],"health":{"Groq":true},"recommendation":"Only one provider configured. Add more providers for better reliability."}`, w.Body.String())
	})

	t.Run("api keys", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.HandleAPIKeys(w, httptest.NewRequest(http.MethodGet, "/api/v1/providers/keys", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"envVar":"GROQ_API_KEY"`)
	})
}
