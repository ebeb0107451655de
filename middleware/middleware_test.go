// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-annotate/models"
)

func TestWithLogging_PreservesResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"BadRequest", http.StatusBadRequest, `{"error":"bad request"}`},
		{"NotFound", http.StatusNotFound, "not found"},
		{"InternalError", http.StatusInternalServerError, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/log-response", nil)
			w := httptest.NewRecorder()
			handler(w, req)

			assert.Equal(t, tc.statusCode, w.Code)
			assert.Equal(t, tc.body, w.Body.String())
		})
	}
}

func TestWithLogging_ImplicitStatus(t *testing.T) {
	called := false
	handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte("success"))
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest("GET", "/health", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", w.Body.String())
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       interface{}
		expected   string
	}{
		{
			name:       "completed item",
			statusCode: http.StatusOK,
			data:       models.ItemResponse{Status: models.StatusCompleted, Progress: models.Progress{Done: []bool{true}}, Time: 3, Token: "abc"},
			expected:   `{"status":"completed","progress":[true],"time":3,"token":"abc"}`,
		},
		{
			name:       "error response",
			statusCode: http.StatusBadRequest,
			data:       models.ErrorResponse{Error: "Bad Request", Message: "unknown campaign ID"},
			expected:   `{"error":"Bad Request","message":"unknown campaign ID"}`,
		},
		{
			name:       "html is not escaped",
			statusCode: http.StatusOK,
			data:       map[string]string{"goodbye": "<b>${TOKEN}</b> & bye"},
			expected:   `{"goodbye":"<b>${TOKEN}</b> & bye"}`,
		},
		{
			name:       "array data",
			statusCode: http.StatusOK,
			data:       []string{"a", "b", "c"},
			expected:   `["a","b","c"]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSONResponse(w, tc.statusCode, tc.data)

			assert.Equal(t, tc.statusCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tc.expected, strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(w, http.StatusBadRequest, "invalid token")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Bad Request", resp.Error)
	assert.Equal(t, "invalid token", resp.Message)
}

func TestWriteError(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		statusCode int
		message    string
	}{
		{"unknown campaign", models.ErrUnknownCampaign, http.StatusBadRequest, "unknown campaign ID"},
		{"wrapped token", fmt.Errorf("reset: %w", models.ErrInvalidToken), http.StatusBadRequest, "reset: invalid token"},
		{"out of range", models.ErrItemIndexOutOfRange, http.StatusBadRequest, "item index out of range"},
		{"storage failure", errors.New("disk full"), http.StatusInternalServerError, "Internal error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, httptest.NewRequest("POST", "/log-response", nil), tc.err)

			assert.Equal(t, tc.statusCode, w.Code)
			var resp models.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tc.message, resp.Message)
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"campaign_id":"c1","user_id":"u1"}`))
		var parsed models.NextItemRequest
		require.NoError(t, ParseJSONBody(req, &parsed))
		assert.Equal(t, "c1", parsed.CampaignID)
		assert.Equal(t, "u1", parsed.UserID)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{invalid json}`))
		var parsed models.NextItemRequest
		assert.Error(t, ParseJSONBody(req, &parsed))
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))
		var parsed models.NextItemRequest
		assert.Error(t, ParseJSONBody(req, &parsed))
	})

	t.Run("extra fields ignored", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"campaign_id":"c1","user_id":"u1","extra":1}`))
		var parsed models.NextItemRequest
		require.NoError(t, ParseJSONBody(req, &parsed))
		assert.Equal(t, "c1", parsed.CampaignID)
	})
}

func TestDecodeRequest(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"complete", `{"campaign_id":"c1","user_id":"u1","item_i":0,"payload":{"annotation":[]}}`, false},
		{"item zero is present", `{"campaign_id":"c1","user_id":"u1","item_i":0,"payload":{"annotation":"x"}}`, false},
		{"missing item", `{"campaign_id":"c1","user_id":"u1","payload":{"annotation":[]}}`, true},
		{"missing annotation", `{"campaign_id":"c1","user_id":"u1","item_i":1,"payload":{}}`, true},
		{"null annotation", `{"campaign_id":"c1","user_id":"u1","item_i":1,"payload":{"annotation":null}}`, true},
		{"action without time", `{"campaign_id":"c1","user_id":"u1","item_i":1,"payload":{"annotation":[],"actions":[{"kind":"x"}]}}`, true},
		{"malformed", `{"campaign_id":`, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/log-response", strings.NewReader(tc.body))
			var parsed models.LogResponseRequest
			err := DecodeRequest(req, &parsed)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	})
	corsHandler := CORS(next)

	t.Run("preflight OPTIONS request", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/get-next-item", nil)
		req.Header.Set("Origin", "http://localhost:8000")
		w := httptest.NewRecorder()
		corsHandler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, "http://localhost:8000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
		for _, method := range []string{"GET", "POST", "OPTIONS"} {
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), method)
		}
	})

	t.Run("request without origin defaults to wildcard", func(t *testing.T) {
		w := httptest.NewRecorder()
		corsHandler.ServeHTTP(w, httptest.NewRequest("POST", "/get-next-item", nil))

		assert.Equal(t, "handled", w.Body.String())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expectedIP string
	}{
		{"X-Forwarded-For single IP", map[string]string{"X-Forwarded-For": "192.168.1.100"}, "10.0.0.1:12345", "192.168.1.100"},
		{"X-Forwarded-For chained IPs", map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18"}, "127.0.0.1:12345", "203.0.113.195"},
		{"X-Real-IP over RemoteAddr", map[string]string{"X-Real-IP": "203.0.113.50"}, "10.0.0.1:12345", "203.0.113.50"},
		{"RemoteAddr with port", nil, "192.168.1.50:54321", "192.168.1.50"},
		{"RemoteAddr without port", nil, "192.168.1.50", "192.168.1.50"},
		{"IPv6 RemoteAddr with port", nil, "[::1]:12345", "[::1]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tc.expectedIP, GetClientIP(req))
		})
	}
}
