// test/e2e/e2e_test.go
package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restfront-gateway/internal/common/config"
	"restfront-gateway/internal/common/logger"
	"restfront-gateway/internal/gateway/errorlist"
	"restfront-gateway/internal/gateway/mapping"
	"restfront-gateway/internal/gateway/registry"
	"restfront-gateway/internal/gateway/server"
	"restfront-gateway/internal/services/example"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func gatewayConfig() config.Config {
	return config.Config{
		App: config.AppConfig{
			Name:        "restfront-gateway",
			Environment: "production",
		},
		Gateway: config.GatewayConfig{
			ContextPath:        "/restfront",
			APIPath:            "rest",
			DefaultTimeout:     30000,
			ErrorPolicy:        "standard",
			DefaultErrorSource: "application",
			MappingStore:       map[string]string{"example": example.BundleLocation},
			RequestOptions:     config.DefaultRequestOptions(),
			ResponseOptions:    config.DefaultResponseOptions(),
		},
	}
}

func buildGateway(t *testing.T, cfg config.Config) *server.Server {
	t.Helper()

	log := logger.NewTestLogger(t)
	errors := errorlist.NewManager(cfg.Gateway.DefaultErrorSource)
	reg := registry.New()

	svc := example.NewService(example.LoadConfig(), nil, errors, log)
	require.NoError(t, svc.Register(reg))

	loader := mapping.NewLoader(log)
	loader.Register(example.BundleLocation, example.Bundle())

	srv, err := server.New(server.Params{
		Config:   cfg,
		Logger:   log,
		Registry: reg,
		Errors:   errors,
		Loader:   loader,
	})
	require.NoError(t, err)
	return srv
}

func doRequest(srv *server.Server, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGatewayFibonacciFlow(t *testing.T) {
	srv := buildGateway(t, gatewayConfig())

	rec := doRequest(srv, http.MethodGet, "/restfront/rest/sub/v1/fibonacci/calc/10", map[string]string{
		"X-Request-Id": "e2e-1",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-Return-Code"))

	body := decodeJSON(t, rec)
	assert.Equal(t, float64(55), body["value"])
	assert.Equal(t, float64(10), body["step"])
	assert.Equal(t, float64(10), body["number"])
}

func TestGatewayMissingRequestID(t *testing.T) {
	srv := buildGateway(t, gatewayConfig())

	rec := doRequest(srv, http.MethodGet, "/restfront/rest/sub/v1/fibonacci/calc/10", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "5001", rec.Header().Get("X-Return-Code"))

	body := decodeJSON(t, rec)
	assert.Equal(t, "RequestOptionNotFound", body["name"])
	assert.Equal(t, []interface{}{"requestId"}, body["payload"])
}

func TestGatewayMappingErrorSource(t *testing.T) {
	srv := buildGateway(t, gatewayConfig())

	// The bundle's postValidator rejects 49 and up with the bundle's own
	// error source, not the service default.
	rec := doRequest(srv, http.MethodGet, "/restfront/rest/sub/v1/fibonacci/calc/49", map[string]string{
		"X-Request-Id": "e2e-2",
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "2002", rec.Header().Get("X-Return-Code"))

	body := decodeJSON(t, rec)
	assert.Equal(t, "MaximumExceeding", body["name"])
}

func TestGatewayInvalidNumber(t *testing.T) {
	srv := buildGateway(t, gatewayConfig())

	rec := doRequest(srv, http.MethodGet, "/restfront/rest/sub/v1/fibonacci/calc/nope", map[string]string{
		"X-Request-Id": "e2e-3",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "1009", rec.Header().Get("X-Return-Code"))

	body := decodeJSON(t, rec)
	assert.Equal(t, "InvalidInputNumber", body["name"])
}

func TestGatewayTimeout(t *testing.T) {
	cfg := gatewayConfig()
	cfg.Gateway.DefaultTimeout = 100
	srv := buildGateway(t, cfg)

	rec := doRequest(srv, http.MethodGet, "/restfront/rest/sub/v1/fibonacci/calc/10?delay=500", map[string]string{
		"X-Request-Id": "e2e-4",
	})

	require.Equal(t, http.StatusRequestTimeout, rec.Code)
	assert.Equal(t, "5000", rec.Header().Get("X-Return-Code"))

	body := decodeJSON(t, rec)
	assert.Equal(t, "RequestTimeoutOnServer", body["name"])
}

func TestGatewayUnmappedRoute(t *testing.T) {
	srv := buildGateway(t, gatewayConfig())

	rec := doRequest(srv, http.MethodGet, "/restfront/rest/sub/v1/unknown", map[string]string{
		"X-Request-Id": "e2e-5",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGatewayHealthEndpoint(t *testing.T) {
	srv := buildGateway(t, gatewayConfig())

	rec := doRequest(srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeJSON(t, rec)["status"])
}

func TestGatewayMetricsEndpoint(t *testing.T) {
	srv := buildGateway(t, gatewayConfig())

	// Hit the gateway once so the request counters exist.
	doRequest(srv, http.MethodGet, "/restfront/rest/sub/v1/fibonacci/calc/5", map[string]string{
		"X-Request-Id": "e2e-6",
	})

	rec := doRequest(srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gateway_requests_total")
}

func TestGatewayAPIDocs(t *testing.T) {
	srv := buildGateway(t, gatewayConfig())

	rec := doRequest(srv, http.MethodGet, "/restfront/api-docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	docs := decodeJSON(t, rec)
	require.Contains(t, docs, "example")

	rec = doRequest(srv, http.MethodGet, "/restfront/api-docs/example", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decodeJSON(t, rec)
	assert.Equal(t, "2.0", doc["swagger"])

	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/sub/:apiVersion/fibonacci/calc/:number")

	rec = doRequest(srv, http.MethodGet, "/restfront/api-docs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGatewayValidateSurface(t *testing.T) {
	srv := buildGateway(t, gatewayConfig())

	rec := doRequest(srv, http.MethodGet, "/restfront/validate/sub/v1/fibonacci/calc/10", map[string]string{
		"X-Request-Id": "e2e-v",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-Return-Code"))
	assert.Equal(t, true, decodeJSON(t, rec)["valid"])
}

func TestGatewayConcurrentRequests(t *testing.T) {
	srv := buildGateway(t, gatewayConfig())

	const workers = 8
	done := make(chan int, workers)
	for i := 0; i < workers; i++ {
		go func(n int) {
			rec := doRequest(srv, http.MethodGet, fmt.Sprintf("/restfront/rest/sub/v1/fibonacci/calc/%d", 10+n), map[string]string{
				"X-Request-Id": fmt.Sprintf("e2e-c-%d", n),
			})
			done <- rec.Code
		}(i)
	}
	for i := 0; i < workers; i++ {
		assert.Equal(t, http.StatusOK, <-done)
	}
}
