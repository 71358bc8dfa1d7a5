package example

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restfront-gateway/internal/common/logger"
	"restfront-gateway/internal/gateway/errorlist"
	"restfront-gateway/internal/gateway/mapping"
	"restfront-gateway/internal/gateway/registry"
	"restfront-gateway/internal/gateway/reqopts"
)

func createTestService(t *testing.T, redisClient *redis.Client) *Service {
	t.Helper()
	return NewService(LoadConfig(), redisClient, errorlist.NewManager("application"), logger.NewTestLogger(t))
}

func TestFibonacci_Finish(t *testing.T) {
	tests := []struct {
		number int
		value  int64
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{10, 55},
		{50, 12586269025},
	}
	for _, tc := range tests {
		result := NewFibonacci(tc.number).Finish()
		assert.Equal(t, tc.value, result.Value, "fib(%d)", tc.number)
		assert.Equal(t, tc.number, result.Step)
		assert.Equal(t, tc.number, result.Number)
	}
}

func TestService_Fibonacci_Success(t *testing.T) {
	svc := createTestService(t, nil)

	result, err := svc.Fibonacci(context.Background(), map[string]interface{}{
		"number":   "10",
		"actionId": "act-1",
	}, reqopts.Options{"requestId": "req-1"})
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"value":    int64(55),
		"step":     10,
		"number":   10,
		"actionId": "act-1",
	}, result)
}

func TestService_Fibonacci_InvalidInput(t *testing.T) {
	svc := createTestService(t, nil)

	tests := []struct {
		name string
		data interface{}
	}{
		{"missing number", map[string]interface{}{}},
		{"negative number", map[string]interface{}{"number": "-1"}},
		{"above maximum", map[string]interface{}{"number": "51"}},
		{"not a number", map[string]interface{}{"number": "ten"}},
		{"no data", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Fibonacci(context.Background(), tc.data, nil)
			require.Error(t, err)

			var structured *errorlist.StructuredError
			require.ErrorAs(t, err, &structured)
			assert.Equal(t, "InvalidInputNumber", structured.Name)
			assert.Equal(t, 1009, structured.ReturnCode)
			assert.Equal(t, 400, structured.StatusCode)
		})
	}
}

func TestService_Fibonacci_CacheHit(t *testing.T) {
	redisClient, mock := redismock.NewClientMock()
	cached, err := json.Marshal(Result{Value: 777, Step: 10, Number: 10})
	require.NoError(t, err)
	mock.ExpectGet("fib:10").SetVal(string(cached))

	svc := createTestService(t, redisClient)
	result, err := svc.Fibonacci(context.Background(), map[string]interface{}{"number": "10"}, nil)
	require.NoError(t, err)

	fields, ok := result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(777), fields["value"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Fibonacci_CacheWrite(t *testing.T) {
	server := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})

	svc := createTestService(t, redisClient)
	_, err := svc.Fibonacci(context.Background(), map[string]interface{}{"number": "10"}, nil)
	require.NoError(t, err)

	raw, err := server.Get("fib:10")
	require.NoError(t, err)

	var stored Result
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, int64(55), stored.Value)
}

func TestService_Fibonacci_DelayRespectsContext(t *testing.T) {
	svc := createTestService(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Fibonacci(ctx, map[string]interface{}{
		"number": "10",
		"delay":  "5000",
	}, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_RegistersErrorSources(t *testing.T) {
	manager := errorlist.NewManager("application")
	createTestServiceWithManager(t, manager)

	failed := manager.Lookup("otherErrorSource").NewError("MaximumExceeding", nil)
	assert.Equal(t, 2002, failed.ReturnCode)
	assert.Equal(t, 500, failed.StatusCode)

	failed = manager.Lookup("application").NewError("MaximumExceeding", nil)
	assert.Equal(t, 1002, failed.ReturnCode)
}

func createTestServiceWithManager(t *testing.T, manager *errorlist.Manager) *Service {
	t.Helper()
	return NewService(LoadConfig(), nil, manager, logger.NewTestLogger(t))
}

func TestService_MethodLookup(t *testing.T) {
	svc := createTestService(t, nil)
	assert.NotNil(t, svc.Method("fibonacci"))
	assert.Nil(t, svc.Method("unknown"))

	reg := registry.New()
	require.NoError(t, svc.Register(reg))
	assert.NotNil(t, reg.LookupService(ServiceName))
}

func TestBundle_OutputFilterDropsUndeclaredFields(t *testing.T) {
	entry := Bundle().APIMaps[0]
	require.NotNil(t, entry.Output.Transform)

	filtered := entry.Output.Transform(map[string]interface{}{
		"value":         int64(55),
		"step":          10,
		"number":        10,
		"internalState": "scratch",
	}, nil, nil)

	assert.Equal(t, map[string]interface{}{
		"value":  int64(55),
		"step":   10,
		"number": 10,
	}, filtered)
}

func TestBundle_Sanitizes(t *testing.T) {
	bundles := mapping.Sanitize(map[string]*mapping.RawBundle{"example": Bundle()})
	require.Len(t, bundles["example"].APIMaps, 1)

	entry := bundles["example"].APIMaps[0]
	assert.Equal(t, mapping.StringList{"/sub/:apiVersion/fibonacci/calc/:number"}, entry.Path)
	assert.Equal(t, "otherErrorSource", entry.ErrorSource)
	assert.NotNil(t, entry.Input.Transform)
	assert.NotNil(t, entry.Input.Schema)

	paths, ok := bundles["example"].APIDocs["paths"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, paths, "/sub/:apiVersion/fibonacci/calc/:number")
}
