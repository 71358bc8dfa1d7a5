// Package example is the demo backend service exposed through the gateway:
// a fibonacci calculator with a Redis result cache and its mapping bundle.
package example

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"restfront-gateway/internal/common/logger"
	"restfront-gateway/internal/gateway/errorlist"
	"restfront-gateway/internal/gateway/mapping"
	"restfront-gateway/internal/gateway/registry"
	"restfront-gateway/internal/gateway/reqopts"
)

// ServiceName is the registry entry the mapping bundle points at.
const ServiceName = "example"

type Service struct {
	config    *Config
	redis     *redis.Client
	logger    logger.Logger
	appErrors *errorlist.Builder
}

// NewService registers the service's error codes and returns the service.
// The redis client may be nil; caching is skipped then.
func NewService(config *Config, redisClient *redis.Client, errors *errorlist.Manager, log logger.Logger) *Service {
	appErrors := errors.Register("application", errorlist.RegisterSpec{
		ErrorCodes: map[string]errorlist.Descriptor{
			"FibonacciError": {
				Message:    "Fibonacci calculation is error",
				ReturnCode: 1001,
				StatusCode: 400,
			},
			"InvalidInputNumber": {
				Message:    "Invalid input number",
				ReturnCode: 1009,
				StatusCode: 400,
			},
			"MaximumExceeding": {
				Message:    "Maximum input number exceeded",
				ReturnCode: 1002,
				StatusCode: 400,
			},
		},
	})
	errors.Register("otherErrorSource", errorlist.RegisterSpec{
		ErrorCodes: map[string]errorlist.Descriptor{
			"MaximumExceeding": {
				Message:    "Maximum input number exceeded",
				ReturnCode: 2002,
				StatusCode: 500,
			},
		},
	})
	return &Service{
		config:    config,
		redis:     redisClient,
		logger:    log.WithFields(map[string]interface{}{"service": ServiceName}),
		appErrors: appErrors,
	}
}

// Register binds the service into the local registry.
func (s *Service) Register(reg *registry.Registry) error {
	return reg.Register(ServiceName, s)
}

func (s *Service) Method(name string) mapping.Invoker {
	switch name {
	case "fibonacci":
		return s.Fibonacci
	default:
		return nil
	}
}

// Fibonacci computes the sequence value for the requested number. The input
// accepts {number, actionId?, delay?}; number may arrive as a string since
// it is usually lifted from a path parameter.
func (s *Service) Fibonacci(ctx context.Context, data interface{}, opts reqopts.Options) (interface{}, error) {
	fields, _ := data.(map[string]interface{})
	number, ok := toNumber(fields["number"])
	if !ok || number < 0 || number > s.config.MaxNumber {
		return nil, s.appErrors.NewError("InvalidInputNumber", &errorlist.ErrorOptions{
			Payload:  data,
			Language: opts.Language(),
		})
	}

	s.logger.Debug("fibonacci invoked", map[string]interface{}{
		"requestId": opts.RequestID(),
		"number":    number,
	})

	result, cached := s.fromCache(ctx, number)
	if !cached {
		result = NewFibonacci(number).Finish()
		s.toCache(ctx, number, result)
	}

	payload := map[string]interface{}{
		"value":  result.Value,
		"step":   result.Step,
		"number": result.Number,
	}
	if actionID, ok := fields["actionId"]; ok {
		payload["actionId"] = actionID
	}

	if delay, ok := toNumber(fields["delay"]); ok && delay > 0 {
		select {
		case <-time.After(time.Duration(delay) * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return payload, nil
}

func (s *Service) fromCache(ctx context.Context, number int) (Result, bool) {
	if s.redis == nil {
		return Result{}, false
	}
	raw, err := s.redis.Get(ctx, cacheKey(number)).Result()
	if err != nil {
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return Result{}, false
	}
	return result, true
}

func (s *Service) toCache(ctx context.Context, number int, result Result) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKey(number), raw, s.config.CacheTTL).Err(); err != nil {
		s.logger.Warn("fibonacci cache write failed", map[string]interface{}{
			"number": number,
			"error":  err.Error(),
		})
	}
}

func cacheKey(number int) string {
	return fmt.Sprintf("fib:%d", number)
}

func toNumber(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
