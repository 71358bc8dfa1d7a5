package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"restfront-gateway/internal/common/logger"
	"restfront-gateway/internal/gateway/mapping"
	"restfront-gateway/internal/gateway/reqopts"
)

// HTTPResolver resolves services over a remote JSON endpoint. Each invocation
// POSTs {data, options} to <baseURL>/<serviceName>/<methodName> and decodes
// the JSON reply. It implements Resolver so it can be registered under the
// configured resolver name.
type HTTPResolver struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

func NewHTTPResolver(baseURL string, timeout time.Duration, log logger.Logger) *HTTPResolver {
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (r *HTTPResolver) LookupService(name string) Service {
	return &remoteService{resolver: r, serviceName: name}
}

// Method has no remote methods of its own; the resolver is only usable
// through LookupService.
func (r *HTTPResolver) Method(name string) mapping.Invoker {
	return nil
}

type remoteService struct {
	resolver    *HTTPResolver
	serviceName string
}

func (s *remoteService) Method(name string) mapping.Invoker {
	resolver := s.resolver
	url := fmt.Sprintf("%s/%s/%s", resolver.baseURL, s.serviceName, name)
	return func(ctx context.Context, data interface{}, opts reqopts.Options) (interface{}, error) {
		return resolver.invoke(ctx, url, data, opts)
	}
}

type remoteEnvelope struct {
	Data    interface{}     `json:"data"`
	Options reqopts.Options `json:"options"`
}

func (r *HTTPResolver) invoke(ctx context.Context, url string, data interface{}, opts reqopts.Options) (interface{}, error) {
	payload, err := json.Marshal(remoteEnvelope{Data: data, Options: opts})
	if err != nil {
		return nil, fmt.Errorf("encode remote request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build remote request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID := opts.RequestID(); requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote invocation: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read remote response: %w", err)
	}

	var decoded interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, fmt.Errorf("decode remote response: %w", err)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		r.log.Warn("remote invocation rejected", map[string]interface{}{
			"url":        url,
			"statusCode": resp.StatusCode,
			"requestId":  opts.RequestID(),
		})
		return nil, &RemoteError{StatusCode: resp.StatusCode, Body: decoded}
	}
	return decoded, nil
}

// RemoteError carries a rejected remote reply through the error pipeline.
type RemoteError struct {
	StatusCode int
	Body       interface{}
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote service replied with status %d", e.StatusCode)
}
