package dispatch

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"restfront-gateway/internal/common/config"
	"restfront-gateway/internal/common/logger"
	"restfront-gateway/internal/common/metrics"
	"restfront-gateway/internal/gateway/errorlist"
	"restfront-gateway/internal/gateway/fieldpath"
	"restfront-gateway/internal/gateway/mapping"
	"restfront-gateway/internal/gateway/registry"
	"restfront-gateway/internal/gateway/reqopts"
	"restfront-gateway/internal/gateway/validator"
)

// Builder turns sanitized mapping bundles into router entries. All expensive
// decisions (method resolution, option-table merging, error-builder lookup)
// happen once per mapping at build time and are captured in the handler
// closure.
type Builder struct {
	cfg      config.GatewayConfig
	selector *registry.Selector
	errors   *errorlist.Manager
	log      logger.Logger

	baseOptions   reqopts.Table
	gatewayErrors *errorlist.Builder
	renderer      errorRenderer
	devMode       bool
}

// Dependencies wires a Builder.
type Dependencies struct {
	Config   config.GatewayConfig
	Selector *registry.Selector
	Errors   *errorlist.Manager
	Logger   logger.Logger
	DevMode  bool
}

func NewBuilder(deps Dependencies) *Builder {
	policy := ErrorPolicy(deps.Config.ErrorPolicy)
	return &Builder{
		cfg:           deps.Config,
		selector:      deps.Selector,
		errors:        deps.Errors,
		log:           deps.Logger,
		baseOptions:   reqopts.TableFromConfig(deps.Config.RequestOptions),
		gatewayErrors: errorlist.RegisterGatewayErrors(deps.Errors),
		renderer:      newErrorRenderer(policy, deps.Config.ResponseOptions, deps.DevMode),
		devMode:       deps.DevMode,
	}
}

// BuildRestRouter registers one handler per mapping path and method on the
// router. Mappings without an accepted-method set answer every method.
func (b *Builder) BuildRestRouter(router gin.IRouter, bundles map[string]*mapping.Bundle) {
	for name, bundle := range bundles {
		for _, m := range bundle.APIMaps {
			handler := b.BuildMiddleware(m)
			for _, path := range m.Path {
				if len(m.Method) == 0 {
					router.Any(path, handler)
					continue
				}
				for _, method := range m.Method {
					router.Handle(strings.ToUpper(method), path, handler)
				}
			}
			errorSource := m.ErrorSource
			if errorSource == "" {
				errorSource = b.errors.DefaultSource()
			}
			b.log.Info("mapping registered", map[string]interface{}{
				"bundle":      name,
				"mapPath":     []string(m.Path),
				"mapMethod":   []string(m.Method),
				"serviceName": m.ServiceName,
				"methodName":  m.MethodName,
				"errorSource": errorSource,
			})
		}
	}
}

// BuildMiddleware builds the dispatch handler for one mapping.
func (b *Builder) BuildMiddleware(m *mapping.Mapping) gin.HandlerFunc {
	timeout := b.effectiveTimeout(m)
	ref := b.selector.LookupMethod(m.ServiceName, m.MethodName)
	table := reqopts.Merge(b.baseOptions, m.RequestOptions)
	errBuilder := b.errors.Lookup(m.ErrorSource)
	schema, err := validator.Compile(m.Input.Schema)
	if err != nil {
		b.log.WithError(err).Error("input schema rejected, validation disabled", map[string]interface{}{
			"mapPath": []string(m.Path),
		})
	}

	return func(c *gin.Context) {
		if ref.Method == nil && m.Inlet.Process == nil {
			// Route not handled; give other candidates a chance first.
			c.Next()
			if !c.Writer.Written() {
				c.AbortWithStatus(http.StatusNotFound)
			}
			return
		}

		var missing []string
		opts := reqopts.Extract(c.Request, table, reqopts.ExtractOpts{
			Extensions: reqopts.Options{
				"timeout": timeout.Milliseconds(),
			},
			UserAgentEnabled: b.cfg.UserAgentEnabled,
		}, &missing)
		if opts.RequestID() == "" {
			opts["requestId"] = uuid.NewString()
		}
		requestID := opts.RequestID()

		reqLog := b.log.WithFields(map[string]interface{}{
			"requestId":   requestID,
			"serviceName": m.ServiceName,
			"methodName":  m.MethodName,
		})
		reqLog.Info("received API request", map[string]interface{}{
			"mapPath":   []string(m.Path),
			"mapMethod": []string(m.Method),
			"url":       c.Request.URL.String(),
			"method":    c.Request.Method,
		})

		began := time.Now()
		outcome := "completed"
		metrics.GatewayRequestsInFlight.WithLabelValues(m.ServiceName).Inc()
		defer func() {
			metrics.GatewayRequestsInFlight.WithLabelValues(m.ServiceName).Dec()
			metrics.GatewayRequestsTotal.WithLabelValues(m.ServiceName, m.MethodName, outcome).Inc()
			metrics.GatewayRequestDuration.WithLabelValues(m.ServiceName, m.MethodName).Observe(time.Since(began).Seconds())
			reqLog.Info("request completed", map[string]interface{}{
				"outcome":  outcome,
				"duration": time.Since(began).String(),
			})
		}()

		if len(missing) > 0 {
			outcome = "rejected"
			b.renderError(c, m, opts, b.gatewayErrors.NewError(errorlist.CodeRequestOptionNotFound, &errorlist.ErrorOptions{
				Payload:  missing,
				Language: opts.Language(),
			}))
			return
		}

		staged, expired := b.runStages(c, m, ref, errBuilder, schema, opts, timeout)
		if expired {
			outcome = "timeout"
			b.renderError(c, m, opts, b.gatewayErrors.NewError(errorlist.CodeRequestTimeoutOnServer, &errorlist.ErrorOptions{
				Language: opts.Language(),
			}))
			return
		}
		if staged.err != nil {
			outcome = "failed"
			if staged.rejected {
				outcome = "rejected"
			}
			b.renderError(c, m, opts, staged.err)
			return
		}

		if staged.inlet {
			if err := m.Inlet.Process(c.Request.Context(), ref.Method, c, staged.data, opts); err != nil {
				outcome = "failed"
				b.renderError(c, m, opts, err)
			}
			return
		}

		packet := staged.packet
		addDefaultHeaders(packet, b.cfg.ResponseOptions)
		if fields, ok := packet.Body.(map[string]interface{}); ok {
			packet.Body = fieldpath.Rename(fields, m.Output.Mutate.Rename)
		}
		renderPacket(c, packet)
	}
}

func (b *Builder) effectiveTimeout(m *mapping.Mapping) time.Duration {
	if m.Timeout > 0 {
		return time.Duration(m.Timeout) * time.Millisecond
	}
	return time.Duration(b.cfg.DefaultTimeout) * time.Millisecond
}

// requestData derives the data handed to the backend: the input transform
// when configured, otherwise the decoded request body.
func (b *Builder) requestData(c *gin.Context, m *mapping.Mapping, opts reqopts.Options) (interface{}, error) {
	if m.Input.Transform != nil && !m.Input.Disabled() {
		return m.Input.Transform(c, opts)
	}
	return decodeBody(c)
}

func decodeBody(c *gin.Context) (interface{}, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// Not JSON; hand the raw text through.
		return string(raw), nil
	}
	return decoded, nil
}

// checkVerdict converts a failing verdict into a structured error. A nil or
// valid verdict passes. The verdict's errorName selects a code from the
// mapping's error source; the default codes come from the gateway source.
func (b *Builder) checkVerdict(verdict *mapping.Verdict, m *mapping.Mapping, errBuilder *errorlist.Builder, defaultCode string, opts reqopts.Options) error {
	if verdict == nil || verdict.Valid {
		return nil
	}
	errOpts := &errorlist.ErrorOptions{
		Payload:  verdict.Errors,
		Language: opts.Language(),
	}
	if verdict.ErrorName != "" {
		return errBuilder.NewError(verdict.ErrorName, errOpts)
	}
	return b.gatewayErrors.NewError(defaultCode, errOpts)
}

// stageOutcome carries the result of the guarded stages back to the
// rendering side of the handler.
type stageOutcome struct {
	data     interface{}
	packet   *Packet
	err      error
	rejected bool
	inlet    bool
}

// runStages races the validating, transforming and invoking stages against
// the timeout budget. On expiry the gateway stops waiting; the in-flight
// stages are not cancelled and their eventual result is discarded. Rendering
// always stays on the caller's goroutine, so the raced stages work on a
// detached copy of the gin context.
func (b *Builder) runStages(c *gin.Context, m *mapping.Mapping, ref registry.Ref, errBuilder *errorlist.Builder, schema *validator.Schema, opts reqopts.Options, timeout time.Duration) (stageOutcome, bool) {
	run := func(rc *gin.Context) (out stageOutcome) {
		defer func() {
			// A panicking hook propagates like any rejected value.
			if r := recover(); r != nil {
				out = stageOutcome{err: errorlist.Raw(r)}
			}
		}()

		if m.Input.PreValidator != nil && !m.Input.Disabled() {
			if failed := b.checkVerdict(m.Input.PreValidator(rc, opts), m, errBuilder, errorlist.CodeRequestPreValidationError, opts); failed != nil {
				return stageOutcome{err: failed, rejected: true}
			}
		}

		data, err := b.requestData(rc, m, opts)
		if err != nil {
			return stageOutcome{err: err}
		}
		if fields, ok := data.(map[string]interface{}); ok {
			data = fieldpath.Rename(fields, m.Input.Mutate.Rename)
		}

		if schema != nil && !m.Input.Disabled() {
			if failed := b.checkVerdict(schema.Validate(data), m, errBuilder, errorlist.CodeRequestPostValidationError, opts); failed != nil {
				return stageOutcome{err: failed, rejected: true}
			}
		}
		if m.Input.PostValidator != nil && !m.Input.Disabled() {
			if failed := b.checkVerdict(m.Input.PostValidator(data, opts), m, errBuilder, errorlist.CodeRequestPostValidationError, opts); failed != nil {
				return stageOutcome{err: failed, rejected: true}
			}
		}

		// The inlet streams its own response and must not race the
		// timeout renderer; hand the prepared data back instead.
		if m.Inlet.Process != nil {
			return stageOutcome{data: data, inlet: true}
		}

		result, err := ref.Method(rc.Request.Context(), data, opts)
		if err != nil {
			return stageOutcome{err: err}
		}
		return stageOutcome{packet: b.packetFromResult(result, rc, m, opts)}
	}

	if timeout <= 0 {
		return run(c), false
	}

	done := make(chan stageOutcome, 1)
	go func() { done <- run(c.Copy()) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case staged := <-done:
		return staged, false
	case <-timer.C:
		return stageOutcome{}, true
	}
}

// packetFromResult shapes the success response. A transform may return a
// packet, an object with packet fields, or a bare body value.
func (b *Builder) packetFromResult(result interface{}, c *gin.Context, m *mapping.Mapping, opts reqopts.Options) *Packet {
	value := result
	if m.Output.Transform != nil && !m.Output.Disabled() {
		value = m.Output.Transform(result, c, opts)
	}
	switch v := value.(type) {
	case nil:
		return &Packet{}
	case *Packet:
		return v
	case Packet:
		return &v
	case map[string]interface{}:
		if _, ok := v["body"]; !ok {
			return &Packet{Body: v}
		}
		packet := &Packet{Headers: map[string]interface{}{}}
		applyObjectFailure(packet, v, b.cfg.ResponseOptions)
		return packet
	default:
		return &Packet{Body: value}
	}
}

func (b *Builder) renderError(c *gin.Context, m *mapping.Mapping, opts reqopts.Options, failed error) {
	metrics.GatewayRequestsFailed.WithLabelValues(m.ServiceName, m.MethodName, errorName(failed)).Inc()
	b.log.WithError(failed).Error("request failed", map[string]interface{}{
		"requestId":   opts.RequestID(),
		"serviceName": m.ServiceName,
		"methodName":  m.MethodName,
	})

	packet := b.renderer.buildPacket(failed, c, opts, m)
	if fields, ok := packet.Body.(map[string]interface{}); ok {
		packet.Body = fieldpath.Rename(fields, m.Error.Mutate.Rename)
	}
	if packet.StatusCode == 0 {
		packet.StatusCode = 500
	}
	ensureReturnCode(packet, b.cfg.ResponseOptions)
	renderPacket(c, packet)
}

func errorName(failed error) string {
	if structured, ok := failed.(*errorlist.StructuredError); ok {
		return structured.Name
	}
	return "Error"
}
