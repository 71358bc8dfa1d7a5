package dispatch

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"restfront-gateway/internal/gateway/errorlist"
	"restfront-gateway/internal/gateway/fieldpath"
	"restfront-gateway/internal/gateway/mapping"
	"restfront-gateway/internal/gateway/reqopts"
	"restfront-gateway/internal/gateway/validator"
)

// BuildValidationRouter mounts the pre-flight surface: every mapping that
// declares an input schema answers its routes here too, but the handler
// stops after input preparation and schema checking and reports the verdict
// instead of invoking the backend.
func (b *Builder) BuildValidationRouter(router gin.IRouter, bundles map[string]*mapping.Bundle) {
	for name, bundle := range bundles {
		for _, m := range bundle.APIMaps {
			if m.Input.Schema == nil {
				continue
			}
			handler := b.BuildValidationMiddleware(m)
			for _, path := range m.Path {
				if len(m.Method) == 0 {
					router.Any(path, handler)
					continue
				}
				for _, method := range m.Method {
					router.Handle(strings.ToUpper(method), path, handler)
				}
			}
			b.log.Info("validation route registered", map[string]interface{}{
				"bundle":  name,
				"mapPath": []string(m.Path),
			})
		}
	}
}

// BuildValidationMiddleware builds the schema-only handler for one mapping.
// It runs the same input stages as the dispatch handler (option extraction,
// transform, rename) so the validated value matches what the backend would
// receive, then answers with the verdict.
func (b *Builder) BuildValidationMiddleware(m *mapping.Mapping) gin.HandlerFunc {
	table := reqopts.Merge(b.baseOptions, m.RequestOptions)
	errBuilder := b.errors.Lookup(m.ErrorSource)
	schema, err := validator.Compile(m.Input.Schema)
	if err != nil {
		b.log.WithError(err).Error("input schema rejected, validation disabled", map[string]interface{}{
			"mapPath": []string(m.Path),
		})
	}

	return func(c *gin.Context) {
		var missing []string
		opts := reqopts.Extract(c.Request, table, reqopts.ExtractOpts{
			UserAgentEnabled: b.cfg.UserAgentEnabled,
		}, &missing)
		if opts.RequestID() == "" {
			opts["requestId"] = uuid.NewString()
		}

		if len(missing) > 0 {
			b.renderError(c, m, opts, b.gatewayErrors.NewError(errorlist.CodeRequestOptionNotFound, &errorlist.ErrorOptions{
				Payload:  missing,
				Language: opts.Language(),
			}))
			return
		}

		data, err := b.requestData(c, m, opts)
		if err != nil {
			b.renderError(c, m, opts, err)
			return
		}
		if fields, ok := data.(map[string]interface{}); ok {
			data = fieldpath.Rename(fields, m.Input.Mutate.Rename)
		}

		if failed := b.checkVerdict(schema.Validate(data), m, errBuilder, errorlist.CodeRequestPostValidationError, opts); failed != nil {
			b.renderError(c, m, opts, failed)
			return
		}

		packet := &Packet{
			StatusCode: http.StatusOK,
			Body:       map[string]interface{}{"valid": true},
		}
		addDefaultHeaders(packet, b.cfg.ResponseOptions)
		renderPacket(c, packet)
	}
}
