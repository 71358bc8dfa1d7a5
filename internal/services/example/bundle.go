package example

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"restfront-gateway/internal/gateway/mapping"
	"restfront-gateway/internal/gateway/reqopts"
)

// BundleLocation is the loader location the mapping store may point at.
const BundleLocation = "example-bundle"

// Bundle declares the demo routes. The number guard in the postValidator
// fires below the service's own limit so the otherErrorSource variant of
// MaximumExceeding is observable.
func Bundle() *mapping.RawBundle {
	return &mapping.RawBundle{
		APIPath: "/sub",
		APIMaps: []*mapping.Mapping{
			{
				Path:        mapping.StringList{"/:apiVersion/fibonacci/calc/:number"},
				Method:      mapping.StringList{"GET"},
				ServiceName: ServiceName,
				MethodName:  "fibonacci",
				ErrorSource: "otherErrorSource",
				RequestOptions: reqopts.Table{
					"requestId": {Required: true},
				},
				Input: mapping.InputHooks{
					PreValidator: func(c *gin.Context, opts reqopts.Options) *mapping.Verdict {
						if demoAction := c.GetHeader("X-Demo-Action"); demoAction == "pre-validation-failed" {
							return &mapping.Verdict{
								Valid:  false,
								Errors: map[string]interface{}{"demoAction": demoAction},
							}
						}
						return &mapping.Verdict{Valid: true}
					},
					Transform: func(c *gin.Context, opts reqopts.Options) (interface{}, error) {
						data := map[string]interface{}{"number": c.Param("number")}
						if actionID := c.Query("actionId"); actionID != "" {
							data["actionId"] = actionID
						}
						if delay := c.Query("delay"); delay != "" {
							data["delay"] = delay
						}
						return data, nil
					},
					PostValidator: func(data interface{}, opts reqopts.Options) *mapping.Verdict {
						fields, _ := data.(map[string]interface{})
						raw, _ := fields["number"].(string)
						if number, err := strconv.Atoi(raw); err == nil && number >= 49 {
							return &mapping.Verdict{
								Valid:     false,
								ErrorName: "MaximumExceeding",
								Errors:    []string{"Maximum input number exceeded"},
							}
						}
						return &mapping.Verdict{Valid: true}
					},
					Schema: map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"number":   map[string]interface{}{"type": "string"},
							"actionId": map[string]interface{}{"type": "string"},
							"delay":    map[string]interface{}{"type": "string"},
						},
						"required": []interface{}{"number"},
					},
				},
				Output: mapping.OutputHooks{
					Transform: mapping.FilterMethodResult(mapping.FilterOptions{
						Pick: []string{"value", "step", "number", "actionId"},
					}, nil),
				},
			},
		},
		APIDocs: map[string]interface{}{
			"swagger": "2.0",
			"info": map[string]interface{}{
				"title":       "Example API",
				"description": "Demo routes dispatched through the gateway",
				"version":     "1.0.0",
			},
			"produces": []interface{}{"application/json"},
			"paths": map[string]interface{}{
				"/:apiVersion/fibonacci/calc/:number": map[string]interface{}{
					"get": map[string]interface{}{
						"summary": "Fibonacci calculation",
					},
				},
			},
		},
	}
}
