// Package dispatch builds the per-mapping HTTP middleware implementing the
// extract-transform-invoke-transform-render pipeline, including the timeout
// guard and the multi-stage error handling.
package dispatch

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"restfront-gateway/internal/common/config"
	"restfront-gateway/internal/gateway/errorlist"
)

// Packet is the normalized response shape shared by the success and error
// paths. A nil Body means "no body", not an empty one.
type Packet struct {
	StatusCode int                    `json:"statusCode,omitempty"`
	Headers    map[string]interface{} `json:"headers,omitempty"`
	Body       interface{}            `json:"body,omitempty"`
}

const defaultReturnCodeHeader = "X-Return-Code"

func returnCodeHeader(respOpts map[string]config.ResponseOptionConfig) string {
	if opt, ok := respOpts["returnCode"]; ok && opt.HeaderName != "" {
		return opt.HeaderName
	}
	return defaultReturnCodeHeader
}

// addDefaultHeaders stamps the taxonomy return-code header with 0 unless the
// packet already carries one.
func addDefaultHeaders(packet *Packet, respOpts map[string]config.ResponseOptionConfig) *Packet {
	header := returnCodeHeader(respOpts)
	if packet.Headers == nil {
		packet.Headers = map[string]interface{}{}
	}
	if _, ok := packet.Headers[header]; !ok {
		packet.Headers[header] = 0
	}
	return packet
}

// renderPacket writes the packet onto the response. An empty packet produces
// a bare status with no body; a string body is sent as text, anything else
// as JSON.
func renderPacket(c *gin.Context, packet *Packet) {
	for name, value := range packet.Headers {
		c.Header(name, fmt.Sprint(value))
	}
	status := packet.StatusCode
	if status == 0 {
		status = 200
	}
	switch body := packet.Body.(type) {
	case nil:
		c.Status(status)
		c.Writer.WriteHeaderNow()
	case string:
		c.String(status, "%s", body)
	default:
		c.JSON(status, body)
	}
}

// classifyFailure turns any failure value into a packet. Error values carry
// their own status and return codes when structured; everything else goes
// through scalar classification.
func classifyFailure(failed interface{}, respOpts map[string]config.ResponseOptionConfig, devMode bool) *Packet {
	switch err := failed.(type) {
	case *errorlist.StructuredError:
		packet := &Packet{
			StatusCode: orStatus(err.StatusCode),
			Headers: map[string]interface{}{
				returnCodeHeader(respOpts): err.ReturnCode,
			},
			Body: structuredBody(err, devMode),
		}
		return packet
	case *errorlist.RawError:
		return transformScalarError(err.Value, respOpts)
	case error:
		return &Packet{
			StatusCode: 500,
			Headers: map[string]interface{}{
				returnCodeHeader(respOpts): -1,
			},
			Body: errorBody(err, devMode),
		}
	default:
		return transformScalarError(failed, respOpts)
	}
}

func structuredBody(err *errorlist.StructuredError, devMode bool) interface{} {
	if devMode {
		return stackLines()
	}
	body := map[string]interface{}{
		"name":    err.Name,
		"message": err.Message,
	}
	if err.Payload != nil {
		body["payload"] = err.Payload
	}
	return body
}

func errorBody(err error, devMode bool) interface{} {
	if devMode {
		return stackLines()
	}
	return map[string]interface{}{
		"name":    fmt.Sprintf("%T", err),
		"message": err.Error(),
	}
}

// transformScalarError classifies a non-Error failure value by runtime type.
func transformScalarError(failed interface{}, respOpts map[string]config.ResponseOptionConfig) *Packet {
	packet := &Packet{
		StatusCode: 500,
		Headers: map[string]interface{}{
			returnCodeHeader(respOpts): -1,
		},
	}

	switch value := failed.(type) {
	case nil:
		packet.Body = map[string]interface{}{
			"type":    "null",
			"message": "Error is null",
		}
	case string:
		packet.Body = map[string]interface{}{
			"type":    "string",
			"message": value,
		}
	case map[string]interface{}:
		applyObjectFailure(packet, value, respOpts)
	default:
		kind := reflect.ValueOf(failed).Kind()
		switch kind {
		case reflect.Slice, reflect.Array:
			packet.Body = map[string]interface{}{
				"type":    "array",
				"payload": failed,
			}
		case reflect.Map, reflect.Struct, reflect.Ptr:
			packet.Body = failed
		default:
			packet.Body = map[string]interface{}{
				"type":    kind.String(),
				"message": fmt.Sprintf("Error: %v", failed),
				"payload": failed,
			}
		}
	}
	return packet
}

// applyObjectFailure picks the known packet fields off an object failure and
// treats the remainder as the body. Taxonomy fields named in the response
// options (returnCode, packageRef) are merged into the headers.
func applyObjectFailure(packet *Packet, value map[string]interface{}, respOpts map[string]config.ResponseOptionConfig) {
	remainder := make(map[string]interface{}, len(value))
	for key, item := range value {
		remainder[key] = item
	}

	if status, ok := toStatusCode(remainder["statusCode"]); ok {
		packet.StatusCode = status
		delete(remainder, "statusCode")
	}
	if headers, ok := remainder["headers"].(map[string]interface{}); ok {
		for name, item := range headers {
			packet.Headers[name] = item
		}
		delete(remainder, "headers")
	} else if _, present := remainder["headers"]; present {
		// Non-object headers are ignored, not rendered.
		delete(remainder, "headers")
	}
	for optName, opt := range respOpts {
		if fieldValue, ok := remainder[optName]; ok && opt.HeaderName != "" {
			packet.Headers[opt.HeaderName] = fieldValue
			delete(remainder, optName)
		}
	}
	if body, ok := remainder["body"]; ok {
		packet.Body = body
		return
	}
	packet.Body = remainder
}

func toStatusCode(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func orStatus(status int) int {
	if status == 0 {
		return 500
	}
	return status
}

func stackLines() []string {
	return strings.Split(strings.TrimSpace(string(debug.Stack())), "\n")
}
