package dispatch

import (
	"github.com/gin-gonic/gin"

	"restfront-gateway/internal/common/config"
	"restfront-gateway/internal/gateway/mapping"
	"restfront-gateway/internal/gateway/reqopts"
)

// ErrorPolicy names how a mapping's error transform interacts with the
// built-in failure classification. Chosen once at build time.
type ErrorPolicy string

const (
	// ErrorPolicyStandard runs the mapping's error transform first and then
	// classifies the transformed value like any other failure.
	ErrorPolicyStandard ErrorPolicy = "standard"

	// ErrorPolicyLegacy takes the transform's return value as the response
	// packet directly, skipping classification.
	ErrorPolicyLegacy ErrorPolicy = "legacy"
)

type errorRenderer interface {
	buildPacket(failed error, c *gin.Context, opts reqopts.Options, m *mapping.Mapping) *Packet
}

func newErrorRenderer(policy ErrorPolicy, respOpts map[string]config.ResponseOptionConfig, devMode bool) errorRenderer {
	if policy == ErrorPolicyLegacy {
		return &legacyErrorRenderer{respOpts: respOpts, devMode: devMode}
	}
	return &standardErrorRenderer{respOpts: respOpts, devMode: devMode}
}

type standardErrorRenderer struct {
	respOpts map[string]config.ResponseOptionConfig
	devMode  bool
}

func (r *standardErrorRenderer) buildPacket(failed error, c *gin.Context, opts reqopts.Options, m *mapping.Mapping) *Packet {
	value := interface{}(failed)
	if m.Error.Transform != nil && !m.Error.Disabled() {
		value = m.Error.Transform(failed, c, opts)
	}
	return classifyFailure(value, r.respOpts, r.devMode)
}

type legacyErrorRenderer struct {
	respOpts map[string]config.ResponseOptionConfig
	devMode  bool
}

func (r *legacyErrorRenderer) buildPacket(failed error, c *gin.Context, opts reqopts.Options, m *mapping.Mapping) *Packet {
	if m.Error.Transform == nil || m.Error.Disabled() {
		return classifyFailure(failed, r.respOpts, r.devMode)
	}
	return coercePacket(m.Error.Transform(failed, c, opts), r.respOpts)
}

// coercePacket accepts what a legacy error transform may return: an actual
// packet, an object with packet fields, or a bare body value.
func coercePacket(value interface{}, respOpts map[string]config.ResponseOptionConfig) *Packet {
	switch v := value.(type) {
	case *Packet:
		if v.StatusCode == 0 {
			v.StatusCode = 500
		}
		ensureReturnCode(v, respOpts)
		return v
	case Packet:
		return coercePacket(&v, respOpts)
	case map[string]interface{}:
		packet := &Packet{StatusCode: 500, Headers: map[string]interface{}{}}
		applyObjectFailure(packet, v, respOpts)
		ensureReturnCode(packet, respOpts)
		return packet
	default:
		packet := &Packet{StatusCode: 500, Body: v}
		ensureReturnCode(packet, respOpts)
		return packet
	}
}

func ensureReturnCode(packet *Packet, respOpts map[string]config.ResponseOptionConfig) {
	header := returnCodeHeader(respOpts)
	if packet.Headers == nil {
		packet.Headers = map[string]interface{}{}
	}
	if _, ok := packet.Headers[header]; !ok {
		packet.Headers[header] = -1
	}
}
