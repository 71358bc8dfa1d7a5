// Package mapping defines the declarative route-mapping model consumed by the
// dispatch engine, the loader that reads mapping bundles from a configured
// store, and the sanitizer that normalizes raw bundle shapes into one
// canonical form.
package mapping

import (
	"context"

	"github.com/gin-gonic/gin"

	"restfront-gateway/internal/gateway/reqopts"
)

// StringList accepts a single string or an ordered list in raw mapping data.
type StringList []string

// One returns the first element, or "" when empty.
func (s StringList) One() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// Contains reports whether value is in the list, case-sensitively.
func (s StringList) Contains(value string) bool {
	for _, item := range s {
		if item == value {
			return true
		}
	}
	return false
}

// Verdict is the result contract of pre/post validators. A nil Verdict or
// Valid==true lets the pipeline continue. ErrorName overrides the default
// taxonomy code used for the rejection.
type Verdict struct {
	Valid     bool        `json:"valid"`
	ErrorName string      `json:"errorName,omitempty"`
	Errors    interface{} `json:"errors,omitempty"`
}

// Invoker is a resolved backend method.
type Invoker func(ctx context.Context, data interface{}, opts reqopts.Options) (interface{}, error)

// Hook signatures. Hooks are pure function values stored in the mapping;
// anything else they need (loggers, services) is closed over at registration.
type (
	// TransformFunc derives the request data handed to the backend method.
	TransformFunc func(c *gin.Context, opts reqopts.Options) (interface{}, error)

	// PreValidatorFunc vets the raw request before any transform runs.
	PreValidatorFunc func(c *gin.Context, opts reqopts.Options) *Verdict

	// PostValidatorFunc vets the transformed (and possibly renamed) data.
	PostValidatorFunc func(data interface{}, opts reqopts.Options) *Verdict

	// OutputTransformFunc turns the raw method result into a response packet
	// or a bare body value.
	OutputTransformFunc func(result interface{}, c *gin.Context, opts reqopts.Options) interface{}

	// ErrorTransformFunc turns a failure into a packet or an arbitrary value
	// that is classified afterwards, depending on the configured policy.
	ErrorTransformFunc func(failed error, c *gin.Context, opts reqopts.Options) interface{}

	// InletFunc takes over response production entirely, bypassing the
	// standard invoke/output/render steps.
	InletFunc func(ctx context.Context, method Invoker, c *gin.Context, data interface{}, opts reqopts.Options) error
)

// Mutate carries the field-mutation sub-slots of a hook group. After
// sanitization it is never nil.
type Mutate struct {
	Rename map[string]string `json:"rename,omitempty"`
}

type InputHooks struct {
	Transform     TransformFunc     `json:"-"`
	PreValidator  PreValidatorFunc  `json:"-"`
	PostValidator PostValidatorFunc `json:"-"`
	Schema        interface{}       `json:"schema,omitempty"`
	Mutate        *Mutate           `json:"mutate,omitempty"`
	Enabled       *bool             `json:"enabled,omitempty"`
}

type InletHooks struct {
	Process InletFunc `json:"-"`
}

type OutputHooks struct {
	Transform OutputTransformFunc `json:"-"`
	Mutate    *Mutate             `json:"mutate,omitempty"`
	Enabled   *bool               `json:"enabled,omitempty"`
}

type ErrorHooks struct {
	Transform ErrorTransformFunc `json:"-"`
	Mutate    *Mutate            `json:"mutate,omitempty"`
	Enabled   *bool              `json:"enabled,omitempty"`
}

// Disabled reports the enabled!=false convention on hook groups.
func disabled(enabled *bool) bool {
	return enabled != nil && !*enabled
}

func (h InputHooks) Disabled() bool  { return disabled(h.Enabled) }
func (h OutputHooks) Disabled() bool { return disabled(h.Enabled) }
func (h ErrorHooks) Disabled() bool  { return disabled(h.Enabled) }

// Mapping is one route definition binding an HTTP path+method set to a
// backend operation plus its transform and validation hooks.
type Mapping struct {
	Path        StringList `json:"path"`
	Method      StringList `json:"method"`
	ServiceName string     `json:"serviceName"`
	MethodName  string     `json:"methodName"`

	// ErrorSource selects the taxonomy namespace; empty means the default.
	ErrorSource string `json:"errorSource,omitempty"`

	// Timeout in milliseconds overrides the gateway default when positive.
	Timeout int `json:"timeout,omitempty"`

	// RequestOptions extend/override the global request-option table.
	RequestOptions reqopts.Table `json:"requestOptions,omitempty"`

	Input  InputHooks  `json:"input"`
	Inlet  InletHooks  `json:"inlet"`
	Output OutputHooks `json:"output"`
	Error  ErrorHooks  `json:"error"`

	// Legacy bare hooks; the sanitizer lifts them onto the canonical slots.
	TransformRequest  TransformFunc       `json:"-"`
	TransformResponse OutputTransformFunc `json:"-"`
	TransformError    ErrorTransformFunc  `json:"-"`
}

// RawBundle is the duck-typed bundle shape accepted by the sanitizer: the
// canonical apiMaps key, the legacy apimaps alias, or a bare list of entries.
type RawBundle struct {
	APIPath string                 `json:"apiPath,omitempty"`
	APIMaps []*Mapping             `json:"apiMaps,omitempty"`
	Apimaps []*Mapping             `json:"apimaps,omitempty"`
	APIDocs map[string]interface{} `json:"apiDocs,omitempty"`

	// List holds entries when the bundle source was itself a bare list.
	List []*Mapping `json:"-"`
}

// entries picks the mapping list by key precedence; nil when the bundle has
// no recognizable list.
func (b *RawBundle) entries() []*Mapping {
	switch {
	case b.APIMaps != nil:
		return b.APIMaps
	case b.Apimaps != nil:
		return b.Apimaps
	default:
		return b.List
	}
}

// Bundle is the sanitized, canonical form. APIMaps is nil (not empty) when
// the raw bundle had no recognizable mapping list: callers treat that as "no
// routes", not an error.
type Bundle struct {
	APIMaps []*Mapping             `json:"apiMaps,omitempty"`
	APIDocs map[string]interface{} `json:"apiDocs,omitempty"`
}
