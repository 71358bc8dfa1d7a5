// Package errorlist is the error taxonomy used by the dispatch engine. Named
// error codes are registered per source; each source yields a Builder that
// constructs structured errors carrying the registered message, return code
// and HTTP status.
package errorlist

import "fmt"

// Descriptor is one registered error code.
type Descriptor struct {
	Message     string `json:"message" mapstructure:"message"`
	ReturnCode  int    `json:"returnCode" mapstructure:"return_code"`
	StatusCode  int    `json:"statusCode" mapstructure:"status_code"`
	Description string `json:"description,omitempty" mapstructure:"description"`
}

// Localizer translates a descriptor message for a language code. The
// localization strategy itself lives outside the gateway; a nil Localizer
// leaves messages untouched.
type Localizer func(message, language string) string

// StructuredError is a taxonomy-built error.
type StructuredError struct {
	Name       string      `json:"name"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	ReturnCode int         `json:"-"`
	Payload    interface{} `json:"payload,omitempty"`
}

func (e *StructuredError) Error() string {
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// RawError carries an arbitrary non-error failure value through the error
// channel so it can be classified by runtime type at render time.
type RawError struct {
	Value interface{}
}

func (e *RawError) Error() string {
	return fmt.Sprintf("rejected: %v", e.Value)
}

// Raw wraps a failure value that is not an error into one.
func Raw(value interface{}) error {
	return &RawError{Value: value}
}

// Manager registers error sources and hands out their builders.
type Manager struct {
	sources       map[string]*Builder
	defaultSource string
	localize      Localizer
}

type ManagerOption func(*Manager)

// WithLocalizer installs a message localization hook.
func WithLocalizer(l Localizer) ManagerOption {
	return func(m *Manager) { m.localize = l }
}

func NewManager(defaultSource string, opts ...ManagerOption) *Manager {
	m := &Manager{
		sources:       map[string]*Builder{},
		defaultSource: defaultSource,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterSpec is the payload accepted by Register.
type RegisterSpec struct {
	ErrorCodes map[string]Descriptor
}

// Register creates (or replaces) the builder for sourceName.
func (m *Manager) Register(sourceName string, spec RegisterSpec) *Builder {
	codes := make(map[string]Descriptor, len(spec.ErrorCodes))
	for name, descriptor := range spec.ErrorCodes {
		codes[name] = descriptor
	}
	builder := &Builder{source: sourceName, codes: codes, localize: m.localize}
	m.sources[sourceName] = builder
	return builder
}

// Lookup returns the builder registered under sourceName, falling back to the
// default source when the name is unknown or empty.
func (m *Manager) Lookup(sourceName string) *Builder {
	if sourceName != "" {
		if builder, ok := m.sources[sourceName]; ok {
			return builder
		}
	}
	if builder, ok := m.sources[m.defaultSource]; ok {
		return builder
	}
	// an unregistered default still yields a usable builder
	return &Builder{source: m.defaultSource, localize: m.localize}
}

// DefaultSource returns the name of the fallback source.
func (m *Manager) DefaultSource() string {
	return m.defaultSource
}

// Builder constructs structured errors from one registered source.
type Builder struct {
	source   string
	codes    map[string]Descriptor
	localize Localizer
}

// ErrorOptions tune a single NewError call.
type ErrorOptions struct {
	Payload  interface{}
	Language string
}

// NewError builds a StructuredError for the named code. Unregistered codes
// produce a generic 500 error carrying the code name, so a misconfigured
// mapping still renders a response.
func (b *Builder) NewError(codeName string, opts *ErrorOptions) *StructuredError {
	if opts == nil {
		opts = &ErrorOptions{}
	}
	descriptor, ok := b.codes[codeName]
	if !ok {
		descriptor = Descriptor{
			Message:    fmt.Sprintf("Error[%s] unsupported", codeName),
			ReturnCode: -1,
			StatusCode: 500,
		}
	}
	message := descriptor.Message
	if b.localize != nil && opts.Language != "" {
		message = b.localize(message, opts.Language)
	}
	return &StructuredError{
		Name:       codeName,
		Message:    message,
		StatusCode: descriptor.StatusCode,
		ReturnCode: descriptor.ReturnCode,
		Payload:    opts.Payload,
	}
}

// Source returns the source name this builder was registered under.
func (b *Builder) Source() string {
	return b.source
}
