// Package reqopts extracts the cross-cutting request attributes (requestId,
// client type/version, tier, mock suite, ...) from HTTP headers according to
// a configurable descriptor table.
package reqopts

import (
	"net/http"
	"net/textproto"

	"restfront-gateway/internal/common/config"
)

// Descriptor describes how one option is read from the request.
type Descriptor struct {
	HeaderName string `json:"headerName" mapstructure:"header_name"`
	// OptionName stores the extracted value under a different key than the
	// table key. Empty means the table key itself.
	OptionName string `json:"optionName,omitempty" mapstructure:"option_name"`
	Required   bool   `json:"required,omitempty" mapstructure:"required"`
}

// Table maps option names to their descriptors.
type Table map[string]Descriptor

// Options is the per-request option set handed to every pipeline stage.
type Options map[string]interface{}

// RequestID returns the requestId option as a string, or "" when absent.
func (o Options) RequestID() string {
	if v, ok := o["requestId"].(string); ok {
		return v
	}
	return ""
}

// Language returns the languageCode option as a string, or "" when absent.
func (o Options) Language() string {
	if v, ok := o["languageCode"].(string); ok {
		return v
	}
	return ""
}

// TableFromConfig converts the configuration form of the option table.
func TableFromConfig(raw map[string]config.RequestOptionConfig) Table {
	table := make(Table, len(raw))
	for name, entry := range raw {
		table[name] = Descriptor{
			HeaderName: entry.HeaderName,
			OptionName: entry.OptionName,
			Required:   entry.Required,
		}
	}
	return table
}

// NormalizeTable promotes loosely-typed descriptor values (from file-loaded
// mapping bundles) into Descriptors. A bare string is a header name.
func NormalizeTable(raw map[string]interface{}) Table {
	table := make(Table, len(raw))
	for name, value := range raw {
		switch spec := value.(type) {
		case string:
			table[name] = Descriptor{HeaderName: spec}
		case Descriptor:
			table[name] = spec
		case map[string]interface{}:
			descriptor := Descriptor{}
			if s, ok := spec["headerName"].(string); ok {
				descriptor.HeaderName = s
			}
			if s, ok := spec["optionName"].(string); ok {
				descriptor.OptionName = s
			}
			if b, ok := spec["required"].(bool); ok {
				descriptor.Required = b
			}
			table[name] = descriptor
		}
	}
	return table
}

// Merge overlays override entries onto base, field by field: an override may
// flip Required or rename the header without restating the whole descriptor.
func Merge(base, override Table) Table {
	merged := make(Table, len(base)+len(override))
	for name, descriptor := range base {
		merged[name] = descriptor
	}
	for name, descriptor := range override {
		entry, ok := merged[name]
		if !ok {
			merged[name] = descriptor
			continue
		}
		if descriptor.HeaderName != "" {
			entry.HeaderName = descriptor.HeaderName
		}
		if descriptor.OptionName != "" {
			entry.OptionName = descriptor.OptionName
		}
		entry.Required = entry.Required || descriptor.Required
		merged[name] = entry
	}
	return merged
}

// ExtractOpts tune one extraction run.
type ExtractOpts struct {
	// Extensions overlay the extracted options. A nil value does NOT erase an
	// already-extracted option: only defined values override.
	Extensions map[string]interface{}

	// UserAgentEnabled turns on User-Agent parsing into options["userAgent"].
	UserAgentEnabled bool
}

// Extract reads every table entry from the request headers. Required options
// whose header is absent are appended to missing; extraction never
// short-circuits. Every table key appears in the result, with a nil value
// when the header is absent.
func Extract(req *http.Request, table Table, opts ExtractOpts, missing *[]string) Options {
	options := make(Options, len(table)+len(opts.Extensions))

	for name, descriptor := range table {
		key := descriptor.OptionName
		if key == "" {
			key = name
		}
		value, present := headerValue(req, descriptor.HeaderName)
		if present {
			options[key] = value
		} else {
			options[key] = nil
			if descriptor.Required && missing != nil {
				*missing = append(*missing, name)
			}
		}
	}

	if opts.UserAgentEnabled {
		options["userAgent"] = ParseUserAgent(req.Header.Get("User-Agent"))
	}

	for key, value := range opts.Extensions {
		if value == nil {
			continue
		}
		options[key] = value
	}

	return options
}

func headerValue(req *http.Request, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	values, ok := req.Header[textproto.CanonicalMIMEHeaderKey(name)]
	if !ok || len(values) == 0 || values[0] == "" {
		return "", false
	}
	return values[0], true
}
