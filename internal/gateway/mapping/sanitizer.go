package mapping

import "path"

// Sanitize normalizes every raw bundle into the canonical Bundle shape:
// the bundle's apiPath is prefixed onto each entry path and each apiDocs
// paths key, legacy bare transforms are lifted onto the canonical hook slots,
// and every mutate sub-object is guaranteed non-nil. The raw bundles are
// left untouched, so a registered bundle survives repeated sanitization;
// the result is treated as immutable afterwards.
func Sanitize(raw map[string]*RawBundle) map[string]*Bundle {
	out := make(map[string]*Bundle, len(raw))
	for name, bundle := range raw {
		out[name] = sanitizeBundle(bundle)
	}
	return out
}

func sanitizeBundle(raw *RawBundle) *Bundle {
	sanitized := &Bundle{
		APIDocs: prefixDocPaths(raw.APIDocs, raw.APIPath),
	}
	entries := raw.entries()
	if entries == nil {
		return sanitized
	}
	sanitized.APIMaps = make([]*Mapping, 0, len(entries))
	for _, entry := range entries {
		sanitized.APIMaps = append(sanitized.APIMaps, upgradeMapping(entry, raw.APIPath))
	}
	return sanitized
}

// upgradeMapping applies the path prefix and lifts the legacy hook shape.
// It works on a copy: the caller's mapping stays untouched, so a registered
// bundle can be sanitized any number of times without double-prefixing.
func upgradeMapping(m *Mapping, apiPath string) *Mapping {
	upgraded := *m
	if apiPath != "" {
		prefixed := make(StringList, len(m.Path))
		for i, p := range m.Path {
			prefixed[i] = joinPath(apiPath, p)
		}
		upgraded.Path = prefixed
	}

	if upgraded.Input.Transform == nil && m.TransformRequest != nil {
		upgraded.Input.Transform = m.TransformRequest
	}
	if upgraded.Output.Transform == nil && m.TransformResponse != nil {
		upgraded.Output.Transform = m.TransformResponse
	}
	if upgraded.Error.Transform == nil && m.TransformError != nil {
		upgraded.Error.Transform = m.TransformError
	}

	if upgraded.Input.Mutate == nil {
		upgraded.Input.Mutate = &Mutate{}
	}
	if upgraded.Output.Mutate == nil {
		upgraded.Output.Mutate = &Mutate{}
	}
	if upgraded.Error.Mutate == nil {
		upgraded.Error.Mutate = &Mutate{}
	}
	return &upgraded
}

// prefixDocPaths rebuilds apiDocs with apiPath prepended to every key of its
// "paths" object. Other document fields pass through untouched. The input
// document is not modified.
func prefixDocPaths(docs map[string]interface{}, apiPath string) map[string]interface{} {
	if docs == nil || apiPath == "" {
		return docs
	}
	paths, ok := docs["paths"].(map[string]interface{})
	if !ok {
		return docs
	}
	prefixed := make(map[string]interface{}, len(paths))
	for key, value := range paths {
		prefixed[joinPath(apiPath, key)] = value
	}
	out := make(map[string]interface{}, len(docs))
	for key, value := range docs {
		out[key] = value
	}
	out["paths"] = prefixed
	return out
}

// joinPath uses path-join semantics, not string concatenation, so prefixes
// and routes compose regardless of their slashes.
func joinPath(prefix, route string) string {
	if prefix == "" {
		return route
	}
	if route == "" {
		return prefix
	}
	return path.Join(prefix, route)
}
