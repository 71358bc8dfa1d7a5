package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"restfront-gateway/internal/common/logger"
	"restfront-gateway/internal/gateway/reqopts"
)

// Loader resolves a mapping-store descriptor to raw bundles. A location names
// either an in-code registered bundle or a json/yaml file. Load errors
// propagate as-is: a store pointing at a missing location fails fast.
type Loader struct {
	log     logger.Logger
	bundles map[string]*RawBundle
}

func NewLoader(log logger.Logger) *Loader {
	return &Loader{
		log:     log,
		bundles: map[string]*RawBundle{},
	}
}

// Register makes an in-code bundle available under the given location name.
// Registered bundles take precedence over files.
func (l *Loader) Register(location string, bundle *RawBundle) {
	l.bundles[location] = bundle
}

// RegisterList registers a bare mapping list as a bundle.
func (l *Loader) RegisterList(location string, entries []*Mapping) {
	l.bundles[location] = &RawBundle{List: entries}
}

// LoadStore accepts either a single location (string) or a bundle-name to
// location map, and returns the bundle-name to raw-bundle hash. A bare single
// location is auto-assigned a generated unique bundle name.
func (l *Loader) LoadStore(store interface{}) (map[string]*RawBundle, error) {
	switch descriptor := store.(type) {
	case nil:
		return map[string]*RawBundle{}, nil
	case string:
		bundle, err := l.resolve(descriptor)
		if err != nil {
			return nil, err
		}
		name := "bundle-" + uuid.NewString()
		return map[string]*RawBundle{name: bundle}, nil
	case map[string]string:
		out := make(map[string]*RawBundle, len(descriptor))
		for name, location := range descriptor {
			bundle, err := l.resolve(location)
			if err != nil {
				return nil, fmt.Errorf("bundle %q: %w", name, err)
			}
			out[name] = bundle
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported mapping store descriptor type %T", store)
	}
}

func (l *Loader) resolve(location string) (*RawBundle, error) {
	if bundle, ok := l.bundles[location]; ok {
		l.log.Debug("mapping bundle resolved from registry", map[string]interface{}{
			"location": location,
		})
		return bundle, nil
	}
	return l.loadFile(location)
}

func (l *Loader) loadFile(location string) (*RawBundle, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("load mapping bundle: %w", err)
	}

	var raw interface{}
	switch filepath.Ext(location) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("decode mapping bundle %q: %w", location, err)
	}

	l.log.Debug("mapping bundle loaded from file", map[string]interface{}{
		"location": location,
	})
	return normalizeRawBundle(raw), nil
}

// normalizeRawBundle converts decoded file data (an object or a bare list)
// into a RawBundle. File-borne mappings are data-only; hook functions can
// only come from registered bundles.
func normalizeRawBundle(raw interface{}) *RawBundle {
	switch value := normalizeKeys(raw).(type) {
	case []interface{}:
		return &RawBundle{List: normalizeEntries(value)}
	case map[string]interface{}:
		bundle := &RawBundle{}
		if s, ok := value["apiPath"].(string); ok {
			bundle.APIPath = s
		}
		if list, ok := value["apiMaps"].([]interface{}); ok {
			bundle.APIMaps = normalizeEntries(list)
		}
		if list, ok := value["apimaps"].([]interface{}); ok {
			bundle.Apimaps = normalizeEntries(list)
		}
		if docs, ok := value["apiDocs"].(map[string]interface{}); ok {
			bundle.APIDocs = docs
		}
		return bundle
	default:
		return &RawBundle{}
	}
}

func normalizeEntries(list []interface{}) []*Mapping {
	entries := make([]*Mapping, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		entries = append(entries, normalizeEntry(entry))
	}
	return entries
}

func normalizeEntry(entry map[string]interface{}) *Mapping {
	m := &Mapping{
		Path:   toStringList(entry["path"]),
		Method: toStringList(entry["method"]),
	}
	if s, ok := entry["serviceName"].(string); ok {
		m.ServiceName = s
	}
	if s, ok := entry["methodName"].(string); ok {
		m.MethodName = s
	}
	if s, ok := entry["errorSource"].(string); ok {
		m.ErrorSource = s
	}
	m.Timeout = toInt(entry["timeout"])
	if opts, ok := entry["requestOptions"].(map[string]interface{}); ok {
		m.RequestOptions = reqopts.NormalizeTable(opts)
	}
	if input, ok := entry["input"].(map[string]interface{}); ok {
		m.Input.Schema = input["schema"]
		m.Input.Mutate = toMutate(input["mutate"])
		m.Input.Enabled = toBoolPtr(input["enabled"])
	}
	if output, ok := entry["output"].(map[string]interface{}); ok {
		m.Output.Mutate = toMutate(output["mutate"])
		m.Output.Enabled = toBoolPtr(output["enabled"])
	}
	if errHooks, ok := entry["error"].(map[string]interface{}); ok {
		m.Error.Mutate = toMutate(errHooks["mutate"])
		m.Error.Enabled = toBoolPtr(errHooks["enabled"])
	}
	return m
}

func toStringList(value interface{}) StringList {
	switch v := value.(type) {
	case string:
		return StringList{v}
	case []interface{}:
		list := make(StringList, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				list = append(list, s)
			}
		}
		return list
	default:
		return nil
	}
}

func toInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func toBoolPtr(value interface{}) *bool {
	if b, ok := value.(bool); ok {
		return &b
	}
	return nil
}

func toMutate(value interface{}) *Mutate {
	raw, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	rename, ok := raw["rename"].(map[string]interface{})
	if !ok {
		return &Mutate{}
	}
	m := &Mutate{Rename: make(map[string]string, len(rename))}
	for from, to := range rename {
		if s, ok := to.(string); ok {
			m.Rename[from] = s
		}
	}
	return m
}

// normalizeKeys converts yaml's map[interface{}]interface{} trees into
// map[string]interface{} so json- and yaml-borne bundles share one shape.
func normalizeKeys(value interface{}) interface{} {
	switch v := value.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = normalizeKeys(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = normalizeKeys(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = normalizeKeys(item)
		}
		return out
	default:
		return value
	}
}
