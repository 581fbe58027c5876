package logging

import (
	"context"
	"maps"
	"slices"

	"github.com/alexisbeaulieu97/prism/internal/ports"
)

// fieldSet collects key/value pairs for one entry. A repeated key keeps the
// position of its first occurrence and takes the latest value. Errors are
// flattened to their message so every formatter renders them the same way.
type fieldSet struct {
	keys   []string
	values map[string]interface{}
}

func newFieldSet() *fieldSet {
	return &fieldSet{values: make(map[string]interface{})}
}

func (f *fieldSet) set(key string, value interface{}) *fieldSet {
	if key == "" {
		return f
	}
	if err, ok := value.(error); ok && err != nil {
		value = err.Error()
	}
	if _, seen := f.values[key]; !seen {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
	return f
}

// add appends alternating key/value pairs. Non-string keys and a trailing
// key without a value are dropped.
func (f *fieldSet) add(kv ...interface{}) *fieldSet {
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			f.set(key, kv[i+1])
		}
	}
	return f
}

// addMap adds m in key order, skipping nil and empty string values.
func (f *fieldSet) addMap(m map[string]interface{}) *fieldSet {
	for _, key := range slices.Sorted(maps.Keys(m)) {
		if v := m[key]; v != nil && v != "" {
			f.set(key, v)
		}
	}
	return f
}

func (f *fieldSet) addContext(ctx context.Context) *fieldSet {
	if id := ports.GetCorrelationID(ctx); id != "" {
		f.set("correlation_id", id)
	}
	return f
}

func (f *fieldSet) pairs() []interface{} {
	if len(f.keys) == 0 {
		return nil
	}
	out := make([]interface{}, 0, len(f.keys)*2)
	for _, key := range f.keys {
		out = append(out, key, f.values[key])
	}
	return out
}
