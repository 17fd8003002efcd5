package wizard

import (
	"opulanz-onboarding/internal/common/validation"
)

// Draft is the partially filled record a wizard accumulates across its steps.
// A field is absent until a step writes it.
type Draft map[string]interface{}

// Clone deep-copies nested maps and slices.
func (d Draft) Clone() Draft {
	if d == nil {
		return Draft{}
	}
	return Draft(cloneMap(d))
}

// Merge returns a new draft with the patch keys shallowly written over d.
func (d Draft) Merge(patch map[string]interface{}) Draft {
	out := d.Clone()
	for k, v := range patch {
		out[k] = cloneValue(v)
	}
	return out
}

func (d Draft) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Float reads JSON numbers, Go integers and numeric strings.
func (d Draft) Float(key string) (float64, bool) {
	return validation.ToFloat(d[key])
}

// Bool is true only for a boolean true or the string "true".
func (d Draft) Bool(key string) bool {
	switch v := d[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

func (d Draft) Slice(key string) []interface{} {
	s, _ := d[key].([]interface{})
	return s
}

func (d Draft) Map(key string) map[string]interface{} {
	m, _ := d[key].(map[string]interface{})
	return m
}

// Maps returns the elements of a list field that are objects, e.g. directors.
func (d Draft) Maps(key string) []Draft {
	var out []Draft
	for _, item := range d.Slice(key) {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, Draft(m))
		}
	}
	return out
}

// Has reports whether key holds a non-blank value.
func (d Draft) Has(key string) bool {
	return !validation.IsBlank(d[key])
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case Draft:
		return cloneMap(t)
	case map[string]interface{}:
		return cloneMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = cloneMap(item)
		}
		return out
	}
	return v
}
