package parser

import (
	"sharkjson/internal/decode"
	"sharkjson/internal/models"
)

// FieldValue looks up a named field within a layer, descending into nested
// subtrees (tshark files DNS queries, HTTP request lines and similar under
// text-keyed objects). The first match in key order wins; a field that was
// repeated yields its first value.
func FieldValue(layer models.Layer, name string) string {
	for _, obj := range layer.Objects() {
		if v, ok := searchObject(obj, name); ok {
			return scalarText(v)
		}
	}
	return ""
}

// FieldValues returns every value of a field that was repeated in a layer.
func FieldValues(layer models.Layer, name string) []string {
	var out []string
	for _, obj := range layer.Objects() {
		v, ok := searchObject(obj, name)
		if !ok {
			continue
		}
		if elems := v.Elems(); elems != nil {
			for _, e := range elems {
				out = append(out, e.String())
			}
			continue
		}
		out = append(out, v.String())
	}
	return out
}

func searchObject(obj *decode.Object, name string) (decode.Value, bool) {
	if v, ok := obj.Get(name); ok {
		return v, true
	}
	var found decode.Value
	var ok bool
	obj.Range(func(_ string, v decode.Value) bool {
		found, ok = searchValue(v, name)
		return !ok
	})
	return found, ok
}

func searchValue(v decode.Value, name string) (decode.Value, bool) {
	if obj, isObj := v.Object(); isObj {
		return searchObject(obj, name)
	}
	for _, e := range v.Elems() {
		if found, ok := searchValue(e, name); ok {
			return found, true
		}
	}
	return decode.Value{}, false
}

// scalarText renders a field value as a single string, taking the first
// element of a repeated field.
func scalarText(v decode.Value) string {
	if elems := v.Elems(); len(elems) > 0 {
		return scalarText(elems[0])
	}
	if s, ok := v.Text(); ok {
		return s
	}
	if v.IsNull() {
		return ""
	}
	return v.String()
}
