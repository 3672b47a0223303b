package decode

import (
	"encoding/json"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
	// KindSequence holds the values of a key that occurred more than once
	// in the same object. Only the deduplicating decoder produces it.
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindSequence:
		return "sequence"
	}
	return "unknown"
}

// Value is a decoded JSON value. The zero Value is null.
type Value struct {
	kind Kind
	text string // string contents or number literal
	b    bool
	obj  *Object
	list []Value // array or sequence elements
}

func NullValue() Value { return Value{} }
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }
func StringValue(s string) Value { return Value{kind: KindString, text: s} }
func NumberValue(lit string) Value { return Value{kind: KindNumber, text: lit} }
func ObjectValue(o *Object) Value { return Value{kind: KindObject, obj: o} }
func ArrayValue(elems ...Value) Value { return Value{kind: KindArray, list: elems} }

// SequenceValue builds a merged-duplicates value directly. Mostly useful in tests.
func SequenceValue(elems ...Value) Value { return Value{kind: KindSequence, list: elems} }

func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the string contents of a String or the literal of a Number.
// ok is false for any other kind.
func (v Value) Text() (s string, ok bool) {
	if v.kind == KindString || v.kind == KindNumber {
		return v.text, true
	}
	return "", false
}

func (v Value) Bool() (b bool, ok bool) {
	return v.b, v.kind == KindBool
}

func (v Value) Object() (*Object, bool) {
	return v.obj, v.kind == KindObject && v.obj != nil
}

// Elems returns the elements of an Array or Sequence, nil otherwise.
func (v Value) Elems() []Value {
	if v.kind == KindArray || v.kind == KindSequence {
		return v.list
	}
	return nil
}

// merge folds another occurrence of a key into the value already stored
// for it. A single stored value is promoted to a two-element Sequence; an
// existing Sequence grows in place, so sequences never nest.
func merge(prev, next Value) Value {
	if prev.kind == KindSequence {
		prev.list = append(prev.list, next)
		return prev
	}
	return Value{kind: KindSequence, list: []Value{prev, next}}
}

// Interface converts v into plain Go values: map[string]any, []any,
// string, json.Number, bool or nil. Arrays and sequences both become []any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return json.Number(v.text)
	case KindString:
		return v.text
	case KindObject:
		return v.obj.Interface()
	case KindArray, KindSequence:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	}
	return nil
}

// String renders v for display. Scalars print bare, containers print as
// compact JSON-like text with keys in source order.
func (v Value) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		if v.b {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindNumber, KindString:
		sb.WriteString(v.text)
	case KindObject:
		sb.WriteByte('{')
		for i, k := range v.obj.keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			v.obj.vals[k].write(sb)
		}
		sb.WriteByte('}')
	case KindArray, KindSequence:
		sb.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.write(sb)
		}
		sb.WriteByte(']')
	}
}
