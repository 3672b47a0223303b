// Package decode parses tshark JSON records into ordered Objects.
//
// tshark releases before 2.6 emit the same key more than once inside one
// object (for example one "ip.addr" per address). A standard decoder keeps
// only the last of them. With deduplication enabled every occurrence is kept:
// a repeated key maps to a Sequence of its values in source order.
package decode

import (
	"bytes"
	"encoding/json"
	"io"
	"unicode/utf8"
)

// Options selects a decoding strategy.
type Options struct {
	// Deduplicate keeps repeated keys as Sequences. It is slower.
	Deduplicate bool
	// FastJSON allows a faster decoder when Deduplicate is off. It is
	// ignored when Deduplicate is on, since the fast decoder cannot see
	// duplicates.
	FastJSON bool
}

// Decode parses one JSON record. The top-level value must be an object.
func Decode(data []byte, deduplicate bool) (*Object, error) {
	return Options{Deduplicate: deduplicate, FastJSON: true}.Decode(data)
}

// Decode parses one JSON record using the strategy described by opts.
func (opts Options) Decode(data []byte) (*Object, error) {
	v, err := opts.DecodeValue(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.Object()
	if !ok {
		return nil, &DecodeError{Err: ErrNotAnObject}
	}
	return obj, nil
}

// DecodeValue parses any JSON document.
func (opts Options) DecodeValue(data []byte) (Value, error) {
	switch {
	case opts.Deduplicate:
		if !utf8.Valid(data) {
			return Value{}, &DecodeError{Err: ErrInvalidUTF8}
		}
		return walk(data, (*Object).Add)
	case opts.FastJSON:
		return decodeFast(data)
	default:
		return walk(data, (*Object).Set)
	}
}

// maxDepth bounds how deeply objects and arrays may nest, the same limit
// encoding/json applies.
const maxDepth = 10000

// putFunc stores a key/value pair read from the input into an object.
type putFunc func(o *Object, key string, v Value)

// walk decodes data with a token stream so that every key/value pair of
// every object passes through put in source order.
func walk(data []byte, put putFunc) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := readValue(dec, put, 0)
	if err == ErrTooDeep {
		return Value{}, &DecodeError{Err: ErrTooDeep}
	}
	if err != nil {
		return Value{}, decodeErr(err, "invalid JSON")
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = ErrTrailingData
		}
		return Value{}, decodeErr(err, "invalid JSON")
	}
	return v, nil
}

// readValue reads the next value. depth counts the objects and arrays
// enclosing it.
func readValue(dec *json.Decoder, put putFunc, depth int) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		if depth >= maxDepth {
			return Value{}, ErrTooDeep
		}
		if t == '{' {
			return readObject(dec, put, depth+1)
		}
		return readArray(dec, put, depth+1)
	case string:
		return StringValue(t), nil
	case json.Number:
		return NumberValue(string(t)), nil
	case bool:
		return BoolValue(t), nil
	}
	return NullValue(), nil
}

func readObject(dec *json.Decoder, put putFunc, depth int) (Value, error) {
	obj := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, errUnexpectedKey
		}
		v, err := readValue(dec, put, depth)
		if err != nil {
			return Value{}, err
		}
		put(obj, key, v)
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return ObjectValue(obj), nil
}

func readArray(dec *json.Decoder, put putFunc, depth int) (Value, error) {
	elems := []Value{}
	for dec.More() {
		v, err := readValue(dec, put, depth)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return ArrayValue(elems...), nil
}
