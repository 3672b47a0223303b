//go:build amd64 || arm64

package decode

import (
	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
	"github.com/pkg/errors"
)

// decodeFast parses data with sonic's AST. Pairs are visited in source
// order and Set keeps only the last value of a repeated key, which matches
// what a standard decoder does.
func decodeFast(data []byte) (Value, error) {
	if !sonic.Valid(data) {
		return Value{}, &DecodeError{Err: errors.New("invalid JSON")}
	}
	root, err := sonic.Get(data)
	if err != nil {
		return Value{}, decodeErr(err, "invalid JSON")
	}
	if err := root.LoadAll(); err != nil {
		return Value{}, decodeErr(err, "invalid JSON")
	}
	v, err := fromNode(&root)
	if err != nil {
		return Value{}, decodeErr(err, "invalid JSON")
	}
	return v, nil
}

func fromNode(n *ast.Node) (Value, error) {
	switch n.TypeSafe() {
	case ast.V_OBJECT:
		it, err := n.Properties()
		if err != nil {
			return Value{}, err
		}
		obj := NewObject()
		var p ast.Pair
		for it.Next(&p) {
			v, err := fromNode(&p.Value)
			if err != nil {
				return Value{}, err
			}
			obj.Set(p.Key, v)
		}
		return ObjectValue(obj), nil
	case ast.V_ARRAY:
		it, err := n.Values()
		if err != nil {
			return Value{}, err
		}
		elems := []Value{}
		var e ast.Node
		for it.Next(&e) {
			v, err := fromNode(&e)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
		}
		return ArrayValue(elems...), nil
	case ast.V_STRING:
		s, err := n.String()
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case ast.V_NUMBER:
		num, err := n.Number()
		if err != nil {
			return Value{}, err
		}
		return NumberValue(string(num)), nil
	case ast.V_TRUE:
		return BoolValue(true), nil
	case ast.V_FALSE:
		return BoolValue(false), nil
	case ast.V_NULL:
		return NullValue(), nil
	}
	return Value{}, errors.Errorf("unexpected node type %d", n.TypeSafe())
}
