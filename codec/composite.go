package codec

import (
	"errors"
	"fmt"

	"github.com/NimbleMarkets/codec-go/schema"
	"github.com/NimbleMarkets/codec-go/wire"
)

var (
	errNotObject = errors.New("value is not an object (map[string]any)")
	errNotArray  = errors.New("value is not an array ([]any)")
	errNotTuple  = errors.New("value arity does not match tuple schema")
	errNotKeyed  = errors.New("value is not a keyed container ([]schema.Entry)")
)

func encodeObject(buf []byte, n *schema.Node, value any, catchReplaced bool, diags *[]Diagnostic) ([]byte, error) {
	if n.Passthrough {
		return nil, unserializableSchemaError("object with passthrough unknown keys")
	}
	rec, ok := value.(map[string]any)
	if !ok {
		return nil, validationError(errNotObject)
	}
	buf = append(buf, wire.ObjectHeader(wire.ObjectBody))
	for _, f := range n.Fields {
		val, present := rec[f.Name]
		if !present {
			if f.Schema.Kind != schema.KindOptional {
				return nil, validationError(errors.New("missing required field: " + f.Name))
			}
			buf = append(buf, wire.AbsentOptionalMarker)
			continue
		}
		var err error
		buf, err = encodeDispatch(buf, f.Schema, val, catchReplaced, diags)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func encodeArray(buf []byte, n *schema.Node, value any, catchReplaced bool, diags *[]Diagnostic) ([]byte, error) {
	arr, ok := value.([]any)
	if !ok {
		return nil, validationError(errNotArray)
	}
	if n.Kind == schema.KindSet {
		arr = dedupeSet(arr)
	}
	hdr, err := wire.ArrayHeader(len(arr))
	if err != nil {
		return nil, valueOutOfRangeError(err.Error())
	}
	buf = append(buf, hdr...)
	for _, el := range arr {
		buf, err = encodeDispatch(buf, n.Elem, el, catchReplaced, diags)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func encodeTuple(buf []byte, n *schema.Node, value any, catchReplaced bool, diags *[]Diagnostic) ([]byte, error) {
	arr, ok := value.([]any)
	if !ok || len(arr) != len(n.Items) {
		return nil, validationError(errNotTuple)
	}
	hdr, err := wire.ArrayHeader(len(arr))
	if err != nil {
		return nil, valueOutOfRangeError(err.Error())
	}
	buf = append(buf, hdr...)
	for i, item := range n.Items {
		buf, err = encodeDispatch(buf, item, arr[i], catchReplaced, diags)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func encodeUnion(buf []byte, n *schema.Node, value any, catchReplaced bool, diags *[]Diagnostic) ([]byte, error) {
	if len(n.Options) > wire.MaxUnionOptions {
		return nil, unserializableSchemaError("union exceeds 32 options")
	}
	for i, opt := range n.Options {
		if _, err := opt.Validate(value); err != nil {
			continue
		}
		hdr, err := wire.UnionHeader(i)
		if err != nil {
			return nil, unserializableSchemaError(err.Error())
		}
		buf = append(buf, hdr)
		return encodeDispatch(buf, opt, value, catchReplaced, diags)
	}
	return nil, validationError(errors.New("no union option matched value"))
}

// encodeKeyed encodes both Record (keySchema == nil, string keys
// implied) and Map (keySchema != nil) containers; the wire layout
// only differs in the container-kind bit.
func encodeKeyed(buf []byte, isMap bool, valueSchema, keySchema *schema.Node, value any, catchReplaced bool, diags *[]Diagnostic) ([]byte, error) {
	entries, ok := value.([]schema.Entry)
	if !ok {
		return nil, validationError(errNotKeyed)
	}
	hdr, err := wire.MapHeader(isMap, len(entries))
	if err != nil {
		return nil, valueOutOfRangeError(err.Error())
	}
	buf = append(buf, hdr...)
	for _, e := range entries {
		if isMap {
			buf, err = encodeDispatch(buf, keySchema, e.Key, catchReplaced, diags)
			if err != nil {
				return nil, err
			}
		} else {
			buf, err = encodeString(buf, e.Key)
			if err != nil {
				return nil, err
			}
		}
		buf, err = encodeDispatch(buf, valueSchema, e.Value, catchReplaced, diags)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// encodeIntersection implements the merge policy: primitives encode
// once under the matching side; two record schemas merge their field
// lists (right side wins on overlapping names) and encode as one
// record; anything else is rejected.
func encodeIntersection(buf []byte, n *schema.Node, value any, catchReplaced bool, diags *[]Diagnostic) ([]byte, error) {
	left, right := n.Left, n.Right
	if left.Kind == schema.KindObject && right.Kind == schema.KindObject {
		merged := mergeObjectSchemas(left, right)
		return encodeObject(buf, merged, value, catchReplaced, diags)
	}
	if isPrimitiveKind(left.Kind) {
		return encodeDispatch(buf, left, value, catchReplaced, diags)
	}
	if isPrimitiveKind(right.Kind) {
		return encodeDispatch(buf, right, value, catchReplaced, diags)
	}
	return nil, unserializableSchemaError("unsupported intersection shape")
}

// dedupeSet collapses duplicate elements, keeping the first occurrence
// of each distinct value and preserving relative order. Equality is
// decided structurally, since set elements may be any comparable or
// composite value the wire format can carry.
func dedupeSet(arr []any) []any {
	seen := make(map[string]bool, len(arr))
	out := make([]any, 0, len(arr))
	for _, el := range arr {
		key := fmt.Sprintf("%#v", el)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, el)
	}
	return out
}

func isPrimitiveKind(k schema.Kind) bool {
	switch k {
	case schema.KindNumber, schema.KindBool, schema.KindBigInt, schema.KindString, schema.KindDate, schema.KindLiteral, schema.KindEnum:
		return true
	default:
		return false
	}
}

func mergeObjectSchemas(left, right *schema.Node) *schema.Node {
	byName := make(map[string]schema.Field, len(left.Fields)+len(right.Fields))
	order := make([]string, 0, len(left.Fields)+len(right.Fields))
	for _, f := range left.Fields {
		byName[f.Name] = f
		order = append(order, f.Name)
	}
	for _, f := range right.Fields {
		if _, exists := byName[f.Name]; !exists {
			order = append(order, f.Name)
		}
		byName[f.Name] = f
	}
	fields := make([]schema.Field, len(order))
	for i, name := range order {
		fields[i] = byName[name]
	}
	return schema.Object(fields...)
}
