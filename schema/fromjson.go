package schema

import (
	"fmt"
	"math/big"
	"time"

	"github.com/valyala/fastjson"
	"github.com/valyala/fastjson/fastfloat"
)

// FromJSON decodes a fastjson value into the codec's internal Value
// domain (map[string]any for objects, []any for arrays/tuples/sets,
// []Entry for maps/records, *big.Int for bigint, time.Time for dates,
// Null/Undefined for the absence markers), guided by n the way
// structs.go's Fill_Json methods are guided by a DBN record's Go
// struct tags rather than inferring shape from the JSON itself.
//
// Big integers are carried as JSON strings (mirroring DBN's i64/u64
// JSON encoding, see fastjson_GetInt64FromString in structs.go) so
// that values outside float64's safe range survive the text
// round-trip; ordinary numbers use JSON's native number form.
//
// A JSON `null` is read as the Null marker if n itself is Nullable, or
// as the Undefined marker if n itself is Optional (so a null under
// Optional(Nullable(...)) becomes Undefined), and is an error for any
// other schema; a JSON object key absent entirely is "absent" (the field
// is simply left out of the returned map, which encodeObject then
// treats as the absent-optional-field case).
func FromJSON(n *Node, v *fastjson.Value) (any, error) {
	if v == nil || v.Type() == fastjson.TypeNull {
		switch n.Kind {
		case KindNullable:
			return NullV, nil
		case KindOptional:
			return Undef, nil
		default:
			return nil, fmt.Errorf("schema: unexpected null for %v", n.Kind)
		}
	}

	switch n.Kind {
	case KindOptional, KindNullable, KindDefault, KindCatch, KindPreprocess,
		KindTransform, KindRefine, KindBranded, KindReadonly, KindPipeline:
		inner, _ := n.Unwrap()
		return FromJSON(inner, v)
	case KindLazy:
		inner, _ := n.Unwrap()
		return FromJSON(inner, v)

	case KindNumber:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		return f, nil
	case KindBool:
		b, err := v.Bool()
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		return b, nil
	case KindBigInt:
		s, err := v.StringBytes()
		if err != nil {
			return nil, fmt.Errorf("schema: bigint must be a JSON string: %w", err)
		}
		return big.NewInt(fastfloat.ParseInt64BestEffort(string(s))), nil
	case KindString:
		s, err := v.StringBytes()
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		return string(s), nil
	case KindDate:
		ms, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("schema: date must be epoch milliseconds: %w", err)
		}
		return time.UnixMilli(ms).UTC(), nil
	case KindLiteral:
		return literalFromJSON(n.LiteralValue, v)
	case KindEnum:
		if n.EnumKind == EnumString {
			s, err := v.StringBytes()
			if err != nil {
				return nil, fmt.Errorf("schema: %w", err)
			}
			return string(s), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		return f, nil

	case KindObject:
		obj, err := v.Object()
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		out := make(map[string]any, len(n.Fields))
		for _, f := range n.Fields {
			fv := obj.Get(f.Name)
			if fv == nil {
				continue // absent key, not an error: leaves the field out of the result map entirely.
			}
			got, err := FromJSON(f.Schema, fv)
			if err != nil {
				return nil, fmt.Errorf("schema: field %q: %w", f.Name, err)
			}
			out[f.Name] = got
		}
		return out, nil

	case KindArray, KindSet:
		arr, err := v.Array()
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		out := make([]any, len(arr))
		for i, el := range arr {
			got, err := FromJSON(n.Elem, el)
			if err != nil {
				return nil, fmt.Errorf("schema: index %d: %w", i, err)
			}
			out[i] = got
		}
		return out, nil
	case KindTuple:
		arr, err := v.Array()
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		if len(arr) != len(n.Items) {
			return nil, fmt.Errorf("schema: tuple has %d elements, want %d", len(arr), len(n.Items))
		}
		out := make([]any, len(arr))
		for i, item := range n.Items {
			got, err := FromJSON(item, arr[i])
			if err != nil {
				return nil, fmt.Errorf("schema: item %d: %w", i, err)
			}
			out[i] = got
		}
		return out, nil

	case KindUnion, KindDiscriminatedUnion:
		var lastErr error
		for _, opt := range n.Options {
			got, err := FromJSON(opt, v)
			if err != nil {
				lastErr = err
				continue
			}
			if _, verr := opt.Validate(got); verr != nil {
				lastErr = verr
				continue
			}
			return got, nil
		}
		return nil, fmt.Errorf("schema: no union option matched JSON value: %w", lastErr)

	case KindRecord:
		obj, err := v.Object()
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		var out []Entry
		var visitErr error
		obj.Visit(func(key []byte, val *fastjson.Value) {
			if visitErr != nil {
				return
			}
			got, err := FromJSON(n.ValueSchema, val)
			if err != nil {
				visitErr = err
				return
			}
			out = append(out, Entry{Key: string(key), Value: got})
		})
		if visitErr != nil {
			return nil, visitErr
		}
		return out, nil

	case KindMap:
		// JSON has no non-string-keyed map; keys are carried as an
		// array of [key, value] pairs, the same shape JSON would use
		// for a tuple-of-entries.
		arr, err := v.Array()
		if err != nil {
			return nil, fmt.Errorf("schema: map must be a JSON array of [key, value] pairs: %w", err)
		}
		out := make([]Entry, len(arr))
		for i, pair := range arr {
			kv, err := pair.Array()
			if err != nil || len(kv) != 2 {
				return nil, fmt.Errorf("schema: map entry %d must be a 2-element array", i)
			}
			k, err := FromJSON(n.KeySchema, kv[0])
			if err != nil {
				return nil, fmt.Errorf("schema: map entry %d key: %w", i, err)
			}
			val, err := FromJSON(n.ValueSchema, kv[1])
			if err != nil {
				return nil, fmt.Errorf("schema: map entry %d value: %w", i, err)
			}
			out[i] = Entry{Key: k, Value: val}
		}
		return out, nil

	case KindIntersection:
		left, err := FromJSON(n.Left, v)
		if err != nil {
			return nil, err
		}
		if n.Left.Kind == KindObject && n.Right.Kind == KindObject {
			right, err := FromJSON(n.Right, v)
			if err != nil {
				return nil, err
			}
			merged := left.(map[string]any)
			for k, val := range right.(map[string]any) {
				merged[k] = val
			}
			return merged, nil
		}
		return left, nil

	default:
		return nil, fmt.Errorf("schema: %v cannot be constructed from JSON", n.Kind)
	}
}

func literalFromJSON(want any, v *fastjson.Value) (any, error) {
	switch want.(type) {
	case string:
		s, err := v.StringBytes()
		if err != nil {
			return nil, err
		}
		return string(s), nil
	case bool:
		return v.Bool()
	default:
		return v.Float64()
	}
}

// ParseJSON parses raw JSON bytes and decodes them against n in one
// step; a thin convenience wrapper around fastjson.Parser and FromJSON
// for CLI callers that only hold bytes.
func ParseJSON(n *Node, data []byte) (any, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return FromJSON(n, v)
}
