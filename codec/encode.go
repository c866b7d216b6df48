package codec

import (
	"errors"
	"math"
	"math/big"
	"time"

	"github.com/NimbleMarkets/codec-go/schema"
	"github.com/NimbleMarkets/codec-go/wire"
)

var (
	errNotBigInt = errors.New("value is not a *big.Int")
	errNotString = errors.New("value is not a string")
	errNotDate   = errors.New("value is not a time.Time")
)

// Encode validates value against n and, on success, returns the
// envelope-prefixed wire bytes for it. Any non-fatal
// diagnostics (currently: integers outside safe-integer range) are
// returned alongside a nil error.
func Encode(n *schema.Node, value any) ([]byte, []Diagnostic, error) {
	if _, err := n.Validate(value); err != nil {
		return nil, nil, validationError(err)
	}

	var diags []Diagnostic
	buf := writeEnvelope(make([]byte, 0, 64), n)

	buf, err := encodeDispatch(buf, n, value, false, &diags)
	if err != nil {
		return nil, nil, err
	}
	return buf, diags, nil
}

// encodeDispatch implements the classification/dispatch order: refused
// kinds first, then null/undefined markers, then primitives, then
// composites, unwrapping decorators along the way. catchReplaced tracks
// whether a Catch decorator higher in the tree has already substituted
// value for a replacement, which forbids a Transform from running
// further down.
func encodeDispatch(buf []byte, n *schema.Node, value any, catchReplaced bool, diags *[]Diagnostic) ([]byte, error) {
	switch {
	case n.Kind.IsRefused():
		return nil, unserializableSchemaError(refusedKindName(n.Kind))
	}

	switch n.Kind {
	// Step 3: concrete primitives, literals, enums.
	case schema.KindNumber:
		return encodeNumber(buf, value, diags)
	case schema.KindBool:
		return encodeBool(buf, value)
	case schema.KindBigInt:
		return encodeBigInt(buf, value)
	case schema.KindString:
		return encodeString(buf, value)
	case schema.KindDate:
		return encodeDate(buf, value)
	case schema.KindLiteral:
		return encodeDispatch(buf, literalRuntimeSchema(n.LiteralValue), n.LiteralValue, catchReplaced, diags)
	case schema.KindEnum:
		return encodeEnumMember(buf, n, value, diags)

	// Step 4: composites.
	case schema.KindObject:
		return encodeObject(buf, n, value, catchReplaced, diags)
	case schema.KindArray, schema.KindSet:
		return encodeArray(buf, n, value, catchReplaced, diags)
	case schema.KindTuple:
		return encodeTuple(buf, n, value, catchReplaced, diags)
	case schema.KindUnion, schema.KindDiscriminatedUnion:
		return encodeUnion(buf, n, value, catchReplaced, diags)
	case schema.KindRecord:
		return encodeKeyed(buf, false, n.ValueSchema, nil, value, catchReplaced, diags)
	case schema.KindMap:
		return encodeKeyed(buf, true, n.ValueSchema, n.KeySchema, value, catchReplaced, diags)
	case schema.KindIntersection:
		return encodeIntersection(buf, n, value, catchReplaced, diags)

	// Step 2: null/optional absence forms apply to any node wrapped
	// in these decorators, not just object fields.
	case schema.KindNullable:
		if _, isNull := value.(schema.Null); isNull {
			return append(buf, wire.ObjectHeader(wire.ObjectNull)), nil
		}
		return encodeDispatch(buf, n.Inner, value, catchReplaced, diags)
	case schema.KindOptional:
		if _, isUndef := value.(schema.Undefined); isUndef {
			return append(buf, wire.ObjectHeader(wire.ObjectUndefined)), nil
		}
		return encodeDispatch(buf, n.Inner, value, catchReplaced, diags)

	// Step 5: remaining decorators.
	case schema.KindReadonly, schema.KindBranded, schema.KindRefine:
		return encodeDispatch(buf, n.Inner, value, catchReplaced, diags)
	case schema.KindLazy:
		inner, _ := n.Unwrap()
		return encodeDispatch(buf, inner, value, catchReplaced, diags)
	case schema.KindPipeline:
		return encodeDispatch(buf, n.Inner, value, catchReplaced, diags)
	case schema.KindDefault:
		v := value
		if v == nil {
			v = n.DefaultFunc()
		}
		return encodeDispatch(buf, n.Inner, v, catchReplaced, diags)
	case schema.KindPreprocess:
		pv, err := n.PreprocessFunc(value)
		if err != nil {
			return nil, validationError(err)
		}
		return encodeDispatch(buf, n.Inner, pv, catchReplaced, diags)
	case schema.KindCatch:
		if _, err := n.Inner.Validate(value); err != nil {
			replacement := n.CatchFunc(err)
			return encodeDispatch(buf, n.Inner, replacement, true, diags)
		}
		return encodeDispatch(buf, n.Inner, value, catchReplaced, diags)
	case schema.KindTransform:
		if catchReplaced {
			return nil, transformUnserializableError()
		}
		return encodeDispatch(buf, n.Inner, value, catchReplaced, diags)
	}

	return nil, unserializableSchemaError("unrecognized schema kind")
}

func refusedKindName(k schema.Kind) string {
	switch k {
	case schema.KindAny:
		return "any"
	case schema.KindUnknown:
		return "unknown"
	case schema.KindNever:
		return "never"
	case schema.KindVoid:
		return "void"
	case schema.KindFunction:
		return "function"
	case schema.KindSymbol:
		return "symbol"
	case schema.KindPromise:
		return "promise"
	default:
		return "unsupported"
	}
}

///////////////////////////////////////////////////////////////////////////////
// Primitives

func encodeNumber(buf []byte, value any, diags *[]Diagnostic) ([]byte, error) {
	f, _, i, isInt := asNumber(value)
	if isInt {
		sub := wire.ClassifyInt(i)
		buf = append(buf, wire.NumericHeader(sub))
		if !wire.IsSafeInteger(i) {
			*diags = append(*diags, Diagnostic{Message: "integer exceeds safe-integer range"})
		}
		return appendIntPayload(buf, sub, i), nil
	}
	switch wire.ClassifyFloat(f) {
	case wire.FloatNaN:
		return append(buf, wire.NumericHeader(wire.SubNaN)), nil
	case wire.FloatPosInf:
		return append(buf, wire.NumericHeader(wire.SubPosInf)), nil
	case wire.FloatNegInf:
		return append(buf, wire.NumericHeader(wire.SubNegInf)), nil
	default:
		buf = append(buf, wire.NumericHeader(wire.SubF64))
		return wire.PutF64(buf, f), nil
	}
}

func appendIntPayload(buf []byte, sub wire.NumericSubtype, i int64) []byte {
	switch sub {
	case wire.SubI8:
		return wire.PutI8(buf, int8(i))
	case wire.SubI16:
		return wire.PutI16(buf, int16(i))
	case wire.SubI32:
		return wire.PutI32(buf, int32(i))
	default:
		return wire.PutI64(buf, i)
	}
}

// asNumber normalizes a Go numeric value, reporting whether it is
// exactly representable as an integer (isInt) or must be carried as a
// float (isFloat branch used for non-finite/fractional values).
func asNumber(value any) (f float64, isFloat bool, i int64, isInt bool) {
	switch v := value.(type) {
	case int:
		return 0, false, int64(v), true
	case int32:
		return 0, false, int64(v), true
	case int64:
		return 0, false, v, true
	case float32:
		f = float64(v)
	case float64:
		f = v
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f, true, 0, false
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return 0, false, int64(f), true
	}
	return f, true, 0, false
}

func encodeBool(buf []byte, value any) ([]byte, error) {
	b, _ := value.(bool)
	if b {
		return append(buf, wire.NumericHeader(wire.SubTrue)), nil
	}
	return append(buf, wire.NumericHeader(wire.SubFalse)), nil
}

func encodeBigInt(buf []byte, value any) ([]byte, error) {
	bi, ok := value.(*big.Int)
	if !ok {
		return nil, validationError(errNotBigInt)
	}
	if !bi.IsInt64() {
		return nil, valueOutOfRangeError("bigint outside signed-64 range")
	}
	buf = append(buf, wire.NumericHeader(wire.SubBigIntI64))
	return wire.PutI64(buf, bi.Int64()), nil
}

func encodeString(buf []byte, value any) ([]byte, error) {
	s, ok := value.(string)
	if !ok {
		return nil, validationError(errNotString)
	}
	hdr, err := wire.StringHeader(len(s))
	if err != nil {
		return nil, valueOutOfRangeError(err.Error())
	}
	buf = append(buf, hdr...)
	return append(buf, s...), nil
}

func encodeDate(buf []byte, value any) ([]byte, error) {
	t, ok := value.(time.Time)
	if !ok {
		return nil, validationError(errNotDate)
	}
	buf = append(buf, wire.DateHeader())
	return wire.PutI64(buf, t.UnixMilli()), nil
}

func encodeEnumMember(buf []byte, n *schema.Node, value any, diags *[]Diagnostic) ([]byte, error) {
	if n.EnumKind == schema.EnumString {
		return encodeString(buf, value)
	}
	return encodeNumber(buf, value, diags)
}

func literalRuntimeSchema(v any) *schema.Node {
	switch v.(type) {
	case string:
		return schema.String()
	case bool:
		return schema.Bool()
	case time.Time:
		return schema.Date()
	default:
		return schema.Number()
	}
}
