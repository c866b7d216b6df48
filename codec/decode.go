package codec

import (
	"math"
	"math/big"
	"time"

	"github.com/NimbleMarkets/codec-go/schema"
	"github.com/NimbleMarkets/codec-go/wire"
)

// Decode parses the envelope, verifies the schema fingerprint, reads
// the wire-format body into the value domain, and finally re-runs the
// schema's safe-parse capability over the raw decoded value so that
// decorators invisible on the wire (default, catch, transform,
// pipeline, refine) still apply.
func Decode(n *schema.Node, data []byte) (any, []Diagnostic, error) {
	body, err := readEnvelope(data, n)
	if err != nil {
		return nil, nil, err
	}
	c := &cursor{data: body}
	var diags []Diagnostic
	raw, err := decodeDispatch(c, n, &diags)
	if err != nil {
		return nil, nil, err
	}
	if c.remaining() != 0 {
		return nil, nil, malformedInputError("trailing bytes after decoded value")
	}
	val, verr := n.Validate(raw)
	if verr != nil {
		return nil, nil, validationError(verr)
	}
	return val, diags, nil
}

// decodeDispatch mirrors encodeDispatch's classification order, but
// only reconstructs the wire-visible shape; decorator semantics that
// never reach the wire are re-applied afterward by n.Validate.
func decodeDispatch(c *cursor, n *schema.Node, diags *[]Diagnostic) (any, error) {
	if n.Kind.IsRefused() {
		return nil, unserializableSchemaError(refusedKindName(n.Kind))
	}

	switch n.Kind {
	case schema.KindNumber:
		return decodeNumber(c, diags)
	case schema.KindBool:
		return decodeBool(c)
	case schema.KindBigInt:
		return decodeBigInt(c)
	case schema.KindString:
		return decodeString(c)
	case schema.KindDate:
		return decodeDate(c)
	case schema.KindLiteral:
		return decodeDispatch(c, literalRuntimeSchema(n.LiteralValue), diags)
	case schema.KindEnum:
		return decodeEnumMember(c, n, diags)

	case schema.KindObject:
		return decodeObject(c, n, diags)
	case schema.KindArray, schema.KindSet:
		return decodeArray(c, n, diags)
	case schema.KindTuple:
		return decodeTuple(c, n, diags)
	case schema.KindUnion, schema.KindDiscriminatedUnion:
		return decodeUnion(c, n, diags)
	case schema.KindRecord:
		return decodeKeyed(c, false, n.ValueSchema, nil, diags)
	case schema.KindMap:
		return decodeKeyed(c, true, n.ValueSchema, n.KeySchema, diags)
	case schema.KindIntersection:
		return decodeIntersection(c, n, diags)

	case schema.KindNullable:
		b, err := c.peek()
		if err != nil {
			return nil, err
		}
		if wire.TagOf(b) == wire.TagObject && wire.ObjectSubtagOf(b) == wire.ObjectNull {
			c.pos++
			return schema.NullV, nil
		}
		return decodeDispatch(c, n.Inner, diags)
	case schema.KindOptional:
		b, err := c.peek()
		if err != nil {
			return nil, err
		}
		if wire.TagOf(b) == wire.TagObject && wire.ObjectSubtagOf(b) == wire.ObjectUndefined {
			c.pos++
			return schema.Undef, nil
		}
		return decodeDispatch(c, n.Inner, diags)

	case schema.KindReadonly, schema.KindBranded, schema.KindRefine,
		schema.KindPipeline, schema.KindDefault, schema.KindPreprocess,
		schema.KindCatch, schema.KindTransform:
		return decodeDispatch(c, n.Inner, diags)
	case schema.KindLazy:
		inner, _ := n.Unwrap()
		return decodeDispatch(c, inner, diags)
	}

	return nil, unserializableSchemaError("unrecognized schema kind")
}

///////////////////////////////////////////////////////////////////////////////
// Primitives

func decodeNumber(c *cursor, diags *[]Diagnostic) (any, error) {
	b, err := c.readByte()
	if err != nil {
		return nil, err
	}
	if wire.TagOf(b) != wire.TagNumeric {
		return nil, malformedInputError("expected numeric header")
	}
	switch wire.NumericSubtypeOf(b) {
	case wire.SubNaN:
		return math.NaN(), nil
	case wire.SubPosInf:
		return math.Inf(1), nil
	case wire.SubNegInf:
		return math.Inf(-1), nil
	case wire.SubF64:
		payload, err := c.readN(wire.PayloadSize(wire.SubF64))
		if err != nil {
			return nil, err
		}
		return wire.GetF64(payload), nil
	case wire.SubI8:
		payload, err := c.readN(wire.PayloadSize(wire.SubI8))
		if err != nil {
			return nil, err
		}
		return float64(wire.GetI8(payload)), nil
	case wire.SubI16:
		payload, err := c.readN(wire.PayloadSize(wire.SubI16))
		if err != nil {
			return nil, err
		}
		return float64(wire.GetI16(payload)), nil
	case wire.SubI32:
		payload, err := c.readN(wire.PayloadSize(wire.SubI32))
		if err != nil {
			return nil, err
		}
		return float64(wire.GetI32(payload)), nil
	case wire.SubI64:
		payload, err := c.readN(wire.PayloadSize(wire.SubI64))
		if err != nil {
			return nil, err
		}
		i := wire.GetI64(payload)
		if !wire.IsSafeInteger(i) {
			*diags = append(*diags, Diagnostic{Message: "integer exceeds safe-integer range"})
		}
		return float64(i), nil
	default:
		return nil, malformedInputError("unrecognized numeric subtype")
	}
}

func decodeBool(c *cursor) (any, error) {
	b, err := c.readByte()
	if err != nil {
		return nil, err
	}
	if wire.TagOf(b) != wire.TagNumeric {
		return nil, malformedInputError("expected numeric header for bool")
	}
	switch wire.NumericSubtypeOf(b) {
	case wire.SubTrue:
		return true, nil
	case wire.SubFalse:
		return false, nil
	default:
		return nil, malformedInputError("unrecognized boolean subtype")
	}
}

func decodeBigInt(c *cursor) (any, error) {
	b, err := c.readByte()
	if err != nil {
		return nil, err
	}
	if wire.TagOf(b) != wire.TagNumeric || wire.NumericSubtypeOf(b) != wire.SubBigIntI64 {
		return nil, malformedInputError("expected bigint header")
	}
	payload, err := c.readN(wire.PayloadSize(wire.SubBigIntI64))
	if err != nil {
		return nil, err
	}
	return big.NewInt(wire.GetI64(payload)), nil
}

func decodeString(c *cursor) (string, error) {
	b0, err := c.readByte()
	if err != nil {
		return "", err
	}
	if wire.TagOf(b0) != wire.TagString {
		return "", malformedInputError("expected string header")
	}
	length, headerLen, err := wire.StringLength(b0, c.lookahead(2))
	if err != nil {
		return "", malformedInputError(err.Error())
	}
	if _, err := c.readN(headerLen - 1); err != nil {
		return "", err
	}
	payload, err := c.readN(length)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func decodeDate(c *cursor) (any, error) {
	b, err := c.readByte()
	if err != nil {
		return nil, err
	}
	if wire.TagOf(b) != wire.TagDate {
		return nil, malformedInputError("expected date header")
	}
	payload, err := c.readN(8)
	if err != nil {
		return nil, err
	}
	return time.UnixMilli(wire.GetI64(payload)).UTC(), nil
}

func decodeEnumMember(c *cursor, n *schema.Node, diags *[]Diagnostic) (any, error) {
	if n.EnumKind == schema.EnumString {
		return decodeString(c)
	}
	return decodeNumber(c, diags)
}

///////////////////////////////////////////////////////////////////////////////
// Composites

func decodeObject(c *cursor, n *schema.Node, diags *[]Diagnostic) (any, error) {
	if n.Passthrough {
		return nil, unserializableSchemaError("object with passthrough unknown keys")
	}
	b, err := c.readByte()
	if err != nil {
		return nil, err
	}
	if wire.TagOf(b) != wire.TagObject || wire.ObjectSubtagOf(b) != wire.ObjectBody {
		return nil, malformedInputError("expected object header")
	}
	out := make(map[string]any, len(n.Fields))
	for _, f := range n.Fields {
		if f.Schema.Kind == schema.KindOptional {
			peeked, err := c.peek()
			if err != nil {
				return nil, err
			}
			if peeked == wire.AbsentOptionalMarker {
				c.pos++
				continue
			}
		}
		val, err := decodeDispatch(c, f.Schema, diags)
		if err != nil {
			return nil, err
		}
		out[f.Name] = val
	}
	return out, nil
}

func decodeArray(c *cursor, n *schema.Node, diags *[]Diagnostic) (any, error) {
	b0, err := c.readByte()
	if err != nil {
		return nil, err
	}
	if wire.TagOf(b0) != wire.TagArray {
		return nil, malformedInputError("expected array header")
	}
	length, headerLen, err := wire.ArrayLength(b0, c.lookahead(2))
	if err != nil {
		return nil, malformedInputError(err.Error())
	}
	if _, err := c.readN(headerLen - 1); err != nil {
		return nil, err
	}
	out := make([]any, length)
	for i := 0; i < length; i++ {
		v, err := decodeDispatch(c, n.Elem, diags)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	if n.Kind == schema.KindSet {
		return dedupeSet(out), nil
	}
	return out, nil
}

func decodeTuple(c *cursor, n *schema.Node, diags *[]Diagnostic) (any, error) {
	b0, err := c.readByte()
	if err != nil {
		return nil, err
	}
	if wire.TagOf(b0) != wire.TagArray {
		return nil, malformedInputError("expected tuple header")
	}
	length, headerLen, err := wire.ArrayLength(b0, c.lookahead(2))
	if err != nil {
		return nil, malformedInputError(err.Error())
	}
	if _, err := c.readN(headerLen - 1); err != nil {
		return nil, err
	}
	if length != len(n.Items) {
		return nil, malformedInputError("tuple arity mismatch")
	}
	out := make([]any, length)
	for i, item := range n.Items {
		v, err := decodeDispatch(c, item, diags)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeUnion(c *cursor, n *schema.Node, diags *[]Diagnostic) (any, error) {
	if len(n.Options) > wire.MaxUnionOptions {
		return nil, unserializableSchemaError("union exceeds 32 options")
	}
	b0, err := c.readByte()
	if err != nil {
		return nil, err
	}
	if wire.TagOf(b0) != wire.TagUnion {
		return nil, malformedInputError("expected union header")
	}
	idx := wire.UnionIndex(b0)
	if idx < 0 || idx >= len(n.Options) {
		return nil, malformedInputError("union option index out of range")
	}
	return decodeDispatch(c, n.Options[idx], diags)
}

func decodeKeyed(c *cursor, isMap bool, valueSchema, keySchema *schema.Node, diags *[]Diagnostic) (any, error) {
	b0, err := c.readByte()
	if err != nil {
		return nil, err
	}
	if wire.TagOf(b0) != wire.TagMap {
		return nil, malformedInputError("expected map/record header")
	}
	gotIsMap, length, headerLen, err := wire.MapKindAndLength(b0, c.lookahead(2))
	if err != nil {
		return nil, malformedInputError(err.Error())
	}
	if _, err := c.readN(headerLen - 1); err != nil {
		return nil, err
	}
	if gotIsMap != isMap {
		return nil, malformedInputError("map/record kind bit mismatch")
	}
	entries := make([]schema.Entry, length)
	for i := 0; i < length; i++ {
		var key any
		if isMap {
			key, err = decodeDispatch(c, keySchema, diags)
			if err != nil {
				return nil, err
			}
		} else {
			key, err = decodeString(c)
			if err != nil {
				return nil, err
			}
		}
		val, err := decodeDispatch(c, valueSchema, diags)
		if err != nil {
			return nil, err
		}
		entries[i] = schema.Entry{Key: key, Value: val}
	}
	return entries, nil
}

func decodeIntersection(c *cursor, n *schema.Node, diags *[]Diagnostic) (any, error) {
	left, right := n.Left, n.Right
	if left.Kind == schema.KindObject && right.Kind == schema.KindObject {
		merged := mergeObjectSchemas(left, right)
		return decodeObject(c, merged, diags)
	}
	if isPrimitiveKind(left.Kind) {
		return decodeDispatch(c, left, diags)
	}
	if isPrimitiveKind(right.Kind) {
		return decodeDispatch(c, right, diags)
	}
	return nil, unserializableSchemaError("unsupported intersection shape")
}
