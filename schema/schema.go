// Package schema models an external schema collaborator as a Go tagged
// sum type: one variant per supported wire family and one per decorator.
// Nothing here depends on the wire
// format or on codec; codec consumes Node through the small capability
// surface below (Kind, the per-kind child fields, Unwrap, Validate).
package schema

import (
	"fmt"
	"math/big"
	"time"
)

// Kind classifies a schema node: either a concrete wire-producing
// family, a decorator that wraps an inner node, or a refused kind
// that the codec cannot serialize.
type Kind int

const (
	// Concrete families.
	KindNumber Kind = iota
	KindBool
	KindBigInt
	KindString
	KindDate
	KindLiteral
	KindEnum
	KindObject
	KindArray
	KindTuple
	KindSet
	KindUnion
	KindDiscriminatedUnion
	KindRecord
	KindMap
	KindIntersection

	// Decorators.
	KindOptional
	KindNullable
	KindDefault
	KindCatch
	KindPreprocess
	KindTransform
	KindRefine
	KindPipeline
	KindLazy
	KindBranded
	KindReadonly

	// Refused kinds.
	KindAny
	KindUnknown
	KindNever
	KindVoid
	KindFunction
	KindSymbol
	KindPromise
)

func (k Kind) IsDecorator() bool {
	return k >= KindOptional && k <= KindReadonly
}

func (k Kind) IsRefused() bool {
	return k >= KindAny && k <= KindPromise
}

// WireFamily is the 3-bit tag alphabet used both on the wire and in
// the fingerprint summary. Decorators have no wire
// family of their own; Fingerprint unwraps them before asking.
type WireFamily byte

const (
	WireNumeric WireFamily = 0b000
	WireString  WireFamily = 0b001
	WireObject  WireFamily = 0b010
	WireDate    WireFamily = 0b011
	WireArray   WireFamily = 0b100
	WireUnion   WireFamily = 0b101
	WireMap     WireFamily = 0b110
)

// Field is a named, ordered slot of an Object schema.
type Field struct {
	Name   string
	Schema *Node
}

// EnumMemberKind distinguishes string-valued from numeric-valued
// native enums.
type EnumMemberKind int

const (
	EnumString EnumMemberKind = iota
	EnumNumeric
)

// Node is a schema tree node. Only the fields relevant to its Kind are
// populated; see the constructor functions below for the supported
// shapes. Node is immutable once built and safe for concurrent use by
// multiple encode/decode calls.
type Node struct {
	Kind Kind

	// KindObject
	Fields []Field

	// KindObject: true for a passthrough object, one that carries keys
	// beyond Fields through to the validated value unexamined. The
	// codec cannot encode such a schema, since the wire format has no
	// representation for an unbounded, schema-unknown key set.
	Passthrough bool

	// KindArray
	Elem *Node

	// KindTuple
	Items []*Node

	// KindSet shares Elem.

	// KindUnion / KindDiscriminatedUnion
	Options     []*Node
	Discriminant string

	// KindRecord / KindMap
	KeySchema   *Node
	ValueSchema *Node

	// KindIntersection
	Left, Right *Node

	// KindLiteral
	LiteralValue any

	// KindEnum
	EnumKind    EnumMemberKind
	EnumMembers []any

	// Decorators: Inner is the wrapped schema.
	Inner *Node

	// KindDefault
	DefaultFunc func() any

	// KindCatch
	CatchFunc func(err error) any

	// KindPreprocess
	PreprocessFunc func(v any) (any, error)

	// KindTransform
	TransformFunc func(v any) (any, error)

	// KindRefine
	RefineFunc func(v any) error

	// KindPipeline: In is this node's Inner (input-side schema, used
	// for encoding); Out is the output-side schema,
	// consulted only by Validate.
	Out *Node

	// KindLazy
	resolve func() *Node
	resolved *Node

	// Validate is the safe-parse capability. It must return
	// either a (possibly transformed/defaulted) value or an error,
	// never panic. Every concrete-kind node must set one; decorator
	// nodes typically delegate to Inner plus their own policy.
	ValidateFunc func(v any) (any, error)
}

// Classify reports the node's wire family, one of the refused kinds,
// or a decorator kind.
func (n *Node) Classify() Kind {
	return n.Kind
}

// IsOptional reports whether this exact node is an Optional decorator.
func (n *Node) IsOptional() bool {
	return n.Kind == KindOptional
}

// IsNullable reports whether this exact node is a Nullable decorator.
func (n *Node) IsNullable() bool {
	return n.Kind == KindNullable
}

// Unwrap returns the inner schema of a decorator node. ok is false for
// non-decorator nodes.
func (n *Node) Unwrap() (inner *Node, ok bool) {
	switch n.Kind {
	case KindLazy:
		if n.resolved == nil {
			n.resolved = n.resolve()
		}
		return n.resolved, true
	case KindOptional, KindNullable, KindDefault, KindCatch, KindPreprocess,
		KindTransform, KindRefine, KindPipeline, KindBranded, KindReadonly:
		return n.Inner, true
	default:
		return nil, false
	}
}

// Validate runs the node's safe-parse capability.
func (n *Node) Validate(v any) (any, error) {
	if n.ValidateFunc != nil {
		return n.ValidateFunc(v)
	}
	if inner, ok := n.Unwrap(); ok {
		return inner.Validate(v)
	}
	return v, nil
}

///////////////////////////////////////////////////////////////////////////////
// Constructors for concrete kinds. Each wires a default ValidateFunc
// appropriate to a black-box schema library's safe-parse; callers may
// override Validate by setting ValidateFunc after construction (e.g.
// to add refinements at the library level).

// Number accepts int, int32, int64, float32 and float64 values
// (other Go numeric types are rejected), including the three non-finite floats represented as float64 NaN/+Inf/-Inf.
// The wire form is chosen per-value by the integer-narrowing policy
// not fixed by the schema: an integral value narrows to the
// smallest exact integer subtype, a fractional value uses f64.
func Number() *Node {
	return &Node{Kind: KindNumber, ValidateFunc: func(v any) (any, error) {
		switch x := v.(type) {
		case float64:
			return x, nil
		case float32:
			return float64(x), nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case int32:
			return float64(x), nil
		default:
			return nil, fmt.Errorf("schema: %v is not a number", v)
		}
	}}
}

func Bool() *Node {
	return &Node{Kind: KindBool, ValidateFunc: func(v any) (any, error) {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("schema: %v is not a boolean", v)
		}
		return b, nil
	}}
}

func BigInt() *Node {
	return &Node{Kind: KindBigInt, ValidateFunc: func(v any) (any, error) {
		switch x := v.(type) {
		case *big.Int:
			return x, nil
		case int64:
			return big.NewInt(x), nil
		case int:
			return big.NewInt(int64(x)), nil
		default:
			return nil, fmt.Errorf("schema: %v is not a bigint", v)
		}
	}}
}

func String() *Node {
	return &Node{Kind: KindString, ValidateFunc: func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("schema: %v is not a string", v)
		}
		return s, nil
	}}
}

func Date() *Node {
	return &Node{Kind: KindDate, ValidateFunc: func(v any) (any, error) {
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("schema: %v is not a date", v)
		}
		return t, nil
	}}
}

func Literal(value any) *Node {
	return &Node{Kind: KindLiteral, LiteralValue: value, ValidateFunc: func(v any) (any, error) {
		if v != value {
			return nil, fmt.Errorf("schema: %v does not match literal %v", v, value)
		}
		return value, nil
	}}
}

func Enum(kind EnumMemberKind, members ...any) *Node {
	set := make(map[any]bool, len(members))
	for _, m := range members {
		set[m] = true
	}
	return &Node{Kind: KindEnum, EnumKind: kind, EnumMembers: members, ValidateFunc: func(v any) (any, error) {
		if !set[v] {
			return nil, fmt.Errorf("schema: %v is not a member of enum", v)
		}
		return v, nil
	}}
}

func Object(fields ...Field) *Node {
	n := &Node{Kind: KindObject, Fields: fields}
	n.ValidateFunc = func(v any) (any, error) {
		rec, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("schema: %v is not an object", v)
		}
		out := make(map[string]any, len(rec))
		for _, f := range n.Fields {
			val, present := rec[f.Name]
			if !present {
				if f.Schema.Kind != KindOptional {
					return nil, fmt.Errorf("schema: missing required field %q", f.Name)
				}
				continue
			}
			got, err := f.Schema.Validate(val)
			if err != nil {
				return nil, fmt.Errorf("schema: field %q: %w", f.Name, err)
			}
			out[f.Name] = got
		}
		return out, nil
	}
	return n
}

// ObjectPassthrough behaves like Object for its declared fields, but
// copies any additional keys present in the input straight through to
// the validated value instead of stripping them. Because its output
// key set isn't fixed by the schema, the codec refuses to encode it.
func ObjectPassthrough(fields ...Field) *Node {
	n := &Node{Kind: KindObject, Fields: fields, Passthrough: true}
	n.ValidateFunc = func(v any) (any, error) {
		rec, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("schema: %v is not an object", v)
		}
		known := make(map[string]bool, len(n.Fields))
		out := make(map[string]any, len(rec))
		for _, f := range n.Fields {
			known[f.Name] = true
			val, present := rec[f.Name]
			if !present {
				if f.Schema.Kind != KindOptional {
					return nil, fmt.Errorf("schema: missing required field %q", f.Name)
				}
				continue
			}
			got, err := f.Schema.Validate(val)
			if err != nil {
				return nil, fmt.Errorf("schema: field %q: %w", f.Name, err)
			}
			out[f.Name] = got
		}
		for k, v := range rec {
			if !known[k] {
				out[k] = v
			}
		}
		return out, nil
	}
	return n
}

func Array(elem *Node) *Node {
	return &Node{Kind: KindArray, Elem: elem, ValidateFunc: func(v any) (any, error) {
		arr, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("schema: %v is not an array", v)
		}
		out := make([]any, len(arr))
		for i, el := range arr {
			got, err := elem.Validate(el)
			if err != nil {
				return nil, fmt.Errorf("schema: index %d: %w", i, err)
			}
			out[i] = got
		}
		return out, nil
	}}
}

func Tuple(items ...*Node) *Node {
	return &Node{Kind: KindTuple, Items: items, ValidateFunc: func(v any) (any, error) {
		arr, ok := v.([]any)
		if !ok || len(arr) != len(items) {
			return nil, fmt.Errorf("schema: %v is not a %d-tuple", v, len(items))
		}
		out := make([]any, len(arr))
		for i, it := range items {
			got, err := it.Validate(arr[i])
			if err != nil {
				return nil, fmt.Errorf("schema: item %d: %w", i, err)
			}
			out[i] = got
		}
		return out, nil
	}}
}

// Set behaves like Array on the wire but collapses duplicate elements:
// encoding and decoding both silently dedupe, keeping the first
// occurrence of each distinct value.
func Set(elem *Node) *Node {
	return &Node{Kind: KindSet, Elem: elem, ValidateFunc: func(v any) (any, error) {
		arr, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("schema: %v is not an array", v)
		}
		seen := make(map[string]bool, len(arr))
		out := make([]any, 0, len(arr))
		for i, el := range arr {
			got, err := elem.Validate(el)
			if err != nil {
				return nil, fmt.Errorf("schema: index %d: %w", i, err)
			}
			key := fmt.Sprintf("%#v", got)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, got)
		}
		return out, nil
	}}
}

// Union accepts up to 32 options; exceeding that is reported as
// UnserializableSchema when the codec tries to encode or decode it,
// not at construction time.
func Union(options ...*Node) *Node {
	return &Node{Kind: KindUnion, Options: options, ValidateFunc: func(v any) (any, error) {
		var lastErr error
		for _, opt := range options {
			got, err := opt.Validate(v)
			if err == nil {
				return got, nil
			}
			lastErr = err
		}
		return nil, fmt.Errorf("schema: no union option matched: %w", lastErr)
	}}
}

// DiscriminatedUnion wires the same wire tag as Union (see wire.TagUnion);
// discriminant names which Object field distinguishes options. The
// codec does not consult it: like Union, it picks the first option, in
// declaration order, whose validator accepts the value.
func DiscriminatedUnion(discriminant string, options ...*Node) *Node {
	u := Union(options...)
	u.Kind = KindDiscriminatedUnion
	u.Discriminant = discriminant
	return u
}

func Record(valueSchema *Node) *Node {
	return &Node{Kind: KindRecord, ValueSchema: valueSchema, ValidateFunc: func(v any) (any, error) {
		entries, ok := v.([]Entry)
		if !ok {
			return nil, fmt.Errorf("schema: %v is not a record", v)
		}
		out := make([]Entry, len(entries))
		for i, e := range entries {
			got, err := valueSchema.Validate(e.Value)
			if err != nil {
				return nil, fmt.Errorf("schema: key %v: %w", e.Key, err)
			}
			out[i] = Entry{Key: e.Key, Value: got}
		}
		return out, nil
	}}
}

func Map(keySchema, valueSchema *Node) *Node {
	return &Node{Kind: KindMap, KeySchema: keySchema, ValueSchema: valueSchema, ValidateFunc: func(v any) (any, error) {
		entries, ok := v.([]Entry)
		if !ok {
			return nil, fmt.Errorf("schema: %v is not a map", v)
		}
		out := make([]Entry, len(entries))
		for i, e := range entries {
			k, err := keySchema.Validate(e.Key)
			if err != nil {
				return nil, fmt.Errorf("schema: key %v: %w", e.Key, err)
			}
			val, err := valueSchema.Validate(e.Value)
			if err != nil {
				return nil, fmt.Errorf("schema: value for key %v: %w", e.Key, err)
			}
			out[i] = Entry{Key: k, Value: val}
		}
		return out, nil
	}}
}

// Intersection supports only two intersected primitive or record
// schemas.
func Intersection(left, right *Node) *Node {
	return &Node{Kind: KindIntersection, Left: left, Right: right, ValidateFunc: func(v any) (any, error) {
		lv, err := left.Validate(v)
		if err != nil {
			return nil, err
		}
		rv, err := right.Validate(v)
		if err != nil {
			return nil, err
		}
		lm, lok := lv.(map[string]any)
		rm, rok := rv.(map[string]any)
		if lok && rok {
			for k, val := range rm {
				lm[k] = val
			}
			return lm, nil
		}
		return rv, nil
	}}
}

///////////////////////////////////////////////////////////////////////////////
// Decorators

func Optional(inner *Node) *Node {
	return &Node{Kind: KindOptional, Inner: inner, ValidateFunc: func(v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		if _, ok := v.(Undefined); ok {
			return Undef, nil
		}
		return inner.Validate(v)
	}}
}

func Nullable(inner *Node) *Node {
	return &Node{Kind: KindNullable, Inner: inner, ValidateFunc: func(v any) (any, error) {
		if _, ok := v.(Null); ok {
			return NullV, nil
		}
		return inner.Validate(v)
	}}
}

func Default(inner *Node, fn func() any) *Node {
	return &Node{Kind: KindDefault, Inner: inner, DefaultFunc: fn, ValidateFunc: func(v any) (any, error) {
		if v == nil {
			v = fn()
		}
		return inner.Validate(v)
	}}
}

func Catch(inner *Node, fn func(err error) any) *Node {
	return &Node{Kind: KindCatch, Inner: inner, CatchFunc: fn, ValidateFunc: func(v any) (any, error) {
		got, err := inner.Validate(v)
		if err != nil {
			return fn(err), nil
		}
		return got, nil
	}}
}

func Preprocess(inner *Node, fn func(v any) (any, error)) *Node {
	return &Node{Kind: KindPreprocess, Inner: inner, PreprocessFunc: fn, ValidateFunc: func(v any) (any, error) {
		pv, err := fn(v)
		if err != nil {
			return nil, err
		}
		return inner.Validate(pv)
	}}
}

// Transform wraps a base schema whose parsed value is fed through fn
// after base-schema validation; the result type is not structurally
// known to the codec.
func Transform(inner *Node, fn func(v any) (any, error)) *Node {
	return &Node{Kind: KindTransform, Inner: inner, TransformFunc: fn, ValidateFunc: func(v any) (any, error) {
		got, err := inner.Validate(v)
		if err != nil {
			return nil, err
		}
		return fn(got)
	}}
}

func Refine(inner *Node, fn func(v any) error) *Node {
	return &Node{Kind: KindRefine, Inner: inner, RefineFunc: fn, ValidateFunc: func(v any) (any, error) {
		got, err := inner.Validate(v)
		if err != nil {
			return nil, err
		}
		if err := fn(got); err != nil {
			return nil, err
		}
		return got, nil
	}}
}

// Pipeline validates through `in` then re-validates the result through
// `out`; encoding uses only the input side.
func Pipeline(in, out *Node) *Node {
	return &Node{Kind: KindPipeline, Inner: in, Out: out, ValidateFunc: func(v any) (any, error) {
		got, err := in.Validate(v)
		if err != nil {
			return nil, err
		}
		return out.Validate(got)
	}}
}

// Lazy defers resolution of its inner schema until first use, enabling
// recursive schemas. resolve is called at most once per Node instance.
func Lazy(resolve func() *Node) *Node {
	n := &Node{Kind: KindLazy, resolve: resolve}
	n.ValidateFunc = func(v any) (any, error) {
		if n.resolved == nil {
			n.resolved = resolve()
		}
		return n.resolved.Validate(v)
	}
	return n
}

func Branded(inner *Node, _ string) *Node {
	return &Node{Kind: KindBranded, Inner: inner, ValidateFunc: inner.Validate}
}

func Readonly(inner *Node) *Node {
	return &Node{Kind: KindReadonly, Inner: inner, ValidateFunc: inner.Validate}
}

///////////////////////////////////////////////////////////////////////////////
// Refused kinds: reported as UnserializableSchema when encoding is attempted.

func Any() *Node      { return &Node{Kind: KindAny} }
func Unknown() *Node   { return &Node{Kind: KindUnknown} }
func Never() *Node     { return &Node{Kind: KindNever} }
func Void() *Node      { return &Node{Kind: KindVoid} }
func Function() *Node  { return &Node{Kind: KindFunction} }
func Symbol() *Node    { return &Node{Kind: KindSymbol} }
func Promise() *Node   { return &Node{Kind: KindPromise} }
