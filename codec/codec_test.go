package codec_test

import (
	"math"
	"math/big"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NimbleMarkets/codec-go/codec"
	"github.com/NimbleMarkets/codec-go/schema"
)

// Test Launcher
func TestCodec(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "codec suite")
}

var _ = Describe("Envelope", func() {
	It("always starts with protocol version 1 and the schema's fingerprint", func() {
		n := schema.Number()
		buf, _, err := codec.Encode(n, 42.0)
		Expect(err).To(BeNil())
		Expect(buf[0]).To(Equal(byte(1)))

		var fp uint64
		for i := 0; i < 8; i++ {
			fp = fp<<8 | uint64(buf[1+i])
		}
		Expect(fp).To(Equal(schema.Fingerprint(n)))
	})

	It("rejects a mismatched protocol version before reading the body", func() {
		n := schema.Number()
		buf, _, err := codec.Encode(n, 1.0)
		Expect(err).To(BeNil())
		buf[0] = 2
		_, _, err = codec.Decode(n, buf)
		Expect(err).To(MatchError(codec.ErrProtocolMismatch))
	})

	It("rejects decoding under a schema with a different fingerprint", func() {
		n1 := schema.Number()
		n2 := schema.String()
		buf, _, err := codec.Encode(n1, 1.0)
		Expect(err).To(BeNil())
		_, _, err = codec.Decode(n2, buf)
		Expect(err).To(MatchError(codec.ErrSchemaMismatch))
	})
})

var _ = Describe("E1: integer number", func() {
	It("encodes 42 as a single i8 payload byte", func() {
		n := schema.Number()
		buf, _, err := codec.Encode(n, 42.0)
		Expect(err).To(BeNil())
		Expect(buf[codec.EnvelopeSize]).To(Equal(byte(0x00)))
		Expect(buf[codec.EnvelopeSize+1]).To(Equal(byte(0x2A)))

		decoded, _, err := codec.Decode(n, buf)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal(42.0))
	})
})

var _ = Describe("E2: string", func() {
	It("encodes \"hi\" in short form", func() {
		n := schema.String()
		buf, _, err := codec.Encode(n, "hi")
		Expect(err).To(BeNil())
		body := buf[codec.EnvelopeSize:]
		Expect(body).To(Equal([]byte{0x20, 0x02, 'h', 'i'}))

		decoded, _, err := codec.Decode(n, buf)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal("hi"))
	})
})

var _ = Describe("E3: optional tri-state", func() {
	n := schema.Object(
		schema.Field{Name: "a", Schema: schema.String()},
		schema.Field{Name: "b", Schema: schema.Optional(schema.Number())},
	)

	It("distinguishes absent, present-undefined, and present-value", func() {
		absent, _, err := codec.Encode(n, map[string]any{"a": "x"})
		Expect(err).To(BeNil())

		undef, _, err := codec.Encode(n, map[string]any{"a": "x", "b": schema.Undef})
		Expect(err).To(BeNil())

		present, _, err := codec.Encode(n, map[string]any{"a": "x", "b": 1.0})
		Expect(err).To(BeNil())

		Expect(absent).ToNot(Equal(undef))
		Expect(undef).ToNot(Equal(present))
		Expect(absent).ToNot(Equal(present))

		decodedAbsent, _, err := codec.Decode(n, absent)
		Expect(err).To(BeNil())
		Expect(decodedAbsent).To(Equal(map[string]any{"a": "x"}))

		decodedUndef, _, err := codec.Decode(n, undef)
		Expect(err).To(BeNil())
		Expect(decodedUndef).To(Equal(map[string]any{"a": "x", "b": schema.Undef}))

		decodedPresent, _, err := codec.Decode(n, present)
		Expect(err).To(BeNil())
		Expect(decodedPresent).To(Equal(map[string]any{"a": "x", "b": 1.0}))
	})
})

var _ = Describe("E4: discriminated union", func() {
	n := schema.DiscriminatedUnion("t",
		schema.Object(
			schema.Field{Name: "t", Schema: schema.Literal("p")},
			schema.Field{Name: "n", Schema: schema.Number()},
		),
		schema.Object(
			schema.Field{Name: "t", Schema: schema.Literal("q")},
		),
	)

	It("selects option index 1 for the second variant", func() {
		buf, _, err := codec.Encode(n, map[string]any{"t": "q"})
		Expect(err).To(BeNil())
		Expect(buf[codec.EnvelopeSize]).To(Equal(byte(0xA1)))

		decoded, _, err := codec.Decode(n, buf)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal(map[string]any{"t": "q"}))
	})
})

var _ = Describe("E5: array length forms", func() {
	It("uses the mid (11-bit) length form at 8 elements", func() {
		n := schema.Array(schema.Number())
		values := make([]any, 8)
		for i := range values {
			values[i] = 0.0
		}
		buf, _, err := codec.Encode(n, values)
		Expect(err).To(BeNil())
		body := buf[codec.EnvelopeSize:]
		Expect(body[0]).To(Equal(byte(0x88)))
		Expect(body[1]).To(Equal(byte(0x08)))

		decoded, _, err := codec.Decode(n, buf)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal(values))
	})
})

var _ = Describe("E6: recursive list via lazy", func() {
	It("terminates fingerprinting and round-trips a linear list", func() {
		var node *schema.Node
		node = schema.Lazy(func() *schema.Node {
			return schema.Object(
				schema.Field{Name: "v", Schema: schema.Number()},
				schema.Field{Name: "next", Schema: schema.Optional(schema.Nullable(node))},
			)
		})

		list := map[string]any{
			"v": 1.0,
			"next": map[string]any{
				"v": 2.0,
				"next": map[string]any{
					"v":    3.0,
					"next": schema.Undef,
				},
			},
		}

		buf, _, err := codec.Encode(node, list)
		Expect(err).To(BeNil())

		decoded, _, err := codec.Decode(node, buf)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal(list))
	})
})

var _ = Describe("Set", func() {
	It("collapses duplicates on encode so the wire carries distinct elements", func() {
		n := schema.Set(schema.Number())
		buf, _, err := codec.Encode(n, []any{1.0, 2.0, 1.0, 3.0})
		Expect(err).To(BeNil())
		Expect(buf[codec.EnvelopeSize]).To(Equal(byte(0x83)))

		decoded, _, err := codec.Decode(n, buf)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal([]any{1.0, 2.0, 3.0}))
	})
})

var _ = Describe("Object with passthrough unknown keys", func() {
	It("is refused at encode time, not at construction", func() {
		n := schema.ObjectPassthrough(schema.Field{Name: "a", Schema: schema.String()})
		_, _, err := codec.Encode(n, map[string]any{"a": "x", "extra": 1.0})
		Expect(err).To(MatchError(codec.ErrUnserializableSchema))
	})
})

var _ = Describe("Union ordering", func() {
	It("picks the first option, in declaration order, that validates", func() {
		n := schema.Union(schema.Number(), schema.String())
		buf, _, err := codec.Encode(n, 1.0)
		Expect(err).To(BeNil())
		Expect(buf[codec.EnvelopeSize] & 0x1F).To(Equal(byte(0)))
	})
})

var _ = Describe("Numeric special values", func() {
	DescribeTable("non-finite floats and booleans round-trip",
		func(value any, expectNaN bool) {
			n := schema.Number()
			if b, ok := value.(bool); ok {
				n = schema.Bool()
				_ = b
			}
			buf, _, err := codec.Encode(n, value)
			Expect(err).To(BeNil())
			decoded, _, err := codec.Decode(n, buf)
			Expect(err).To(BeNil())
			if expectNaN {
				Expect(math.IsNaN(decoded.(float64))).To(BeTrue())
			} else {
				Expect(decoded).To(Equal(value))
			}
		},
		Entry("NaN", math.NaN(), true),
		Entry("+Inf", math.Inf(1), false),
		Entry("-Inf", math.Inf(-1), false),
		Entry("true", true, false),
		Entry("false", false, false),
	)

	It("surfaces a diagnostic, not a failure, for unsafe integers", func() {
		n := schema.Number()
		_, diags, err := codec.Encode(n, float64(1<<53))
		Expect(err).To(BeNil())
		Expect(diags).To(HaveLen(1))
	})
})

var _ = Describe("BigInt", func() {
	It("round-trips a value within signed-64 range", func() {
		n := schema.BigInt()
		buf, _, err := codec.Encode(n, big.NewInt(123456789))
		Expect(err).To(BeNil())
		decoded, _, err := codec.Decode(n, buf)
		Expect(err).To(BeNil())
		Expect(decoded.(*big.Int).Int64()).To(Equal(int64(123456789)))
	})

	It("rejects a value outside signed-64 range", func() {
		n := schema.BigInt()
		huge := new(big.Int).Lsh(big.NewInt(1), 64)
		_, _, err := codec.Encode(n, huge)
		Expect(err).To(MatchError(codec.ErrValueOutOfRange))
	})
})

var _ = Describe("Date", func() {
	It("round-trips millisecond resolution", func() {
		n := schema.Date()
		t := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		buf, _, err := codec.Encode(n, t)
		Expect(err).To(BeNil())
		decoded, _, err := codec.Decode(n, buf)
		Expect(err).To(BeNil())
		Expect(decoded.(time.Time).Equal(t)).To(BeTrue())
	})
})

var _ = Describe("Record and map", func() {
	It("round-trips a string-keyed record in file order", func() {
		n := schema.Record(schema.Number())
		entries := []schema.Entry{{Key: "a", Value: 1.0}, {Key: "b", Value: 2.0}}
		buf, _, err := codec.Encode(n, entries)
		Expect(err).To(BeNil())
		decoded, _, err := codec.Decode(n, buf)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal(entries))
	})

	It("round-trips a keyed map", func() {
		n := schema.Map(schema.Number(), schema.String())
		entries := []schema.Entry{{Key: 1.0, Value: "x"}, {Key: 2.0, Value: "y"}}
		buf, _, err := codec.Encode(n, entries)
		Expect(err).To(BeNil())
		decoded, _, err := codec.Decode(n, buf)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal(entries))
	})
})

var _ = Describe("Intersection", func() {
	It("merges two record schemas, right side winning on overlap", func() {
		left := schema.Object(
			schema.Field{Name: "a", Schema: schema.String()},
			schema.Field{Name: "b", Schema: schema.Number()},
		)
		right := schema.Object(
			schema.Field{Name: "b", Schema: schema.Number()},
			schema.Field{Name: "c", Schema: schema.Bool()},
		)
		n := schema.Intersection(left, right)
		value := map[string]any{"a": "x", "b": 1.0, "c": true}
		buf, _, err := codec.Encode(n, value)
		Expect(err).To(BeNil())
		decoded, _, err := codec.Decode(n, buf)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal(value))
	})
})

var _ = Describe("Refused schema kinds", func() {
	It("rejects any/unknown/function with UnserializableSchema", func() {
		for _, n := range []*schema.Node{schema.Any(), schema.Unknown(), schema.Function()} {
			_, _, err := codec.Encode(n, "x")
			Expect(err).To(MatchError(codec.ErrUnserializableSchema))
		}
	})
})

var _ = Describe("Catch and Transform interaction", func() {
	It("encodes the catch replacement under the inner schema", func() {
		n := schema.Catch(schema.Number(), func(err error) any { return -1.0 })
		buf, _, err := codec.Encode(n, "not a number")
		Expect(err).To(BeNil())
		decoded, _, err := codec.Decode(n, buf)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal(-1.0))
	})

	It("fails when a transform sits beneath a catch that just replaced the value", func() {
		base := schema.Number()
		transformed := schema.Transform(base, func(v any) (any, error) { return v, nil })
		n := schema.Catch(transformed, func(err error) any { return 0.0 })
		_, _, err := codec.Encode(n, "not a number")
		Expect(err).To(MatchError(codec.ErrTransformUnserializable))
	})
})

var _ = Describe("Default", func() {
	It("applies the default value when encoding nil", func() {
		n := schema.Default(schema.Number(), func() any { return 7.0 })
		buf, _, err := codec.Encode(n, nil)
		Expect(err).To(BeNil())
		decoded, _, err := codec.Decode(n, buf)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal(7.0))
	})
})
