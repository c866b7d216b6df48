package wire_test

import (
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NimbleMarkets/codec-go/wire"
)

// Test Launcher
func TestWire(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "wire suite")
}

var _ = Describe("Numeric header", func() {
	It("packs the tag and subtype into one byte", func() {
		b := wire.NumericHeader(wire.SubI32)
		Expect(wire.TagOf(b)).To(Equal(wire.TagNumeric))
		Expect(wire.NumericSubtypeOf(b)).To(Equal(wire.SubI32))
	})

	DescribeTable("integer narrowing picks the smallest exact subtype",
		func(n int64, want wire.NumericSubtype) {
			Expect(wire.ClassifyInt(n)).To(Equal(want))
		},
		Entry("zero fits i8", int64(0), wire.SubI8),
		Entry("max i8", int64(127), wire.SubI8),
		Entry("min i8", int64(-128), wire.SubI8),
		Entry("just above i8", int64(128), wire.SubI16),
		Entry("max i16", int64(32767), wire.SubI16),
		Entry("just above i16", int64(32768), wire.SubI32),
		Entry("max i32", int64(2147483647), wire.SubI32),
		Entry("just above i32", int64(2147483648), wire.SubI64),
		Entry("min i64", int64(-9223372036854775808), wire.SubI64),
	)

	It("flags integers outside the safe-integer range without rejecting them", func() {
		Expect(wire.IsSafeInteger(1 << 53)).To(BeFalse())
		Expect(wire.IsSafeInteger((1 << 53) - 1)).To(BeTrue())
		Expect(wire.IsSafeInteger(-(1 << 53))).To(BeFalse())
	})

	DescribeTable("float classification picks out the non-finite special values",
		func(f float64, want wire.FloatClass) {
			Expect(wire.ClassifyFloat(f)).To(Equal(want))
		},
		Entry("zero", 0.0, wire.FloatFinite),
		Entry("negative finite", -1.5, wire.FloatFinite),
		Entry("NaN", math.NaN(), wire.FloatNaN),
		Entry("+Inf", math.Inf(1), wire.FloatPosInf),
		Entry("-Inf", math.Inf(-1), wire.FloatNegInf),
	)
})

var _ = Describe("String header", func() {
	It("uses short form under 4096 bytes", func() {
		hdr, err := wire.StringHeader(2)
		Expect(err).To(BeNil())
		Expect(hdr).To(HaveLen(2))
		Expect(hdr[0] & 0x10).To(BeEquivalentTo(0))

		length, headerLen, err := wire.StringLength(hdr[0], hdr[1:])
		Expect(err).To(BeNil())
		Expect(length).To(Equal(2))
		Expect(headerLen).To(Equal(2))
	})

	It("switches to long form at 4096 bytes", func() {
		hdr, err := wire.StringHeader(4096)
		Expect(err).To(BeNil())
		Expect(hdr).To(HaveLen(3))
		Expect(hdr[0] & 0x10).ToNot(BeEquivalentTo(0))

		length, headerLen, err := wire.StringLength(hdr[0], hdr[1:])
		Expect(err).To(BeNil())
		Expect(length).To(Equal(4096))
		Expect(headerLen).To(Equal(3))
	})

	It("rejects strings at or above 2^20 bytes", func() {
		_, err := wire.StringHeader(1 << 20)
		Expect(err).To(MatchError(wire.ErrStringTooLong))
	})
})

var _ = Describe("Array/tuple/set length form", func() {
	DescribeTable("selects the narrowest form and round-trips the length",
		func(length int, wantHeaderLen int) {
			hdr, err := wire.ArrayHeader(length)
			Expect(err).To(BeNil())
			Expect(hdr).To(HaveLen(wantHeaderLen))

			got, headerLen, err := wire.ArrayLength(hdr[0], hdr[1:])
			Expect(err).To(BeNil())
			Expect(got).To(Equal(length))
			Expect(headerLen).To(Equal(wantHeaderLen))
		},
		Entry("empty", 0, 1),
		Entry("max 3-bit", 7, 1),
		Entry("first 11-bit", 8, 2),
		Entry("max 11-bit", 2047, 2),
		Entry("first 19-bit", 2048, 3),
		Entry("max 19-bit", 524287, 3),
	)

	It("rejects lengths at or above 2^19", func() {
		_, err := wire.ArrayHeader(1 << 19)
		Expect(err).ToNot(BeNil())
	})

	It("rejects the reserved length form on read", func() {
		reserved := byte(wire.TagArray)<<5 | 0b11<<3
		_, _, err := wire.ArrayLength(reserved, nil)
		Expect(err).To(MatchError(wire.ErrReservedLengthForm))
	})
})

var _ = Describe("Map/record header", func() {
	It("round-trips the container-kind bit and pair count", func() {
		hdr, err := wire.MapHeader(true, 5)
		Expect(err).To(BeNil())
		isMap, length, headerLen, err := wire.MapKindAndLength(hdr[0], hdr[1:])
		Expect(err).To(BeNil())
		Expect(isMap).To(BeTrue())
		Expect(length).To(Equal(5))
		Expect(headerLen).To(Equal(2))
	})

	It("distinguishes record (bit 4 = 0) from map (bit 4 = 1)", func() {
		hdr, _ := wire.MapHeader(false, 1)
		isMap, _, _, err := wire.MapKindAndLength(hdr[0], hdr[1:])
		Expect(err).To(BeNil())
		Expect(isMap).To(BeFalse())
	})
})

var _ = Describe("Union header", func() {
	It("round-trips option index", func() {
		hdr, err := wire.UnionHeader(17)
		Expect(err).To(BeNil())
		Expect(wire.TagOf(hdr)).To(Equal(wire.TagUnion))
		Expect(wire.UnionIndex(hdr)).To(Equal(17))
	})

	It("rejects indices outside 0..31", func() {
		_, err := wire.UnionHeader(32)
		Expect(err).To(MatchError(wire.ErrUnionIndexRange))
		_, err = wire.UnionHeader(-1)
		Expect(err).To(MatchError(wire.ErrUnionIndexRange))
	})
})

var _ = Describe("Object subtags", func() {
	It("exposes the absent-optional marker used inside record bodies", func() {
		Expect(wire.AbsentOptionalMarker).To(BeEquivalentTo(0x4C))
		Expect(wire.TagOf(wire.AbsentOptionalMarker)).To(Equal(wire.TagObject))
		Expect(wire.ObjectSubtagOf(wire.AbsentOptionalMarker)).To(Equal(wire.ObjectAbsentOptional))
	})
})
