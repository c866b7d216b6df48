package codec

import (
	"encoding/binary"

	"github.com/NimbleMarkets/codec-go/schema"
)

// EnvelopeSize is the fixed 9-byte prefix every encoded payload
// carries: 1 version byte + 8 big-endian fingerprint bytes.
const EnvelopeSize = 9

const ProtocolVersion1 = byte(1)

// Diagnostic is a non-fatal warning surfaced alongside a successful
// Encode, e.g. an integer exceeding safe-integer range.
type Diagnostic struct {
	Message string
}

func writeEnvelope(buf []byte, n *schema.Node) []byte {
	buf = append(buf, ProtocolVersion1)
	var fp [8]byte
	binary.BigEndian.PutUint64(fp[:], schema.Fingerprint(n))
	return append(buf, fp[:]...)
}

// readEnvelope parses and verifies the 9-byte envelope against n's
// fingerprint, returning the body slice that follows it.
func readEnvelope(data []byte, n *schema.Node) (body []byte, err error) {
	if len(data) < EnvelopeSize {
		return nil, malformedInputError("input shorter than envelope")
	}
	version := data[0]
	if version != ProtocolVersion1 {
		return nil, protocolMismatchError(version)
	}
	got := binary.BigEndian.Uint64(data[1:EnvelopeSize])
	want := schema.Fingerprint(n)
	if got != want {
		return nil, schemaMismatchError(got, want)
	}
	return data[EnvelopeSize:], nil
}
