// Package codecfile batch-encodes a sequence of values sharing one
// schema into a length-prefixed stream of codec envelopes, optionally
// zstd-framed, for the codec-go-file CLI.
package codecfile

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/NimbleMarkets/codec-go/codec"
	"github.com/NimbleMarkets/codec-go/schema"
)

// WriteBatch encodes each value in values against n and writes it to w
// as a 4-byte big-endian length prefix followed by the envelope-and-body
// bytes Encode produced. It stops at the first encode error.
func WriteBatch(w io.Writer, n *schema.Node, values []any) (int, error) {
	for i, v := range values {
		buf, _, err := codec.Encode(n, v)
		if err != nil {
			return i, fmt.Errorf("codecfile: encoding record %d: %w", i, err)
		}
		var lenPrefix [4]byte
		binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(buf)))
		if _, err := w.Write(lenPrefix[:]); err != nil {
			return i, err
		}
		if _, err := w.Write(buf); err != nil {
			return i, err
		}
	}
	return len(values), nil
}

// ReadBatch reads a length-prefixed stream written by WriteBatch and
// decodes each record against n, returning decoded values in order.
// It reads until io.EOF on a length-prefix boundary.
func ReadBatch(r io.Reader, n *schema.Node) ([]any, error) {
	var out []any
	for {
		var lenPrefix [4]byte
		_, err := io.ReadFull(r, lenPrefix[:])
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("codecfile: reading length prefix: %w", err)
		}
		recLen := binary.BigEndian.Uint32(lenPrefix[:])
		buf := make([]byte, recLen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return out, fmt.Errorf("codecfile: reading record body: %w", err)
		}
		val, _, err := codec.Decode(n, buf)
		if err != nil {
			return out, fmt.Errorf("codecfile: decoding record %d: %w", len(out), err)
		}
		out = append(out, val)
	}
}
