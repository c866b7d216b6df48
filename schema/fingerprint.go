package schema

import (
	"time"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint computes the 64-bit structural summary hash identifying a
// schema's shape: a deterministic traversal emits one wire-family byte
// per concrete schema node, each node's byte before those of its
// children (decorators and intersections contribute no byte of their
// own and delegate to their inner schemas), and the resulting byte sequence is hashed with
// a fixed non-cryptographic hash. Field names, refinements, and
// value-level constraints never enter the summary.
func Fingerprint(n *Node) uint64 {
	var buf []byte
	visited := make(map[*Node]bool)
	buf = summarize(n, buf, visited)
	return xxhash.Sum64(buf)
}

func summarize(n *Node, buf []byte, visited map[*Node]bool) []byte {
	switch n.Kind {
	case KindNumber, KindBool, KindBigInt:
		return append(buf, byte(WireNumeric))

	case KindString:
		return append(buf, byte(WireString))

	case KindDate:
		return append(buf, byte(WireDate))

	case KindLiteral:
		return append(buf, byte(runtimeFamily(n.LiteralValue)))

	case KindEnum:
		if n.EnumKind == EnumString {
			return append(buf, byte(WireString))
		}
		return append(buf, byte(WireNumeric))

	case KindObject:
		buf = append(buf, byte(WireObject))
		for _, f := range n.Fields {
			buf = summarize(f.Schema, buf, visited)
		}
		return buf

	case KindArray, KindTuple, KindSet:
		buf = append(buf, byte(WireArray))
		switch n.Kind {
		case KindArray, KindSet:
			buf = summarize(n.Elem, buf, visited)
		case KindTuple:
			for _, it := range n.Items {
				buf = summarize(it, buf, visited)
			}
		}
		return buf

	case KindUnion, KindDiscriminatedUnion:
		buf = append(buf, byte(WireUnion))
		for _, opt := range n.Options {
			buf = summarize(opt, buf, visited)
		}
		return buf

	case KindRecord:
		buf = append(buf, byte(WireMap))
		return summarize(n.ValueSchema, buf, visited)

	case KindMap:
		buf = append(buf, byte(WireMap))
		buf = summarize(n.KeySchema, buf, visited)
		return summarize(n.ValueSchema, buf, visited)

	case KindIntersection:
		buf = summarize(n.Left, buf, visited)
		return summarize(n.Right, buf, visited)

	case KindLazy:
		if visited[n] {
			return buf
		}
		visited[n] = true
		if n.resolved == nil {
			n.resolved = n.resolve()
		}
		return summarize(n.resolved, buf, visited)

	case KindOptional, KindNullable, KindDefault, KindCatch, KindPreprocess,
		KindTransform, KindRefine, KindBranded, KindReadonly:
		return summarize(n.Inner, buf, visited)

	case KindPipeline:
		// Structural identity follows the input side, consistent with
		// encoding always operating on the input schema.
		return summarize(n.Inner, buf, visited)

	default:
		// Refused kinds never reach here in a schema accepted by the
		// codec; contribute nothing if they do.
		return buf
	}
}

func runtimeFamily(v any) WireFamily {
	switch v.(type) {
	case string:
		return WireString
	case time.Time:
		return WireDate
	default:
		return WireNumeric
	}
}
