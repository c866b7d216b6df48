package codecfile_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/NimbleMarkets/codec-go/codecfile"
	"github.com/NimbleMarkets/codec-go/schema"
)

// Test Launcher
func TestCodecfile(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "codecfile suite")
}

var _ = Describe("WriteBatch/ReadBatch", func() {
	n := schema.Object(
		schema.Field{Name: "id", Schema: schema.Number()},
		schema.Field{Name: "name", Schema: schema.String()},
	)

	It("round-trips a batch of records through a length-prefixed stream", func() {
		values := []any{
			map[string]any{"id": 1.0, "name": "alpha"},
			map[string]any{"id": 2.0, "name": "beta"},
			map[string]any{"id": 3.0, "name": "gamma"},
		}

		var buf bytes.Buffer
		n2, err := codecfile.WriteBatch(&buf, n, values)
		Expect(err).To(BeNil())
		Expect(n2).To(Equal(len(values)))

		decoded, err := codecfile.ReadBatch(&buf, n)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal(values))
	})

	It("stops at the first encode failure and reports its index", func() {
		values := []any{
			map[string]any{"id": 1.0, "name": "alpha"},
			map[string]any{"name": "missing id"},
		}
		var buf bytes.Buffer
		n2, err := codecfile.WriteBatch(&buf, n, values)
		Expect(err).ToNot(BeNil())
		Expect(n2).To(Equal(1))
	})

	It("returns an empty slice for an empty stream", func() {
		var buf bytes.Buffer
		decoded, err := codecfile.ReadBatch(&buf, n)
		Expect(err).To(BeNil())
		Expect(decoded).To(BeEmpty())
	})
})

var _ = Describe("Compressed file I/O", func() {
	n := schema.Number()

	It("round-trips plain (uncompressed) records through a named file", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "records.bin")

		writer, closeWriter, err := codecfile.MakeCompressedWriter(path, false)
		Expect(err).To(BeNil())
		_, err = codecfile.WriteBatch(writer, n, []any{1.0, 2.0, 3.0})
		Expect(err).To(BeNil())
		closeWriter()

		reader, closer, err := codecfile.MakeCompressedReader(path, false)
		Expect(err).To(BeNil())
		defer closer.Close()

		decoded, err := codecfile.ReadBatch(reader, n)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal([]any{1.0, 2.0, 3.0}))
	})

	It("round-trips zstd-framed records when the filename ends in .zst", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "records.bin.zst")

		writer, closeWriter, err := codecfile.MakeCompressedWriter(path, false)
		Expect(err).To(BeNil())
		_, err = codecfile.WriteBatch(writer, n, []any{42.0})
		Expect(err).To(BeNil())
		closeWriter()

		info, err := os.Stat(path)
		Expect(err).To(BeNil())
		Expect(info.Size()).ToNot(BeZero())

		reader, closer, err := codecfile.MakeCompressedReader(path, false)
		Expect(err).To(BeNil())
		defer closer.Close()

		decoded, err := codecfile.ReadBatch(reader, n)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal([]any{42.0}))
	})

	It("forces zstd framing via useZstd regardless of extension", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "records.bin")

		writer, closeWriter, err := codecfile.MakeCompressedWriter(path, true)
		Expect(err).To(BeNil())
		_, err = codecfile.WriteBatch(writer, n, []any{7.0})
		Expect(err).To(BeNil())
		closeWriter()

		reader, closer, err := codecfile.MakeCompressedReader(path, true)
		Expect(err).To(BeNil())
		defer closer.Close()

		decoded, err := codecfile.ReadBatch(reader, n)
		Expect(err).To(BeNil())
		Expect(decoded).To(Equal([]any{7.0}))
	})
})
