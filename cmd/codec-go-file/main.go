// Copyright (c) 2025 Neomantra Corp

package main

import (
	"fmt"
	"os"

	"github.com/NimbleMarkets/codec-go/codecfile"
	"github.com/NimbleMarkets/codec-go/schema"
	"github.com/dustin/go-humanize"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
)

///////////////////////////////////////////////////////////////////////////////

var (
	schemaName string
	useZstd    bool
	outFile    string
)

func requireNoError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}

///////////////////////////////////////////////////////////////////////////////

func main() {
	cobra.OnInitialize()

	rootCmd.PersistentFlags().StringVarP(&schemaName, "schema", "s", "", "Registered schema name (see 'codec-go-inspect list')")
	rootCmd.MarkPersistentFlagRequired("schema")

	rootCmd.AddCommand(packCmd)
	packCmd.Flags().BoolVarP(&useZstd, "zstd", "z", false, "zstd-compress the output stream")
	packCmd.Flags().StringVarP(&outFile, "out", "o", "-", "Destination file, or '-' for stdout")

	rootCmd.AddCommand(unpackCmd)
	unpackCmd.Flags().BoolVarP(&useZstd, "zstd", "z", false, "Force the input stream to be treated as zstd")

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

///////////////////////////////////////////////////////////////////////////////

var rootCmd = &cobra.Command{
	Use:   "codec-go-file",
	Short: "codec-go-file batch-encodes and decodes JSON fixtures against a codec schema",
	Long:  "codec-go-file batch-encodes and decodes JSON fixtures against a codec schema",
}

var packCmd = &cobra.Command{
	Use:   "pack fixtures.json",
	Short: "Encodes a JSON array of fixture values into a length-prefixed envelope stream",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requireNoError(runPack(args[0]))
	},
}

func runPack(fixtureFile string) error {
	n, ok := schema.DefaultRegistry().Lookup(schemaName)
	if !ok {
		return fmt.Errorf("unknown schema %q", schemaName)
	}

	raw, err := os.ReadFile(fixtureFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", fixtureFile, err)
	}
	var rawValues []json.RawMessage
	if err := json.Unmarshal(raw, &rawValues); err != nil {
		return fmt.Errorf("fixtures file must be a JSON array: %w", err)
	}
	values := make([]any, len(rawValues))
	for i, rv := range rawValues {
		v, err := schema.ParseJSON(n, rv)
		if err != nil {
			return fmt.Errorf("fixture %d: %w", i, err)
		}
		values[i] = v
	}

	w, closer, err := codecfile.MakeCompressedWriter(outFile, useZstd)
	if err != nil {
		return fmt.Errorf("opening %s: %w", outFile, err)
	}
	defer closer()

	count, err := codecfile.WriteBatch(w, n, values)
	if err != nil {
		return fmt.Errorf("writing batch: %w", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %d records\n", count)
	return nil
}

///////////////////////////////////////////////////////////////////////////////

var unpackCmd = &cobra.Command{
	Use:   "unpack stream",
	Short: "Decodes a length-prefixed envelope stream and prints each record as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requireNoError(runUnpack(args[0]))
	},
}

func runUnpack(streamFile string) error {
	n, ok := schema.DefaultRegistry().Lookup(schemaName)
	if !ok {
		return fmt.Errorf("unknown schema %q", schemaName)
	}

	r, closer, err := codecfile.MakeCompressedReader(streamFile, useZstd)
	if err != nil {
		return fmt.Errorf("opening %s: %w", streamFile, err)
	}
	if closer != nil {
		defer closer.Close()
	}

	values, err := codecfile.ReadBatch(r, n)
	if err != nil {
		return fmt.Errorf("reading batch: %w", err)
	}
	for _, v := range values {
		jstr, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling record: %w", err)
		}
		fmt.Printf("%s\n", jstr)
	}
	fmt.Fprintf(os.Stderr, "read %s records\n", humanize.Comma(int64(len(values))))
	return nil
}
