// Copyright (c) 2025 Neomantra Corp

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"reflect"

	"github.com/NimbleMarkets/codec-go/codec"
	"github.com/NimbleMarkets/codec-go/schema"
	"github.com/dustin/go-humanize"
	"github.com/segmentio/encoding/json"
	"github.com/spf13/cobra"
)

///////////////////////////////////////////////////////////////////////////////

var (
	schemaName string
	roundtrip  bool
	asJSON     bool
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

	rootCmd.PersistentFlags().StringVarP(&schemaName, "schema", "s", "", "Registered schema name (see 'list')")
	rootCmd.AddCommand(listCmd)

	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().BoolVarP(&roundtrip, "roundtrip", "r", false, "Decode the bytes back and assert equality")
	encodeCmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Print the decoded value as JSON")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

///////////////////////////////////////////////////////////////////////////////

var rootCmd = &cobra.Command{
	Use:   "codec-go-inspect",
	Short: "codec-go-inspect encodes and inspects values against a registered codec schema",
	Long:  "codec-go-inspect encodes and inspects values against a registered codec schema",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the registered schema names",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range schema.DefaultRegistry().Names() {
			fmt.Println(name)
		}
	},
}

var encodeCmd = &cobra.Command{
	Use:   "encode file.json",
	Short: "Encodes a JSON fixture against --schema, printing the wire hex dump and envelope fields",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requireNoError(runEncode(args[0]))
	},
}

func runEncode(fixtureFile string) error {
	if schemaName == "" {
		return fmt.Errorf("--schema is required; see 'codec-go-inspect list'")
	}
	n, ok := schema.DefaultRegistry().Lookup(schemaName)
	if !ok {
		return fmt.Errorf("unknown schema %q", schemaName)
	}

	raw, err := os.ReadFile(fixtureFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", fixtureFile, err)
	}
	value, err := schema.ParseJSON(n, raw)
	if err != nil {
		return fmt.Errorf("parsing fixture: %w", err)
	}

	buf, diags, err := codec.Encode(n, value)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	fmt.Printf("schema:      %s\n", schemaName)
	fmt.Printf("payload:     %s (%d bytes)\n", humanize.Bytes(uint64(len(buf))), len(buf))
	fmt.Printf("version:     %d\n", buf[0])
	fmt.Printf("fingerprint: %s\n", hex.EncodeToString(buf[1:codec.EnvelopeSize]))
	fmt.Printf("body:        %s\n", hex.EncodeToString(buf[codec.EnvelopeSize:]))
	for _, d := range diags {
		fmt.Printf("diagnostic:  %s\n", d.Message)
	}

	if !roundtrip && !asJSON {
		return nil
	}

	decoded, _, err := codec.Decode(n, buf)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if asJSON {
		jstr, err := json.Marshal(decoded)
		if err != nil {
			return fmt.Errorf("marshaling decoded value: %w", err)
		}
		fmt.Printf("decoded:     %s\n", jstr)
	}
	if roundtrip {
		if !reflect.DeepEqual(value, decoded) {
			return fmt.Errorf("roundtrip mismatch:\n  input:   %#v\n  decoded: %#v", value, decoded)
		}
		fmt.Println("roundtrip:   ok")
	}
	return nil
}
