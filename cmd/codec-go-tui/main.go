// Copyright (c) 2025 Neomantra Corp

package main

import (
	"fmt"
	"os"

	codec_tui "github.com/NimbleMarkets/codec-go/internal/tui"
	"github.com/spf13/pflag"
)

///////////////////////////////////////////////////////////////////////////////

func main() {
	var config codec_tui.Config
	var showHelp bool

	pflag.BoolVarP(&showHelp, "help", "h", false, "Show help")
	pflag.StringVarP(&config.FixtureDir, "fixtures", "f", ".", "Directory of JSON fixture files to browse")
	pflag.Parse()

	if showHelp {
		fmt.Fprintf(os.Stdout, "usage: %s [options]\n\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(0)
	}

	err := codec_tui.Run(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
	}
}
