// exoquant - A variance-split colour quantizer
//
// exoquant reduces truecolour images to indexed palettes of up to 256
// colours, with optional ordered or random dithering.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"github.com/jmylchreest/exoquant/internal/cli"
)

func main() {
	cli.Execute()
}
