package quant_test

import (
	"fmt"
	"log"

	"github.com/jmylchreest/exoquant/pkg/quant"
)

func Example() {
	// A 2x2 image: red, green, blue and white.
	pixels := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}

	q := quant.NewDefault()
	if err := q.Feed(pixels); err != nil {
		log.Fatal(err)
	}
	if err := q.Quantize(4); err != nil {
		log.Fatal(err)
	}

	palette, err := q.GetPalette(4)
	if err != nil {
		log.Fatal(err)
	}
	indices, err := q.MapImageOrdered(2, 2, pixels)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(palette)/4, len(indices))
}
