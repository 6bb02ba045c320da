package main

import (
	"log"
	"os"

	"github.com/tsbridge/tsbridge/internal/config"
	"github.com/tsbridge/tsbridge/internal/options"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatalf("usage: %s path/to/schema.json path/to/options-schema.json", os.Args[0])
	}
	bs, err := config.ReflectSchema()
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile(os.Args[1], bs, 0644); err != nil {
		panic(err)
	}
	bs, err = options.ReflectOptionsSchema()
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile(os.Args[2], bs, 0644); err != nil {
		panic(err)
	}
}
