//go:generate go run ../build/gen-config-schema.go schema.json options-schema.json

package config

import (
	_ "embed"
)

//go:embed "schema.json"
var schema []byte

//go:embed "options-schema.json"
var optionsSchema []byte

func Schema() []byte {
	return schema
}

func OptionsSchema() []byte {
	return optionsSchema
}
