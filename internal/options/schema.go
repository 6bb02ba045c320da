package options

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	schemareflector "github.com/swaggest/jsonschema-go"

	ext_config "github.com/tsbridge/tsbridge/config"
	"github.com/tsbridge/tsbridge/pkg/typescript"
)

var optionsSchema *jsonschema.Schema

func init() {
	js, err := jsonschema.UnmarshalJSON(bytes.NewReader(ext_config.OptionsSchema()))
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft2020)
	if err := compiler.AddResource("options-schema.json", js); err != nil {
		panic(err)
	}

	optionsSchema, err = compiler.Compile("options-schema.json")
	if err != nil {
		panic(err)
	}
}

// validate checks raw compiler options against the generated option schema
// and reports each violation as a diagnostic.
func validate(raw map[string]any) []typescript.Diagnostic {
	doc, err := normalize(raw)
	if err != nil {
		return []typescript.Diagnostic{{
			Severity: typescript.SeverityError,
			Code:     codeInvalidValue,
			Message:  fmt.Sprintf("compiler options are not JSON-compatible: %v", err),
		}}
	}
	err = optionsSchema.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []typescript.Diagnostic{{
			Severity: typescript.SeverityError,
			Code:     codeInvalidValue,
			Message:  err.Error(),
		}}
	}
	return violationDiagnostics(verr)
}

// normalize round-trips the mapping through JSON so that validation sees the
// same value shapes a decoded tsconfig would produce, regardless of whether
// the options came from a config file or a caller-built Go map.
func normalize(raw map[string]any) (any, error) {
	bs, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(bs))
}

// ReflectOptionsSchema generates the JSON schema for the typed compiler
// option set. The generator under build/ writes the output to
// config/options-schema.json.
func ReflectOptionsSchema() ([]byte, error) {
	reflector := schemareflector.Reflector{}

	s, err := reflector.Reflect(typescript.CompilerOptions{})
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(s, "", "  ")
}
