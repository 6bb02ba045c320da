package options

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"

	"github.com/tsbridge/tsbridge/pkg/typescript"
)

// Diagnostic codes for option problems, matching the compiler's numbering
// for unknown options and malformed values.
const (
	codeUnknownOption = 5023
	codeInvalidValue  = 5024
)

// Decode validates raw compiler options against the option schema and
// decodes them into the typed set. Violations are reported as
// error-severity diagnostics rather than errors; the error return is
// reserved for decoder construction failures.
func Decode(raw map[string]any) (typescript.CompilerOptions, []typescript.Diagnostic, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	diags := validate(raw)

	var opts typescript.CompilerOptions
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &opts,
		TagName: "json",
	})
	if err != nil {
		return typescript.CompilerOptions{}, nil, err
	}
	if err := dec.Decode(raw); err != nil && len(diags) == 0 {
		diags = append(diags, typescript.Diagnostic{
			Severity: typescript.SeverityError,
			Code:     codeInvalidValue,
			Message:  err.Error(),
		})
	}

	opts.Raw = maps.Clone(raw)
	return opts, diags, nil
}

// violationDiagnostics converts leaf schema violations into diagnostics.
// Unknown properties get one diagnostic per offending name so the user sees
// every typo at once.
func violationDiagnostics(verr *jsonschema.ValidationError) []typescript.Diagnostic {
	var out []typescript.Diagnostic
	if len(verr.Causes) == 0 {
		out = append(out, leafDiagnostic(verr))
	}
	for _, cause := range verr.Causes {
		out = append(out, violationDiagnostics(cause)...)
	}
	return out
}

func leafDiagnostic(verr *jsonschema.ValidationError) typescript.Diagnostic {
	if ap, ok := verr.ErrorKind.(*kind.AdditionalProperties); ok && len(ap.Properties) > 0 {
		names := make([]string, len(ap.Properties))
		copy(names, ap.Properties)
		sort.Strings(names)
		return typescript.Diagnostic{
			Severity: typescript.SeverityError,
			Code:     codeUnknownOption,
			Message:  fmt.Sprintf("Unknown compiler option '%s'.", strings.Join(names, "', '")),
		}
	}
	msg := verr.Error()
	if name := strings.Join(verr.InstanceLocation, "/"); name != "" {
		msg = fmt.Sprintf("Compiler option '%s' has an invalid value: %v", name, msg)
	}
	return typescript.Diagnostic{
		Severity: typescript.SeverityError,
		Code:     codeInvalidValue,
		Message:  msg,
	}
}
