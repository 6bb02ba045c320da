package typescript

import (
	"context"
)

// CompilerOptions is the typed form of a tsconfig "compilerOptions" object,
// restricted to the options that matter for isolated per-file transpilation
// and module resolution. Raw carries the full normalized mapping, including
// options that have no dedicated field, for services that forward options
// wholesale to an underlying compiler.
//
// A CompilerOptions value handed to Transpile or ResolveModule is finalized:
// callers must not mutate it afterwards, which is what makes it safe to share
// across concurrent per-file operations without locking.
type CompilerOptions struct {
	Module           string `json:"module,omitempty" mapstructure:"module"`
	Target           string `json:"target,omitempty" mapstructure:"target"`
	ModuleResolution string `json:"moduleResolution,omitempty" mapstructure:"moduleResolution"`

	JSX                string `json:"jsx,omitempty" mapstructure:"jsx"`
	JSXFactory         string `json:"jsxFactory,omitempty" mapstructure:"jsxFactory"`
	JSXFragmentFactory string `json:"jsxFragmentFactory,omitempty" mapstructure:"jsxFragmentFactory"`
	JSXImportSource    string `json:"jsxImportSource,omitempty" mapstructure:"jsxImportSource"`

	SourceMap       bool `json:"sourceMap,omitempty" mapstructure:"sourceMap"`
	InlineSourceMap bool `json:"inlineSourceMap,omitempty" mapstructure:"inlineSourceMap"`
	InlineSources   bool `json:"inlineSources,omitempty" mapstructure:"inlineSources"`

	IsolatedModules bool `json:"isolatedModules,omitempty" mapstructure:"isolatedModules"`
	ImportHelpers   bool `json:"importHelpers,omitempty" mapstructure:"importHelpers"`
	NoEmitHelpers   bool `json:"noEmitHelpers,omitempty" mapstructure:"noEmitHelpers"`

	ExperimentalDecorators bool `json:"experimentalDecorators,omitempty" mapstructure:"experimentalDecorators"`
	EmitDecoratorMetadata  bool `json:"emitDecoratorMetadata,omitempty" mapstructure:"emitDecoratorMetadata"`

	UseDefineForClassFields bool `json:"useDefineForClassFields,omitempty" mapstructure:"useDefineForClassFields"`
	PreserveConstEnums      bool `json:"preserveConstEnums,omitempty" mapstructure:"preserveConstEnums"`
	RemoveComments          bool `json:"removeComments,omitempty" mapstructure:"removeComments"`
	DownlevelIteration      bool `json:"downlevelIteration,omitempty" mapstructure:"downlevelIteration"`

	Strict                       bool `json:"strict,omitempty" mapstructure:"strict"`
	AlwaysStrict                 bool `json:"alwaysStrict,omitempty" mapstructure:"alwaysStrict"`
	NoImplicitAny                bool `json:"noImplicitAny,omitempty" mapstructure:"noImplicitAny"`
	NoImplicitThis               bool `json:"noImplicitThis,omitempty" mapstructure:"noImplicitThis"`
	StrictNullChecks             bool `json:"strictNullChecks,omitempty" mapstructure:"strictNullChecks"`
	StrictFunctionTypes          bool `json:"strictFunctionTypes,omitempty" mapstructure:"strictFunctionTypes"`
	StrictBindCallApply          bool `json:"strictBindCallApply,omitempty" mapstructure:"strictBindCallApply"`
	StrictPropertyInitialization bool `json:"strictPropertyInitialization,omitempty" mapstructure:"strictPropertyInitialization"`
	NoUncheckedIndexedAccess     bool `json:"noUncheckedIndexedAccess,omitempty" mapstructure:"noUncheckedIndexedAccess"`
	ExactOptionalPropertyTypes   bool `json:"exactOptionalPropertyTypes,omitempty" mapstructure:"exactOptionalPropertyTypes"`
	AllowSyntheticDefaultImports bool `json:"allowSyntheticDefaultImports,omitempty" mapstructure:"allowSyntheticDefaultImports"`
	ESModuleInterop              bool `json:"esModuleInterop,omitempty" mapstructure:"esModuleInterop"`
	AllowJS                      bool `json:"allowJs,omitempty" mapstructure:"allowJs"`
	CheckJS                      bool `json:"checkJs,omitempty" mapstructure:"checkJs"`
	ResolveJSONModule            bool `json:"resolveJsonModule,omitempty" mapstructure:"resolveJsonModule"`
	SkipLibCheck                 bool `json:"skipLibCheck,omitempty" mapstructure:"skipLibCheck"`
	VerbatimModuleSyntax         bool `json:"verbatimModuleSyntax,omitempty" mapstructure:"verbatimModuleSyntax"`

	// Whole-program checking options: no effect on isolated per-file output,
	// accepted so that project configs carrying them still validate.
	NoUnusedLocals                   bool `json:"noUnusedLocals,omitempty" mapstructure:"noUnusedLocals"`
	NoUnusedParameters               bool `json:"noUnusedParameters,omitempty" mapstructure:"noUnusedParameters"`
	NoImplicitReturns                bool `json:"noImplicitReturns,omitempty" mapstructure:"noImplicitReturns"`
	NoImplicitOverride               bool `json:"noImplicitOverride,omitempty" mapstructure:"noImplicitOverride"`
	NoFallthroughCasesInSwitch       bool `json:"noFallthroughCasesInSwitch,omitempty" mapstructure:"noFallthroughCasesInSwitch"`
	ForceConsistentCasingInFileNames bool `json:"forceConsistentCasingInFileNames,omitempty" mapstructure:"forceConsistentCasingInFileNames"`
	AllowUnreachableCode             bool `json:"allowUnreachableCode,omitempty" mapstructure:"allowUnreachableCode"`
	AllowUnusedLabels                bool `json:"allowUnusedLabels,omitempty" mapstructure:"allowUnusedLabels"`

	BaseURL          string              `json:"baseUrl,omitempty" mapstructure:"baseUrl"`
	RootDir          string              `json:"rootDir,omitempty" mapstructure:"rootDir"`
	OutDir           string              `json:"outDir,omitempty" mapstructure:"outDir"`
	SourceRoot       string              `json:"sourceRoot,omitempty" mapstructure:"sourceRoot"`
	MapRoot          string              `json:"mapRoot,omitempty" mapstructure:"mapRoot"`
	Paths            map[string][]string `json:"paths,omitempty" mapstructure:"paths"`
	Lib              []string            `json:"lib,omitempty" mapstructure:"lib"`
	Types            []string            `json:"types,omitempty" mapstructure:"types"`
	TypeRoots        []string            `json:"typeRoots,omitempty" mapstructure:"typeRoots"`
	PreserveSymlinks bool                `json:"preserveSymlinks,omitempty" mapstructure:"preserveSymlinks"`

	NewLine string `json:"newLine,omitempty" mapstructure:"newLine"`
	EmitBOM bool   `json:"emitBOM,omitempty" mapstructure:"emitBOM"`

	// Raw is the normalized option mapping the typed fields were decoded
	// from. It is excluded from schema generation and comparison.
	Raw map[string]any `json:"-" mapstructure:"-"`

	_ struct{} `additionalProperties:"false"`
}

// TranspileRequest describes one isolated, single-file transpilation.
type TranspileRequest struct {
	// FileName is the identifier the bundler uses for the file. It appears
	// in diagnostics and in the emitted source map.
	FileName string

	Source string

	Options CompilerOptions

	// ReportDiagnostics asks the service to collect diagnostics instead of
	// emitting on a best-effort basis.
	ReportDiagnostics bool
}

// TranspileResult is the outcome of one transpilation. It is ephemeral and
// owned by the caller of Transpile.
type TranspileResult struct {
	Code string

	// Map is the raw JSON source-map text, or empty when the options did
	// not request a source map or the service cannot produce one.
	Map []byte

	Diagnostics []Diagnostic
}

// ProjectConfig is a parsed project configuration file with its inheritance
// chain resolved.
type ProjectConfig struct {
	// Path is the file the config was loaded from.
	Path string

	// CompilerOptions is the merged "compilerOptions" object across the
	// extends chain, nearest file winning per key.
	CompilerOptions map[string]any

	Files   []string
	Include []string
	Exclude []string
}

// Service is the boundary to a TypeScript compiler implementation. The
// plugin consumes the compiler exclusively through this interface; swapping
// the implementation swaps the compiler.
//
// Implementations must be safe for concurrent use. The plugin invokes
// Transpile and ResolveModule from whatever goroutines the host bundler
// runs its per-file hooks on.
type Service interface {
	// Transpile converts a single source file to JavaScript without
	// consulting other files. Problems with the source are returned as
	// diagnostics on the result, not as an error; the error return is
	// reserved for failures of the service itself (and for context
	// cancellation).
	Transpile(ctx context.Context, req TranspileRequest) (*TranspileResult, error)

	// ConvertOptions normalizes raw compiler options (the JSON shapes found
	// in a tsconfig "compilerOptions" object) into a typed set. Unknown
	// option names and malformed values are reported as error-severity
	// diagnostics; the error return is reserved for service failures.
	ConvertOptions(raw map[string]any) (CompilerOptions, []Diagnostic, error)

	// ParseConfig loads the project configuration file at path and resolves
	// its extends chain.
	ParseConfig(path string) (*ProjectConfig, error)

	// ResolveModule resolves an import specifier against the importing
	// file, honoring the resolution-affecting compiler options. An empty
	// path with a nil error means the specifier does not resolve.
	ResolveModule(importee, importer string, opts CompilerOptions) (string, error)

	// FormatDiagnostic renders a diagnostic as a single human-readable
	// line. Most implementations return Format(d).
	FormatDiagnostic(d Diagnostic) string
}
