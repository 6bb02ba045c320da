package plugin

import (
	"github.com/tsbridge/tsbridge/internal/logging"
	"github.com/tsbridge/tsbridge/pkg/typescript"
)

// Default glob patterns for the file filter. Both forms are needed: the
// ** patterns only match paths containing a separator.
var (
	DefaultInclude = []string{"*.ts", "*.tsx", "**/*.ts", "**/*.tsx"}
	DefaultExclude = []string{"*.d.ts", "**/*.d.ts"}
)

// Options configures a Plugin. The zero value builds with discovered
// project config, default file patterns and the esbuild compiler service.
type Options struct {
	// Include and Exclude select the files the plugin transforms, as glob
	// patterns matched against slash-normalized ids. Empty keeps the
	// defaults. Exclusion wins over inclusion.
	Include []string
	Exclude []string

	// Tsconfig controls project-config loading. The zero value discovers a
	// tsconfig.json upwards from WorkDir; TsconfigPath pins a file and
	// NoTsconfig disables loading.
	Tsconfig TsconfigOption

	// CompilerOptions are caller overrides. They have the final say in the
	// option merge.
	CompilerOptions map[string]any

	// Typescript is the compiler service to use. Defaults to the esbuild
	// service.
	Typescript typescript.Service

	// Tslib replaces the bundled helper module source verbatim.
	Tslib string

	// Reporter receives diagnostics as they are encountered. Defaults to a
	// reporter that writes formatted diagnostic lines to Logger.
	Reporter Reporter

	// Logger for the default reporter and debug traces. Defaults to an
	// info-level stderr logger.
	Logger *logging.Logger

	// WorkDir anchors tsconfig discovery. Defaults to the process working
	// directory.
	WorkDir string
}

// TsconfigOption selects how the project config file is located. The zero
// value means discovery.
type TsconfigOption struct {
	path string
	off  bool
}

// TsconfigPath pins the project config to an explicit file. The build
// fails at start when the file does not exist.
func TsconfigPath(path string) TsconfigOption {
	return TsconfigOption{path: path}
}

// NoTsconfig skips project-config loading entirely.
func NoTsconfig() TsconfigOption {
	return TsconfigOption{off: true}
}
