// Package typescript defines the boundary between the build plugin and a
// TypeScript compiler implementation.
//
// The plugin never talks to a compiler directly. Everything it needs
// (option normalization, project-config parsing, module resolution,
// isolated transpilation, diagnostic formatting) is expressed by the
// Service interface, and any implementation of that interface can back a
// build.
//
// # Implementations
//
// Two implementations ship with this module:
//
//   - the default service, backed by esbuild's transform API, fast and
//     dependency-free at runtime
//   - an embedded build of the reference TypeScript compiler, byte-faithful
//     to tsc output at the cost of speed
//
// Callers select one through the plugin options; custom implementations
// (for example, one that shells out to a project-pinned tsc) only need to
// satisfy Service.
//
// # Diagnostics
//
// Services report problems as Diagnostic values rather than errors: a file
// that fails to parse is a successful Transpile call whose result carries
// error-severity diagnostics. The error return on Service methods is
// reserved for failures of the service itself. This keeps the
// report-then-fail ordering in the hands of the plugin, which must surface
// every diagnostic before raising a terminating failure.
package typescript
