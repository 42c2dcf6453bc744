// Package profile starts and stops runtime profiling through
// [github.com/pkg/profile].
//
// Profiling is compiled in only with the pprof build tag:
//
//	go build -tags pprof .
//
// Without the tag, [Modes] is empty and [Profiler.Start] returns a stopper
// that does nothing, so callers never need to check the build.
//
// With the tag, the importing binary also serves the [net/http/pprof]
// handlers on any HTTP server it runs. Profiles written to disk are named
// after their mode (cpu.pprof, mem.pprof, ...) and can be inspected with
//
//	go tool pprof -http=: <dir>/cpu.pprof
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`
