// Package cli contains the command line interface for scribe.
//
// # Usage
//
// Templates are read from files or stdin and rendered to stdout. Render is
// the default command:
//
//	scribe hello.tmpl
//	echo 'Hi {os.user}!' | scribe
//	scribe render --format=json --section=1 report.tmpl
//
// Other commands inspect templates without rendering them:
//
//	scribe check *.tmpl
//	scribe ast json hello.tmpl
//	scribe disasm hello.tmpl
//	scribe complete --pos=-1 - <<<'{path.'
//	scribe repl
//
// # Template Variables
//
// Templates evaluate against the standard library, overlaid with variables
// from YAML files and expressions:
//
//	scribe --vars=site.yaml --set='port=site.port+1' page.tmpl
//
// Later files replace the top-level keys of earlier ones. Each --set
// expression is evaluated with the variables bound so far.
//
// # Configuration
//
// Flag defaults are read from a YAML file in the user configuration
// directory, written by the init command, or from the file named by --config.
// Keys are flag names; nested mappings are joined with hyphens:
//
//	log:
//	  level: debug
//	vars: [site.yaml]
//
// Every flag may also be set by an environment variable, such as
// SCRIBE_LOG_LEVEL. Command-line flags override both.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-output: Append log records to a file instead of stderr
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, none, ...)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o scribe .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory
package cli
