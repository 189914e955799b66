// Package security answers threat queries for the shell and hardens the
// process at startup.
//
// The detector probes are pure queries over process-introspection data:
//
//   - Tracer detection (TracerPid in /proc/self/status)
//   - Monitoring tool scan (argv[0] of every /proc/<pid>/cmdline)
//   - Swap detection (SwapTotal in /proc/meminfo, warning only)
//
// Missing or malformed procfs data always degrades to "not detected". Only
// the session state machine decides whether a detection terminates the
// process.
package security
