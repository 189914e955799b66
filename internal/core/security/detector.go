package security

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultProcRoot is where process-introspection data is read from.
const DefaultProcRoot = "/proc"

// DefaultMonitoringTools is the built-in denylist of tracing and auditing tools.
var DefaultMonitoringTools = []string{
	"strace",
	"ltrace",
	"gdb",
	"auditd",
	"sysdig",
	"bpftrace",
	"perf",
	"systemtap",
}

// Detector answers threat queries. Implementations hold no mutable state and
// never cache: every call reads fresh data.
type Detector interface {
	// TracerAttached reports whether a tracer is attached to this process.
	TracerAttached() bool
	// MonitoringTools returns the denylisted tools currently running, sorted.
	MonitoringTools() []string
	// SwapEnabled reports whether the system has swap configured.
	SwapEnabled() bool
}

// TracerPIDer is implemented by detectors that can name the tracer.
type TracerPIDer interface {
	TracerPID() int
}

// ProcDetector reads procfs. Any read or parse failure degrades to
// "nothing detected".
type ProcDetector struct {
	root  string
	self  string
	tools []string
}

// NewProcDetector creates a detector rooted at root (DefaultProcRoot when
// empty) matching the given tools (DefaultMonitoringTools when empty).
func NewProcDetector(root string, tools []string) *ProcDetector {
	if root == "" {
		root = DefaultProcRoot
	}
	if len(tools) == 0 {
		tools = DefaultMonitoringTools
	}
	return &ProcDetector{
		root:  root,
		self:  strconv.Itoa(os.Getpid()),
		tools: tools,
	}
}

// TracerAttached implements Detector.
func (d *ProcDetector) TracerAttached() bool {
	return d.TracerPID() != 0
}

// TracerPID returns the TracerPid field of <root>/self/status, or 0.
func (d *ProcDetector) TracerPID() int {
	f, err := os.Open(filepath.Join(d.root, "self", "status"))
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "TracerPid:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil || pid < 0 {
			return 0
		}
		return pid
	}
	return 0
}

// toolAliases lists programs a tool installs under other names. A match on
// an alias is reported under the tool name.
var toolAliases = map[string][]string{
	"systemtap": {"stap", "stapio", "staprun", "stapdyn"},
}

// MonitoringTools implements Detector. Each process command line is split
// into its arguments; see matchesTool for the rules.
func (d *ProcDetector) MonitoringTools() []string {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil
	}

	found := make(map[string]bool)
	for _, entry := range entries {
		name := entry.Name()
		if _, err := strconv.Atoi(name); err != nil {
			continue
		}
		if name == d.self {
			continue
		}

		cmdline, err := os.ReadFile(filepath.Join(d.root, name, "cmdline"))
		if err != nil || len(cmdline) == 0 {
			continue
		}

		args := splitCmdline(cmdline)
		for _, tool := range d.tools {
			if !found[tool] && matchesTool(args, tool) {
				found[tool] = true
			}
		}
	}

	tools := make([]string, 0, len(found))
	for t := range found {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

// splitCmdline turns a NUL-separated cmdline into its non-empty arguments.
func splitCmdline(cmdline []byte) []string {
	var args []string
	for _, arg := range bytes.Split(cmdline, []byte{0}) {
		if len(arg) > 0 {
			args = append(args, string(arg))
		}
	}
	return args
}

// matchesTool reports whether a process runs tool. Any argument whose base
// name equals the tool (or an alias) matches, which covers wrappers such as
// `sudo strace`. The program itself, argv[0], also matches on versioned or
// variant names (`perf_5.15`, `gdb-multiarch`) and when a directory in its
// path is named after the tool (`/usr/libexec/systemtap/stapio`).
func matchesTool(args []string, tool string) bool {
	names := append([]string{tool}, toolAliases[tool]...)
	for i, arg := range args {
		base := filepath.Base(arg)
		for _, n := range names {
			if base == n {
				return true
			}
			if i == 0 && (strings.HasPrefix(base, n+"-") || strings.HasPrefix(base, n+"_")) {
				return true
			}
		}
		if i == 0 {
			for _, dir := range strings.Split(filepath.Dir(arg), "/") {
				if dir == tool {
					return true
				}
			}
		}
	}
	return false
}

// SwapEnabled implements Detector by reading SwapTotal from <root>/meminfo.
func (d *ProcDetector) SwapEnabled() bool {
	f, err := os.Open(filepath.Join(d.root, "meminfo"))
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "SwapTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return false
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return false
		}
		return kb > 0
	}
	return false
}
