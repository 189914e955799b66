package security

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"testing"
)

// fakeProc builds a minimal procfs tree under a temp dir.
type fakeProc struct {
	t    *testing.T
	root string
}

func newFakeProc(t *testing.T) *fakeProc {
	return &fakeProc{t: t, root: t.TempDir()}
}

func (p *fakeProc) write(rel, content string) {
	path := filepath.Join(p.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		p.t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		p.t.Fatalf("Failed to write %s: %v", rel, err)
	}
}

func (p *fakeProc) process(pid int, argv ...string) {
	cmdline := ""
	for _, a := range argv {
		cmdline += a + "\x00"
	}
	p.write(filepath.Join(strconv.Itoa(pid), "cmdline"), cmdline)
}

func TestProcDetector_TracerPID(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		wantPID  int
		attached bool
	}{
		{
			name:     "no tracer",
			status:   "Name:\tgsh\nState:\tS (sleeping)\nTracerPid:\t0\nUid:\t1000\n",
			wantPID:  0,
			attached: false,
		},
		{
			name:     "tracer attached",
			status:   "Name:\tgsh\nTracerPid:\t4242\n",
			wantPID:  4242,
			attached: true,
		},
		{
			name:     "malformed value fails open",
			status:   "TracerPid:\tgarbage\n",
			wantPID:  0,
			attached: false,
		},
		{
			name:     "missing field fails open",
			status:   "Name:\tgsh\n",
			wantPID:  0,
			attached: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := newFakeProc(t)
			proc.write("self/status", tt.status)
			d := NewProcDetector(proc.root, nil)

			if got := d.TracerPID(); got != tt.wantPID {
				t.Errorf("TracerPID() = %d, want %d", got, tt.wantPID)
			}
			if got := d.TracerAttached(); got != tt.attached {
				t.Errorf("TracerAttached() = %v, want %v", got, tt.attached)
			}
		})
	}
}

func TestProcDetector_MissingSourceFailsOpen(t *testing.T) {
	d := NewProcDetector(filepath.Join(t.TempDir(), "does-not-exist"), nil)

	if d.TracerAttached() {
		t.Error("Expected no tracer when procfs is missing")
	}
	if tools := d.MonitoringTools(); len(tools) != 0 {
		t.Errorf("Expected no tools when procfs is missing, got %v", tools)
	}
	if d.SwapEnabled() {
		t.Error("Expected swap disabled when procfs is missing")
	}
}

func TestProcDetector_MonitoringTools(t *testing.T) {
	proc := newFakeProc(t)
	proc.process(4100000, "/usr/bin/strace", "-p", "1")
	proc.process(4100001, "gdb", "--pid", "1")
	proc.process(4100002, "/usr/bin/strace", "-f", "ls")
	proc.process(4100003, "/usr/lib/gdbus-daemon")
	proc.process(4100004, "vim", "perf-notes.txt")
	proc.write("4100005/cmdline", "")
	proc.write("self/status", "TracerPid:\t0\n")
	proc.write("notapid/cmdline", "strace\x00")

	d := NewProcDetector(proc.root, nil)
	got := d.MonitoringTools()
	want := []string{"gdb", "strace"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("MonitoringTools() = %v, want %v", got, want)
	}
}

func TestProcDetector_MonitoringToolsVariants(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want []string
	}{
		{"systemtap helper in libexec", []string{"/usr/libexec/systemtap/stapio", "-R", "x"}, []string{"systemtap"}},
		{"systemtap driver", []string{"/usr/bin/stap", "-e", "probe begin { exit() }"}, []string{"systemtap"}},
		{"versioned perf", []string{"/usr/bin/perf_5.15", "record"}, []string{"perf"}},
		{"gdb variant", []string{"/usr/bin/gdb-multiarch", "-p", "1"}, []string{"gdb"}},
		{"wrapped by sudo", []string{"sudo", "strace", "-p", "1"}, []string{"strace"}},
		{"wrapped by absolute path", []string{"/usr/bin/sudo", "/usr/bin/ltrace", "ls"}, []string{"ltrace"}},
		{"tool name inside an argument", []string{"grep", "-r", "stracer", "."}, []string{}},
		{"variant name as an argument", []string{"less", "gdb-notes.txt"}, []string{}},
		{"unrelated path", []string{"/usr/lib/gdbus-daemon"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := newFakeProc(t)
			proc.process(4300000, tt.argv...)

			d := NewProcDetector(proc.root, nil)
			got := d.MonitoringTools()

			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MonitoringTools() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProcDetector_CustomDenylist(t *testing.T) {
	proc := newFakeProc(t)
	proc.process(4200000, "/opt/bin/frida")
	proc.process(4200001, "/usr/bin/strace")

	d := NewProcDetector(proc.root, []string{"frida"})
	got := d.MonitoringTools()

	if !reflect.DeepEqual(got, []string{"frida"}) {
		t.Errorf("MonitoringTools() = %v, want [frida]", got)
	}
}

func TestProcDetector_SkipsOwnProcess(t *testing.T) {
	proc := newFakeProc(t)
	proc.process(os.Getpid(), "/usr/bin/gdb")

	d := NewProcDetector(proc.root, nil)
	if tools := d.MonitoringTools(); len(tools) != 0 {
		t.Errorf("Expected own process to be skipped, got %v", tools)
	}
}

func TestProcDetector_SwapEnabled(t *testing.T) {
	tests := []struct {
		name    string
		meminfo string
		want    bool
	}{
		{"swap configured", "MemTotal:  16000000 kB\nSwapTotal:  2097148 kB\n", true},
		{"no swap", "MemTotal:  16000000 kB\nSwapTotal:        0 kB\n", false},
		{"malformed", "SwapTotal: lots kB\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := newFakeProc(t)
			proc.write("meminfo", tt.meminfo)
			d := NewProcDetector(proc.root, nil)

			if got := d.SwapEnabled(); got != tt.want {
				t.Errorf("SwapEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
