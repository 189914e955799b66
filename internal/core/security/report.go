package security

import (
	"fmt"
	"strings"
)

// ThreatReport is a point-in-time snapshot of the detector probes. It is
// never stored; take a new one for every query.
type ThreatReport struct {
	TracerAttached  bool
	TracerPID       int
	MonitoringTools []string
	SwapEnabled     bool
}

// Snapshot queries every probe of d once.
func Snapshot(d Detector) ThreatReport {
	r := ThreatReport{
		TracerAttached:  d.TracerAttached(),
		MonitoringTools: d.MonitoringTools(),
		SwapEnabled:     d.SwapEnabled(),
	}
	if p, ok := d.(TracerPIDer); ok && r.TracerAttached {
		r.TracerPID = p.TracerPID()
	}
	return r
}

// MonitoringDetected reports whether any threat was observed.
func (r ThreatReport) MonitoringDetected() bool {
	return r.TracerAttached || len(r.MonitoringTools) > 0
}

// Threats lists the observed threats as display lines.
func (r ThreatReport) Threats() []string {
	var threats []string
	if r.TracerAttached {
		if r.TracerPID > 0 {
			threats = append(threats, fmt.Sprintf("ptrace detected (PID: %d)", r.TracerPID))
		} else {
			threats = append(threats, "ptrace detected")
		}
	}
	for _, tool := range r.MonitoringTools {
		threats = append(threats, "Monitoring tool detected: "+tool)
	}
	return threats
}

// Status combines the process hardening posture with a threat snapshot.
type Status struct {
	Posture Posture
	Report  ThreatReport
}

// String renders the status block shown by ::security-status.
func (s Status) String() string {
	var b strings.Builder
	b.WriteString("=== GHOST SHELL SECURITY STATUS ===\n")

	fmt.Fprintf(&b, "Memory Locked:       %s\n", yesNo(s.Posture.MemoryLocked, "✓ YES", "✗ NO"))
	fmt.Fprintf(&b, "Swap Disabled:       %s\n",
		yesNo(!s.Report.SwapEnabled, "✓ YES", "⚠ NO (RISK: Memory may be swapped to disk)"))
	fmt.Fprintf(&b, "Core Dumps Blocked:  %s\n", yesNo(s.Posture.CoreDumpsDisabled, "✓ YES", "✗ NO"))
	fmt.Fprintf(&b, "Monitoring Detected: %s\n",
		yesNo(s.Report.MonitoringDetected(), "⚠ YES (Potential surveillance)", "✓ NO"))

	if threats := s.Report.Threats(); len(threats) > 0 {
		b.WriteString("\n⚠ THREATS DETECTED:\n")
		for _, t := range threats {
			fmt.Fprintf(&b, "  - %s\n", t)
		}
	}
	return b.String()
}

func yesNo(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}
