package security

// Posture records which process hardening measures are in effect.
type Posture struct {
	MemoryLocked      bool
	CoreDumpsDisabled bool
	ProcessMasked     bool
}

// HardeningOptions selects the measures Harden applies.
type HardeningOptions struct {
	LockMemory       bool
	DisableCoreDumps bool
	ProcessName      string // empty skips masking
}

// Harden applies the selected measures and returns the resulting posture.
// Failures do not abort: each one is returned so the caller can warn about
// it, and the posture reflects only the measures that succeeded.
func Harden(opts HardeningOptions) (Posture, []error) {
	var (
		p    Posture
		errs []error
	)

	if opts.DisableCoreDumps {
		if err := disableCoreDumps(); err != nil {
			errs = append(errs, err)
		} else {
			p.CoreDumpsDisabled = true
		}
	}

	if opts.LockMemory {
		if err := lockMemory(); err != nil {
			errs = append(errs, err)
		} else {
			p.MemoryLocked = true
		}
	}

	if opts.ProcessName != "" {
		if err := maskProcessName(opts.ProcessName); err != nil {
			errs = append(errs, err)
		} else {
			p.ProcessMasked = true
		}
	}

	return p, errs
}
