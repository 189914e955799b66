//go:build linux

package security

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// disableCoreDumps clears the dumpable flag (which also closes /proc/self/mem
// to other unprivileged processes) and sets RLIMIT_CORE to zero.
func disableCoreDumps() error {
	if err := unix.Prctl(unix.PR_SET_DUMPABLE, 0, 0, 0, 0); err != nil {
		return fmt.Errorf("failed to set PR_SET_DUMPABLE: %w", err)
	}

	rlimit := unix.Rlimit{Cur: 0, Max: 0}
	if err := unix.Setrlimit(unix.RLIMIT_CORE, &rlimit); err != nil {
		return fmt.Errorf("failed to set RLIMIT_CORE: %w", err)
	}
	return nil
}

// lockMemory pins current and future pages so they are never swapped.
func lockMemory() error {
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
		return fmt.Errorf("failed to lock memory: %w", err)
	}
	return nil
}

// maskProcessName sets the kernel comm name. The kernel keeps 15 bytes.
func maskProcessName(name string) error {
	if len(name) > 15 {
		name = name[:15]
	}
	comm := make([]byte, 16)
	copy(comm, name)

	if err := unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&comm[0])), 0, 0, 0); err != nil {
		return fmt.Errorf("failed to set process name: %w", err)
	}
	return nil
}
