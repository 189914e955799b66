//go:build !linux

package security

import "errors"

var errUnsupported = errors.New("not supported on this platform")

func disableCoreDumps() error { return errUnsupported }

func lockMemory() error { return errUnsupported }

func maskProcessName(string) error { return errUnsupported }
