package secure

import "github.com/awnumar/memguard"

// Wipe overwrites p with zeros. Use it for transient plain slices that never
// made it into a Buffer.
func Wipe(p []byte) {
	memguard.WipeBytes(p)
}
