// Package secure holds secret-bearing bytes and guarantees they are zeroed
// before the memory is released.
//
// Buffers live in memguard LockedBuffers: the pages are mlocked, fenced by
// guard pages and wiped when the buffer is destroyed. Go has no destructors,
// so every Buffer must be released through Destroy, normally with a defer at
// the point where it is created:
//
//	buf := secure.FromString(line)
//	defer buf.Destroy()
//
// Destroy unmaps the memory. Slices returned by Bytes must not be touched
// afterwards.
//
// Copying the contents out is always explicit (Reveal, WriteTo). The fmt
// verbs never print the contents.
package secure

import (
	"crypto/subtle"
	"errors"
	"io"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a destroyed Buffer is used.
var ErrDestroyed = errors.New("secure buffer destroyed")

// noCopy makes `go vet` flag Buffer values copied by assignment.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Buffer is an owned, growable byte sequence backed by a memguard
// LockedBuffer. A Buffer must not be copied after first use.
type Buffer struct {
	noCopy noCopy

	mu        sync.Mutex
	lb        *memguard.LockedBuffer
	n         int
	destroyed bool
}

// New returns an empty buffer with the given capacity.
func New(capacity int) *Buffer {
	return &Buffer{lb: memguard.NewBuffer(capacity)}
}

// FromBytes moves p into a new buffer; p is wiped.
func FromBytes(p []byte) *Buffer {
	lb := memguard.NewBufferFromBytes(p)
	return &Buffer{lb: lb, n: lb.Size()}
}

// FromString copies s into a new buffer. The string itself is immutable and
// cannot be wiped; callers should drop every reference to it.
func FromString(s string) *Buffer {
	b := New(len(s))
	b.n = copy(b.lb.Bytes(), s)
	return b
}

// Len returns the number of bytes held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}

// Bytes returns a view of the contents. The view aliases locked memory that
// is unmapped by Destroy; do not retain it.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view()
}

// view is the live prefix of the locked memory. Caller holds mu.
func (b *Buffer) view() []byte {
	if b.destroyed {
		return nil
	}
	return b.lb.Bytes()[:b.n]
}

// Append adds p to the end of the buffer. When the locked region has to
// grow, the old region is destroyed after the copy.
func (b *Buffer) Append(p []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return ErrDestroyed
	}
	b.grow(len(p))
	b.n += copy(b.lb.Bytes()[b.n:], p)
	return nil
}

// AppendString adds s to the end of the buffer.
func (b *Buffer) AppendString(s string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return ErrDestroyed
	}
	b.grow(len(s))
	b.n += copy(b.lb.Bytes()[b.n:], s)
	return nil
}

// grow makes room for k more bytes. Caller holds mu.
func (b *Buffer) grow(k int) {
	size := b.lb.Size()
	if b.n+k <= size {
		return
	}
	newCap := 2 * size
	if newCap < b.n+k {
		newCap = b.n + k
	}
	next := memguard.NewBuffer(newCap)
	next.Copy(b.lb.Bytes()[:b.n])
	b.lb.Destroy()
	b.lb = next
}

// Reveal copies the contents into a Go string. The copy cannot be wiped, so
// every call site is an explicit decision to let the value escape.
func (b *Buffer) Reveal() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.view())
}

// Equal reports whether the buffer holds exactly p, in constant time.
func (b *Buffer) Equal(p []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return subtle.ConstantTimeCompare(b.view(), p) == 1
}

// WriteTo writes the contents to w without creating an intermediate copy.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return 0, ErrDestroyed
	}
	n, err := w.Write(b.view())
	return int64(n), err
}

// String implements fmt.Stringer without exposing the contents.
func (b *Buffer) String() string {
	return "[redacted]"
}

// GoString keeps %#v from dumping the contents.
func (b *Buffer) GoString() string {
	return "secure.Buffer{[redacted]}"
}

// Destroy wipes and unmaps the locked memory. It is safe to call more than
// once and on a nil Buffer.
func (b *Buffer) Destroy() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}
	b.lb.Destroy()
	b.n = 0
	b.destroyed = true
}
