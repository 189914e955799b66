package terminal

import "github.com/Lin-Jiong-HDU/gsh/internal/secure"

// history is the in-memory command history. Every entry lives in one
// shared secure buffer so a long session locks a handful of pages rather
// than one region per line; ends holds each entry's end offset.
type history struct {
	buf  *secure.Buffer
	ends []int
}

func (h *history) Len() int { return len(h.ends) }

// add appends line unless it repeats the previous entry.
func (h *history) add(line string) {
	if n := len(h.ends); n > 0 && sameBytes(h.entry(n-1), line) {
		return
	}
	if h.buf == nil {
		h.buf = secure.New(256)
	}
	_ = h.buf.AppendString(line)
	h.ends = append(h.ends, h.buf.Len())
}

// entry returns a view of entry i. The view dies with the next add or purge.
func (h *history) entry(i int) []byte {
	start := 0
	if i > 0 {
		start = h.ends[i-1]
	}
	return h.buf.Bytes()[start:h.ends[i]]
}

// purge destroys every entry and returns how many there were.
func (h *history) purge() int {
	n := len(h.ends)
	h.buf.Destroy()
	h.buf = nil
	h.ends = nil
	return n
}

// sameBytes compares b and s; the conversion in a comparison does not
// allocate a copy.
func sameBytes(b []byte, s string) bool {
	return string(b) == s
}
