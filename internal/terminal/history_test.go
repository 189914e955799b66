package terminal

import "testing"

func TestHistory_AddAndEntries(t *testing.T) {
	var h history
	defer h.purge()

	lines := []string{"ls", "ls", "::cp a b c", "", "ls", strings300()}
	for _, l := range lines {
		h.add(l)
	}

	want := []string{"ls", "::cp a b c", "", "ls", strings300()}
	if h.Len() != len(want) {
		t.Fatalf("Expected %d entries, got %d", len(want), h.Len())
	}
	for i, w := range want {
		if got := string(h.entry(i)); got != w {
			t.Errorf("entry(%d) = %q, want %q", i, got, w)
		}
	}
}

func TestHistory_Purge(t *testing.T) {
	var h history

	if n := h.purge(); n != 0 {
		t.Errorf("Expected empty purge to report 0, got %d", n)
	}

	h.add("one")
	h.add("two")
	if n := h.purge(); n != 2 {
		t.Errorf("Expected 2 purged, got %d", n)
	}
	if h.Len() != 0 || h.buf != nil {
		t.Error("Expected history emptied")
	}

	h.add("again")
	defer h.purge()
	if h.Len() != 1 || string(h.entry(0)) != "again" {
		t.Error("Expected history usable after purge")
	}
}

// strings300 is long enough to force the shared buffer to grow.
func strings300() string {
	b := make([]byte, 300)
	for i := range b {
		b[i] = 'a' + byte(i%26)
	}
	return string(b)
}
