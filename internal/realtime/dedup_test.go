package realtime

import (
	"fmt"
	"testing"
)

func TestDeduperSuppressesRepeats(t *testing.T) {
	d := newDeduper(8)
	if d.Seen("a") {
		t.Fatal("first sighting must not be seen")
	}
	if !d.Seen("a") {
		t.Fatal("second sighting must be seen")
	}
	if d.Seen("b") {
		t.Fatal("distinct id must not be seen")
	}
}

func TestDeduperEvictsOldestAtCapacity(t *testing.T) {
	d := newDeduper(3)
	for i := 0; i < 4; i++ {
		d.Seen(fmt.Sprintf("ev-%d", i))
	}
	// ev-0 was evicted, so it reads as new again.
	if d.Seen("ev-0") {
		t.Fatal("evicted id should be forgotten")
	}
	if !d.Seen("ev-3") {
		t.Fatal("recent id must still be remembered")
	}
}

func TestDeduperIgnoresEmptyID(t *testing.T) {
	d := newDeduper(2)
	if d.Seen("") || d.Seen("") {
		t.Fatal("empty ids are never deduplicated")
	}
}
