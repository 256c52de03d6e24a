package realtime

import "sync"

// deduper remembers the last capacity event IDs seen on a subscription.
type deduper struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
	cap   int
}

func newDeduper(capacity int) *deduper {
	if capacity <= 0 {
		capacity = 64
	}
	return &deduper{
		seen: make(map[string]struct{}, capacity),
		cap:  capacity,
	}
}

// Seen records id and reports whether it was already present.
func (d *deduper) Seen(id string) bool {
	if id == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	if len(d.order) > d.cap {
		delete(d.seen, d.order[0])
		d.order = d.order[1:]
	}
	return false
}
