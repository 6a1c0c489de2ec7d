package engine

// Deduplicator suppresses re-delivery of record identifiers within a run.
// In-memory is enough here: cross-restart safety comes from cursor
// resumption, not identifier replay, so a 150k-message channel never needs
// 150k identifiers held across restarts.
type Deduplicator struct {
	seen map[string]struct{}
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Seen reports whether id was already marked.
func (d *Deduplicator) Seen(id string) bool {
	_, ok := d.seen[id]
	return ok
}

// Mark records id as delivered.
func (d *Deduplicator) Mark(id string) {
	d.seen[id] = struct{}{}
}

// Len is the number of distinct identifiers marked so far.
func (d *Deduplicator) Len() int { return len(d.seen) }
