package extract

import "github.com/gaurav-prasanna/motopipe/core"

// dedupe keeps the first record seen per identity key, in arrival order.
type dedupe struct {
	items []core.Record
	seen  map[core.IdentityKey]bool
}

func newDedupe() *dedupe {
	return &dedupe{
		seen: make(map[core.IdentityKey]bool),
	}
}

// Add keeps r unless a record with the same identity was added before.
// It reports whether r was kept.
func (d *dedupe) Add(r core.Record) bool {
	key := r.Key()
	if d.seen[key] {
		return false
	}
	d.seen[key] = true
	d.items = append(d.items, r)
	return true
}

// All returns the kept records in arrival order.
func (d *dedupe) All() []core.Record {
	return d.items
}
