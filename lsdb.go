package ospf

// LSDB is an area's Link-State Database: the set of live LSAs, keyed by
// (ls_type, link_state_id, advertising_router) per spec.md §3. The zero
// value is ready to use.
type LSDB struct {
	entries map[Key]*LSA
}

// newLSDB returns an empty, ready-to-use LSDB.
func newLSDB() *LSDB {
	return &LSDB{entries: make(map[Key]*LSA)}
}

// Get returns the LSA stored under key, if any.
func (d *LSDB) Get(key Key) (*LSA, bool) {
	lsar, ok := d.entries[key]
	return lsar, ok
}

// Len returns the number of LSAs currently in the database.
func (d *LSDB) Len() int { return len(d.entries) }

// All returns every LSA in the database. The returned slice is a fresh
// copy; mutating it does not affect the LSDB.
func (d *LSDB) All() []*LSA {
	out := make([]*LSA, 0, len(d.entries))
	for _, lsar := range d.entries {
		out = append(out, lsar)
	}
	return out
}

// admitResult reports what Admit actually did, so AreaRouter can decide
// whether to mark itself dirty and how to log the outcome.
type admitResult uint8

const (
	admitInserted admitResult = iota
	admitReplaced
	admitStale  // not an error to the peer (spec.md §7): silently dropped
	admitPurged // a MaxAge arrival purged an existing entry
)

// admit inserts lsar, replacing any existing entry only if lsar's
// sequence number is strictly newer (spec.md §3 "Replace-on-newer-sequence
// is the only mutation besides explicit delete"). A MaxAge arrival purges
// the existing entry outright (spec.md §4.2).
func (d *LSDB) admit(lsar *LSA) admitResult {
	key := lsar.Header.Key()
	existing, ok := d.entries[key]

	if lsar.Header.IsMaxAge() {
		if ok {
			delete(d.entries, key)
			return admitPurged
		}
		return admitPurged
	}

	if !ok {
		if d.entries == nil {
			d.entries = make(map[Key]*LSA)
		}
		d.entries[key] = lsar
		return admitInserted
	}

	if !lsar.Header.NewerThan(existing.Header) {
		return admitStale
	}

	d.entries[key] = lsar
	return admitReplaced
}

// delete removes the entry at key. Deleting an absent key is a no-op
// (spec.md §4.2 "Idempotent").
func (d *LSDB) delete(key Key) bool {
	if _, ok := d.entries[key]; !ok {
		return false
	}
	delete(d.entries, key)
	return true
}
