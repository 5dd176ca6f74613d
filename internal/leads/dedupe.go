package leads

// DedupeSet tracks identity keys already admitted to a job so that merged
// batches never contain duplicate leads. First-seen wins.
type DedupeSet struct {
	seen map[string]struct{}
}

// NewDedupeSet returns an empty DedupeSet.
func NewDedupeSet() *DedupeSet {
	return &DedupeSet{seen: make(map[string]struct{})}
}

// Admit returns true the first time a lead's identity key is observed.
func (d *DedupeSet) Admit(l Lead) bool {
	key := l.IdentityKey()
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Merge filters a raw batch down to retainable, previously unseen leads,
// preserving discovery order.
func (d *DedupeSet) Merge(batch []Lead) []Lead {
	out := make([]Lead, 0, len(batch))
	for _, l := range batch {
		if !l.HasIdentity() {
			continue
		}
		if d.Admit(l) {
			out = append(out, l)
		}
	}
	return out
}
