package convert

import "tlbimp/internal/names"

// symtab maps source types to their converters. Insertion order is kept
// so the driver phases walk types deterministically.
type symtab struct {
	recs map[names.Key]*converter
	all  []*converter
}

func newSymtab() *symtab {
	return &symtab{recs: make(map[names.Key]*converter)}
}

func (s *symtab) get(k names.Key) (*converter, bool) {
	c, ok := s.recs[k]
	return c, ok
}

func (s *symtab) put(k names.Key, c *converter) {
	s.recs[k] = c
	s.all = append(s.all, c)
}

// snapshot returns the converters registered so far. Converters added
// while the caller iterates are not included.
func (s *symtab) snapshot() []*converter {
	out := make([]*converter, len(s.all))
	copy(out, s.all)
	return out
}
