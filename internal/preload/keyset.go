package preload

import "github.com/RoaringBitmap/roaring"

// keySet is a set of asset keys stored as a roaring bitmap over interned
// IDs. IDs are assigned on first sight and never reused, so Keys reports
// members in first-seen order. Not safe for concurrent use.
type keySet struct {
	ids     map[string]uint32
	keys    []string
	members *roaring.Bitmap
}

func newKeySet() *keySet {
	return &keySet{
		ids:     make(map[string]uint32),
		members: roaring.New(),
	}
}

func (s *keySet) intern(key string) uint32 {
	if id, ok := s.ids[key]; ok {
		return id
	}
	id := uint32(len(s.keys))
	s.ids[key] = id
	s.keys = append(s.keys, key)
	return id
}

func (s *keySet) Add(key string) {
	s.members.Add(s.intern(key))
}

func (s *keySet) Contains(key string) bool {
	id, ok := s.ids[key]
	return ok && s.members.Contains(id)
}

func (s *keySet) Len() int {
	return int(s.members.GetCardinality())
}

func (s *keySet) Keys() []string {
	out := make([]string, 0, s.Len())
	it := s.members.Iterator()
	for it.HasNext() {
		out = append(out, s.keys[it.Next()])
	}
	return out
}

// Clear empties the set. Interned IDs are kept.
func (s *keySet) Clear() {
	s.members.Clear()
}
