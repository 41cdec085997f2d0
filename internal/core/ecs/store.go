package ecs

// Store is a dense, sparse-set backed component table for a single Tag.
// Components live in a packed slice indexed through the entity index, so lookups
// never hash and iteration walks contiguous memory. No reflect, no interface{}.
type Store[T any] struct {
	world  *World
	tag    Tag
	name   string
	sparse []int32 // entity index -> dense slot+1 (0 = absent)
	dense  []EntityID
	data   []*T

	onReplace func(id EntityID, old, c *T)
}

// NewStore creates a component table and registers it with the world under a new Tag.
func NewStore[T any](w *World, name string) *Store[T] {
	s := &Store[T]{
		world: w,
		name:  name,
		dense: make([]EntityID, 0, 64),
		data:  make([]*T, 0, 64),
	}
	s.tag = w.registry.Register(s)
	return s
}

func (s *Store[T]) Tag() Tag       { return s.tag }
func (s *Store[T]) Name() string   { return s.name }
func (s *Store[T]) Len() int       { return len(s.dense) }
func (s *Store[T]) Family() Family { return All(s.tag) }

// OnReplace registers fn to run when Set overwrites an existing component
// with a different value. Family listeners do not fire on a replace.
func (s *Store[T]) OnReplace(fn func(id EntityID, old, c *T)) { s.onReplace = fn }

// Set attaches c to id. If the entity already holds a component under this tag the
// value is replaced in place and only the OnReplace hook runs.
func (s *Store[T]) Set(id EntityID, c *T) {
	if !s.world.Alive(id) {
		return
	}
	if slot, ok := s.slot(id); ok {
		old := s.data[slot]
		s.data[slot] = c
		if s.onReplace != nil && old != c {
			s.onReplace(id, old, c)
		}
		return
	}
	idx := id.Index()
	for int(idx) >= len(s.sparse) {
		s.sparse = append(s.sparse, 0)
	}
	s.dense = append(s.dense, id)
	s.data = append(s.data, c)
	s.sparse[idx] = int32(len(s.dense))
	s.world.attached(id, s.tag)
}

func (s *Store[T]) Get(id EntityID) (*T, bool) {
	slot, ok := s.slot(id)
	if !ok {
		return nil, false
	}
	return s.data[slot], true
}

func (s *Store[T]) Has(id EntityID) bool {
	_, ok := s.slot(id)
	return ok
}

// Remove detaches the component through the world so subscribed families are notified.
func (s *Store[T]) Remove(id EntityID) {
	s.world.RemoveComponent(id, s.tag)
}

// Each visits every (entity, component) pair. Structural removals issued from fn are
// deferred until the iteration returns.
func (s *Store[T]) Each(fn func(EntityID, *T)) {
	s.world.beginIteration()
	defer s.world.endIteration()
	n := len(s.dense)
	for i := 0; i < n && i < len(s.dense); i++ {
		fn(s.dense[i], s.data[i])
	}
}

func (s *Store[T]) slot(id EntityID) (int, bool) {
	idx := id.Index()
	if int(idx) >= len(s.sparse) {
		return 0, false
	}
	slot := int(s.sparse[idx]) - 1
	if slot < 0 || s.dense[slot] != id {
		return 0, false
	}
	return slot, true
}

func (s *Store[T]) ids() []EntityID { return s.dense }

// remove swaps the last dense entry into the freed slot.
func (s *Store[T]) remove(id EntityID) bool {
	slot, ok := s.slot(id)
	if !ok {
		return false
	}
	last := len(s.dense) - 1
	if slot != last {
		moved := s.dense[last]
		s.dense[slot] = moved
		s.data[slot] = s.data[last]
		s.sparse[moved.Index()] = int32(slot + 1)
	}
	s.data[last] = nil
	s.dense = s.dense[:last]
	s.data = s.data[:last]
	s.sparse[id.Index()] = 0
	return true
}
