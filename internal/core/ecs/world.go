package ecs

// World is the top-level ECS container. It owns the entity pool, the component
// registry, family subscriptions and the deferred mutation queues.
//
// Mutation policy while iterating: Destroy and RemoveComponent issued during an
// Each/Store.Each callback are queued and applied when the outermost iteration
// returns. MarkForDestruction always queues; the queue is drained by
// FlushDestroyQueue, which the frame loop calls once per frame before physics.
type World struct {
	pool     *EntityPool
	registry *Registry
	masks    []Mask
	subs     []subscription

	iterating    int
	pending      []pendingOp
	destroyQueue []EntityID
}

type subscription struct {
	family   Family
	onAdd    func(EntityID)
	onRemove func(EntityID)
}

type opKind uint8

const (
	opDestroy opKind = iota
	opRemove
)

type pendingOp struct {
	kind opKind
	id   EntityID
	tag  Tag
}

func NewWorld() *World {
	return &World{
		pool:         NewEntityPool(),
		registry:     NewRegistry(),
		masks:        make([]Mask, 0, 1024),
		destroyQueue: make([]EntityID, 0, 64),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	id := w.pool.Create()
	for int(id.Index()) >= len(w.masks) {
		w.masks = append(w.masks, 0)
	}
	w.masks[id.Index()] = 0
	return id
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// Len returns the number of live entities.
func (w *World) Len() int { return w.pool.Len() }

// Mask returns the tags currently held by id (zero for dead entities).
func (w *World) Mask(id EntityID) Mask {
	if !w.Alive(id) {
		return 0
	}
	return w.masks[id.Index()]
}

// Matches reports whether id currently belongs to family f.
func (w *World) Matches(id EntityID, f Family) bool {
	return f.Matches(w.Mask(id))
}

// Subscribe registers listeners for entities entering and leaving family f.
// onAdd fires when a component addition makes the entity match; onRemove fires
// before the component that breaks the match is dropped, and before destroy
// invalidates the handle. Either callback may be nil.
func (w *World) Subscribe(f Family, onAdd, onRemove func(EntityID)) {
	w.subs = append(w.subs, subscription{family: f, onAdd: onAdd, onRemove: onRemove})
}

// RemoveComponent detaches the component stored under tag.
func (w *World) RemoveComponent(id EntityID, tag Tag) {
	if !w.Mask(id).Has(tag) {
		return
	}
	if w.iterating > 0 {
		w.pending = append(w.pending, pendingOp{kind: opRemove, id: id, tag: tag})
		return
	}
	old := w.masks[id.Index()]
	next := old.Without(tag)
	for _, s := range w.subs {
		if s.onRemove != nil && s.family.Matches(old) && !s.family.Matches(next) {
			s.onRemove(id)
		}
	}
	if store := w.registry.Store(tag); store != nil {
		store.remove(id)
	}
	// a listener may have destroyed the entity
	if w.Alive(id) {
		w.masks[id.Index()] = w.masks[id.Index()].Without(tag)
	}
}

// Destroy removes every component of id, firing onRemove for each family it
// matched, then invalidates the handle.
func (w *World) Destroy(id EntityID) {
	if !w.Alive(id) {
		return
	}
	if w.iterating > 0 {
		w.pending = append(w.pending, pendingOp{kind: opDestroy, id: id})
		return
	}
	mask := w.masks[id.Index()]
	for _, s := range w.subs {
		if s.onRemove != nil && s.family.Matches(mask) {
			s.onRemove(id)
		}
	}
	if !w.Alive(id) {
		return
	}
	w.registry.RemoveAll(id, w.masks[id.Index()])
	w.masks[id.Index()] = 0
	w.pool.Destroy(id)
}

// MarkForDestruction queues an entity for the next FlushDestroyQueue.
func (w *World) MarkForDestruction(id EntityID) {
	w.destroyQueue = append(w.destroyQueue, id)
}

// Pending returns the number of queued destructions.
func (w *World) Pending() int { return len(w.destroyQueue) }

// FlushDestroyQueue destroys all queued entities. Stale and duplicate ids are ignored.
func (w *World) FlushDestroyQueue() {
	for len(w.destroyQueue) > 0 {
		queue := w.destroyQueue
		w.destroyQueue = make([]EntityID, 0, cap(queue))
		for _, id := range queue {
			w.Destroy(id)
		}
	}
}

// Each visits every live entity matching f until fn returns false. The visit
// order follows the smallest store among the family's tags.
func (w *World) Each(f Family, fn func(EntityID) bool) {
	driver := w.driver(f)
	if driver == nil {
		return
	}
	w.beginIteration()
	defer w.endIteration()
	ids := driver.ids()
	n := len(ids)
	for i := 0; i < n && i < len(driver.ids()); i++ {
		id := driver.ids()[i]
		if !w.Matches(id, f) || w.isPendingDestroy(id) {
			continue
		}
		if !fn(id) {
			return
		}
	}
}

// Query returns a snapshot of the entities matching f.
func (w *World) Query(f Family) []EntityID {
	var out []EntityID
	w.Each(f, func(id EntityID) bool {
		out = append(out, id)
		return true
	})
	return out
}

// Count returns the number of entities matching f.
func (w *World) Count(f Family) int {
	n := 0
	w.Each(f, func(EntityID) bool {
		n++
		return true
	})
	return n
}

func (w *World) driver(f Family) componentStore {
	var best componentStore
	for _, t := range f.Tags() {
		s := w.registry.Store(t)
		if s == nil {
			return nil
		}
		if best == nil || s.Len() < best.Len() {
			best = s
		}
	}
	return best
}

func (w *World) isPendingDestroy(id EntityID) bool {
	for _, op := range w.pending {
		if op.kind == opDestroy && op.id == id {
			return true
		}
	}
	return false
}

// attached is called by a store after a new component has been stored.
func (w *World) attached(id EntityID, tag Tag) {
	old := w.masks[id.Index()]
	next := old.With(tag)
	w.masks[id.Index()] = next
	for _, s := range w.subs {
		if s.onAdd != nil && !s.family.Matches(old) && s.family.Matches(next) {
			s.onAdd(id)
		}
	}
}

func (w *World) beginIteration() { w.iterating++ }

func (w *World) endIteration() {
	w.iterating--
	if w.iterating > 0 || len(w.pending) == 0 {
		return
	}
	ops := w.pending
	w.pending = nil
	for _, op := range ops {
		switch op.kind {
		case opDestroy:
			w.Destroy(op.id)
		case opRemove:
			w.RemoveComponent(op.id, op.tag)
		}
	}
}
