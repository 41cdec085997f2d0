package ecs

// Each2 iterates over entities that have both component A and B.
// It walks the smaller store and checks the larger one.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(EntityID, *A, *B)) {
	w := sa.world
	w.beginIteration()
	defer w.endIteration()
	if sa.Len() <= sb.Len() {
		n := len(sa.dense)
		for i := 0; i < n && i < len(sa.dense); i++ {
			id := sa.dense[i]
			if b, ok := sb.Get(id); ok {
				fn(id, sa.data[i], b)
			}
		}
		return
	}
	n := len(sb.dense)
	for i := 0; i < n && i < len(sb.dense); i++ {
		id := sb.dense[i]
		if a, ok := sa.Get(id); ok {
			fn(id, a, sb.data[i])
		}
	}
}

// Each3 iterates over entities that have components A, B, and C.
func Each3[A, B, C any](sa *Store[A], sb *Store[B], sc *Store[C], fn func(EntityID, *A, *B, *C)) {
	Each2(sa, sb, func(id EntityID, a *A, b *B) {
		if c, ok := sc.Get(id); ok {
			fn(id, a, b, c)
		}
	})
}
