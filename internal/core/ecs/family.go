package ecs

// Tag identifies one component store in a World.
type Tag uint8

// Mask is the set of tags an entity currently holds.
type Mask uint64

func (m Mask) Has(t Tag) bool           { return m&(1<<t) != 0 }
func (m Mask) With(t Tag) Mask          { return m | 1<<t }
func (m Mask) Without(t Tag) Mask       { return m &^ (1 << t) }
func (m Mask) Contains(other Mask) bool { return m&other == other }

// Family is a conjunction of required tags.
type Family Mask

// All builds a Family requiring every listed tag.
func All(tags ...Tag) Family {
	var m Mask
	for _, t := range tags {
		m = m.With(t)
	}
	return Family(m)
}

// Matches reports whether an entity holding mask belongs to the family.
// The empty family matches nothing.
func (f Family) Matches(mask Mask) bool {
	return f != 0 && mask.Contains(Mask(f))
}

// Tags lists the tags required by the family.
func (f Family) Tags() []Tag {
	var out []Tag
	for t := 0; t < MaxTags; t++ {
		if Mask(f).Has(Tag(t)) {
			out = append(out, Tag(t))
		}
	}
	return out
}
