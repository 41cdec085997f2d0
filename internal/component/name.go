package component

// Name is the display name shown by the entities listing.
type Name struct {
	Value string
}
