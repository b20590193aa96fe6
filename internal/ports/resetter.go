package ports

// Resetter is a sibling state container that is cleared when the account
// logs out.
type Resetter interface {
	Reset()
}
