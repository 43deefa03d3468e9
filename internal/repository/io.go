package repository

// EntityIO binds a concrete entity type to its on-disk encoding and its
// state-directory layout. Task, QA, and Session each
// get their own implementation; BaseRepository is generic over it.
type EntityIO[E any] interface {
	Encode(e E) ([]byte, error)
	Decode(data []byte) (E, error)

	// PathFor returns the absolute file path an entity with id would occupy
	// while in state.
	PathFor(state, id string) string

	// ListIDs returns the entity ids present in state's directory, in
	// lexicographic order. A missing directory is not an error — it yields
	// an empty list.
	ListIDs(state string) ([]string, error)
}
