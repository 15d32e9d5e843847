package sync

// State tracks the cache lifecycle of one entity.
//
// Entities move EMPTY → LOADING → FRESH → STALE → LOADING → FRESH. ERROR is
// reached from LOADING only when no cached value of any kind exists.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateFresh
	StateStale
	StateError
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
