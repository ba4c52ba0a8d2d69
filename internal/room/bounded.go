package room

// pushBounded appends v and drops entries from the front until at most
// limit remain.
func pushBounded[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if over := len(s) - limit; over > 0 {
		s = append(s[:0:0], s[over:]...)
	}
	return s
}

// popBack removes and returns the newest entry.
func popBack[T any](s []T) ([]T, T) {
	last := s[len(s)-1]
	return s[:len(s)-1], last
}

// pushFront inserts v ahead of every existing entry.
func pushFront[T any](s []T, v T) []T {
	return append([]T{v}, s...)
}

// popFront removes and returns the oldest entry.
func popFront[T any](s []T) ([]T, T) {
	first := s[0]
	return s[1:], first
}
