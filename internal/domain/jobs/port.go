package jobs

import "context"

// MutateFunc menerima isi queue, mengembalikan isi baru plus flag changed.
// Returning changed=false skips the save entirely.
type MutateFunc func(entries []Entry) ([]Entry, bool, error)

// Queue port (interface untuk queue document persistence)
type Queue interface {
	// Load reads the whole document under the advisory lock. A missing or
	// corrupt document reads as an empty queue.
	Load(ctx context.Context) ([]Entry, error)
	// Mutate runs fn inside one lock-guarded load→mutate→save cycle. No
	// analysis work may happen inside fn.
	Mutate(ctx context.Context, fn MutateFunc) error
}

// FindByHash returns the first entry with the given content hash.
func FindByHash(entries []Entry, hash string) (int, bool) {
	for i := range entries {
		if entries[i].ContentHash == hash {
			return i, true
		}
	}
	return -1, false
}

// FindByID matches an entry by job id, or by full content hash since
// the id is derived from it.
func FindByID(entries []Entry, id string) (int, bool) {
	for i := range entries {
		if string(entries[i].JobID) == id || entries[i].ContentHash == id {
			return i, true
		}
	}
	return -1, false
}

// CountByStatus tallies the queue document per status.
func CountByStatus(entries []Entry) map[Status]int {
	out := make(map[Status]int, 5)
	for i := range entries {
		out[entries[i].Status]++
	}
	return out
}
