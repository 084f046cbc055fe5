package model

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrMemoryNotFound indicates the record store has no row for the id
	ErrMemoryNotFound = goerr.New("memory not found")

	// ErrDuplicateID indicates an insert collided with an existing id.
	// Fatal to that single add; the caller regenerates the id and retries.
	ErrDuplicateID = goerr.New("duplicate memory id")

	// ErrPartialWrite indicates the record store row was committed but the
	// similarity index write failed. The wrapped error carries the memory
	// id as a goerr value so the index write alone can be retried.
	ErrPartialWrite = goerr.New("record stored but index write failed")

	// ErrEmbeddingUnavailable indicates the embedding backend failed before
	// any store was mutated. Safe to retry the whole operation.
	ErrEmbeddingUnavailable = goerr.New("embedding unavailable")
)

// PartialWriteID extracts the memory id attached to an ErrPartialWrite.
// Returns an empty id when the error carries none.
func PartialWriteID(err error) MemoryID {
	for k, v := range goerr.Values(err) {
		if k != "memory_id" {
			continue
		}
		if id, ok := v.(MemoryID); ok {
			return id
		}
		if s, ok := v.(string); ok {
			return MemoryID(s)
		}
	}
	return ""
}
