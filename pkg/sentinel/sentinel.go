// Package sentinel holds sentinel errors for infrastructure facts.
//
// Stores return these (optionally wrapped) so services can translate
// them into domain errors. They represent factual resource states, not
// validation failures: use pkg/domain-errors for bad input.
package sentinel

import "errors"

var (
	// ErrNotFound: the entity does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate: a uniqueness constraint rejected the write.
	ErrDuplicate = errors.New("duplicate")
)
