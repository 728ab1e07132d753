// Package snapshot produces detached deep copies of values handed to code
// that must not be able to mutate the original.
package snapshot

import (
	"github.com/pkg/errors"
	"github.com/tiendc/go-deepcopy"
)

// Copy returns a deep copy of src. Slices, maps and pointers are copied
// recursively, so changes to the result never reach src.
func Copy[T any](src T) (T, error) {
	var dst T
	if err := deepcopy.Copy(&dst, src); err != nil {
		var zero T
		return zero, errors.Wrapf(err, "failed to deep copy type %T", src)
	}
	return dst, nil
}
