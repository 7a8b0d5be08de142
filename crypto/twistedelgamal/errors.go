package twistedelgamal

import "errors"

// ErrInvalidKey is returned when key bytes are malformed or encode the zero
// scalar.
var ErrInvalidKey = errors.New("invalid key")

// ErrValueTooLarge is returned when an amount does not fit the configured
// chunk layout.
var ErrValueTooLarge = errors.New("value too large for chunk layout")

// ErrInvariant is returned when an internal consistency check fails, such
// as chunk recombination not matching the claimed amount. It indicates a
// bug, not malformed input.
var ErrInvariant = errors.New("invariant violation")
