package hdb

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// Scalar is an element of the BLS12-381 scalar field.
type Scalar = fr.Element

// HashToScalar interprets hash as a little-endian unsigned integer and
// reduces it modulo the scalar field order.
func HashToScalar(hash *[HashSize]byte) Scalar {
	// SetBytes expects big-endian input and reduces values >= r.
	var be [HashSize]byte
	for i := 0; i < HashSize; i++ {
		be[i] = hash[HashSize-1-i]
	}

	var s Scalar
	s.SetBytes(be[:])
	return s
}
