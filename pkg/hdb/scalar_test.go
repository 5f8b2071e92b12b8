package hdb

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// expectedScalar reduces the little-endian integer in hash mod r using
// math/big only.
func expectedScalar(hash []byte) *big.Int {
	be := make([]byte, len(hash))
	for i := range hash {
		be[i] = hash[len(hash)-1-i]
	}
	n := new(big.Int).SetBytes(be)
	return n.Mod(n, fr.Modulus())
}

func TestHashToScalar(t *testing.T) {
	var allOnes [HashSize]byte
	for i := range allOnes {
		allOnes[i] = 0xff
	}

	var one [HashSize]byte
	one[0] = 1

	var highByte [HashSize]byte
	highByte[HashSize-1] = 0x80

	// r itself, little-endian, must reduce to zero
	var modulus [HashSize]byte
	mb := fr.Modulus().Bytes()
	for i := range mb {
		modulus[i] = mb[len(mb)-1-i]
	}

	testCases := []struct {
		name string
		hash [HashSize]byte
	}{
		{"zero", [HashSize]byte{}},
		{"one", one},
		{"prefix", [HashSize]byte{0x02, 0x0a}},
		{"high byte", highByte},
		{"all ones", allOnes},
		{"modulus", modulus},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := HashToScalar(&tc.hash)
			got := s.BigInt(new(big.Int))
			want := expectedScalar(tc.hash[:])
			if got.Cmp(want) != 0 {
				t.Errorf("HashToScalar(%x) = %s, want %s", tc.hash, got, want)
			}
		})
	}

	s := HashToScalar(&modulus)
	if !s.IsZero() {
		t.Errorf("expected modulus to reduce to zero, got %s", s.String())
	}
	s = HashToScalar(&one)
	if !s.IsOne() {
		t.Errorf("expected little-endian 1 to map to one, got %s", s.String())
	}
}

func TestHashToScalarDeterministic(t *testing.T) {
	hash := [HashSize]byte{0xde, 0xad, 0xbe, 0xef}
	a := HashToScalar(&hash)
	b := HashToScalar(&hash)
	if !a.Equal(&b) {
		t.Errorf("same hash produced different scalars: %s vs %s", a.String(), b.String())
	}
}
