package scalarfile

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
)

func testScalars(n int) []fr.Element {
	scalars := make([]fr.Element, n)
	for i := range scalars {
		scalars[i].SetUint64(uint64(i*i + 7))
	}
	// One value near the top of the field
	if n > 0 {
		scalars[n-1].SetInt64(-1)
	}
	return scalars
}

func TestWriteRead(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecZstd, CodecSnappy} {
		t.Run(codec.String(), func(t *testing.T) {
			scalars := testScalars(100)

			var buf bytes.Buffer
			if err := Write(&buf, scalars, codec); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			got, err := Read(&buf)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if len(got) != len(scalars) {
				t.Fatalf("expected %d scalars, got %d", len(scalars), len(got))
			}
			for i := range scalars {
				if !got[i].Equal(&scalars[i]) {
					t.Errorf("scalar %d: got %s, want %s", i, got[i].String(), scalars[i].String())
				}
			}
		})
	}
}

func TestWriteReadEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, CodecZstd); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no scalars, got %d", len(got))
	}
}

func TestReadCorruption(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testScalars(4), CodecNone); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	good := buf.Bytes()

	testCases := []struct {
		name   string
		mutate func([]byte) []byte
		want   error
	}{
		{
			name:   "bad magic",
			mutate: func(b []byte) []byte { b[0] ^= 0xff; return b },
			want:   ErrInvalidMagic,
		},
		{
			name:   "flipped body byte",
			mutate: func(b []byte) []byte { b[HeaderSize+3] ^= 0x01; return b },
			want:   ErrChecksumMismatch,
		},
		{
			name:   "flipped count",
			mutate: func(b []byte) []byte { b[8]++; return b },
			want:   ErrChecksumMismatch,
		},
		{
			name:   "truncated",
			mutate: func(b []byte) []byte { return b[:HeaderSize+FooterSize-1] },
			want:   ErrCorruptFile,
		},
		{
			// footer checksum recomputed so only the count check can catch it
			name:   "huge count with empty body",
			mutate: func([]byte) []byte { return forge(1<<59, CodecNone, nil, nil) },
			want:   ErrCorruptFile,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := tc.mutate(append([]byte(nil), good...))
			_, err := Read(bytes.NewReader(data))
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

// forge builds a file whose header and footer checksums are valid for the
// given count, codec and body.
func forge(count uint64, codec Codec, body, raw []byte) []byte {
	h := header{version: CurrentVersion, codec: codec, count: count}
	headerBytes := h.encode()
	out := append([]byte(nil), headerBytes...)
	out = append(out, body...)
	return append(out, encodeFooter(headerBytes, len(body), xxhash.Sum64(raw))...)
}

func TestReadRejectsForgedCount(t *testing.T) {
	oneScalar := make([]byte, ScalarSize)
	zeros := make([]byte, 1<<20)

	testCases := []struct {
		name string
		data []byte
	}{
		{"count overflows size", forge(1<<59, CodecNone, nil, nil)},
		{"count above body limit", forge(MaxBodySize/ScalarSize+1, CodecNone, nil, nil)},
		{"count exceeds body", forge(2, CodecNone, oneScalar, oneScalar)},
		{"count below body", forge(0, CodecNone, oneScalar, oneScalar)},
		{"zstd frame larger than count", forge(1, CodecZstd, zstdEncode(t, zeros), zeros)},
		{"snappy body larger than count", forge(1, CodecSnappy, snappy.Encode(nil, zeros), zeros)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var (
				scalars []fr.Element
				err     error
			)
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Fatalf("Read panicked: %v", r)
					}
				}()
				scalars, err = Read(bytes.NewReader(tc.data))
			}()
			if !errors.Is(err, ErrCorruptFile) {
				t.Errorf("expected ErrCorruptFile, got %v", err)
			}
			if scalars != nil {
				t.Errorf("expected no scalars, got %d", len(scalars))
			}
		})
	}
}

func zstdEncode(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("failed to create encoder: %v", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestParseCodec(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecZstd, CodecSnappy} {
		got, err := ParseCodec(codec.String())
		if err != nil || got != codec {
			t.Errorf("ParseCodec(%q) = %v, %v", codec.String(), got, err)
		}
	}
	if _, err := ParseCodec("lz4"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("expected ErrUnknownCodec, got %v", err)
	}
}

func TestWriteFileReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "scalars.hdbs")
	scalars := testScalars(10)

	if err := WriteFile(path, scalars, CodecSnappy); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	for i := range scalars {
		if !got[i].Equal(&scalars[i]) {
			t.Errorf("scalar %d mismatch", i)
		}
	}
}
