// Package scalarfile stores a sequence of scalars for a downstream stage.
//
// File layout, all integers little-endian:
//
//	header  magic u32 | version u16 | codec u8 | reserved u8 | count u64
//	body    count 32-byte little-endian scalars, encoded with codec
//	footer  body length u64 | body checksum u64 | footer checksum u64
//
// The body checksum is the xxhash64 of the decoded body; the footer
// checksum covers the header and the first two footer fields.
package scalarfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

const (
	// Magic identifies a scalar file ("HDBS")
	Magic = uint32(0x48444253)
	// CurrentVersion is the layout version written by Write
	CurrentVersion = uint16(1)

	// HeaderSize is the encoded header length
	HeaderSize = 16
	// FooterSize is the encoded footer length
	FooterSize = 24
	// ScalarSize is the encoded length of one scalar
	ScalarSize = fr.Bytes

	// MaxBodySize caps the decoded body, and so the scalar count a header may claim
	MaxBodySize = uint64(1) << 32
)

var (
	// ErrInvalidMagic means the input is not a scalar file
	ErrInvalidMagic = errors.New("invalid scalar file magic")
	// ErrUnknownCodec means the codec name or header byte is not recognised
	ErrUnknownCodec = errors.New("unknown compression codec")
	// ErrChecksumMismatch means the footer or body checksum does not verify
	ErrChecksumMismatch = errors.New("scalar file checksum mismatch")
	// ErrCorruptFile means the layout is inconsistent with the header
	ErrCorruptFile = errors.New("corrupt scalar file")
)

type header struct {
	version uint16
	codec   Codec
	count   uint64
}

func (h header) encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.version)
	buf[6] = byte(h.codec)
	binary.LittleEndian.PutUint64(buf[8:16], h.count)
	return buf
}

func decodeHeader(data []byte) (header, error) {
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != Magic {
		return header{}, fmt.Errorf("%w: %x, expected %x", ErrInvalidMagic, magic, Magic)
	}
	h := header{
		version: binary.LittleEndian.Uint16(data[4:6]),
		codec:   Codec(data[6]),
		count:   binary.LittleEndian.Uint64(data[8:16]),
	}
	if h.version != CurrentVersion {
		return header{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptFile, h.version)
	}
	return h, nil
}

func encodeFooter(headerBytes []byte, bodyLen int, checksum uint64) []byte {
	buf := make([]byte, FooterSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(bodyLen))
	binary.LittleEndian.PutUint64(buf[8:16], checksum)

	d := xxhash.New()
	d.Write(headerBytes)
	d.Write(buf[:16])
	binary.LittleEndian.PutUint64(buf[16:24], d.Sum64())
	return buf
}

// Write encodes scalars to w.
func Write(w io.Writer, scalars []fr.Element, codec Codec) error {
	if uint64(len(scalars)) > MaxBodySize/ScalarSize {
		return fmt.Errorf("%d scalars exceed the %d byte body limit", len(scalars), MaxBodySize)
	}

	raw := make([]byte, len(scalars)*ScalarSize)
	for i := range scalars {
		var b [ScalarSize]byte
		fr.LittleEndian.PutElement(&b, scalars[i])
		copy(raw[i*ScalarSize:], b[:])
	}

	body, err := compress(raw, codec)
	if err != nil {
		return err
	}

	h := header{version: CurrentVersion, codec: codec, count: uint64(len(scalars))}
	headerBytes := h.encode()

	for _, part := range [][]byte{headerBytes, body, encodeFooter(headerBytes, len(body), xxhash.Sum64(raw))} {
		if _, err := w.Write(part); err != nil {
			return fmt.Errorf("failed to write scalar file: %w", err)
		}
	}
	return nil
}

// Read decodes a scalar file written by Write.
func Read(r io.Reader) ([]fr.Element, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read scalar file: %w", err)
	}
	if len(data) < HeaderSize+FooterSize {
		return nil, fmt.Errorf("%w: %d bytes is smaller than header and footer", ErrCorruptFile, len(data))
	}

	h, err := decodeHeader(data[:HeaderSize])
	if err != nil {
		return nil, err
	}

	footer := data[len(data)-FooterSize:]
	expected := encodeFooter(data[:HeaderSize], int(binary.LittleEndian.Uint64(footer[0:8])),
		binary.LittleEndian.Uint64(footer[8:16]))
	if binary.LittleEndian.Uint64(footer[16:24]) != binary.LittleEndian.Uint64(expected[16:24]) {
		return nil, fmt.Errorf("%w: footer", ErrChecksumMismatch)
	}

	body := data[HeaderSize : len(data)-FooterSize]
	if bodyLen := binary.LittleEndian.Uint64(footer[0:8]); bodyLen != uint64(len(body)) {
		return nil, fmt.Errorf("%w: body is %d bytes, footer says %d", ErrCorruptFile, len(body), bodyLen)
	}

	if h.count > MaxBodySize/ScalarSize {
		return nil, fmt.Errorf("%w: header claims %d scalars", ErrCorruptFile, h.count)
	}

	raw, err := decompress(body, h.codec, h.count*ScalarSize)
	if err != nil {
		return nil, err
	}
	if xxhash.Sum64(raw) != binary.LittleEndian.Uint64(footer[8:16]) {
		return nil, fmt.Errorf("%w: body", ErrChecksumMismatch)
	}

	scalars := make([]fr.Element, h.count)
	for i := range scalars {
		var b [ScalarSize]byte
		copy(b[:], raw[i*ScalarSize:])
		e, err := fr.LittleEndian.Element(&b)
		if err != nil {
			return nil, fmt.Errorf("%w: scalar %d: %v", ErrCorruptFile, i, err)
		}
		scalars[i] = e
	}
	return scalars, nil
}

// WriteFile writes scalars to path, replacing any existing file only once the
// new one is complete.
func WriteFile(path string, scalars []fr.Element, codec Codec) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create scalar file: %w", err)
	}

	w := bufio.NewWriter(file)
	if err := Write(w, scalars, codec); err != nil {
		file.Close()
		os.Remove(tempPath)
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to flush scalar file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close scalar file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename scalar file: %w", err)
	}
	return nil
}

// ReadFile reads a scalar file from path.
func ReadFile(path string) ([]fr.Element, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scalar file: %w", err)
	}
	defer file.Close()

	return Read(bufio.NewReader(file))
}
