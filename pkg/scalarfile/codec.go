package scalarfile

import (
	"fmt"
	"strings"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
)

// Codec selects how the scalar body is compressed
type Codec uint8

const (
	CodecNone Codec = iota
	CodecZstd
	CodecSnappy
)

// String returns the name accepted by ParseCodec
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecSnappy:
		return "snappy"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec maps a codec name to a Codec. The empty string means CodecNone.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CodecNone, nil
	case "zstd":
		return CodecZstd, nil
	case "snappy":
		return CodecSnappy, nil
	default:
		return CodecNone, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
	}
}

func compress(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil

	case CodecZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create ZSTD encoder: %w", err)
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil

	case CodecSnappy:
		return snappy.Encode(nil, data), nil

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownCodec, codec)
	}
}

// decompress decodes data and fails with ErrCorruptFile if the result would
// not be exactly size bytes. size bounds the decoder's allocation.
func decompress(data []byte, codec Codec, size uint64) ([]byte, error) {
	switch codec {
	case CodecNone:
		if uint64(len(data)) != size {
			return nil, fmt.Errorf("%w: body holds %d bytes, expected %d", ErrCorruptFile, len(data), size)
		}
		return data, nil

	case CodecZstd:
		limit := size
		if limit == 0 {
			limit = 1
		}
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(limit))
		if err != nil {
			return nil, fmt.Errorf("failed to create ZSTD decoder: %w", err)
		}
		defer dec.Close()
		result, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
		}
		if uint64(len(result)) != size {
			return nil, fmt.Errorf("%w: body decodes to %d bytes, expected %d", ErrCorruptFile, len(result), size)
		}
		return result, nil

	case CodecSnappy:
		n, err := snappy.DecodedLen(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
		}
		if uint64(n) != size {
			return nil, fmt.Errorf("%w: body decodes to %d bytes, expected %d", ErrCorruptFile, n, size)
		}
		result, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownCodec, codec)
	}
}
