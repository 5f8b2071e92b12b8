package hdb

import (
	"bufio"
	"io"
	"os"
)

const (
	// EntrySize is the fixed on-disk size of one shard record
	EntrySize = 40
	// HashSize is the size of the hash that leads each record
	HashSize = 32
	// PayloadSize is the size of the trailing payload, which is never interpreted
	PayloadSize = EntrySize - HashSize
)

// Record is one 40-byte shard entry.
type Record struct {
	Hash    [HashSize]byte
	Payload [PayloadSize]byte
}

// ParseRecords splits data into records in file order. path is only used to
// label the error when len(data) is not a multiple of EntrySize.
func ParseRecords(path string, data []byte) ([]Record, error) {
	if len(data)%EntrySize != 0 {
		return nil, &InvalidEntrySizeError{Path: path, Size: int64(len(data))}
	}

	records := make([]Record, len(data)/EntrySize)
	for i := range records {
		chunk := data[i*EntrySize : (i+1)*EntrySize]
		copy(records[i].Hash[:], chunk[:HashSize])
		copy(records[i].Payload[:], chunk[HashSize:])
	}

	return records, nil
}

// ReadShard reads and parses a single shard file.
func ReadShard(path string) ([]Record, error) {
	data, err := readShardFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRecords(path, data)
}

// readShardFile reads a whole shard into memory. The handle is closed before
// returning on every path.
func readShardFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: OpOpenShard, Path: path, Err: err}
	}
	defer file.Close()

	data, err := io.ReadAll(bufio.NewReaderSize(file, 64*1024))
	if err != nil {
		return nil, &IOError{Op: OpReadShard, Path: path, Err: err}
	}

	return data, nil
}
