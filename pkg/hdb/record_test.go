package hdb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRecords(t *testing.T) {
	data := make([]byte, 2*EntrySize)
	data[0] = 0xaa
	data[HashSize] = 0x01
	data[EntrySize] = 0xbb
	data[2*EntrySize-1] = 0x02

	records, err := ParseRecords("shard", data)
	if err != nil {
		t.Fatalf("ParseRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Hash[0] != 0xaa || records[0].Payload[0] != 0x01 {
		t.Errorf("record 0 parsed wrong: %+v", records[0])
	}
	if records[1].Hash[0] != 0xbb || records[1].Payload[PayloadSize-1] != 0x02 {
		t.Errorf("record 1 parsed wrong: %+v", records[1])
	}
}

func TestParseRecordsEmpty(t *testing.T) {
	records, err := ParseRecords("shard", nil)
	if err != nil {
		t.Fatalf("ParseRecords failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestParseRecordsInvalidSize(t *testing.T) {
	for _, size := range []int{1, EntrySize - 1, EntrySize + 1, 2*EntrySize + 39} {
		_, err := ParseRecords("shard", make([]byte, size))
		var sizeErr *InvalidEntrySizeError
		if !errors.As(err, &sizeErr) {
			t.Fatalf("size %d: expected InvalidEntrySizeError, got %v", size, err)
		}
		if sizeErr.Path != "shard" || sizeErr.Size != int64(size) {
			t.Errorf("size %d: error carries %q/%d", size, sizeErr.Path, sizeErr.Size)
		}
	}
}

func TestReadShard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "00")
	data := make([]byte, 3*EntrySize)
	for i := 0; i < 3; i++ {
		data[i*EntrySize+1] = byte(i)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write shard: %v", err)
	}

	records, err := ReadShard(path)
	if err != nil {
		t.Fatalf("ReadShard failed: %v", err)
	}
	for i, r := range records {
		if r.Hash[1] != byte(i) {
			t.Errorf("record %d out of order: %x", i, r.Hash[:2])
		}
	}
}

func TestReadShardMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing")
	_, err := ReadShard(path)
	if ErrorKind(err) != KindIO {
		t.Fatalf("expected io error, got %v", err)
	}
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != OpOpenShard || ioErr.Path != path {
		t.Errorf("unexpected error details: %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped ErrNotExist, got %v", err)
	}
}
