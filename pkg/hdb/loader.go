// Package hdb loads the hashes of an HDB shard directory as BLS12-381
// scalar field elements.
//
// An HDB root holds shard files of fixed 40-byte records next to an index
// directory and a couple of JSON metadata files. Only shard files contribute
// to the result; see Classify for the rules.
package hdb

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/KevoDB/hdbacc/pkg/common/log"
)

// ShardInfo describes one shard processed by LoadWithReport.
type ShardInfo struct {
	Path    string
	Size    int64
	Records int
	// Digest is the xxhash64 of the shard's raw bytes
	Digest uint64
}

// LoadReport is the result of LoadWithReport.
type LoadReport struct {
	Root    string
	Scalars []Scalar
	Shards  []ShardInfo
	// Skipped counts ignored entries per class
	Skipped map[EntryClass]int
}

// Option configures a Loader
type Option func(*Loader)

// WithLogger sets the logger used for progress notices
func WithLogger(logger log.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// Loader reads HDB roots. It holds no state between calls, so one Loader may
// be shared by callers working on distinct roots.
type Loader struct {
	logger log.Logger
}

// NewLoader creates a Loader
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = log.GetDefaultLogger().WithField("component", "hdb")
	}
	return l
}

// Load returns the scalars of every shard under root. Shards are visited in
// lexicographic path order and records in file order. On error no scalars
// are returned.
func Load(root string) ([]Scalar, error) {
	return NewLoader().Load(root)
}

// Load returns the scalars of every shard under root.
func (l *Loader) Load(root string) ([]Scalar, error) {
	report, err := l.LoadWithReport(root)
	if err != nil {
		return nil, err
	}
	return report.Scalars, nil
}

// ListShards returns the sorted shard paths directly under root.
func (l *Loader) ListShards(root string) ([]string, error) {
	paths, _, err := l.listShards(root, l.logger.WithField("path", root))
	return paths, err
}

// ListShards returns the sorted shard paths directly under root using a
// default Loader.
func ListShards(root string) ([]string, error) {
	return NewLoader().ListShards(root)
}

// LoadWithReport behaves like Load and also describes each shard it read.
func (l *Loader) LoadWithReport(root string) (*LoadReport, error) {
	logger := l.logger.WithField("path", root)
	logger.Info("Loading HDB hashes from directory")

	paths, skipped, err := l.listShards(root, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Found %d HDB shard files to process", len(paths))

	report := &LoadReport{
		Root:    root,
		Scalars: make([]Scalar, 0),
		Shards:  make([]ShardInfo, 0, len(paths)),
		Skipped: skipped,
	}

	for _, path := range paths {
		logger.Debug("Processing shard file %s", path)

		data, err := readShardFile(path)
		if err != nil {
			return nil, err
		}

		records, err := ParseRecords(path, data)
		if err != nil {
			return nil, err
		}

		for i := range records {
			report.Scalars = append(report.Scalars, HashToScalar(&records[i].Hash))
		}

		report.Shards = append(report.Shards, ShardInfo{
			Path:    path,
			Size:    int64(len(data)),
			Records: len(records),
			Digest:  xxhash.Sum64(data),
		})
	}

	logger.Info("Finished loading and converting HDB hashes, total_hashes=%d", len(report.Scalars))
	return report, nil
}

func (l *Loader) listShards(root string, logger log.Logger) ([]string, map[EntryClass]int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, &IOError{Op: OpReadDir, Path: root, Err: err}
	}

	skipped := make(map[EntryClass]int)
	var paths []string

	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())

		class := Classify(entry.Name(), entry.IsDir())
		if !class.Process() {
			logger.Debug("Skipping %s %s", class, path)
			skipped[class]++
			continue
		}

		paths = append(paths, path)
	}

	sort.Strings(paths)
	return paths, skipped, nil
}
