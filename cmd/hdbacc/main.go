package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/KevoDB/hdbacc/pkg/common/log"
	"github.com/KevoDB/hdbacc/pkg/config"
	"github.com/KevoDB/hdbacc/pkg/hdb"
	"github.com/KevoDB/hdbacc/pkg/scalarfile"
)

func main() {
	cfg, interactive, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(2)
	}

	if interactive {
		runInteractive(cfg)
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(2)
	}

	if err := runLoad(cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// parseFlags builds the configuration from an optional config file and the
// command line. Flags win over file values.
func parseFlags(args []string) (*config.Config, bool, error) {
	fs := flag.NewFlagSet("hdbacc", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "hdbacc - load HDB shard hashes as BLS12-381 scalars\n\n")
		fmt.Fprintf(fs.Output(), "Usage: hdbacc [options] [hdb_root]\n\n")
		fmt.Fprintf(fs.Output(), "Options:\n")
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "Path to a JSON config file")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error, off")
	outPath := fs.String("out", "", "Write the loaded scalars to this file")
	codec := fs.String("codec", "", "Compression for -out: none, zstd, snappy")
	interactive := fs.Bool("i", false, "Start the interactive inspector")

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			return nil, false, err
		}
		cfg = loaded
	} else {
		cfg = config.NewDefaultConfig("")
	}

	cfg.Update(func(c *config.Config) {
		if fs.NArg() > 0 {
			c.RootDir = fs.Arg(0)
		}
		if *logLevel != "" {
			c.LogLevel = *logLevel
		}
		if *outPath != "" {
			c.ExportPath = *outPath
		}
		if *codec != "" {
			c.ExportCodec = *codec
		}
	})

	log.SetLevel(cfg.Level())
	return cfg, *interactive, nil
}

// runLoad loads the configured root, prints a summary, and exports the
// scalars when an export path is set.
func runLoad(cfg *config.Config, out io.Writer) error {
	loader := hdb.NewLoader()

	report, err := loader.LoadWithReport(cfg.RootDir)
	if err != nil {
		switch hdb.ErrorKind(err) {
		case hdb.KindInvalidEntrySize:
			return fmt.Errorf("malformed shard: %w", err)
		case hdb.KindIO:
			return fmt.Errorf("cannot read HDB: %w", err)
		default:
			return err
		}
	}

	printReport(out, report)

	if cfg.ExportPath != "" {
		if err := scalarfile.WriteFile(cfg.ExportPath, report.Scalars, cfg.Codec()); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Fprintf(out, "Wrote %d scalars to %s (%s)\n", len(report.Scalars), cfg.ExportPath, cfg.Codec())
	}

	return nil
}

func printReport(out io.Writer, report *hdb.LoadReport) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SHARD\tBYTES\tRECORDS\tXXH64")
	for _, s := range report.Shards {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%016x\n", filepath.Base(s.Path), s.Size, s.Records, s.Digest)
	}
	tw.Flush()

	skipped := 0
	for _, n := range report.Skipped {
		skipped += n
	}
	fmt.Fprintf(out, "%d shards, %d scalars, %d entries skipped\n",
		len(report.Shards), len(report.Scalars), skipped)
}

var errNoRoot = errors.New("no HDB root open")
