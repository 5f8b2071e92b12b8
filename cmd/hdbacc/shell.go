package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/KevoDB/hdbacc/pkg/config"
	"github.com/KevoDB/hdbacc/pkg/hdb"
	"github.com/KevoDB/hdbacc/pkg/scalarfile"
)

// Command completer for readline
var completer = readline.NewPrefixCompleter(
	readline.PcItem(".help"),
	readline.PcItem(".open"),
	readline.PcItem(".shards"),
	readline.PcItem(".load"),
	readline.PcItem(".get"),
	readline.PcItem(".records"),
	readline.PcItem(".export",
		readline.PcItem("none"),
		readline.PcItem("zstd"),
		readline.PcItem("snappy"),
	),
	readline.PcItem(".exit"),
)

const helpText = `
hdbacc inspector

Commands:
  .help                   - Show this help message
  .open PATH              - Use the HDB root at PATH
  .shards                 - List shard files in load order
  .load                   - Load every shard and convert hashes to scalars
  .get N                  - Show scalar N of the last load
  .records SHARD [N]      - Show the first N records (default 10) of a shard
  .export PATH [CODEC]    - Write the last load to PATH (none, zstd, snappy)
  .exit                   - Exit the program
`

const defaultRecordLimit = 10

// session is the state of one inspector run
type session struct {
	root   string
	codec  scalarfile.Codec
	loader *hdb.Loader
	report *hdb.LoadReport
}

func newSession(cfg *config.Config) *session {
	return &session{
		root:   cfg.RootDir,
		codec:  cfg.Codec(),
		loader: hdb.NewLoader(),
	}
}

func (s *session) prompt() string {
	if s.root == "" {
		return "hdbacc> "
	}
	if s.report != nil {
		return fmt.Sprintf("hdbacc:%s[%d]> ", s.root, len(s.report.Scalars))
	}
	return fmt.Sprintf("hdbacc:%s> ", s.root)
}

// execute runs one command line and reports whether the session should end.
func (s *session) execute(line string, out io.Writer) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	var err error
	switch cmd := strings.ToLower(parts[0]); cmd {
	case ".help":
		fmt.Fprint(out, helpText)

	case ".exit":
		fmt.Fprintln(out, "Goodbye!")
		return true

	case ".open":
		if len(parts) < 2 {
			err = fmt.Errorf("missing path argument")
			break
		}
		s.root = parts[1]
		s.report = nil
		fmt.Fprintf(out, "Using HDB root %s\n", s.root)

	case ".shards":
		err = s.shards(out)

	case ".load":
		err = s.load(out)

	case ".get":
		err = s.get(parts[1:], out)

	case ".records":
		err = s.records(parts[1:], out)

	case ".export":
		err = s.export(parts[1:], out)

	default:
		err = fmt.Errorf("unknown command %q, enter .help for usage", parts[0])
	}

	if err != nil {
		fmt.Fprintf(out, "Error: %s\n", err)
	}
	return false
}

func (s *session) shards(out io.Writer) error {
	if s.root == "" {
		return errNoRoot
	}
	paths, err := s.loader.ListShards(s.root)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(out, filepath.Base(p))
	}
	fmt.Fprintf(out, "%d shards\n", len(paths))
	return nil
}

func (s *session) load(out io.Writer) error {
	if s.root == "" {
		return errNoRoot
	}
	report, err := s.loader.LoadWithReport(s.root)
	if err != nil {
		return err
	}
	s.report = report
	printReport(out, report)
	return nil
}

func (s *session) get(args []string, out io.Writer) error {
	if s.report == nil {
		return fmt.Errorf("nothing loaded, run .load first")
	}
	if len(args) < 1 {
		return fmt.Errorf("missing index argument")
	}
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 0 || i >= len(s.report.Scalars) {
		return fmt.Errorf("index must be in [0, %d)", len(s.report.Scalars))
	}
	fmt.Fprintln(out, s.report.Scalars[i].String())
	return nil
}

func (s *session) records(args []string, out io.Writer) error {
	if s.root == "" {
		return errNoRoot
	}
	if len(args) < 1 {
		return fmt.Errorf("missing shard argument")
	}
	limit := defaultRecordLimit
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid record count %q", args[1])
		}
		limit = n
	}

	records, err := hdb.ReadShard(filepath.Join(s.root, args[0]))
	if err != nil {
		return err
	}
	for i, r := range records {
		if i == limit {
			fmt.Fprintf(out, "... %d more\n", len(records)-limit)
			break
		}
		fmt.Fprintf(out, "%6d  %s  %s\n", i, hex.EncodeToString(r.Hash[:]), hex.EncodeToString(r.Payload[:]))
	}
	return nil
}

func (s *session) export(args []string, out io.Writer) error {
	if s.report == nil {
		return fmt.Errorf("nothing loaded, run .load first")
	}
	if len(args) < 1 {
		return fmt.Errorf("missing path argument")
	}
	codec := s.codec
	if len(args) > 1 {
		c, err := scalarfile.ParseCodec(args[1])
		if err != nil {
			return err
		}
		codec = c
	}
	if err := scalarfile.WriteFile(args[0], s.report.Scalars, codec); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d scalars to %s (%s)\n", len(s.report.Scalars), args[0], codec)
	return nil
}

// runInteractive starts the readline inspector
func runInteractive(cfg *config.Config) {
	fmt.Println("hdbacc inspector")
	fmt.Println("Enter .help for usage hints.")

	s := newSession(cfg)

	historyFile := filepath.Join(os.TempDir(), ".hdbacc_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing readline: %s\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	for {
		rl.SetPrompt(s.prompt())

		line, readErr := rl.Readline()
		if readErr != nil {
			if readErr == readline.ErrInterrupt {
				if len(line) == 0 {
					break
				}
				continue
			} else if readErr == io.EOF {
				fmt.Println("Goodbye!")
				break
			}
			fmt.Fprintf(os.Stderr, "Error reading input: %s\n", readErr)
			continue
		}

		if s.execute(line, rl.Stdout()) {
			return
		}
	}
}
