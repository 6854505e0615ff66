package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/peterh/liner"
	"github.com/scvdview/scvd/eval"
	"github.com/scvdview/scvd/memhost"
	"github.com/scvdview/scvd/snapshot"
	"github.com/scvdview/scvd/token"
	"github.com/scvdview/scvd/view"
	"golang.org/x/term"
)

var SNAPSHOT_ENV = "SCVD_SNAPSHOT"
var HISTORY_FILE = ".scvd_history"

var PROMPT = "scvd> "

// defaultSnapshot gets env variable SCVD_SNAPSHOT, the snapshot used when
// -snapshot is not given.
func defaultSnapshot() string {
	return os.Getenv(SNAPSHOT_ENV)
}

type options struct {
	snapshot  string
	query     string
	printf    bool
	watch     bool
	save      bool
	verbosity int
	version   bool
}

func parseFlags(args []string) (*options, []string, error) {
	opts := &options{}
	fs := flag.NewFlagSet("scvd", flag.ContinueOnError)
	fs.StringVar(&opts.snapshot, "snapshot", defaultSnapshot(), "snapshot file (default $"+SNAPSHOT_ENV+")")
	fs.StringVar(&opts.query, "select", "", "jq filter selecting the snapshot within the file")
	fs.BoolVar(&opts.printf, "printf", false, "treat arguments as printf format strings")
	fs.BoolVar(&opts.watch, "watch", false, "re-evaluate whenever the snapshot file changes")
	fs.BoolVar(&opts.save, "save", false, "write target memory back to the snapshot after evaluating")
	fs.IntVar(&opts.verbosity, "v", 2, "log verbosity (0=crit ... 5=trace)")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: scvd [flags] [expression ...]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return opts, fs.Args(), nil
}

func setupLogging(verbosity int) {
	useColor := term.IsTerminal(int(os.Stderr.Fd()))
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(verbosity), useColor)
	log.SetDefault(log.NewLogger(handler))
}

// session is an open snapshot with everything needed to evaluate against it.
type session struct {
	path  string
	query string

	mu        sync.Mutex
	snap      *snapshot.Snapshot
	target    *snapshot.Target
	host      *memhost.CachedMemoryHost
	compiler  *view.Compiler
	refresher *view.Refresher
}

func openSession(path, query string) (*session, error) {
	s := &session{path: path, query: query, compiler: view.NewCompiler()}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// reload rereads the snapshot. When only the target state changed the host
// is kept and its caches are invalidated; a changed symbol model gets a new
// host. Compiled expressions are kept either way.
func (s *session) reload() error {
	snap, err := snapshot.Load(s.path, s.query)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.host != nil && sameModel(s.snap, snap) {
		if err := s.target.Replace(snap); err != nil {
			return err
		}
		s.snap = snap
		s.host.Invalidate()
		return nil
	}

	m, err := snap.Model()
	if err != nil {
		return err
	}
	if s.target == nil {
		if s.target, err = snapshot.NewTarget(snap); err != nil {
			return err
		}
	} else if err := s.target.Replace(snap); err != nil {
		return err
	}
	s.snap = snap
	s.host = memhost.New(m, s.target)
	s.refresher = view.NewRefresher(s.host, s.compiler)
	return nil
}

func sameModel(a, b *snapshot.Snapshot) bool {
	return reflect.DeepEqual(a.Types, b.Types) && reflect.DeepEqual(a.Symbols, b.Symbols)
}

func (s *session) save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target.Export(s.snap)
	return s.snap.Save(s.path)
}

// evaluate runs items and prints their results to w. It reports whether
// every item produced a value.
func (s *session) evaluate(ctx context.Context, w io.Writer, items []view.Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := true
	err := s.refresher.Run(ctx, items, func(res view.Result) {
		if !printResult(w, res) {
			ok = false
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Refresh interrupted: %v\n", err)
		return false
	}
	return ok
}

func printResult(w io.Writer, res view.Result) bool {
	for _, d := range res.Diagnostics {
		fmt.Fprintf(os.Stderr, "%s: %s\n", res.Item.Source, d.Render(res.Item.Source))
	}
	for _, err := range res.Reported {
		fmt.Fprintf(os.Stderr, "%s: %v\n", res.Item.Source, err)
	}
	var diag *token.Diagnostic
	if res.Err != nil && !errors.As(res.Err, &diag) {
		fmt.Fprintf(os.Stderr, "%s: %v\n", res.Item.Source, res.Err)
	}
	if res.Err != nil || !res.Value.IsValid() {
		fmt.Fprintln(w, eval.Unknown)
		return false
	}
	if res.Item.Name != "" {
		fmt.Fprintf(w, "%s = ", res.Item.Name)
	}
	fmt.Fprintln(w, res.Value)
	return true
}

func makeItems(exprs []string, printf bool) []view.Item {
	items := make([]view.Item, 0, len(exprs))
	for _, e := range exprs {
		if strings.TrimSpace(e) == "" {
			continue
		}
		items = append(items, view.Item{Source: e, Printf: printf})
	}
	return items
}

// watch re-evaluates items on every snapshot change until ctx is done.
func watch(ctx context.Context, s *session, items []view.Item) error {
	return snapshot.Watch(ctx, s.path, func() {
		if err := s.reload(); err != nil {
			fmt.Fprintf(os.Stderr, "Reload failed: %v\n", err)
			return
		}
		fmt.Println("---")
		s.evaluate(ctx, os.Stdout, items)
	})
}

// repl reads expressions interactively. Lines starting with ':' are
// commands.
func repl(ctx context.Context, s *session, printf bool) {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, HISTORY_FILE)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		line, err := ln.Prompt(PROMPT)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(line, ":") {
			if quit := command(ctx, s, line); quit {
				return
			}
			continue
		}
		s.evaluate(ctx, os.Stdout, makeItems([]string{line}, printf))
	}
}

func command(ctx context.Context, s *session, line string) (quit bool) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":printf":
		s.evaluate(ctx, os.Stdout, makeItems([]string{arg}, true))
	case ":reload":
		if err := s.reload(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	case ":save":
		if err := s.save(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	case ":symbols":
		s.mu.Lock()
		names := s.host.Model().Symbols.Names()
		s.mu.Unlock()
		fmt.Println(strings.Join(names, " "))
	default:
		fmt.Println("unknown command. Commands: :printf :reload :save :symbols :quit")
	}
	return false
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

func run(args []string) int {
	opts, exprs, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.version {
		printVersion(os.Stdout)
		return 0
	}
	setupLogging(opts.verbosity)

	if opts.snapshot == "" {
		fmt.Fprintf(os.Stderr, "No snapshot given: use -snapshot or set %s\n", SNAPSHOT_ENV)
		return 2
	}
	s, err := openSession(opts.snapshot, opts.query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening snapshot: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := len(exprs) == 0 && term.IsTerminal(int(os.Stdin.Fd()))
	if len(exprs) == 0 && !interactive {
		if exprs, err = readLines(os.Stdin); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			return 1
		}
	}

	if interactive {
		if opts.watch {
			go func() {
				if err := snapshot.Watch(ctx, s.path, func() {
					if err := s.reload(); err != nil {
						log.Warn("Reload failed", "err", err)
					}
				}); err != nil {
					log.Error("Watch failed", "err", err)
				}
			}()
		}
		repl(ctx, s, opts.printf)
		return 0
	}

	items := makeItems(exprs, opts.printf)
	ok := s.evaluate(ctx, os.Stdout, items)
	if opts.save {
		if err := s.save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving snapshot: %v\n", err)
			return 1
		}
	}
	if opts.watch {
		if err := watch(ctx, s, items); err != nil {
			fmt.Fprintf(os.Stderr, "Error watching snapshot: %v\n", err)
			return 1
		}
		return 0
	}
	if !ok {
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}
