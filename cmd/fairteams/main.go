// Command fairteams splits a roster file into three balanced teams and
// prints the result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/fairteams/internal/adapters/rosterfile"
	"github.com/okian/fairteams/internal/domain/engine"
	"github.com/okian/fairteams/internal/domain/export"
	"github.com/okian/fairteams/internal/domain/roster"
	"github.com/okian/fairteams/internal/domain/selector"
	"github.com/okian/fairteams/internal/domain/types"
	"github.com/okian/fairteams/pkg/logger"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fairteams", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		asJSON  = fs.Bool("json", false, "Print the full result as JSON")
		share   = fs.Bool("share", false, "Print a share link after the text export")
		seed    = fs.Uint64("seed", 0, "Fix the selection randomness (0 picks a random seed)")
		prefix  = fs.Int("prefix", selector.DefaultPrefix, "Number of leading candidates to pick from")
		verbose = fs.Bool("verbose", false, "Log filter stage counts to stderr")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: fairteams [options] ROSTER_FILE")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	log := logger.Nop()
	if *verbose {
		if err := logger.InitWithWriter(stderr, logger.FormatText); err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
		_ = logger.SetLevelString("debug")
		log = logger.Get().Named("fairteams")
	}

	players, err := rosterfile.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	opts := []engine.Option{engine.WithSelectionPrefix(*prefix), engine.WithLogger(log)}
	if *seed != 0 {
		opts = append(opts, engine.WithSource(selector.NewSeeded(*seed)))
	}
	res, err := engine.New(opts...).Generate(ctx, players)
	if err != nil {
		var sizeErr *roster.InvalidRosterSizeError
		if errors.As(err, &sizeErr) {
			fmt.Fprintf(stderr, "need %d to %d players, the roster has %d\n", sizeErr.Min, sizeErr.Max, sizeErr.Count)
			return exitFailure
		}
		fmt.Fprintln(stderr, err)
		return exitFailure
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(types.FromResult(&res)); err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailure
		}
		return exitOK
	}
	if err := export.WriteText(stdout, res.Partition, res.Stats); err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailure
	}
	if *share {
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, export.ShareURL(res.Partition, res.Stats))
	}
	return exitOK
}
