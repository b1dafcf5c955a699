// Command repcrec runs the replicated-copies transaction manager against a
// script file, or interactively against stdin.
//
// File-argument mode splits the file into named blocks (spec §6's "Test"
// headers) and runs them through the batch runner, each against its own
// fresh cluster. No-argument mode drives a single cluster directly: an
// interactive terminal gets a peterh/liner-backed line editor with history,
// a piped/redirected stdin gets a plain bufio.Scanner — the mattn/go-isatty
// check a terminal program makes to decide which one it's talking to.
//
// Grounded on the teacher's cmd/docdbsh (flag-based CLI entrypoint reading
// line-oriented input in a loop) adapted from a client/server shell talking
// over a Unix socket to a single in-process batch/interactive driver.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/sh-r/repcrec/internal/config"
	"github.com/sh-r/repcrec/internal/logger"
	"github.com/sh-r/repcrec/internal/runner"
	"github.com/sh-r/repcrec/internal/script"
	"github.com/sh-r/repcrec/internal/trace"
	"github.com/sh-r/repcrec/internal/txnmgr"
)

const prompt = "repcrec> "

func main() {
	debug := flag.Bool("debug", false, "enable debug-level logging on stderr")
	sequential := flag.Bool("sequential", false, "run script blocks one at a time instead of concurrently")
	query := flag.String("query", "", "after running a file's blocks, run this SQL query over the result ledger and print it (file mode only)")
	flag.Parse()

	cfg := config.Default()
	if *debug {
		cfg.LogLevel = logger.LevelDebug
	}
	if *sequential {
		cfg.Runner.Concurrent = false
	}
	log := logger.New(os.Stderr, cfg.LogLevel, "[repcrec]")

	var err error
	if flag.NArg() > 0 {
		err = runFile(cfg, log, flag.Arg(0), *query)
	} else {
		err = runInteractive(cfg, log)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runFile(cfg *config.Config, log *logger.Logger, path, query string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	blocks := script.Split(lines)

	ledger, err := runner.NewLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	results, err := runner.Run(cfg, log, blocks)
	if err != nil {
		return err
	}

	for _, r := range results {
		fmt.Printf("// %s\n", r.Name)
		fmt.Print(r.Output)
		if err := ledger.Record(r); err != nil {
			return err
		}
	}

	commands, commits, aborts, err := ledger.Totals()
	if err != nil {
		return err
	}
	slowest, slowestCommands, err := ledger.Slowest()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\nrun %s: %s commands, %s commits, %s aborts across %d block(s)\n",
		ledger.RunID(), humanize.Comma(int64(commands)), humanize.Comma(int64(commits)),
		humanize.Comma(int64(aborts)), len(results))
	if slowest != "" {
		fmt.Fprintf(os.Stderr, "largest block: %q (%s commands)\n", slowest, humanize.Comma(int64(slowestCommands)))
	}

	if query != "" {
		rows, err := ledger.Query(query)
		if err != nil {
			return err
		}
		fmt.Println()
		for _, row := range rows {
			fmt.Println(row)
		}
	}
	return nil
}

func runInteractive(cfg *config.Config, log *logger.Logger) error {
	sink := trace.NewTextSink(os.Stdout)
	mgr := txnmgr.NewManager(cfg, log, sink)

	if isatty.IsTerminal(os.Stdin.Fd()) {
		return runLiner(mgr)
	}
	return runPiped(mgr, os.Stdin)
}

// runLiner drives an interactive terminal session with line history.
func runLiner(mgr *txnmgr.Manager) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	started := time.Now()
	for {
		text, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				break
			}
			return err
		}
		if text != "" {
			line.AppendHistory(text)
		}
		runner.Interpret(mgr, []string{text})
	}

	fmt.Printf("\nsession started %s, %d command(s) processed\n", humanize.Time(started), mgr.Now())
	return nil
}

// runPiped drives a non-interactive stdin stream (a redirected file or a
// pipe), line by line, with no prompt or history.
func runPiped(mgr *txnmgr.Manager, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		runner.Interpret(mgr, []string{scanner.Text()})
	}
	return scanner.Err()
}
