// Package runner drives one or more named script blocks against independent
// transaction managers and collects their results.
//
// A single txnmgr.Manager is strictly sequential (spec §5); there is no
// concurrency *within* a block. What the runner adds is concurrency *across*
// blocks — each named block in a script is logically independent (its own
// fresh cluster), so running unrelated blocks in parallel is safe and, for
// a large test script, considerably faster than a straight line-by-line
// pass. Grounded on the teacher's internal/pool package, which pairs an
// ants.Pool worker bound with errgroup-style fan-out/fan-in over independent
// units of work (there: per-database request queues; here: per-block runs).
package runner

import (
	"bytes"
	"context"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/sh-r/repcrec/internal/config"
	"github.com/sh-r/repcrec/internal/logger"
	"github.com/sh-r/repcrec/internal/script"
	"github.com/sh-r/repcrec/internal/trace"
	"github.com/sh-r/repcrec/internal/txnmgr"
)

// BlockResult is the outcome of running one named block to completion.
type BlockResult struct {
	Name      string
	Output    string // rendered trace text, in emission order
	Commands  int    // lines admitted as commands (clock ticks consumed)
	Commits   int
	Aborts    int
	FinalDump []string // lines of the last dump() in the block, if any
}

// Run executes every block and returns one BlockResult per block, in input
// order, regardless of completion order. When cfg.Runner.Concurrent is false
// or there is only one block, blocks run sequentially on the calling
// goroutine.
func Run(cfg *config.Config, log *logger.Logger, blocks []script.Block) ([]BlockResult, error) {
	results := make([]BlockResult, len(blocks))

	if !cfg.Runner.Concurrent || len(blocks) <= 1 {
		for i, b := range blocks {
			results[i] = runBlock(cfg, log, b)
		}
		return results, nil
	}

	workers := cfg.Runner.WorkerCount
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 1 {
			workers = 1
		}
	}

	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v interface{}) {
		log.Error("runner worker panic: %v", v)
	}))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	g, _ := errgroup.WithContext(context.Background())
	for i, b := range blocks {
		i, b := i, b
		g.Go(func() error {
			done := make(chan struct{})
			submitErr := pool.Submit(func() {
				defer close(done)
				results[i] = runBlock(cfg, log, b)
			})
			if submitErr != nil {
				return submitErr
			}
			<-done
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// runBlock runs one block to completion against a fresh Manager.
func runBlock(cfg *config.Config, log *logger.Logger, b script.Block) BlockResult {
	blockLog := log.With(b.Name)

	var textBuf bytes.Buffer
	collector := &trace.Collector{}
	sink := trace.Multi{Sinks: []trace.Sink{trace.NewTextSink(&textBuf), collector}}

	mgr := txnmgr.NewManager(cfg, blockLog, sink)

	commands := Interpret(mgr, b.Lines)

	commits, aborts := mgr.DecisionCounts()

	var lastDump []string
	for _, e := range collector.Events {
		if e.Kind == trace.Dump {
			lastDump = e.DumpLines
		}
	}

	return BlockResult{
		Name:      b.Name,
		Output:    textBuf.String(),
		Commands:  commands,
		Commits:   commits,
		Aborts:    aborts,
		FinalDump: lastDump,
	}
}

// Interpret feeds comment-stripped, parsed lines to mgr and returns the
// number of lines admitted as commands. Shared by the batch runner and the
// interactive CLI (cmd/repcrec) so both drive the manager identically.
func Interpret(mgr *txnmgr.Manager, lines []string) int {
	commands := 0
	for _, raw := range lines {
		line := script.StripComment(raw)
		if line == "" {
			continue
		}
		cmd, ok := script.Parse(line)
		if !ok {
			continue
		}
		commands++

		switch cmd.Kind {
		case script.Malformed:
			mgr.Malformed(cmd.Raw)
		case script.Begin:
			mgr.Begin(cmd.TID)
		case script.Read:
			mgr.Read(cmd.TID, cmd.Variable)
		case script.Write:
			mgr.Write(cmd.TID, cmd.Variable, cmd.Value)
		case script.End:
			mgr.End(cmd.TID)
		case script.SiteFail:
			mgr.Fail(cmd.Site)
		case script.SiteRecover:
			mgr.Recover(cmd.Site)
		case script.Dump:
			mgr.Dump()
		}
	}
	return commands
}
