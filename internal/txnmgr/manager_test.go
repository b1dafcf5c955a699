package txnmgr

import (
	"io"
	"testing"

	"github.com/sh-r/repcrec/internal/config"
	"github.com/sh-r/repcrec/internal/logger"
	"github.com/sh-r/repcrec/internal/trace"
)

func newTestManager(t *testing.T) (*Manager, *trace.Collector) {
	t.Helper()
	cfg := config.Default()
	log := logger.New(io.Discard, logger.LevelDebug, "[test]")
	c := &trace.Collector{}
	return NewManager(cfg, log, c), c
}

func lastEvent(c *trace.Collector) trace.Event {
	return c.Events[len(c.Events)-1]
}

func TestManager_InitialSiteData(t *testing.T) {
	m, _ := newTestManager(t)

	// x2 is replicated: every site holds it, initial value 20.
	for _, sid := range m.Sites() {
		site, ok := m.sites.get(sid)
		if !ok {
			t.Fatalf("site %d missing", sid)
		}
		v, ok := site.Data("x2")
		if !ok || v != 20 {
			t.Fatalf("site %d x2 = (%d, %v), want (20, true)", sid, v, ok)
		}
	}

	// x1 is non-replicated: only its home site (1 + (1 mod 10) = 2) holds it.
	home := homeSite(1, m.cfg.SiteCount)
	for _, sid := range m.Sites() {
		site, _ := m.sites.get(sid)
		_, holds := site.Data("x1")
		if holds != (sid == home) {
			t.Fatalf("site %d holds x1 = %v, want %v (home=%d)", sid, holds, sid == home, home)
		}
	}
}

func TestManager_ReadYourOwnWrite(t *testing.T) {
	m, c := newTestManager(t)
	m.Begin("T1")
	m.Write("T1", "x1", 99)
	m.Read("T1", "x1")

	e := lastEvent(c)
	if e.Kind != trace.ReadOK || e.Value != 99 {
		t.Fatalf("read-your-own-write: got %+v, want ReadOK value=99", e)
	}
}

func TestManager_ReadWaitsWhenNonReplicatedHomeDown(t *testing.T) {
	m, c := newTestManager(t)
	home := homeSite(1, m.cfg.SiteCount)
	m.Begin("T1")
	m.Fail(home)
	m.Read("T1", "x1")

	e := lastEvent(c)
	if e.Kind != trace.ReadWait {
		t.Fatalf("read on failed non-replicated home: got %+v, want ReadWait", e)
	}
}

func TestManager_WriteAbortsWhenNoSiteUpForNonReplicated(t *testing.T) {
	m, c := newTestManager(t)
	home := homeSite(1, m.cfg.SiteCount)
	m.Begin("T1")
	m.Fail(home)
	m.Write("T1", "x1", 1)

	e := lastEvent(c)
	if e.Kind != trace.WriteAbort || e.Reason != ErrNoSiteUpForWrite.Error() {
		t.Fatalf("write to down home site: got %+v, want WriteAbort/%q", e, ErrNoSiteUpForWrite.Error())
	}
	status, _ := m.TransactionStatus("T1")
	if status != TxAborted {
		t.Fatalf("T1 status = %v, want TxAborted", status)
	}
}

func TestManager_FirstCommitterWins(t *testing.T) {
	m, _ := newTestManager(t)

	m.Begin("T1")
	m.Begin("T2")
	m.Write("T1", "x2", 1)
	m.Write("T2", "x2", 2)
	m.End("T1")
	status1, _ := m.TransactionStatus("T1")
	if status1 != TxCommitted {
		t.Fatalf("T1 status = %v, want TxCommitted", status1)
	}

	m.End("T2")
	status2, _ := m.TransactionStatus("T2")
	if status2 != TxAborted {
		t.Fatalf("T2 status = %v, want TxAborted (first-committer-wins)", status2)
	}
}

func TestManager_SiteFailedAfterWriteAbortsOnCommit(t *testing.T) {
	m, _ := newTestManager(t)
	home := homeSite(1, m.cfg.SiteCount)

	m.Begin("T1")
	m.Write("T1", "x1", 7)
	m.Fail(home)
	m.End("T1")

	status, _ := m.TransactionStatus("T1")
	if status != TxAborted {
		t.Fatalf("T1 status = %v, want TxAborted (site failed after write)", status)
	}
}

func TestManager_SSICycleAbortsLaterCommitter(t *testing.T) {
	m, _ := newTestManager(t)

	m.Begin("T1")
	m.Begin("T2")

	// T1 reads x2, T2 writes x2 (RW: T1 -> T2); T2 reads x4, T1 writes x4
	// (RW: T2 -> T1) — closes the cycle through T1.
	m.Read("T1", "x2")
	m.Write("T2", "x2", 1)
	m.Read("T2", "x4")
	m.Write("T1", "x4", 1)

	m.End("T1")
	status1, _ := m.TransactionStatus("T1")
	if status1 != TxCommitted {
		t.Fatalf("T1 status = %v, want TxCommitted", status1)
	}

	m.End("T2")
	status2, _ := m.TransactionStatus("T2")
	if status2 != TxAborted {
		t.Fatalf("T2 status = %v, want TxAborted (SSI cycle)", status2)
	}
}

func TestManager_BlockedReadUnblocksOnRecover(t *testing.T) {
	m, c := newTestManager(t)
	home := homeSite(1, m.cfg.SiteCount)

	m.Fail(home)
	m.Begin("T1")
	m.Read("T1", "x1")
	if lastEvent(c).Kind != trace.ReadWait {
		t.Fatalf("expected ReadWait while home site is down, got %+v", lastEvent(c))
	}

	m.Recover(home)
	if lastEvent(c).Kind != trace.Unblocked {
		t.Fatalf("expected Unblocked after recover, got %+v", lastEvent(c))
	}
}

func TestManager_UnblockOrderIsNumericNotLexicographic(t *testing.T) {
	m, c := newTestManager(t)
	home := homeSite(1, m.cfg.SiteCount)

	m.Fail(home)
	m.Begin("T10")
	m.Read("T10", "x1")
	m.Begin("T2")
	m.Read("T2", "x1")

	before := len(c.Events)
	m.Recover(home)
	unblocked := c.Events[before:]

	var order []string
	for _, e := range unblocked {
		if e.Kind == trace.Unblocked {
			order = append(order, e.TID)
		}
	}
	if len(order) != 2 || order[0] != "T2" || order[1] != "T10" {
		t.Fatalf("unblock order = %v, want [T2 T10] (numeric, not lexicographic)", order)
	}
}

func TestManager_UnknownTransactionIsReportedNotCrashed(t *testing.T) {
	m, c := newTestManager(t)
	m.Read("T404", "x1")

	e := lastEvent(c)
	if e.Kind != trace.Unrecognized {
		t.Fatalf("read on unknown tid: got %+v, want Unrecognized", e)
	}
}

func TestManager_DumpListsHeldVariablesSortedByIndex(t *testing.T) {
	m, _ := newTestManager(t)
	lines := m.Dump()

	if len(lines) != len(m.Sites()) {
		t.Fatalf("got %d dump lines, want %d (one per site)", len(lines), len(m.Sites()))
	}

	// Site 1 holds only the replicated variables (x2..x20 even): no odd
	// variable homes there, since 1 + (i mod 10) = 1 needs i to be a multiple
	// of 10. x2 must be its first listed variable.
	want := "site 1 - x2: 20"
	if len(lines[0]) < len(want) || lines[0][:len(want)] != want {
		t.Fatalf("dump line for site 1 = %q, want prefix %q", lines[0], want)
	}
}

func TestManager_MalformedLineAdvancesClockAndReports(t *testing.T) {
	m, c := newTestManager(t)
	before := m.Now()
	m.Malformed("R(T1, xNotANumber)")

	if m.Now() != before+1 {
		t.Fatalf("Now() = %d, want %d (malformed commands still tick the clock)", m.Now(), before+1)
	}
	if lastEvent(c).Kind != trace.Unrecognized {
		t.Fatalf("got %+v, want Unrecognized", lastEvent(c))
	}
}
