// Package txnmgr implements the core of the replicated transaction manager:
// the multi-version store, site registry, transaction table, read/write
// paths, the three-gate commit validator, and the site lifecycle with its
// recovery gate and read-unblocker (spec §1–§4).
//
// Grounded on the teacher's internal/docdb package (LogicalDB as the
// aggregate owning MVCC, TransactionManager, and a CoordinatorLog), adapted
// from a document store's WAL-backed durability model to the spec's
// in-memory, fully sequential simulated cluster (Non-goals: durability to
// stable storage, network transport, concurrent client sessions).
package txnmgr

import (
	"sort"

	"github.com/sh-r/repcrec/internal/config"
	"github.com/sh-r/repcrec/internal/logger"
	"github.com/sh-r/repcrec/internal/trace"
)

// Manager is the transaction manager aggregate: clock, site registry,
// version store, transaction table, blocked-read queue, reader/writer
// indices, and decision log. One Manager is fully sequential (spec §5); the
// CLI's batch runner achieves concurrency across named blocks by giving each
// block its own Manager, never by sharing one.
type Manager struct {
	cfg *config.Config
	log *logger.Logger
	out trace.Sink

	now int

	sites *SiteRegistry
	vars  *VersionStore
	txs   *TransactionTable

	// readers[x] is the set of tids that have read x (spec §3 "Reader
	// index"), used only for RW-edge construction in the conflict graph.
	readers map[string]map[string]struct{}

	// lastWriter[x] = (tid, commitTime) of x's most recent committer, used
	// for first-committer-wins (Gate B).
	lastWriter map[string]lastWriterEntry

	blocked map[string]*BlockedRead // tid -> pending read

	decisions *DecisionLog

	varOrder []string // "x1".."xN" in ascending index order
}

type lastWriterEntry struct {
	tid        string
	commitTime int
}

// NewManager builds a fresh Manager with the fixed topology from cfg,
// initializing every variable's first Version at time 0 with a null writer
// (spec §3).
func NewManager(cfg *config.Config, log *logger.Logger, out trace.Sink) *Manager {
	m := &Manager{
		cfg:        cfg,
		log:        log,
		out:        out,
		sites:      newSiteRegistry(cfg.SiteCount),
		vars:       newVersionStore(cfg.VariableCount),
		txs:        newTransactionTable(),
		readers:    make(map[string]map[string]struct{}),
		lastWriter: make(map[string]lastWriterEntry),
		blocked:    make(map[string]*BlockedRead),
		decisions:  newDecisionLog(),
	}
	m.initVariables()
	return m
}

func variableName(idx int) string {
	return "x" + itoa(idx)
}

func itoa(i int) string {
	// Small, allocation-light integer formatter for variable names; its
	// single call site only ever sees 1..a few hundred.
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

func isReplicated(idx int) bool {
	return idx%2 == 0
}

func (m *Manager) initVariables() {
	m.varOrder = make([]string, 0, m.cfg.VariableCount)
	for i := 1; i <= m.cfg.VariableCount; i++ {
		name := variableName(i)
		m.varOrder = append(m.varOrder, name)
		value := m.cfg.InitialValueMultiplier * i
		initialSites := make(map[int]struct{})

		if isReplicated(i) {
			for _, sid := range m.sites.AscendingIDs() {
				site, _ := m.sites.get(sid)
				site.data[name] = value
				site.canRead[name] = true
				initialSites[sid] = struct{}{}
			}
		} else {
			home := homeSite(i, m.cfg.SiteCount)
			site, _ := m.sites.get(home)
			site.data[name] = value
			site.canRead[name] = true
			initialSites[home] = struct{}{}
		}

		m.vars.initVariable(name, newVersion(value, 0, "", initialSites))
	}
}

// Now returns the manager's current logical clock value.
func (m *Manager) Now() int { return m.now }

func (m *Manager) tick() {
	m.now++
}

func (m *Manager) emit(e trace.Event) {
	e.Time = m.now
	m.out.Emit(e)
	m.log.Debug("event kind=%d time=%d tid=%s var=%s", e.Kind, e.Time, e.TID, e.Var)
}

func (m *Manager) addReader(variable, tid string) {
	set, ok := m.readers[variable]
	if !ok {
		set = make(map[string]struct{})
		m.readers[variable] = set
	}
	set[tid] = struct{}{}
}

// VariableOrder returns "x1".."xN" in ascending index order.
func (m *Manager) VariableOrder() []string { return m.varOrder }

// Sites returns site ids in ascending order (for snapshot tooling/tests).
func (m *Manager) Sites() []int { return m.sites.AscendingIDs() }

// TransactionStatus reports a transaction's current status, for tests.
func (m *Manager) TransactionStatus(tid string) (TxStatus, bool) {
	tx, ok := m.txs.Get(tid)
	if !ok {
		return 0, false
	}
	return tx.Status, true
}

// Malformed handles a line that started with a recognized command token but
// whose arguments did not parse (spec §7 usage error): the clock still
// advances — the line was admitted as a command attempt — but nothing else
// changes.
func (m *Manager) Malformed(line string) {
	m.tick()
	m.log.Warn("malformed command: %s", line)
	m.emit(trace.Event{Kind: trace.Unrecognized, Line: line})
}

func sortedInts(xs []int) []int {
	out := append([]int(nil), xs...)
	sort.Ints(out)
	return out
}
