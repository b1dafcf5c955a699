// Site lifecycle + unblocker (spec §4.5).
package txnmgr

import (
	"sort"

	"github.com/sh-r/repcrec/internal/trace"
)

// Fail handles fail(<site>): a no-op if the site is already down.
func (m *Manager) Fail(siteID int) {
	m.tick()

	site, ok := m.sites.get(siteID)
	if !ok {
		m.log.Warn("fail on unknown site %d", siteID)
		m.emit(trace.Event{Kind: trace.Unrecognized, Line: "fail(unknown site)"})
		return
	}
	if !site.IsUp {
		return
	}
	site.IsUp = false
	site.FailureTimes = append(site.FailureTimes, m.now)
	m.emit(trace.Event{Kind: trace.SiteFail, Site: siteID})
}

// Recover handles recover(<site>): a no-op if the site is already up.
// Recomputes the read gate for every variable the site holds, then runs the
// unblocker (spec invariant S2; design note "the recovery read-gate
// deliberately does not apply to pre-existing waiters").
func (m *Manager) Recover(siteID int) {
	m.tick()

	site, ok := m.sites.get(siteID)
	if !ok {
		m.log.Warn("recover on unknown site %d", siteID)
		m.emit(trace.Event{Kind: trace.Unrecognized, Line: "recover(unknown site)"})
		return
	}
	if site.IsUp {
		return
	}
	site.IsUp = true
	site.RecoveryTimes = append(site.RecoveryTimes, m.now)
	m.emit(trace.Event{Kind: trace.SiteRecover, Site: siteID})

	for variable := range site.data {
		idx := variableIndex(variable)
		if !isReplicated(idx) {
			site.canRead[variable] = true
			continue
		}
		latest := m.vars.Latest(variable)
		site.canRead[variable] = latest != nil && latest.HasSite(siteID)
	}

	m.unblockReads()
}

// unblockReads resolves any blocked read whose eligible-site set now
// contains an up site, processing tids in ascending numeric order for
// determinism (spec §5 ordering guarantee iii): tids are "T<k>" strings, so
// a lexicographic sort would misorder e.g. "T10" before "T2".
func (m *Manager) unblockReads() {
	tids := make([]string, 0, len(m.blocked))
	for tid := range m.blocked {
		tids = append(tids, tid)
	}
	sort.Slice(tids, func(i, j int) bool {
		return tidNumber(tids[i]) < tidNumber(tids[j])
	})

	for _, tid := range tids {
		pending := m.blocked[tid]
		tx, ok := m.txs.Get(tid)
		if !ok || tx.Status != TxActive {
			delete(m.blocked, tid)
			continue
		}
		for _, sid := range pending.Eligible {
			site, ok := m.sites.get(sid)
			if !ok || !site.IsUp {
				continue
			}
			tx.ReadVars[pending.Variable] = struct{}{}
			m.addReader(pending.Variable, tid)
			m.emit(trace.Event{Kind: trace.Unblocked, TID: tid, Var: pending.Variable, Value: pending.Value})
			delete(m.blocked, tid)
			break
		}
	}
}

// tidNumber parses the numeric suffix of a "T<k>" transaction id, for
// numeric (not lexicographic) ordering.
func tidNumber(tid string) int {
	n := 0
	for i := 1; i < len(tid); i++ {
		n = n*10 + int(tid[i]-'0')
	}
	return n
}
