// Read path (spec §4.2): resolves R(T<k>, x<j>) to a snapshot value, a
// blocked-read entry, or an abort.
//
// Grounded on the teacher's internal/docdb read-visibility logic (MVCC.IsVisible)
// generalized from "visible iff created at or before the snapshot and not yet
// deleted" to the spec's continuous-uptime predicate over replicated copies.
package txnmgr

import "github.com/sh-r/repcrec/internal/trace"

func (m *Manager) unknownTx(tid, verb string) {
	m.log.Warn("%s on unknown transaction %s", verb, tid)
	m.emit(trace.Event{Kind: trace.Unrecognized, TID: tid, Line: verb + "(" + tid + ")"})
}

// Read handles R(T<k>, x<j>).
func (m *Manager) Read(tid, variable string) {
	m.tick()

	tx, ok := m.txs.Get(tid)
	if !ok {
		m.unknownTx(tid, "R")
		return
	}
	if tx.Status != TxActive {
		return
	}
	if _, waiting := m.blocked[tid]; waiting {
		return
	}

	// Read-your-own-write.
	if v, wrote := tx.WriteBuffer[variable]; wrote {
		tx.ReadVars[variable] = struct{}{}
		m.addReader(variable, tid)
		m.emit(trace.Event{Kind: trace.ReadOK, TID: tid, Var: variable, Value: v})
		return
	}

	idx := variableIndex(variable)
	snap := m.vars.LatestBefore(variable, tx.StartTime)
	if snap == nil {
		m.abortTx(tx, ErrNoCommittedVersion.Error())
		m.emit(trace.Event{Kind: trace.ReadAbort, TID: tid, Var: variable, Reason: tx.AbortReason})
		return
	}

	if !isReplicated(idx) {
		m.readNonReplicated(tx, variable, idx, snap)
		return
	}
	m.readReplicated(tx, variable, snap)
}

func (m *Manager) readNonReplicated(tx *Transaction, variable string, idx int, snap *Version) {
	home := homeSite(idx, m.cfg.SiteCount)
	site, _ := m.sites.get(home)

	if !site.IsUp {
		m.enqueueBlocked(tx.TID, variable, snap.Value, []int{home})
		m.emit(trace.Event{Kind: trace.ReadWait, TID: tx.TID, Var: variable})
		return
	}
	if !snap.HasSite(home) {
		m.abortTx(tx, ErrNoSnapshotAtHome.Error())
		m.emit(trace.Event{Kind: trace.ReadAbort, TID: tx.TID, Var: variable, Reason: tx.AbortReason})
		return
	}

	tx.ReadVars[variable] = struct{}{}
	m.addReader(variable, tx.TID)
	m.emit(trace.Event{Kind: trace.ReadOK, TID: tx.TID, Var: variable, Value: snap.Value})
}

func (m *Manager) readReplicated(tx *Transaction, variable string, snap *Version) {
	var eligible []int
	var readableNow []int

	for sid := range snap.Sites {
		site, _ := m.sites.get(sid)
		if !m.continuouslyUp(site, snap.CommitTime, tx.StartTime) {
			continue
		}
		eligible = append(eligible, sid)
		if site.IsUp && site.CanRead(variable) {
			readableNow = append(readableNow, sid)
		}
	}

	if len(eligible) == 0 {
		m.abortTx(tx, ErrNoAvailableSnap.Error())
		m.emit(trace.Event{Kind: trace.ReadAbort, TID: tx.TID, Var: variable, Reason: tx.AbortReason})
		return
	}

	if len(readableNow) > 0 {
		tx.ReadVars[variable] = struct{}{}
		m.addReader(variable, tx.TID)
		m.emit(trace.Event{Kind: trace.ReadOK, TID: tx.TID, Var: variable, Value: snap.Value})
		return
	}

	m.enqueueBlocked(tx.TID, variable, snap.Value, sortedInts(eligible))
	m.emit(trace.Event{Kind: trace.ReadWait, TID: tx.TID, Var: variable})
}

// continuouslyUp returns true iff site had no failure strictly after start
// and at or before end (spec §4.2 "continuous-uptime predicate").
func (m *Manager) continuouslyUp(site *Site, start, end int) bool {
	for _, f := range site.FailureTimes {
		if start < f && f <= end {
			return false
		}
	}
	return true
}

func (m *Manager) enqueueBlocked(tid, variable string, value int, eligible []int) {
	m.blocked[tid] = &BlockedRead{TID: tid, Variable: variable, Value: value, Eligible: eligible}
}

func (m *Manager) abortTx(tx *Transaction, reason string) {
	tx.Status = TxAborted
	tx.AbortReason = reason
}

func variableIndex(name string) int {
	// name is always "x<digits>" by construction (script package validates
	// the grammar before calling into the manager).
	n := 0
	for i := 1; i < len(name); i++ {
		n = n*10 + int(name[i]-'0')
	}
	return n
}
