// Commit validator (spec §4.4): three sequential gates, first failure
// aborts and later gates are not evaluated; on success, each buffered write
// is applied to those of its targeted sites that are up at the time of commit.
package txnmgr

import "github.com/sh-r/repcrec/internal/trace"

// End handles end(T<k>).
func (m *Manager) End(tid string) {
	m.tick()

	tx, ok := m.txs.Get(tid)
	if !ok {
		m.unknownTx(tid, "end")
		return
	}
	m.emit(trace.Event{Kind: trace.End, TID: tid})

	if tx.Status == TxAborted {
		m.decisions.Append(tid, false)
		m.emit(trace.Event{Kind: trace.Abort, TID: tid, Reason: tx.AbortReason})
		return
	}

	if reason, ok := m.gateA(tx); ok {
		m.finishAbort(tx, reason)
		return
	}
	if reason, ok := m.gateB(tx); ok {
		m.finishAbort(tx, reason)
		return
	}
	if m.gateC(tid) {
		m.finishAbort(tx, ErrSSICycle.Error())
		return
	}

	m.applyCommit(tx)
}

func (m *Manager) finishAbort(tx *Transaction, reason string) {
	m.abortTx(tx, reason)
	m.decisions.Append(tx.TID, false)
	m.emit(trace.Event{Kind: trace.Abort, TID: tx.TID, Reason: reason})
}

// gateA is the available-copies rule: a write-site that failed strictly
// after this tid's first buffered write there, at or before now, aborts it.
func (m *Manager) gateA(tx *Transaction) (reason string, abort bool) {
	for sid, writeTime := range tx.SiteWriteTimes {
		site, ok := m.sites.get(sid)
		if !ok {
			continue
		}
		for _, f := range site.FailureTimes {
			if writeTime < f && f <= m.now {
				return ErrSiteFailedAfterWrite.Error(), true
			}
		}
	}
	return "", false
}

// gateB is first-committer-wins: if x was committed by someone else after
// this tid started, this tid aborts.
func (m *Manager) gateB(tx *Transaction) (reason string, abort bool) {
	for variable := range tx.WriteBuffer {
		entry, ok := m.lastWriter[variable]
		if !ok {
			continue
		}
		if entry.tid != tx.TID && entry.commitTime > tx.StartTime {
			return ErrFirstCommitterWins.Error(), true
		}
	}
	return "", false
}

// gateC is SSI cycle detection over the RW+WW conflict graph.
func (m *Manager) gateC(tid string) bool {
	graph := m.buildConflictGraph(tid)
	return hasCycleInvolving(graph, tid)
}

// applyCommit applies every buffered write to the sites it targeted that are
// currently up, appends a new Version per variable, and marks tx committed.
func (m *Manager) applyCommit(tx *Transaction) {
	tx.CommitTime = m.now

	for _, variable := range m.varOrder {
		value, wrote := tx.WriteBuffer[variable]
		if !wrote {
			continue
		}
		idx := variableIndex(variable)
		targeted := tx.WriteSites[variable]
		applied := make(map[int]struct{}, len(targeted))

		for sid := range targeted {
			site, ok := m.sites.get(sid)
			if !ok || !site.IsUp {
				continue
			}
			site.data[variable] = value
			if isReplicated(idx) {
				site.canRead[variable] = true
			}
			applied[sid] = struct{}{}
		}

		m.vars.Append(variable, newVersion(value, m.now, tx.TID, applied))
		m.lastWriter[variable] = lastWriterEntry{tid: tx.TID, commitTime: m.now}
	}

	tx.Status = TxCommitted
	m.decisions.Append(tx.TID, true)
	m.emit(trace.Event{Kind: trace.Commit, TID: tx.TID})
}
