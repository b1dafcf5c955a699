// Write path (spec §4.3): buffers a write to every currently-up site holding
// the variable; applied only at commit.
package txnmgr

import "github.com/sh-r/repcrec/internal/trace"

// Write handles W(T<k>, x<j>, v).
func (m *Manager) Write(tid, variable string, value int) {
	m.tick()

	tx, ok := m.txs.Get(tid)
	if !ok {
		m.unknownTx(tid, "W")
		return
	}
	if tx.Status != TxActive {
		return
	}

	idx := variableIndex(variable)
	targets := m.writeTargets(idx)

	if len(targets) == 0 {
		m.abortTx(tx, ErrNoSiteUpForWrite.Error())
		m.emit(trace.Event{Kind: trace.WriteAbort, TID: tid, Var: variable, Reason: tx.AbortReason})
		return
	}

	tx.WriteBuffer[variable] = value

	existing := tx.WriteSites[variable]
	if existing == nil {
		existing = make(map[int]struct{})
		tx.WriteSites[variable] = existing
	}
	for sid := range targets {
		existing[sid] = struct{}{}
		if _, recorded := tx.SiteWriteTimes[sid]; !recorded {
			tx.SiteWriteTimes[sid] = m.now
		}
	}

	m.emit(trace.Event{Kind: trace.WriteBuffered, TID: tid, Var: variable, Value: value})
}

func (m *Manager) writeTargets(idx int) map[int]struct{} {
	targets := make(map[int]struct{})
	if isReplicated(idx) {
		for _, sid := range m.sites.AscendingIDs() {
			site, _ := m.sites.get(sid)
			if site.IsUp {
				targets[sid] = struct{}{}
			}
		}
		return targets
	}
	home := homeSite(idx, m.cfg.SiteCount)
	site, _ := m.sites.get(home)
	if site.IsUp {
		targets[home] = struct{}{}
	}
	return targets
}
