package txnmgr

import "github.com/sh-r/repcrec/internal/trace"

// Begin handles begin(T<k>) (spec §4.7): advances the clock and creates tid
// at the current time unless it is already active, in which case this is a
// no-op (matching the original implementation's begin()).
func (m *Manager) Begin(tid string) {
	m.tick()
	tx, created := m.txs.Begin(tid, m.now)
	if !created {
		return
	}
	m.log.Info("begin %s at time %d", tid, tx.StartTime)
	m.emit(trace.Event{Kind: trace.Begin, TID: tid})
}
