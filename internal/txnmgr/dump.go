// Snapshot dumper (spec §4.6).
package txnmgr

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sh-r/repcrec/internal/trace"
)

// Dump handles dump(): for each site in ascending id, a line listing its
// held variables in ascending index order with their current committed
// value. Read-gate flags are not shown.
func (m *Manager) Dump() []string {
	m.tick()

	lines := make([]string, 0, len(m.sites.AscendingIDs()))
	for _, sid := range m.sites.AscendingIDs() {
		site, _ := m.sites.get(sid)
		held := site.HeldVariables()
		sort.Slice(held, func(i, j int) bool {
			return variableIndex(held[i]) < variableIndex(held[j])
		})

		parts := make([]string, 0, len(held))
		for _, v := range held {
			val, _ := site.Data(v)
			parts = append(parts, v+": "+strconv.Itoa(val))
		}
		lines = append(lines, "site "+strconv.Itoa(sid)+" - "+strings.Join(parts, ", "))
	}

	m.emit(trace.Event{Kind: trace.Dump, DumpLines: lines})
	return lines
}
