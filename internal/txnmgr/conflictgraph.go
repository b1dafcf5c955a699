// SSI conflict graph (spec §4.4 Gate C): RW edges from readers index, WW
// edges from version history, DFS cycle detection rooted at the candidate.
//
// Grounded on the teacher's internal/docdb/commit_history.go hasConflict
// helper (read-set/write-set intersection for SSI-lite), generalized from a
// pairwise bounded-history check into the full RW+WW graph + reachability
// check the spec requires, since the spec's topology is small enough
// (bounded by the number of transactions seen) that a throwaway per-commit
// build is simpler and safer than incremental maintenance (spec §9).
package txnmgr

// buildConflictGraph returns, for every non-aborted transaction in
// {committed} U {candidate}, its set of out-edges (reader->writer,
// earlier-writer->later-writer).
func (m *Manager) buildConflictGraph(candidateTID string) map[string]map[string]struct{} {
	nodes := make(map[string]struct{})
	for tid, t := range m.txs.All() {
		if t.Status == TxAborted {
			continue
		}
		if t.Status == TxCommitted || tid == candidateTID {
			nodes[tid] = struct{}{}
		}
	}

	graph := make(map[string]map[string]struct{}, len(nodes))
	for tid := range nodes {
		graph[tid] = make(map[string]struct{})
	}
	addEdge := func(from, to string) {
		if from == to {
			return
		}
		graph[from][to] = struct{}{}
	}

	// RW edges: reader -> writer, when their intervals overlap.
	for variable, readerSet := range m.readers {
		var writers []string
		for tid := range nodes {
			t, _ := m.txs.Get(tid)
			if _, writes := t.WriteBuffer[variable]; writes {
				writers = append(writers, tid)
			}
		}
		for r := range readerSet {
			if _, inNodes := nodes[r]; !inNodes {
				continue
			}
			rTx, _ := m.txs.Get(r)
			rStart, rEnd := rTx.Interval(m.now)
			for _, w := range writers {
				if w == r {
					continue
				}
				wTx, _ := m.txs.Get(w)
				wStart, wEnd := wTx.Interval(m.now)
				if rStart <= wEnd && wStart <= rEnd {
					addEdge(r, w)
				}
			}
		}
	}

	// WW edges: earlier writer -> later writer, no overlap check.
	for _, variable := range m.varOrder {
		var writers []struct {
			tid string
			ct  int
		}
		for _, w := range m.vars.Writers(variable) {
			if _, inNodes := nodes[w.TID]; inNodes {
				writers = append(writers, struct {
					tid string
					ct  int
				}{w.TID, w.CommitTime})
			}
		}
		if candidateTID != "" {
			if candTx, ok := m.txs.Get(candidateTID); ok {
				if _, writes := candTx.WriteBuffer[variable]; writes {
					writers = append(writers, struct {
						tid string
						ct  int
					}{candidateTID, m.now})
				}
			}
		}
		sortWritersByCommitTime(writers)
		for i := range writers {
			for j := i + 1; j < len(writers); j++ {
				addEdge(writers[i].tid, writers[j].tid)
			}
		}
	}

	return graph
}

func sortWritersByCommitTime(ws []struct {
	tid string
	ct  int
}) {
	for i := 1; i < len(ws); i++ {
		for j := i; j > 0 && ws[j].ct < ws[j-1].ct; j-- {
			ws[j], ws[j-1] = ws[j-1], ws[j]
		}
	}
}

// hasCycleInvolving runs a DFS from tid and reports whether a back-edge to a
// node on the current stack is found, i.e. whether any cycle is reachable
// from tid. Because the DFS is rooted at tid, tid stays on the stack for the
// whole search, so the tid-on-stack check below always holds. A reachable
// cycle that does not pass through tid would have to lie entirely among
// committed transactions, each of which passed this same check when it
// committed.
func hasCycleInvolving(graph map[string]map[string]struct{}, tid string) bool {
	if _, ok := graph[tid]; !ok {
		return false
	}
	visited := make(map[string]struct{})
	onStack := make(map[string]struct{})

	var dfs func(u string) bool
	dfs = func(u string) bool {
		visited[u] = struct{}{}
		onStack[u] = struct{}{}
		for v := range graph[u] {
			if _, seen := visited[v]; !seen {
				if dfs(v) {
					return true
				}
			} else if _, onS := onStack[v]; onS {
				if _, tidOnStack := onStack[tid]; tidOnStack {
					return true
				}
			}
		}
		delete(onStack, u)
		return false
	}
	return dfs(tid)
}
