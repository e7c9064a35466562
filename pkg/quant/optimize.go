package quant

import "slices"

// OptimizePalette refines the palette with the given number of relaxation
// passes. Each pass assigns every histogram entry to its nearest cluster mean
// and recomputes the means. The total error never increases from one pass to
// the next.
func (q *Quantizer) OptimizePalette(iterations int) error {
	if q.numColors == 0 {
		return ErrNoPalette
	}
	q.optimize(iterations)
	return nil
}

func (q *Quantizer) optimize(iterations int) {
	q.optimized = true
	if q.hist.len() == 0 {
		return
	}

	entries := q.hist.entries
	order := q.hist.traversal()
	for pass := range iterations {
		for i := range q.numColors {
			q.nodes[i].members = nil
		}
		for _, idx := range order {
			j := q.FindNearestColor(entries[idx].color)
			q.nodes[j].members = append(q.nodes[j].members, idx)
		}
		for i := range q.numColors {
			nd := &q.nodes[i]
			slices.Reverse(nd.members)
			q.sumNode(nd)
		}
		q.log.Trace("relaxation pass", "pass", pass, "colors", q.numColors, "error", q.TotalError())
	}
	if iterations > 0 {
		q.stale = false
	}
	q.hist.resetCaches()
}
