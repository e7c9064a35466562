package quant

import (
	"fmt"
	"math"
	"slices"
)

// Quantize grows the palette to n colours by repeatedly splitting the cluster
// whose split removes the most variance. n is clamped to [1, MaxColors].
// Growth stops early once no cluster can be split, so the palette never holds
// more colours than distinct colours were fed.
// Relaxation is deferred until the palette is read or an image is mapped.
func (q *Quantizer) Quantize(n int) error {
	return q.QuantizeEx(n, false)
}

// QuantizeHQ is Quantize with one relaxation pass after every split. It is
// slower and usually gives a lower error.
func (q *Quantizer) QuantizeHQ(n int) error {
	return q.QuantizeEx(n, true)
}

// QuantizeEx grows the palette to n colours, relaxing after each split when hq
// is set.
func (q *Quantizer) QuantizeEx(n int, hq bool) error {
	if q.hist.len() == 0 {
		return ErrEmptyHistogram
	}
	n = max(1, min(n, MaxColors))

	if q.numColors == 0 {
		q.seed()
	} else if q.stale {
		q.optimize(1)
	}

	start := q.numColors
	for i := q.numColors; i < n; i++ {
		best := q.bestSplit(i)
		if q.nodes[best].vdif <= 0 {
			// Every cluster holds a single colour.
			break
		}
		q.splitNode(best, i)
		q.numColors = i + 1
		if hq {
			q.optimize(1)
		}
	}

	if q.numColors > start {
		q.hist.resetCaches()
		q.log.Debug("quantized", "colors", q.numColors, "from", start, "hq", hq, "mean_error", q.MeanError())
	}
	q.optimized = false
	return nil
}

// seed places every histogram entry in node 0.
func (q *Quantizer) seed() {
	order := q.hist.traversal()
	members := make([]int32, len(order))
	for i, idx := range order {
		members[len(order)-1-i] = idx
	}
	q.nodes[0].members = members
	q.sumNode(&q.nodes[0])
	q.numColors = 1
	q.stale = false
}

// bestSplit returns the node among the first active ones with the largest
// vdif. The comparison is non-strict, so the scan keeps the last of equal
// candidates. A result with vdif 0 means no node can be split.
func (q *Quantizer) bestSplit(active int) int {
	best, bestV := 0, 0.0
	for j := range active {
		if q.nodes[j].vdif >= bestV {
			bestV = q.nodes[j].vdif
			best = j
		}
	}
	return best
}

// splitNode moves the members of node src before its split point into node
// dst and recomputes both. Each group is reversed as it moves.
func (q *Quantizer) splitNode(src, dst int) {
	from := &q.nodes[src]
	k := min(from.split, len(from.members))

	moved := slices.Clone(from.members[:k])
	slices.Reverse(moved)
	kept := from.members[k:]
	slices.Reverse(kept)

	q.log.Trace("split", "node", src, "into", dst, "gain", from.vdif, "moved", len(moved), "kept", len(kept))

	q.nodes[dst].members = moved
	from.members = kept
	q.sumNode(from)
	q.sumNode(&q.nodes[dst])
}

// sumNode recomputes a node's statistics from its members and plans its next
// split: it orders the members along an approximate principal axis and picks
// the prefix that minimises the summed variance of both halves.
func (q *Quantizer) sumNode(nd *node) {
	entries := q.hist.entries

	var fsum, fsum2 Color
	n := 0
	for _, m := range nd.members {
		e := &entries[m]
		num := float64(e.num)
		n += e.num
		fsum.R += e.color.R * num
		fsum.G += e.color.G * num
		fsum.B += e.color.B * num
		fsum.A += e.color.A * num
		fsum2.R += e.color.R * e.color.R * num
		fsum2.G += e.color.G * e.color.G * num
		fsum2.B += e.color.B * e.color.B * num
		fsum2.A += e.color.A * e.color.A * num
	}
	nd.num = n
	if n == 0 {
		nd.vdif = 0
		nd.err = 0
		nd.split = 0
		return
	}

	fn := float64(n)
	nd.avg = Color{fsum.R / fn, fsum.G / fn, fsum.B / fn, fsum.A / fn}

	vc := Color{
		R: fsum2.R - fsum.R*nd.avg.R,
		G: fsum2.G - fsum.G*nd.avg.G,
		B: fsum2.B - fsum.B*nd.avg.B,
		A: fsum2.A - fsum.A*nd.avg.A,
	}
	v := vc.R + vc.G + vc.B + vc.A
	nd.err = v

	if n < 2 {
		nd.dir = Color{}
		nd.vdif = 0
		nd.split = min(1, len(nd.members))
		return
	}
	nd.vdif = -v

	tmp := q.scratch(len(nd.members))
	meanSort(entries, nd.members, widestChannel(vc), tmp)

	nd.dir = principalAxis(entries, nd.members, nd.avg)
	meanSort(entries, nd.members, byDirection(nd.dir), tmp)

	var sum, sum2 Color
	n2 := 0
	split, pending := 0, false
	for idx, m := range nd.members {
		if pending {
			split = idx
			pending = false
		}

		e := &entries[m]
		num := float64(e.num)
		n2 += e.num
		sum.R += e.color.R * num
		sum.G += e.color.G * num
		sum.B += e.color.B * num
		sum.A += e.color.A * num
		sum2.R += e.color.R * e.color.R * num
		sum2.G += e.color.G * e.color.G * num
		sum2.B += e.color.B * e.color.B * num
		sum2.A += e.color.A * e.color.A * num

		if n2 == n {
			break
		}

		fn2 := float64(n2)
		rest := float64(n - n2)
		left := Color{
			R: sum2.R - sum.R*sum.R/fn2,
			G: sum2.G - sum.G*sum.G/fn2,
			B: sum2.B - sum.B*sum.B/fn2,
			A: sum2.A - sum.A*sum.A/fn2,
		}
		right := Color{
			R: (fsum2.R - sum2.R) - (fsum.R-sum.R)*(fsum.R-sum.R)/rest,
			G: (fsum2.G - sum2.G) - (fsum.G-sum.G)*(fsum.G-sum.G)/rest,
			B: (fsum2.B - sum2.B) - (fsum.B-sum.B)*(fsum.B-sum.B)/rest,
			A: (fsum2.A - sum2.A) - (fsum.A-sum.A)*(fsum.A-sum.A)/rest,
		}

		nv := left.R + left.G + left.B + left.A + right.R + right.G + right.B + right.A
		if -nv > nd.vdif {
			nd.vdif = -nv
			pending = true
		}
	}

	// Both halves must be non-empty.
	if split == 0 {
		split = 1
	}
	nd.split = split
	nd.vdif += v
}

// principalAxis accumulates count-weighted deviations from avg, flipping each
// one that points against the running sum, and normalises the result. A zero
// sum stays zero.
func principalAxis(entries []entry, members []int32, avg Color) Color {
	var dir Color
	for _, m := range members {
		e := &entries[m]
		tmp := e.color.sub(avg).scale(float64(e.num))
		if tmp.dot(dir) < 0 {
			tmp = tmp.scale(-1)
		}
		dir = dir.add(tmp)
	}
	l := dir.dot(dir)
	if l == 0 {
		return Color{}
	}
	return dir.scale(1 / math.Sqrt(l))
}

// scratch returns a reusable buffer for meanSort.
func (q *Quantizer) scratch(n int) []int32 {
	if cap(q.tmp) < n {
		q.tmp = make([]int32, n)
	}
	return q.tmp[:n]
}

// MeanError returns the root-mean-square distance between fed colours and
// their cluster means, scaled to 8-bit units.
func (q *Quantizer) MeanError() float64 {
	n := 0
	e := 0.0
	for i := range q.numColors {
		n += q.nodes[i].num
		e += q.nodes[i].err
	}
	if n == 0 || e <= 0 {
		return 0
	}
	return math.Sqrt(e/float64(n)) * 256
}

// TotalError returns the summed within-cluster variance of the active nodes.
func (q *Quantizer) TotalError() float64 {
	e := 0.0
	for i := range q.numColors {
		e += q.nodes[i].err
	}
	return e
}

// ClusterSizes returns the pixel count of every active cluster.
func (q *Quantizer) ClusterSizes() []int {
	sizes := make([]int, q.numColors)
	for i := range sizes {
		sizes[i] = q.nodes[i].num
	}
	return sizes
}

func (q *Quantizer) String() string {
	return fmt.Sprintf("Quantizer(colors=%d, unique=%d, pixels=%d)", q.numColors, q.hist.len(), q.hist.pixels)
}
