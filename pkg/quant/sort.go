package quant

// sortKey projects a histogram entry onto a scalar.
type sortKey func(e *entry) float64

func byRed(e *entry) float64   { return e.color.R }
func byGreen(e *entry) float64 { return e.color.G }
func byBlue(e *entry) float64  { return e.color.B }
func byAlpha(e *entry) float64 { return e.color.A }

// byDirection projects entries onto dir.
func byDirection(dir Color) sortKey {
	return func(e *entry) float64 {
		return e.color.dot(dir)
	}
}

// widestChannel picks the sort key for the channel with the largest variance.
func widestChannel(vc Color) sortKey {
	switch {
	case vc.R > vc.G && vc.R > vc.B && vc.R > vc.A:
		return byRed
	case vc.G > vc.B && vc.G > vc.A:
		return byGreen
	case vc.B > vc.A:
		return byBlue
	default:
		return byAlpha
	}
}

// meanSort orders members by key with a mean-pivot partition: members below
// the mean go low, the rest go high, and both halves are sorted recursively.
// Each half is filled back to front, so members land in reverse visiting
// order. A pass that leaves one half empty ends the recursion, leaving that
// run reversed. Split positions depend on this exact ordering.
func meanSort(entries []entry, members []int32, key sortKey, tmp []int32) {
	n := len(members)
	if n < 2 {
		return
	}

	sum := 0.0
	for _, m := range members {
		sum += key(&entries[m])
	}
	sum /= float64(n)

	low := 0
	for _, m := range members {
		if key(&entries[m]) < sum {
			low++
		}
	}

	tmp = tmp[:n]
	li, hi := low, n
	for _, m := range members {
		if key(&entries[m]) < sum {
			li--
			tmp[li] = m
		} else {
			hi--
			tmp[hi] = m
		}
	}
	copy(members, tmp)

	if low == 0 || low == n {
		return
	}
	meanSort(entries, members[:low], key, tmp)
	meanSort(entries, members[low:], key, tmp)
}
