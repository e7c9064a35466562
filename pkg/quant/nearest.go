package quant

// FindNearestColor returns the index of the active cluster mean closest to c.
// Ties go to the lowest index. The result is 0 when no colour is active.
func (q *Quantizer) FindNearestColor(c Color) int {
	bestv := q.bound
	besti := 0
	for i := range q.numColors {
		if d := c.distSq(q.nodes[i].avg); d < bestv {
			bestv = d
			besti = i
		}
	}
	return besti
}
