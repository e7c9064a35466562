package quant

// node is one palette colour: a group of histogram entries plus the
// statistics and split plan computed for it.
type node struct {
	// members holds arena indices. Active nodes never share an entry.
	members []int32

	avg Color
	// dir is the approximate unit direction of largest variance.
	dir Color
	// vdif is the variance removed by splitting at split.
	vdif float64
	// err is the total within-cluster variance.
	err float64
	num int

	// split is the first member that stays in this node when it is split;
	// members before it move to the new node.
	split int
}

func (n *node) clear() {
	n.members = nil
	n.num = 0
	n.vdif = 0
	n.err = 0
	n.split = 0
}
