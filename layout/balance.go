package layout

// rebalance evens out the load between the branches each wave nests into,
// so no single branch ends up visually overcrowded. Waves are revisited
// from the latest backwards; the first wave has nothing above it to
// balance against.
func (t *tree) rebalance() {
	for g := len(t.groups) - 1; g >= 1; g-- {
		t.rebalanceGroup(g)
	}
}

// rebalanceGroup moves leaves from the heaviest to the lightest of the
// branches group's events attach to, until their subtree loads differ by
// less than balanceLoadDelta or the iteration cap is hit. Hitting the cap
// leaves a residual imbalance and is not an error.
func (t *tree) rebalanceGroup(group int) {
	parents := t.distinctParents(group)
	if len(parents) < 2 {
		return
	}
	for iter := 0; iter < maxBalanceIterations; iter++ {
		heavy, light := t.loadExtremes(parents)
		if t.subtreeSize(heavy)-t.subtreeSize(light) < balanceLoadDelta {
			return
		}
		leaf := t.transferableLeaf(heavy, light)
		if leaf < 0 {
			return
		}
		t.transfer(leaf, light)
	}
}

// distinctParents lists the current parents of group's events in
// first-seen order. Events that are roots contribute nothing.
func (t *tree) distinctParents(group int) []int {
	var parents []int
	seen := map[int]bool{}
	for _, idx := range t.members[group] {
		p := t.nodes[idx].parent
		if p < 0 || seen[p] {
			continue
		}
		seen[p] = true
		parents = append(parents, p)
	}
	return parents
}

// loadExtremes returns the heaviest and lightest of parents by subtree
// size; the first wins ties.
func (t *tree) loadExtremes(parents []int) (heavy, light int) {
	heavy, light = parents[0], parents[0]
	heavyLoad, lightLoad := t.subtreeSize(heavy), t.subtreeSize(light)
	for _, p := range parents[1:] {
		load := t.subtreeSize(p)
		if load > heavyLoad {
			heavy, heavyLoad = p, load
		}
		if load < lightLoad {
			light, lightLoad = p, load
		}
	}
	return heavy, light
}

// transferableLeaf picks a leaf under heavy that may legally reattach
// below light, preferring one that light temporally contains. Leaves
// already sitting below light are no help; candidate parents can share a
// branch when they sit at different depths of it.
func (t *tree) transferableLeaf(heavy, light int) int {
	fallback := -1
	for _, leaf := range t.subtreeLeaves(heavy) {
		if t.inSubtree(leaf, light) || !t.canReceive(light, leaf) {
			continue
		}
		if containsEvent(t.nodes[light].event, t.nodes[leaf].event) {
			return leaf
		}
		if fallback < 0 {
			fallback = leaf
		}
	}
	return fallback
}

// inSubtree reports whether idx sits at or below ancestor.
func (t *tree) inSubtree(idx, ancestor int) bool {
	for idx >= 0 {
		if idx == ancestor {
			return true
		}
		idx = t.nodes[idx].parent
	}
	return false
}

// canReceive reports whether leaf may reattach below parent without
// breaking the earlier-group rule, either directly or under one of the
// parent's children.
func (t *tree) canReceive(parent, leaf int) bool {
	if t.nodes[parent].group < t.nodes[leaf].group {
		return true
	}
	return t.compatibleChild(parent, leaf) >= 0
}

// compatibleChild finds a child of parent from an earlier group than leaf
// that temporally contains it, or -1.
func (t *tree) compatibleChild(parent, leaf int) int {
	for _, c := range t.nodes[parent].children {
		if t.nodes[c].group < t.nodes[leaf].group &&
			containsEvent(t.nodes[c].event, t.nodes[leaf].event) {
			return c
		}
	}
	return -1
}

// transfer reattaches leaf below light, nesting under a compatible child
// when one exists, and records the leaf's original position the first
// time it moves so the geometry pass can indent it with its old branch.
func (t *tree) transfer(leaf, light int) {
	if _, ok := t.relocated[leaf]; !ok {
		t.relocated[leaf] = relocation{
			origDepth: t.nodes[leaf].depth,
			origRoot:  t.rootOf(leaf),
		}
	}
	t.detach(leaf)
	if c := t.compatibleChild(light, leaf); c >= 0 {
		t.attach(c, leaf)
		return
	}
	t.attach(light, leaf)
}
