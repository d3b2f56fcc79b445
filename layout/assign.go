package layout

import (
	"math"
	"sort"
)

// buildNestedStructure links the parallel groups into containment trees.
// The first wave's events become roots; every later group searches the
// groups before it, nearest first, for one it may nest under, and the
// first group passing the veto, gap, and containment checks takes it.
// Groups that fit nowhere become additional roots.
func (t *tree) buildNestedStructure() {
	for _, idx := range t.members[0] {
		t.addRoot(idx)
	}
	for i := 1; i < len(t.groups); i++ {
		nested := false
		for j := i - 1; j >= 0; j-- {
			if t.groupVetoed(i, j) {
				continue
			}
			if t.groups[i].startHour < t.groups[j].startHour+nestedThreshold {
				continue
			}
			if !t.groupContains(j, i) {
				continue
			}
			t.assignGroup(i, j)
			nested = true
			break
		}
		if !nested {
			for _, idx := range t.members[i] {
				t.addRoot(idx)
			}
		}
	}
}

// groupVetoed reports whether any cross-group event pair overlaps with
// starts inside the veto window. One such pair forbids nesting childGroup
// under parentGroup entirely; those events must stay siblings.
func (t *tree) groupVetoed(childGroup, parentGroup int) bool {
	for _, p := range t.groups[parentGroup].events {
		for _, c := range t.groups[childGroup].events {
			if nestingVetoed(p, c) {
				return true
			}
		}
	}
	return false
}

// groupContains reports whether some event of parentGroup temporally
// contains some event of childGroup.
func (t *tree) groupContains(parentGroup, childGroup int) bool {
	for _, p := range t.groups[parentGroup].events {
		for _, c := range t.groups[childGroup].events {
			if containsEvent(p, c) {
				return true
			}
		}
	}
	return false
}

// assignGroup distributes childGroup's events over parentGroup's nodes.
func (t *tree) assignGroup(childGroup, parentGroup int) {
	parents := t.members[parentGroup]
	children := t.members[childGroup]
	switch {
	case len(children) == 1:
		t.assignBalanced(children, parents, 0)
	case len(parents) == 1:
		parent := parents[0]
		for _, c := range children {
			if containsEvent(t.nodes[parent].event, t.nodes[c].event) {
				t.attach(parent, c)
			} else {
				t.placeOrphan(c, parents)
			}
		}
	case len(children)%len(parents) == 0:
		t.assignBalanced(children, parents, len(children)/len(parents))
	default:
		t.assignBalanced(children, parents, 0)
	}
}

// assignBalanced attaches children longest first, each to the containing
// parent carrying the least load. quota > 0 caps how many children one
// parent may take in this round, which spreads an evenly divisible wave
// across all parents. Children no parent contains fall through to
// placeOrphan.
func (t *tree) assignBalanced(children, parents []int, quota int) {
	ordered := make([]int, len(children))
	copy(ordered, children)
	sort.SliceStable(ordered, func(a, b int) bool {
		return t.nodes[ordered[a]].event.Duration() > t.nodes[ordered[b]].event.Duration()
	})
	taken := make(map[int]int, len(parents))
	for _, c := range ordered {
		best := -1
		for _, p := range parents {
			if quota > 0 && taken[p] >= quota {
				continue
			}
			if !containsEvent(t.nodes[p].event, t.nodes[c].event) {
				continue
			}
			if best < 0 || t.betterParent(p, best, c) {
				best = p
			}
		}
		if best < 0 {
			t.placeOrphan(c, parents)
			continue
		}
		t.attach(best, c)
		taken[best]++
	}
}

// betterParent ranks candidate above incumbent for child: fewer existing
// children first, then a branch already holding a parallel companion of
// the child, then the temporally closer start.
func (t *tree) betterParent(candidate, incumbent, child int) bool {
	candLoad := len(t.nodes[candidate].children)
	incLoad := len(t.nodes[incumbent].children)
	if candLoad != incLoad {
		return candLoad < incLoad
	}
	candPar := t.hasParallelSibling(candidate, t.nodes[child].event)
	incPar := t.hasParallelSibling(incumbent, t.nodes[child].event)
	if candPar != incPar {
		return candPar
	}
	childStart := t.nodes[child].event.StartHour
	candDist := math.Abs(t.nodes[candidate].event.StartHour - childStart)
	incDist := math.Abs(t.nodes[incumbent].event.StartHour - childStart)
	return candDist < incDist
}

// hasParallelSibling reports whether parent already has a child that would
// render side by side with ev, which keeps simultaneous events in the same
// branch.
func (t *tree) hasParallelSibling(parent int, ev Event) bool {
	for _, c := range t.nodes[parent].children {
		if shouldRenderParallel(t.nodes[c].event, ev) {
			return true
		}
	}
	return false
}

// placeOrphan handles a child no candidate parent contains: it looks
// cross-branch for an alternate branch root, a top-level root outside the
// branches its wave nests into that can contain it and carries strictly
// less load than the lightest of those branches. Without one the child
// starts a tree of its own.
func (t *tree) placeOrphan(child int, parents []int) {
	currentRoots := map[int]bool{}
	lightest := -1
	for _, p := range parents {
		r := t.rootOf(p)
		if currentRoots[r] {
			continue
		}
		currentRoots[r] = true
		if load := t.subtreeSize(r); lightest < 0 || load < lightest {
			lightest = load
		}
	}

	best, bestLoad := -1, 0
	for _, r := range t.roots {
		if currentRoots[r] {
			continue
		}
		if t.nodes[r].group >= t.nodes[child].group {
			continue
		}
		if !containsEvent(t.nodes[r].event, t.nodes[child].event) {
			continue
		}
		load := t.subtreeSize(r)
		if load >= lightest {
			continue
		}
		if best < 0 || load < bestLoad {
			best, bestLoad = r, load
		}
	}
	if best >= 0 {
		t.attach(best, child)
		return
	}
	t.addRoot(child)
}
