package layout

// node is one event inside the nesting forest of a single overlap
// component. Nodes live in a flat arena and refer to each other by index,
// which keeps the structure acyclic by construction: a node may only be
// attached under a node of an earlier parallel group.
type node struct {
	event    Event
	parent   int
	children []int
	depth    int
	group    int
}

// relocation remembers where the load balancer took a node from, so the
// geometry pass can keep its indentation aligned with the branch it
// actually overlaps.
type relocation struct {
	origDepth int
	origRoot  int
}

// tree is the nesting forest for one overlap component.
type tree struct {
	nodes     []node
	roots     []int
	groups    []parallelGroup
	members   [][]int
	relocated map[int]relocation
}

// newTree allocates one unattached node per event, in group order. Nesting
// structure is added afterwards by buildNestedStructure.
func newTree(groups []parallelGroup) *tree {
	t := &tree{
		groups:    groups,
		members:   make([][]int, len(groups)),
		relocated: map[int]relocation{},
	}
	for g, group := range groups {
		for _, ev := range group.events {
			t.nodes = append(t.nodes, node{event: ev, parent: -1, group: g})
			t.members[g] = append(t.members[g], len(t.nodes)-1)
		}
	}
	return t
}

func (t *tree) addRoot(idx int) {
	t.nodes[idx].depth = 0
	t.roots = append(t.roots, idx)
}

// attach links a childless node under parent and derives its depth.
func (t *tree) attach(parent, child int) {
	t.nodes[child].parent = parent
	t.nodes[child].depth = t.nodes[parent].depth + 1
	t.nodes[parent].children = append(t.nodes[parent].children, child)
}

// detach unlinks a non-root node from its parent.
func (t *tree) detach(child int) {
	parent := t.nodes[child].parent
	if parent < 0 {
		return
	}
	siblings := t.nodes[parent].children
	for i, c := range siblings {
		if c == child {
			t.nodes[parent].children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	t.nodes[child].parent = -1
}

// rootOf walks up to the top-level root above idx.
func (t *tree) rootOf(idx int) int {
	for t.nodes[idx].parent >= 0 {
		idx = t.nodes[idx].parent
	}
	return idx
}

// subtreeSize counts the nodes of the subtree rooted at idx, including
// idx itself. This is the "load" the balancer evens out.
func (t *tree) subtreeSize(idx int) int {
	size := 1
	for _, c := range t.nodes[idx].children {
		size += t.subtreeSize(c)
	}
	return size
}

// subtreeLeaves collects the childless nodes below idx in depth-first
// order. idx itself is never included.
func (t *tree) subtreeLeaves(idx int) []int {
	var leaves []int
	var walk func(int)
	walk = func(cur int) {
		for _, c := range t.nodes[cur].children {
			if len(t.nodes[c].children) == 0 {
				leaves = append(leaves, c)
				continue
			}
			walk(c)
		}
	}
	walk(idx)
	return leaves
}
