package layout

import (
	"fmt"
	"testing"
)

// rebalance is exercised on hand-built forests so the iteration cap and
// the relocation bookkeeping are visible without the full pipeline.

func TestRebalanceMovesLeafToLighterBranch(t *testing.T) {
	tr := newTree([]parallelGroup{
		{events: []Event{tev("p1", 9, 13), tev("p2", 9.05, 13)}, startHour: 9, endHour: 13},
		{events: []Event{
			tev("a", 9.6, 10),
			tev("b", 9.65, 10.1),
			tev("c", 9.7, 10.2),
			tev("d", 9.75, 10.3),
		}, startHour: 9.6, endHour: 10.3},
	})
	p1 := findNode(t, tr, "p1")
	p2 := findNode(t, tr, "p2")
	tr.addRoot(p1)
	tr.addRoot(p2)
	for _, id := range []string{"a", "b", "c"} {
		tr.attach(p1, findNode(t, tr, id))
	}
	tr.attach(p2, findNode(t, tr, "d"))

	tr.rebalance()

	if got := tr.subtreeSize(p1); got != 3 {
		t.Errorf("p1 load = %d, want 3", got)
	}
	if got := tr.subtreeSize(p2); got != 3 {
		t.Errorf("p2 load = %d, want 3", got)
	}
	moved := findNode(t, tr, "a")
	if tr.nodes[moved].parent != p2 {
		t.Fatalf("expected the first containable leaf to move under p2, got parent %d", tr.nodes[moved].parent)
	}
	rel, ok := tr.relocated[moved]
	if !ok {
		t.Fatal("moved leaf has no relocation record")
	}
	if rel.origDepth != 1 || rel.origRoot != p1 {
		t.Errorf("relocation = %+v, want origDepth 1 origRoot %d", rel, p1)
	}
}

func TestRebalanceResidualImbalanceAtCap(t *testing.T) {
	children := make([]Event, 15)
	for i := range children {
		children[i] = tev(fmt.Sprintf("c%02d", i), 9.6+float64(i)*0.01, 10.5)
	}
	tr := newTree([]parallelGroup{
		{events: []Event{tev("p1", 9, 13), tev("p2", 9.05, 13)}, startHour: 9, endHour: 13},
		{events: children, startHour: 9.6, endHour: 10.5},
	})
	p1 := findNode(t, tr, "p1")
	p2 := findNode(t, tr, "p2")
	tr.addRoot(p1)
	tr.addRoot(p2)
	for i := 0; i < 14; i++ {
		tr.attach(p1, findNode(t, tr, fmt.Sprintf("c%02d", i)))
	}
	tr.attach(p2, findNode(t, tr, "c14"))

	tr.rebalance()

	// 15 vs 2 cannot converge in 5 moves; the cap leaves a residual
	if got := tr.subtreeSize(p1); got != 10 {
		t.Errorf("p1 load = %d, want 10", got)
	}
	if got := tr.subtreeSize(p2); got != 7 {
		t.Errorf("p2 load = %d, want 7", got)
	}
	if got := len(tr.relocated); got != 5 {
		t.Errorf("relocation records = %d, want 5", got)
	}
	for idx, rel := range tr.relocated {
		if rel.origDepth != 1 || rel.origRoot != p1 {
			t.Errorf("node %d relocation = %+v, want origDepth 1 origRoot %d", idx, rel, p1)
		}
		if tr.nodes[idx].parent != p2 {
			t.Errorf("node %d parent = %d, want p2 (%d)", idx, tr.nodes[idx].parent, p2)
		}
	}
}

func TestRebalanceSkipsNearlyBalanced(t *testing.T) {
	tr := newTree([]parallelGroup{
		{events: []Event{tev("p1", 9, 13), tev("p2", 9.05, 13)}, startHour: 9, endHour: 13},
		{events: []Event{
			tev("a", 9.6, 10),
			tev("b", 9.65, 10.1),
			tev("c", 9.7, 10.2),
		}, startHour: 9.6, endHour: 10.2},
	})
	p1 := findNode(t, tr, "p1")
	p2 := findNode(t, tr, "p2")
	tr.addRoot(p1)
	tr.addRoot(p2)
	tr.attach(p1, findNode(t, tr, "a"))
	tr.attach(p1, findNode(t, tr, "b"))
	tr.attach(p2, findNode(t, tr, "c"))

	tr.rebalance()

	if got := tr.subtreeSize(p1); got != 3 {
		t.Errorf("p1 load = %d, want 3 untouched", got)
	}
	if len(tr.relocated) != 0 {
		t.Errorf("a load difference below the trigger must not move anything, got %d relocations", len(tr.relocated))
	}
}

func TestRebalanceSingleBranchNoop(t *testing.T) {
	tr := newTree([]parallelGroup{
		{events: []Event{tev("p1", 9, 13)}, startHour: 9, endHour: 13},
		{events: []Event{tev("a", 9.6, 10), tev("b", 9.65, 10.1)}, startHour: 9.6, endHour: 10.1},
	})
	p1 := findNode(t, tr, "p1")
	tr.addRoot(p1)
	tr.attach(p1, findNode(t, tr, "a"))
	tr.attach(p1, findNode(t, tr, "b"))

	tr.rebalance()

	if len(tr.relocated) != 0 {
		t.Errorf("one branch has nothing to balance against, got %d relocations", len(tr.relocated))
	}
	if got := tr.subtreeSize(p1); got != 3 {
		t.Errorf("p1 load = %d, want 3", got)
	}
}
