package layout

import (
	"log/slog"
	"sort"
)

// Geometry constants, in percent of the day column width unless stated.
const (
	edgeMargin    = 2.0
	rootMargin    = 1.0
	minEventWidth = 5.0

	// per-depth left shift; week columns are narrow, so nesting must
	// indent harder to stay visible
	dayIndentStep  = 3.0
	weekIndentStep = 5.0

	// informational pixel shift per nesting depth
	dayIndentPixels  = 8
	weekIndentPixels = 12

	// margin between parallel children, narrower than between roots
	siblingMarginShallow = 0.75
	siblingMarginDeep    = 0.5
)

func indentStep(view View) float64 {
	if view == ViewWeek {
		return weekIndentStep
	}
	return dayIndentStep
}

func indentPixels(view View) int {
	if view == ViewWeek {
		return weekIndentPixels
	}
	return dayIndentPixels
}

// depthAdjustment is the extra left shift applied on top of the plain
// indent, growing slightly with depth and with the week view.
func depthAdjustment(view View, depth int) float64 {
	if depth <= 0 {
		return 0
	}
	if view == ViewWeek {
		switch depth {
		case 1:
			return 1.5
		case 2:
			return 2.5
		}
		return 3.25
	}
	switch depth {
	case 1:
		return 1.0
	case 2:
		return 1.75
	}
	return 2.25
}

func siblingMargin(depth int) float64 {
	if depth <= 1 {
		return siblingMarginShallow
	}
	return siblingMarginDeep
}

// computeGeometry walks the finished forest top-down and fills layouts.
// Overlap components are temporally disjoint, so every forest gets the
// full usable width; multiple roots split it evenly in start order.
func (t *tree) computeGeometry(view View, layouts map[string]EventLayout) {
	roots := t.sortedByStart(t.roots)
	usable := 100.0 - edgeMargin
	if len(roots) == 1 {
		t.placeNode(roots[0], view, 0, usable, layouts)
		return
	}
	slice := (usable - float64(len(roots)-1)*rootMargin) / float64(len(roots))
	for i, r := range roots {
		t.placeNode(r, view, float64(i)*(slice+rootMargin), slice, layouts)
	}
}

// placeNode positions one node inside the slice delimited by baseLeft and
// availableWidth, then recurses into its children.
func (t *tree) placeNode(idx int, view View, baseLeft, availableWidth float64, layouts map[string]EventLayout) {
	n := t.nodes[idx]

	// relocated nodes indent with the depth they had in their original
	// branch, so they still line up with the events they overlap
	indentDepth := n.depth
	if rel, ok := t.relocated[idx]; ok {
		indentDepth = rel.origDepth
	}
	shift := float64(indentDepth)*indentStep(view) + depthAdjustment(view, indentDepth)
	if maxShift := availableWidth - minEventWidth; shift > maxShift {
		shift = maxShift
		if shift < 0 {
			shift = 0
		}
	}
	left := baseLeft + shift
	width := availableWidth - shift
	if left+width > 100-edgeMargin {
		slog.Warn("layout: clamping event to the usable width",
			"id", n.event.ID, "left", left, "width", width)
		width = 100 - edgeMargin - left
	}

	layouts[n.event.ID] = EventLayout{
		ID:           n.event.ID,
		Left:         left,
		Width:        width,
		ZIndex:       n.depth,
		Level:        n.depth,
		IsPrimary:    n.depth == 0,
		IndentOffset: indentDepth * indentPixels(view),
		Importance:   importanceOf(n.event),
	}

	children := t.sortedByStart(n.children)
	switch {
	case len(children) == 0:
	case len(children) == 1:
		t.placeNode(children[0], view, left, width, layouts)
	case t.anyParallelPair(children):
		margin := siblingMargin(n.depth + 1)
		slice := (width - float64(len(children)-1)*margin) / float64(len(children))
		for i, c := range children {
			t.placeNode(c, view, left+float64(i)*(slice+margin), slice, layouts)
		}
	default:
		// temporally disjoint within the parent's span, so every child
		// may reuse the parent's full slice
		for _, c := range children {
			t.placeNode(c, view, left, width, layouts)
		}
	}
}

// anyParallelPair reports whether any two of the nodes must render side by
// side.
func (t *tree) anyParallelPair(indices []int) bool {
	for i := 0; i < len(indices); i++ {
		for j := i + 1; j < len(indices); j++ {
			if shouldRenderParallel(t.nodes[indices[i]].event, t.nodes[indices[j]].event) {
				return true
			}
		}
	}
	return false
}

// sortedByStart copies indices ordered by event start ascending, longer
// events first on ties.
func (t *tree) sortedByStart(indices []int) []int {
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.SliceStable(sorted, func(a, b int) bool {
		ea, eb := t.nodes[sorted[a]].event, t.nodes[sorted[b]].event
		if ea.StartHour != eb.StartHour {
			return ea.StartHour < eb.StartHour
		}
		return ea.Duration() > eb.Duration()
	})
	return sorted
}
