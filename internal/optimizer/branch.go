package optimizer

import "sort"

// ComputeBranches performs the second, ascending pass of spec.md §4.4: for
// every node it computes the unclosed-branch stack, the set of ancestor
// fan-out points (branches) the node participates in that have not yet been
// reconverged by a later join.
//
// Because NodeID is assigned in post-order (BuildGraph), a node's inputs
// always have a strictly smaller id, so a single ascending pass over
// g.Nodes already visits every node after all of its inputs -- no
// additional topological sort is needed.
func ComputeBranches(g *Graph) map[NodeID][]NodeID {
	branches := make(map[NodeID][]NodeID, len(g.Nodes))

	for _, n := range g.Nodes {
		var open []NodeID

		if len(n.Inputs) <= 1 {
			if len(n.Inputs) == 1 {
				open = append(open, branches[n.Inputs[0]]...)
			}
		} else {
			// A branch closes at n exactly when it appears in the open set
			// of every one of n's inputs -- all of its paths have
			// reconverged here.
			counts := make(map[NodeID]int)
			for _, in := range n.Inputs {
				seen := make(map[NodeID]bool)
				for _, b := range branches[in] {
					if !seen[b] {
						counts[b]++
						seen[b] = true
					}
				}
			}
			for b, c := range counts {
				if c < len(n.Inputs) {
					open = append(open, b)
				}
			}
		}

		if n.outputEdgeCount > 1 {
			open = append(open, n.ID)
		}

		branches[n.ID] = dedupSortedIDs(open)
		n.UnclosedBranches = branches[n.ID]
	}

	return branches
}

func dedupSortedIDs(ids []NodeID) []NodeID {
	if len(ids) == 0 {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
