package optimizer

import "testing"

func TestComputeBranchesLinearChainHasNoOpenBranches(t *testing.T) {
	g, err := BuildGraph(wordCountPlan(), BuildOptions{DefaultParallelism: 1})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	ComputeBranches(g)
	for _, n := range g.Nodes {
		if len(n.UnclosedBranches) != 0 {
			t.Errorf("node %d (%v) in a linear chain should have no unclosed branches, got %v", n.ID, n.Kind, n.UnclosedBranches)
		}
	}
}

func TestComputeBranchesClosesAtReconvergence(t *testing.T) {
	plan, source, match := diamondPlan()
	g, err := BuildGraph(plan, BuildOptions{DefaultParallelism: 1})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	ComputeBranches(g)

	sourceID := g.contractToNode[source]
	matchID := g.contractToNode[match]

	if !containsID(g.Node(sourceID).UnclosedBranches, sourceID) {
		t.Errorf("the fan-out source itself should be an open branch below its two consumers, got %v", g.Node(sourceID).UnclosedBranches)
	}
	if containsID(g.Node(matchID).UnclosedBranches, sourceID) {
		t.Errorf("the branch must close at the reconverging Match, but it is still open: %v", g.Node(matchID).UnclosedBranches)
	}
}

func containsID(ids []NodeID, want NodeID) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
