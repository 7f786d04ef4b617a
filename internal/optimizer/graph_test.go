package optimizer

import "testing"

func TestBuildGraphRejectsEmptyPlan(t *testing.T) {
	if _, err := BuildGraph(nil, BuildOptions{}); err == nil {
		t.Fatal("expected an error building from a nil plan")
	}
}

func TestBuildGraphAssignsPostOrderIDs(t *testing.T) {
	plan := wordCountPlan()
	g, err := BuildGraph(plan, BuildOptions{DefaultParallelism: 4})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	for i, n := range g.Nodes {
		if int(n.ID) != i+1 {
			t.Errorf("node at index %d has ID %d, want %d", i, n.ID, i+1)
		}
		for _, in := range n.Inputs {
			if in >= n.ID {
				t.Errorf("node %d has an input %d that is not strictly smaller", n.ID, in)
			}
		}
	}
}

func TestBuildGraphSharesRevisitedContract(t *testing.T) {
	plan, source, _ := diamondPlan()
	g, err := BuildGraph(plan, BuildOptions{DefaultParallelism: 2})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	sourceID, ok := g.contractToNode[source]
	if !ok {
		t.Fatal("source contract was not registered in the graph")
	}
	if g.Node(sourceID).outputEdgeCount != 2 {
		t.Errorf("a source feeding two consumers should have outputEdgeCount 2, got %d", g.Node(sourceID).outputEdgeCount)
	}
}

func TestBuildGraphJoinsMultipleSinks(t *testing.T) {
	plan, _, _ := diamondPlan()
	g, err := BuildGraph(plan, BuildOptions{DefaultParallelism: 2})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if len(plan.Sinks) < 2 {
		t.Fatal("test fixture must declare at least two sinks")
	}
	root := g.Node(g.Root)
	if root.Kind != NodeSinkJoiner {
		t.Errorf("a plan with multiple sinks must root at a SinkJoiner, got %v", root.Kind)
	}
}
