package optimizer

import "testing"

func TestFinalizeRejectsNilRoot(t *testing.T) {
	g, err := BuildGraph(wordCountPlan(), BuildOptions{DefaultParallelism: 1})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if _, err := Finalize(g, nil, "p", 1<<20, ""); err == nil {
		t.Fatal("expected an error finalizing a nil root")
	}
}

func TestFinalizeCollectsReachableNodesInOrder(t *testing.T) {
	g, err := BuildGraph(wordCountPlan(), BuildOptions{DefaultParallelism: 2, EstimateSizes: true})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	PropagateInterestingProperties(g, NewCostModel(nil))
	ComputeBranches(g)

	cost := NewCostModel(nil)
	alts, err := GetAlternatives(g, g.Root, cost)
	if err != nil {
		t.Fatalf("GetAlternatives: %v", err)
	}
	root := cheapest(alts)

	plan, err := Finalize(g, root, "word-count", 1<<30, "m5.large")
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(plan.Nodes) != len(g.Nodes) {
		t.Errorf("expected all %d nodes reachable in a linear chain, got %d", len(g.Nodes), len(plan.Nodes))
	}
	for i := 1; i < len(plan.Order); i++ {
		if plan.Order[i-1] >= plan.Order[i] {
			t.Errorf("Order must be strictly ascending, got %v", plan.Order)
		}
	}
	if plan.InstanceType != "m5.large" {
		t.Errorf("expected instance type to be carried through, got %q", plan.InstanceType)
	}
}

func TestFinalizeAssignsMemoryOnlyToConsumers(t *testing.T) {
	g, err := BuildGraph(wordCountPlan(), BuildOptions{DefaultParallelism: 2, EstimateSizes: true})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	PropagateInterestingProperties(g, NewCostModel(nil))
	ComputeBranches(g)

	cost := NewCostModel(nil)
	alts, err := GetAlternatives(g, g.Root, cost)
	if err != nil {
		t.Fatalf("GetAlternatives: %v", err)
	}
	root := cheapest(alts)

	plan, err := Finalize(g, root, "word-count", 1<<30, "")
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	for _, p := range plan.Nodes {
		if p.Kind.isMemoryConsumer() && p.MemoryBytes <= 0 {
			t.Errorf("memory-consuming node %d (%v) should have received a positive memory share", p.NodeID, p.Kind)
		}
		if !p.Kind.isMemoryConsumer() && p.MemoryBytes != 0 {
			t.Errorf("non-consuming node %d (%v) should not receive a memory share, got %d", p.NodeID, p.Kind, p.MemoryBytes)
		}
	}
}
