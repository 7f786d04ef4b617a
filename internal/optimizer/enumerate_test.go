package optimizer

import "testing"

func TestGetAlternativesWordCountProducesExactlyOneRoot(t *testing.T) {
	stats := newStaticStatistics()
	stats.set("text-corpus", SourceStats{Known: true, Cardinality: 1000, AvgRecordWidth: 64, NumBytes: 64000})

	g, err := BuildGraph(wordCountPlan(), BuildOptions{DefaultParallelism: 4, Statistics: stats, EstimateSizes: true})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	PropagateInterestingProperties(g, NewCostModel(nil))
	ComputeBranches(g)

	alts, err := GetAlternatives(g, g.Root, NewCostModel(nil))
	if err != nil {
		t.Fatalf("GetAlternatives: %v", err)
	}
	if len(alts) != 1 {
		t.Fatalf("expected exactly one surviving root alternative, got %d", len(alts))
	}
}

func TestGetAlternativesIsMemoizedAcrossSharedConsumers(t *testing.T) {
	plan, source, _ := diamondPlan()
	g, err := BuildGraph(plan, BuildOptions{DefaultParallelism: 2, EstimateSizes: true})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	PropagateInterestingProperties(g, NewCostModel(nil))
	ComputeBranches(g)

	sourceID := g.contractToNode[source]
	cost := NewCostModel(nil)

	first, err := GetAlternatives(g, sourceID, cost)
	if err != nil {
		t.Fatalf("GetAlternatives: %v", err)
	}
	if _, err := GetAlternatives(g, g.Root, cost); err != nil {
		t.Fatalf("GetAlternatives(root): %v", err)
	}
	second, _ := GetAlternatives(g, sourceID, cost)

	if len(first) != len(second) {
		t.Fatal("memoized alternatives for a shared node must not change between calls")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("alternative %d is a different *PlanNode across calls: memoization was bypassed", i)
		}
	}
}

func TestShipPairsMatchAllowsBroadcastCoGroupDoesNot(t *testing.T) {
	left := DeliveredProperties{Global: GlobalProperties{Kind: PartitionAny}}
	right := DeliveredProperties{Global: GlobalProperties{Kind: PartitionAny}}

	matchPairs := shipPairs(NodeMatch, []int{0}, []int{0}, left, right, parsedHints{})
	if !anyPairHasBroadcast(matchPairs) {
		t.Error("Match must offer at least one broadcast pairing")
	}

	coGroupPairs := shipPairs(NodeCoGroup, []int{0}, []int{0}, left, right, parsedHints{})
	if anyPairHasBroadcast(coGroupPairs) {
		t.Error("CoGroup must never offer a broadcast pairing")
	}
}

func TestShipPairsAddsForwardForwardWhenCoPartitioned(t *testing.T) {
	partitioned := DeliveredProperties{Global: GlobalProperties{Kind: PartitionHash, Fields: []int{0}}}
	pairs := shipPairs(NodeMatch, []int{0}, []int{0}, partitioned, partitioned, parsedHints{})

	found := false
	for _, p := range pairs {
		if p.left == ShipForward && p.right == ShipForward {
			found = true
		}
	}
	if !found {
		t.Error("two sides already co-partitioned on the join keys should admit a Forward/Forward pairing")
	}
}

func TestGetAlternativesHonorsBroadcastHint(t *testing.T) {
	orders := joinPlanWithBroadcastHint()
	g, err := BuildGraph(orders, BuildOptions{DefaultParallelism: 2, EstimateSizes: true})
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	PropagateInterestingProperties(g, NewCostModel(nil))
	ComputeBranches(g)

	alts, err := GetAlternatives(g, g.Root, NewCostModel(nil))
	if err != nil {
		t.Fatalf("GetAlternatives: %v", err)
	}

	for _, root := range alts {
		match := root.Inputs[0].Producer
		if match.Kind != NodeMatch {
			t.Fatalf("expected the sink's only input to be the Match, got %v", match.Kind)
		}
		if match.Inputs[1].Ship != ShipBroadcast {
			t.Errorf("the hinted right input should ship Broadcast, got %v", match.Inputs[1].Ship)
		}
	}
}

func anyPairHasBroadcast(pairs []shipPair) bool {
	for _, p := range pairs {
		if p.left == ShipBroadcast || p.right == ShipBroadcast {
			return true
		}
	}
	return false
}
