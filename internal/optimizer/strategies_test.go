package optimizer

import (
	"testing"

	"pactopt/internal/contract"
)

func TestAdmissibleShipStrategiesMatchAllowsBroadcast(t *testing.T) {
	strategies := admissibleShipStrategies(contract.KindMatch)
	if !containsShip(strategies, ShipBroadcast) {
		t.Error("Match must admit Broadcast on an input edge")
	}
}

func TestAdmissibleShipStrategiesCoGroupExcludesBroadcast(t *testing.T) {
	strategies := admissibleShipStrategies(contract.KindCoGroup)
	if containsShip(strategies, ShipBroadcast) {
		t.Error("CoGroup must never admit Broadcast: both sides must arrive grouped and co-partitioned")
	}
}

func TestAdmissibleLocalStrategiesMapHasNone(t *testing.T) {
	if strategies := admissibleLocalStrategies(contract.KindMap); strategies != nil {
		t.Errorf("Map has no local strategy choice, got %v", strategies)
	}
}

func TestFilterShipByHintNarrowsToRequestedStrategy(t *testing.T) {
	candidates := []ShipStrategy{ShipForward, ShipRepartitionHash, ShipBroadcast}
	filtered := filterShipByHint(candidates, contract.ShipHintBroadcast)
	if len(filtered) != 1 || filtered[0] != ShipBroadcast {
		t.Errorf("hint should narrow to exactly [Broadcast], got %v", filtered)
	}
}

func TestFilterShipByHintIgnoresUnsatisfiableHint(t *testing.T) {
	candidates := []ShipStrategy{ShipForward, ShipRepartitionHash}
	filtered := filterShipByHint(candidates, contract.ShipHintBroadcast)
	if len(filtered) != len(candidates) {
		t.Errorf("a hint naming a strategy not in candidates should leave candidates untouched, got %v", filtered)
	}
}

func TestLocalHintToStrategyRoundTrip(t *testing.T) {
	strategy, ok := localHintToStrategy(contract.LocalHintSortBothMerge)
	if !ok || strategy != LocalSortBothMerge {
		t.Errorf("expected LocalSortBothMerge, got %v ok=%v", strategy, ok)
	}
	if _, ok := localHintToStrategy(contract.LocalStrategyHint(999)); ok {
		t.Error("an unrecognized hint value should not resolve")
	}
}

func containsShip(strategies []ShipStrategy, want ShipStrategy) bool {
	for _, s := range strategies {
		if s == want {
			return true
		}
	}
	return false
}
