package optimizer

import "testing"

func TestStatisticsRegisterAndGetStats(t *testing.T) {
	s := NewStatistics()
	if got := s.GetStats("unknown"); got.Known {
		t.Fatal("an unregistered source must report Known=false")
	}

	s.Register(SourceStatEntry{SourceID: "orders", Cardinality: 500, AvgRecordWidth: 40, TotalBytes: 20000})
	got := s.GetStats("orders")
	if !got.Known || got.Cardinality != 500 || got.NumBytes != 20000 {
		t.Errorf("unexpected stats for a registered source: %+v", got)
	}
}

func TestEstimateJoinCardinalityFallsBackToCrossProductWithoutDistinctCounts(t *testing.T) {
	got := EstimateJoinCardinality(100, 200, 0, 0)
	if got != 100*200 {
		t.Errorf("expected a full cross product fallback, got %d", got)
	}
}

func TestEstimateJoinCardinalityScalesBySelectivity(t *testing.T) {
	got := EstimateJoinCardinality(1000, 1000, 100, 50)
	want := int64(float64(1000*1000) / 100)
	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func TestEstimateGroupByCardinalityBoundedByInput(t *testing.T) {
	got := EstimateGroupByCardinality(10, []int64{1000, 1000})
	if got != 10 {
		t.Errorf("group count must never exceed input cardinality, got %d", got)
	}
}

func TestEstimateGroupByCardinalityNoKeysIsSingleGroup(t *testing.T) {
	if got := EstimateGroupByCardinality(1000, nil); got != 1 {
		t.Errorf("no grouping keys means a single group, got %d", got)
	}
}
