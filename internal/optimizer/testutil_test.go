package optimizer

import (
	"github.com/rs/zerolog"

	"pactopt/internal/contract"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// wordCountPlan builds the classic single-source, single-sink word-count
// dataflow: Source -> Map(split) -> Reduce(count) -> Sink.
func wordCountPlan() *contract.Plan {
	lines := contract.NewSource("lines", "text-corpus")
	words := contract.NewMap("split-words", lines)
	counts := contract.NewReduce("count-words", words, []int{0})
	sink := contract.NewSink("word-counts", counts)
	return contract.NewPlan("word-count", sink)
}

// diamondPlan builds a DAG where one Source feeds two independent Map
// branches that reconverge at a Match, itself wrapped by two Sinks -- the
// shape branch tracking and sink-joining exist to handle.
func diamondPlan() (plan *contract.Plan, source contract.Contract, match contract.Contract) {
	src := contract.NewSource("orders", "orders")
	left := contract.NewMap("normalize-left", src)
	right := contract.NewMap("normalize-right", src)
	m := contract.NewMatch("self-join", left, right, []int{0}, []int{0})

	sinkA := contract.NewSink("result-a", m)
	sinkB := contract.NewSink("result-b", m)
	return contract.NewPlan("diamond", sinkA, sinkB), src, m
}

// twoSourceJoinPlan builds a simple two-source equi-join: Source, Source ->
// Match -> Sink.
func twoSourceJoinPlan() *contract.Plan {
	orders := contract.NewSource("orders", "orders")
	customers := contract.NewSource("customers", "customers")
	joined := contract.NewMatch("join", orders, customers, []int{1}, []int{0})
	sink := contract.NewSink("result", joined)
	return contract.NewPlan("join", sink)
}

// joinPlanWithBroadcastHint is twoSourceJoinPlan with the join's right input
// pinned to Broadcast via a compiler hint (spec.md §6).
func joinPlanWithBroadcastHint() *contract.Plan {
	orders := contract.NewSource("orders", "orders")
	customers := contract.NewSource("customers", "customers")
	joined := contract.NewMatch("join", orders, customers, []int{1}, []int{0},
		contract.WithHint(contract.HintInputRightShipStrategy, "SHIP_BROADCAST"))
	sink := contract.NewSink("result", joined)
	return contract.NewPlan("join", sink)
}

// staticStatistics is a DataStatistics double the tests can seed directly.
type staticStatistics struct {
	bySource map[string]SourceStats
}

func newStaticStatistics() *staticStatistics {
	return &staticStatistics{bySource: make(map[string]SourceStats)}
}

func (s *staticStatistics) set(sourceID string, stats SourceStats) {
	s.bySource[sourceID] = stats
}

func (s *staticStatistics) GetStats(sourceID string) SourceStats {
	return s.bySource[sourceID]
}
