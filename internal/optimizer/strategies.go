package optimizer

import "pactopt/internal/contract"

// ShipStrategy is how records travel between a producing and a consuming
// subtask (spec.md GLOSSARY).
type ShipStrategy int

const (
	ShipForward ShipStrategy = iota
	ShipRepartitionHash
	ShipRepartitionRange
	ShipBroadcast
)

func (s ShipStrategy) String() string {
	switch s {
	case ShipForward:
		return "Forward"
	case ShipRepartitionHash:
		return "Hash-partition"
	case ShipRepartitionRange:
		return "Range-partition"
	case ShipBroadcast:
		return "Broadcast"
	default:
		return "Unknown"
	}
}

// LocalStrategy is how a consumer processes data within one partition.
type LocalStrategy int

const (
	LocalNone LocalStrategy = iota
	LocalSort
	LocalCombiningSort
	LocalHashBuildFirst
	LocalHashBuildSecond
	LocalSortBothMerge
	LocalSortFirstMerge
	LocalSortSecondMerge
	LocalMerge
	LocalNestedLoopStreamedOuterFirst
	LocalNestedLoopStreamedOuterSecond
	LocalNestedLoopBlockedOuterFirst
	LocalNestedLoopBlockedOuterSecond
)

func (s LocalStrategy) String() string {
	switch s {
	case LocalNone:
		return "None"
	case LocalSort:
		return "Sort"
	case LocalCombiningSort:
		return "Combining-sort"
	case LocalHashBuildFirst:
		return "Hash-build-first"
	case LocalHashBuildSecond:
		return "Hash-build-second"
	case LocalSortBothMerge:
		return "Sort-both-merge"
	case LocalSortFirstMerge:
		return "Sort-first-merge"
	case LocalSortSecondMerge:
		return "Sort-second-merge"
	case LocalMerge:
		return "Merge"
	case LocalNestedLoopStreamedOuterFirst:
		return "Nested-loop-streamed-outer-first"
	case LocalNestedLoopStreamedOuterSecond:
		return "Nested-loop-streamed-outer-second"
	case LocalNestedLoopBlockedOuterFirst:
		return "Nested-loop-blocked-outer-first"
	case LocalNestedLoopBlockedOuterSecond:
		return "Nested-loop-blocked-outer-second"
	default:
		return "Unknown"
	}
}

// admissibleShipStrategies returns the union of shipping strategies spec.md's
// table in §4.5 allows for one input edge of a node of the given kind,
// before hint filtering.
func admissibleShipStrategies(kind contract.Kind) []ShipStrategy {
	switch kind {
	case contract.KindMap, contract.KindSource, contract.KindSink:
		return []ShipStrategy{ShipForward}
	case contract.KindReduce:
		return []ShipStrategy{ShipForward, ShipRepartitionHash, ShipRepartitionRange}
	case contract.KindMatch:
		return []ShipStrategy{ShipForward, ShipRepartitionHash, ShipRepartitionRange, ShipBroadcast}
	case contract.KindCoGroup:
		return []ShipStrategy{ShipForward, ShipRepartitionHash, ShipRepartitionRange}
	case contract.KindCross:
		return []ShipStrategy{ShipForward, ShipBroadcast}
	default:
		return nil
	}
}

// admissibleLocalStrategies returns the union of local strategies allowed
// for a node of the given kind, before hint filtering. Map/Source/Sink have
// none (§4.5 table: "None").
func admissibleLocalStrategies(kind contract.Kind) []LocalStrategy {
	switch kind {
	case contract.KindMap, contract.KindSource, contract.KindSink:
		return nil
	case contract.KindReduce:
		return []LocalStrategy{LocalSort, LocalCombiningSort}
	case contract.KindMatch:
		return []LocalStrategy{
			LocalHashBuildFirst, LocalHashBuildSecond,
			LocalSortBothMerge, LocalSortFirstMerge, LocalSortSecondMerge, LocalMerge,
		}
	case contract.KindCoGroup:
		return []LocalStrategy{LocalSortBothMerge, LocalSortFirstMerge, LocalSortSecondMerge, LocalMerge}
	case contract.KindCross:
		return []LocalStrategy{
			LocalNestedLoopStreamedOuterFirst, LocalNestedLoopStreamedOuterSecond,
			LocalNestedLoopBlockedOuterFirst, LocalNestedLoopBlockedOuterSecond,
		}
	default:
		return nil
	}
}

func filterShipByHint(candidates []ShipStrategy, hint contract.ShipStrategyHint) []ShipStrategy {
	if hint == contract.ShipHintNone {
		return candidates
	}
	var want ShipStrategy
	switch hint {
	case contract.ShipHintRepartitionHash:
		want = ShipRepartitionHash
	case contract.ShipHintRepartitionRange:
		want = ShipRepartitionRange
	case contract.ShipHintBroadcast:
		want = ShipBroadcast
	case contract.ShipHintForward:
		want = ShipForward
	default:
		return candidates
	}
	for _, c := range candidates {
		if c == want {
			return []ShipStrategy{want}
		}
	}
	return candidates
}

func filterLocalByHint(candidates []LocalStrategy, hint contract.LocalStrategyHint) []LocalStrategy {
	if hint == contract.LocalHintNone {
		return candidates
	}
	want, ok := localHintToStrategy(hint)
	if !ok {
		return candidates
	}
	for _, c := range candidates {
		if c == want {
			return []LocalStrategy{want}
		}
	}
	return candidates
}

func localHintToStrategy(hint contract.LocalStrategyHint) (LocalStrategy, bool) {
	switch hint {
	case contract.LocalHintSort:
		return LocalSort, true
	case contract.LocalHintCombiningSort:
		return LocalCombiningSort, true
	case contract.LocalHintSortBothMerge:
		return LocalSortBothMerge, true
	case contract.LocalHintSortFirstMerge:
		return LocalSortFirstMerge, true
	case contract.LocalHintSortSecondMerge:
		return LocalSortSecondMerge, true
	case contract.LocalHintMerge:
		return LocalMerge, true
	case contract.LocalHintHashBuildFirst:
		return LocalHashBuildFirst, true
	case contract.LocalHintHashBuildSecond:
		return LocalHashBuildSecond, true
	case contract.LocalHintNestedLoopStreamedOuterFirst:
		return LocalNestedLoopStreamedOuterFirst, true
	case contract.LocalHintNestedLoopStreamedOuterSecond:
		return LocalNestedLoopStreamedOuterSecond, true
	case contract.LocalHintNestedLoopBlockedOuterFirst:
		return LocalNestedLoopBlockedOuterFirst, true
	case contract.LocalHintNestedLoopBlockedOuterSecond:
		return LocalNestedLoopBlockedOuterSecond, true
	default:
		return LocalNone, false
	}
}
