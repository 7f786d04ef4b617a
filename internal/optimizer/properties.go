package optimizer

import "sort"

// PartitioningKind enumerates the global property variants of spec.md §4.1.
type PartitioningKind int

const (
	PartitionAny PartitioningKind = iota
	PartitionHash
	PartitionRange
	PartitionFullReplication
	PartitionSingleton
)

// SortDirection describes the direction an OrderedOn local property sorts in.
type SortDirection int

const (
	SortAscending SortDirection = iota
	SortDescending
)

// GlobalProperties describes how tuples are distributed across subtasks.
// The zero value is PartitionAny, which is satisfied by everything and
// satisfies nothing but Any.
type GlobalProperties struct {
	Kind   PartitioningKind
	Fields []int // meaningful for PartitionHash / PartitionRange
	Order  []SortDirection // per-field order, meaningful for PartitionRange
}

// Any reports whether this is the "no requirement" global property.
func (g GlobalProperties) Any() bool { return g.Kind == PartitionAny }

func sameFieldSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]int(nil), a...)
	sb := append([]int(nil), b...)
	sort.Ints(sa)
	sort.Ints(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

func isPrefix(prefix, full []int) bool {
	if len(prefix) > len(full) {
		return false
	}
	for i, f := range prefix {
		if full[i] != f {
			return false
		}
	}
	return true
}

// Satisfies reports whether a delivered global property `g` satisfies a
// requested global property `req`, per the rules summarized in spec.md §4.1.
func (g GlobalProperties) Satisfies(req GlobalProperties) bool {
	if req.Any() {
		return true
	}
	switch req.Kind {
	case PartitionSingleton:
		return g.Kind == PartitionSingleton
	case PartitionFullReplication:
		return g.Kind == PartitionFullReplication
	case PartitionHash:
		return g.Kind == PartitionHash && sameFieldSet(g.Fields, req.Fields)
	case PartitionRange:
		// A range partitioning on the same field set satisfies a range
		// request (per-field Order is not compared); a hash partitioning
		// never does (it gives up order).
		return g.Kind == PartitionRange && sameFieldSet(g.Fields, req.Fields)
	default:
		return false
	}
}

// LocalKind enumerates the per-partition local property variants.
type LocalKind int

const (
	LocalAny LocalKind = iota
	LocalGrouped
	LocalOrdered
)

// LocalProperties describes the per-partition order/grouping of a channel.
type LocalProperties struct {
	Kind      LocalKind
	Fields    []int
	Direction SortDirection // meaningful for LocalOrdered
}

func (l LocalProperties) Any() bool { return l.Kind == LocalAny }

// Satisfies reports whether delivered local property `l` satisfies requested
// local property `req`. Ordering implies grouping on the same prefix: a
// grouping request is met when its fields are a prefix of the delivered
// fields (or, for delivered grouping, the same field set). An ordering
// request is met only by an ordering on the same field set and direction.
func (l LocalProperties) Satisfies(req LocalProperties) bool {
	if req.Any() {
		return true
	}
	switch req.Kind {
	case LocalGrouped:
		switch l.Kind {
		case LocalGrouped:
			return isPrefix(req.Fields, l.Fields) || sameFieldSet(l.Fields, req.Fields)
		case LocalOrdered:
			return isPrefix(req.Fields, l.Fields)
		default:
			return false
		}
	case LocalOrdered:
		return l.Kind == LocalOrdered && sameFieldSet(l.Fields, req.Fields) && l.Direction == req.Direction
	default:
		return false
	}
}

// RequestedProperties bundles the global+local requirement a consumer places
// on one of its inputs (spec.md §3's RequestedGlobalProperties/
// RequestedLocalProperties pair).
type RequestedProperties struct {
	Global GlobalProperties
	Local  LocalProperties
}

func (r RequestedProperties) IsTrivial() bool {
	return r.Global.Any() && r.Local.Any()
}

// DeliveredProperties bundles what a Channel actually provides at its
// receiving end.
type DeliveredProperties struct {
	Global GlobalProperties
	Local  LocalProperties
}

// Satisfies reports whether everything delivered satisfies everything
// requested.
func (d DeliveredProperties) Satisfies(r RequestedProperties) bool {
	return d.Global.Satisfies(r.Global) && d.Local.Satisfies(r.Local)
}

// FilterByShipStrategy applies the effect a shipping strategy has on a
// producer's delivered global property, per spec.md §4.1: forward preserves,
// repartition-hash replaces with HashPartitioned(F) and clears local order,
// broadcast replaces with FullReplication.
func FilterByShipStrategy(strategy ShipStrategy, upstream DeliveredProperties, keys []int) DeliveredProperties {
	switch strategy {
	case ShipForward:
		return upstream
	case ShipRepartitionHash:
		return DeliveredProperties{Global: GlobalProperties{Kind: PartitionHash, Fields: keys}}
	case ShipRepartitionRange:
		return DeliveredProperties{Global: GlobalProperties{Kind: PartitionRange, Fields: keys}}
	case ShipBroadcast:
		return DeliveredProperties{Global: GlobalProperties{Kind: PartitionFullReplication}}
	default:
		return DeliveredProperties{}
	}
}

// ProduceLocal applies the effect a local strategy has on the delivered
// local property of a channel/plan node, per spec.md §4.1.
func ProduceLocal(strategy LocalStrategy, keys []int, inputsAlreadyOrdered bool, upstream LocalProperties) LocalProperties {
	switch strategy {
	case LocalSort, LocalCombiningSort:
		return LocalProperties{Kind: LocalOrdered, Fields: keys, Direction: SortAscending}
	case LocalHashBuildFirst, LocalHashBuildSecond:
		return LocalProperties{Kind: LocalAny}
	case LocalMerge, LocalSortBothMerge, LocalSortFirstMerge, LocalSortSecondMerge:
		if inputsAlreadyOrdered {
			return upstream
		}
		return LocalProperties{Kind: LocalOrdered, Fields: keys, Direction: SortAscending}
	default:
		return LocalProperties{Kind: LocalAny}
	}
}
