package optimizer

// Pinning records, for a branch point (an OptimizerNode with fan-out > 1)
// that a PlanNode's subtree passed through, exactly which candidate of that
// branch point was chosen. Two PlanNode alternatives are only combinable at
// a reconverging node if their Pinnings agree on every shared branch
// (spec.md §4.4).
type Pinning map[NodeID]*PlanNode

// agrees reports whether two pinning maps choose the same candidate for
// every branch they both mention.
func (p Pinning) agrees(o Pinning) bool {
	for branch, chosen := range p {
		if other, ok := o[branch]; ok && other != chosen {
			return false
		}
	}
	return true
}

// mergePinnings combines agreeing pinning maps into a new one. Call agrees
// first; mergePinnings does not itself check for conflicts.
func mergePinnings(maps ...Pinning) Pinning {
	out := make(Pinning)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Channel is a candidate edge connecting a producing PlanNode to a
// consuming PlanNode (spec.md §3).
type Channel struct {
	Producer  *PlanNode
	Ship      ShipStrategy
	Delivered DeliveredProperties // what the consumer sees, after shipping filters the producer's own Delivered properties
	Keys      []int
}

func newChannel(producer *PlanNode, ship ShipStrategy, keys []int) *Channel {
	return &Channel{
		Producer:  producer,
		Ship:      ship,
		Delivered: FilterByShipStrategy(ship, producer.Delivered, keys),
		Keys:      keys,
	}
}

// PlanNode is a specific physical realization of an OptimizerNode (spec.md
// §3): concrete input Channels, a concrete local execution strategy, and a
// cost. Subtypes are distinguished by NodeKind + len(Inputs) rather than a
// type hierarchy (spec.md §9's tagged-variant design note): Source/Sink have
// no inputs or one passthrough input, SingleInput nodes (Map, Reduce) have
// one, DualInput nodes (Match, CoGroup, Cross, SinkJoiner) have two.
type PlanNode struct {
	NodeID        NodeID
	Kind          NodeKind
	Name          string
	Inputs        []*Channel
	LocalStrategy LocalStrategy
	Delivered     DeliveredProperties // this node's own output properties
	Cardinality   int64
	AvgRecordWidth int64
	OutputBytes    int64
	StatsKnown     bool
	OwnCost       Cost
	TotalCost     Cost // OwnCost plus every transitively included input's TotalCost
	Pinnings      Pinning
	MemoryBytes   int64 // assigned by Finalize; zero until then
}

func (p *PlanNode) costScalar() float64 { return p.TotalCost.Scalar() }

// partitioningOpCount counts how many of this candidate's input channels
// perform a repartitioning (hash or range) or broadcast shipping strategy,
// used as the first enumeration
// tie-breaker (spec.md §4.5: "fewer partitioning operations").
func (p *PlanNode) partitioningOpCount() int {
	n := 0
	for _, ch := range p.Inputs {
		if ch.Ship == ShipRepartitionHash || ch.Ship == ShipRepartitionRange || ch.Ship == ShipBroadcast {
			n++
		}
	}
	return n
}
