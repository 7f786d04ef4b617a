package optimizer

import "math"

// CostModel is the default CostEstimator (spec.md §6): a page/tuple cost
// model in the same style as a classical relational optimizer, adapted to
// price a dataflow node's own shipping and local work rather than a
// relational scan/join tree.
type CostModel struct {
	config *CostModelConfig
}

// CostModelConfig holds the per-unit weights CostModel charges. Defaults
// mirror a conventional sequential/random page cost split; CPUTupleCost
// dominates for in-memory dataflow stages where disk rarely enters into it.
type CostModelConfig struct {
	SeqPageCost    float64
	RandomPageCost float64
	CPUTupleCost   float64
	NetworkByteCost float64
	RecordsPerPage  float64
}

// DefaultCostModelConfig returns the weights used when the caller does not
// supply its own.
func DefaultCostModelConfig() *CostModelConfig {
	return &CostModelConfig{
		SeqPageCost:     1.0,
		RandomPageCost:  4.0,
		CPUTupleCost:    0.01,
		NetworkByteCost: 0.001,
		RecordsPerPage:  100.0,
	}
}

// NewCostModel builds a CostEstimator from the given weights, or the
// defaults if config is nil.
func NewCostModel(config *CostModelConfig) *CostModel {
	if config == nil {
		config = DefaultCostModelConfig()
	}
	return &CostModel{config: config}
}

// Cost prices a single PlanNode's own work: the network cost of its input
// channels (zero for Forward, proportional to shipped bytes otherwise), plus
// a per-kind CPU term for its local strategy. The Disk component is never
// charged.
func (cm *CostModel) Cost(node PlanNode) Cost {
	var c Cost

	for _, ch := range node.Inputs {
		c.Network += cm.shipCost(ch)
	}

	rows := float64(node.Cardinality)
	switch node.Kind {
	case NodeReduce:
		c.CPU += cm.localStrategyCost(node.LocalStrategy, rows)

	case NodeMatch:
		c.CPU += cm.matchCost(node)

	case NodeCoGroup:
		c.CPU += cm.coGroupCost(node)

	case NodeCross:
		c.CPU += cm.crossCost(node)

	case NodeMap, NodeSource, NodeSink, NodeSinkJoiner:
		c.CPU += rows * cm.config.CPUTupleCost
	}

	return c
}

// shipCost prices moving a channel's bytes across the network; a Forward
// channel stays on the same subtask and costs nothing.
func (cm *CostModel) shipCost(ch *Channel) float64 {
	if ch.Ship == ShipForward {
		return 0
	}
	bytes := float64(ch.Producer.OutputBytes)
	if ch.Ship == ShipBroadcast {
		// Broadcasting multiplies the bytes leaving the producer by however
		// many subtasks receive a full copy; without a target parallelism on
		// hand here, price it at a fixed fan-out penalty over forward cost.
		bytes *= 4
	}
	return bytes * cm.config.NetworkByteCost
}

// localStrategyCost prices a single-input local strategy over rows records.
func (cm *CostModel) localStrategyCost(strategy LocalStrategy, rows float64) float64 {
	switch strategy {
	case LocalSort, LocalCombiningSort:
		return cm.sortCost(rows) + rows*cm.config.CPUTupleCost
	default:
		return rows * cm.config.CPUTupleCost
	}
}

func (cm *CostModel) sortCost(rows float64) float64 {
	if rows <= 1 {
		return 0
	}
	return rows * math.Log2(rows) * cm.config.CPUTupleCost
}

func (cm *CostModel) matchCost(node PlanNode) float64 {
	left, right := node.Inputs[0], node.Inputs[1]
	lRows := float64(left.Producer.Cardinality)
	rRows := float64(right.Producer.Cardinality)

	switch node.LocalStrategy {
	case LocalHashBuildFirst:
		return lRows*cm.config.CPUTupleCost + rRows*cm.config.CPUTupleCost
	case LocalHashBuildSecond:
		return rRows*cm.config.CPUTupleCost + lRows*cm.config.CPUTupleCost
	case LocalSortBothMerge:
		return cm.sortCost(lRows) + cm.sortCost(rRows) + (lRows+rRows)*cm.config.CPUTupleCost
	case LocalSortFirstMerge:
		return cm.sortCost(lRows) + (lRows+rRows)*cm.config.CPUTupleCost
	case LocalSortSecondMerge:
		return cm.sortCost(rRows) + (lRows+rRows)*cm.config.CPUTupleCost
	case LocalMerge:
		return (lRows + rRows) * cm.config.CPUTupleCost
	default:
		return (lRows + rRows) * cm.config.CPUTupleCost
	}
}

func (cm *CostModel) coGroupCost(node PlanNode) float64 {
	left, right := node.Inputs[0], node.Inputs[1]
	lRows := float64(left.Producer.Cardinality)
	rRows := float64(right.Producer.Cardinality)

	switch node.LocalStrategy {
	case LocalSortBothMerge:
		return cm.sortCost(lRows) + cm.sortCost(rRows) + (lRows+rRows)*cm.config.CPUTupleCost
	case LocalSortFirstMerge:
		return cm.sortCost(lRows) + (lRows+rRows)*cm.config.CPUTupleCost
	case LocalSortSecondMerge:
		return cm.sortCost(rRows) + (lRows+rRows)*cm.config.CPUTupleCost
	default:
		return (lRows + rRows) * cm.config.CPUTupleCost
	}
}

func (cm *CostModel) crossCost(node PlanNode) float64 {
	left, right := node.Inputs[0], node.Inputs[1]
	lRows := float64(left.Producer.Cardinality)
	rRows := float64(right.Producer.Cardinality)

	switch node.LocalStrategy {
	case LocalNestedLoopBlockedOuterFirst, LocalNestedLoopBlockedOuterSecond:
		// Blocked nested loop amortizes random access over a block of the
		// outer side; cheaper per-pair than the streamed variants.
		return lRows*rRows*cm.config.CPUTupleCost*0.5 + (lRows+rRows)*cm.config.RandomPageCost/cm.config.RecordsPerPage
	default:
		return lRows * rRows * cm.config.CPUTupleCost
	}
}
