package optimizer

import (
	"fmt"
	"math"

	"pactopt/internal/contract"
)

// NodeKind mirrors contract.Kind but adds SinkJoiner, a synthetic node with
// no contract counterpart (spec.md §3, §4.2).
type NodeKind int

const (
	NodeSource NodeKind = iota
	NodeSink
	NodeMap
	NodeReduce
	NodeMatch
	NodeCoGroup
	NodeCross
	NodeSinkJoiner
)

func (k NodeKind) String() string {
	switch k {
	case NodeSource:
		return "Source"
	case NodeSink:
		return "Sink"
	case NodeMap:
		return "Map"
	case NodeReduce:
		return "Reduce"
	case NodeMatch:
		return "Match"
	case NodeCoGroup:
		return "CoGroup"
	case NodeCross:
		return "Cross"
	case NodeSinkJoiner:
		return "SinkJoiner"
	default:
		return "Unknown"
	}
}

func kindFromContract(k contract.Kind) NodeKind {
	switch k {
	case contract.KindSource:
		return NodeSource
	case contract.KindSink:
		return NodeSink
	case contract.KindMap:
		return NodeMap
	case contract.KindReduce:
		return NodeReduce
	case contract.KindMatch:
		return NodeMatch
	case contract.KindCoGroup:
		return NodeCoGroup
	case contract.KindCross:
		return NodeCross
	default:
		return NodeMap
	}
}

// isMemoryConsumer reports whether a node of this kind holds a build-side
// buffer whose size the finalizer must budget memory for (spec.md §3's
// memory-consumer flag; §4.6 memory assignment).
func (k NodeKind) isMemoryConsumer() bool {
	switch k {
	case NodeReduce, NodeMatch, NodeCoGroup, NodeCross:
		return true
	default:
		return false
	}
}

// NodeID is an arena handle into Graph.Nodes (spec.md §9: "model as an
// arena... edges are handles, not owning references"). It equals the
// node's post-order id: Graph.Nodes[id-1] is always the node with that id.
type NodeID int

// OptimizerNode is the logical-plan node of spec.md §3.
type OptimizerNode struct {
	ID        NodeID
	Kind      NodeKind
	Contract  contract.Contract // nil for a SinkJoiner
	Name      string
	Inputs    []NodeID
	Keys      []int
	RightKeys []int

	DeclaredParallelism int
	Parallelism         int
	TasksPerInstance    int

	Cardinality    int64
	AvgRecordWidth int64
	OutputBytes    int64
	StatsKnown     bool

	MemoryConsumer bool

	InterestingProperties []RequestedProperties
	UnclosedBranches      []NodeID

	outputEdgeCount int
	alternatives    []*PlanNode
}

// Graph is the optimizer's logical DAG, built once per compile by BuildGraph.
type Graph struct {
	Nodes              []*OptimizerNode // Nodes[i] has ID == i+1
	contractToNode     map[contract.Contract]NodeID
	Root               NodeID
	OriginalSinks      []NodeID // the sinks before any SinkJoiner wrapping
	DefaultParallelism int
	MaxMachines        int
}

func (g *Graph) Node(id NodeID) *OptimizerNode {
	if id <= 0 || int(id) > len(g.Nodes) {
		return nil
	}
	return g.Nodes[id-1]
}

// BuildOptions configures graph creation.
type BuildOptions struct {
	DefaultParallelism int
	MaxMachines        int
	Statistics         DataStatistics
	EstimateSizes      bool
}

type builder struct {
	opts           BuildOptions
	contractToNode map[contract.Contract]NodeID
	nodes          []*OptimizerNode
}

// BuildGraph performs the depth-first graph-creation pass of spec.md §4.2:
// pre-visit allocates the node identity and recurses into inputs; post-visit
// (first time only, since a contract seen again returns the already-built
// node) assigns the post-order id, wires inputs, and estimates size.
func BuildGraph(plan *contract.Plan, opts BuildOptions) (*Graph, error) {
	if plan == nil || len(plan.Sinks) == 0 {
		return nil, &CompileError{Kind: ErrEmptyPlan, Message: "plan has no sinks"}
	}

	b := &builder{opts: opts, contractToNode: make(map[contract.Contract]NodeID)}

	sinkIDs := make([]NodeID, 0, len(plan.Sinks))
	for _, s := range plan.Sinks {
		id, err := b.visit(s)
		if err != nil {
			return nil, err
		}
		sinkIDs = append(sinkIDs, id)
	}

	g := &Graph{
		Nodes:              b.nodes,
		contractToNode:     b.contractToNode,
		OriginalSinks:      sinkIDs,
		DefaultParallelism: opts.DefaultParallelism,
		MaxMachines:        opts.MaxMachines,
	}

	root, err := joinSinks(g, sinkIDs)
	if err != nil {
		return nil, err
	}
	g.Root = root

	computeFanOut(g)

	return g, nil
}

// visit returns the NodeID for a contract, building it (and, recursively,
// everything it depends on) the first time it is seen. Because the DAG has
// no cycles, every input is fully built -- including its post-order id and
// size estimate -- before visit returns, so Graph.Nodes[id-1] is always
// valid once assigned.
func (b *builder) visit(c contract.Contract) (NodeID, error) {
	if id, ok := b.contractToNode[c]; ok {
		return id, nil
	}

	inputIDs := make([]NodeID, 0, len(c.Inputs()))
	for _, in := range c.Inputs() {
		inID, err := b.visit(in)
		if err != nil {
			return 0, err
		}
		inputIDs = append(inputIDs, inID)
	}

	dop := c.DegreeOfParallelism()
	if dop < 1 {
		dop = b.opts.DefaultParallelism
	}
	tasksPerInstance := 1
	if b.opts.MaxMachines > 0 {
		tasksPerInstance = ceilDiv(dop, b.opts.MaxMachines)
	}

	node := &OptimizerNode{
		Kind:                kindFromContract(c.Kind()),
		Contract:            c,
		Name:                c.Name(),
		Keys:                c.Keys(),
		RightKeys:           c.RightKeys(),
		Inputs:              inputIDs,
		DeclaredParallelism: dop,
		Parallelism:         dop,
		TasksPerInstance:    tasksPerInstance,
	}
	node.MemoryConsumer = node.Kind.isMemoryConsumer()

	b.nodes = append(b.nodes, node)
	node.ID = NodeID(len(b.nodes))
	b.contractToNode[c] = node.ID

	if b.opts.EstimateSizes {
		estimateSize(node, b.nodes, b.opts.Statistics)
	}

	return node.ID, nil
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 1
	}
	return (a + b - 1) / b
}

// joinSinks wraps multiple sinks left-deep under synthetic SinkJoiner nodes
// until one root remains (spec.md §4.2). A SinkJoiner has no estimates and
// passes its inputs through unchanged during enumeration.
func joinSinks(g *Graph, sinkIDs []NodeID) (NodeID, error) {
	if len(sinkIDs) == 0 {
		return 0, &CompileError{Kind: ErrEmptyPlan, Message: "plan has no sinks"}
	}
	root := sinkIDs[0]
	for _, next := range sinkIDs[1:] {
		idx := NodeID(len(g.Nodes) + 1)
		joiner := &OptimizerNode{
			ID:     idx,
			Kind:   NodeSinkJoiner,
			Name:   fmt.Sprintf("SinkJoiner(%d)", idx),
			Inputs: []NodeID{root, next},
		}
		g.Nodes = append(g.Nodes, joiner)
		root = idx
	}
	return root, nil
}

// computeFanOut records, for every node, how many distinct consumer edges
// reference it. This is the synchronization counter the interesting-property
// descent (§4.3) and branch tracker (§4.4) both rely on.
func computeFanOut(g *Graph) {
	for _, n := range g.Nodes {
		if n == nil {
			continue
		}
		for _, in := range n.Inputs {
			g.Node(in).outputEdgeCount++
		}
	}
}

// estimateSize computes the output-size estimate for a freshly post-visited
// node, per spec.md §4.2: sources ask the statistics provider, internal
// nodes derive an estimate from their (already-estimated) inputs using a
// node-kind-specific rule of thumb.
func estimateSize(node *OptimizerNode, built []*OptimizerNode, stats DataStatistics) {
	input := func(i int) *OptimizerNode {
		if i >= len(node.Inputs) {
			return nil
		}
		return built[node.Inputs[i]-1]
	}

	switch node.Kind {
	case NodeSource:
		src, ok := node.Contract.(*contract.Source)
		if !ok || stats == nil {
			return
		}
		s := stats.GetStats(src.SourceID)
		if !s.Known {
			return
		}
		node.StatsKnown = true
		node.Cardinality = s.Cardinality
		node.AvgRecordWidth = s.AvgRecordWidth
		node.OutputBytes = s.NumBytes

	case NodeMap:
		in := input(0)
		if in == nil || !in.StatsKnown {
			return
		}
		node.StatsKnown = true
		node.Cardinality = in.Cardinality
		node.AvgRecordWidth = in.AvgRecordWidth
		node.OutputBytes = in.OutputBytes

	case NodeReduce:
		in := input(0)
		if in == nil || !in.StatsKnown {
			return
		}
		node.StatsKnown = true
		// Conservative: assume a modest reduction in cardinality from
		// grouping, proportional to key selectivity; without a histogram
		// we fall back to sqrt(N) distinct groups as a rule of thumb.
		node.Cardinality = int64(math.Sqrt(float64(in.Cardinality))) + 1
		node.AvgRecordWidth = in.AvgRecordWidth
		node.OutputBytes = node.Cardinality * node.AvgRecordWidth

	case NodeMatch:
		l, r := input(0), input(1)
		if l == nil || r == nil || !l.StatsKnown || !r.StatsKnown {
			return
		}
		node.StatsKnown = true
		// Equi-join rule of thumb absent real histograms: the output
		// cardinality is taken to be that of the larger side, unscaled.
		bigger := l.Cardinality
		if r.Cardinality > bigger {
			bigger = r.Cardinality
		}
		node.Cardinality = bigger
		node.AvgRecordWidth = l.AvgRecordWidth + r.AvgRecordWidth
		node.OutputBytes = node.Cardinality * node.AvgRecordWidth

	case NodeCoGroup:
		l, r := input(0), input(1)
		if l == nil || r == nil || !l.StatsKnown || !r.StatsKnown {
			return
		}
		node.StatsKnown = true
		node.Cardinality = l.Cardinality + r.Cardinality
		node.AvgRecordWidth = l.AvgRecordWidth + r.AvgRecordWidth
		node.OutputBytes = node.Cardinality * node.AvgRecordWidth

	case NodeCross:
		l, r := input(0), input(1)
		if l == nil || r == nil || !l.StatsKnown || !r.StatsKnown {
			return
		}
		node.StatsKnown = true
		node.Cardinality = l.Cardinality * r.Cardinality
		node.AvgRecordWidth = l.AvgRecordWidth + r.AvgRecordWidth
		node.OutputBytes = node.Cardinality * node.AvgRecordWidth

	case NodeSink:
		in := input(0)
		if in == nil || !in.StatsKnown {
			return
		}
		node.StatsKnown = true
		node.Cardinality = in.Cardinality
		node.AvgRecordWidth = in.AvgRecordWidth
		node.OutputBytes = in.OutputBytes
	}
}
