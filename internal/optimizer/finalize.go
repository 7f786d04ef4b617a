package optimizer

import "sort"

// OptimizedPlan is the compiler's public result (spec.md §4.6, §6): the
// chosen PlanNode for every reachable OptimizerNode, reachable from the
// original sinks, with memory assigned per subtask.
type OptimizedPlan struct {
	CompileID     string // unique per Compile call, for correlating logs across a run
	Name          string
	Nodes         map[NodeID]*PlanNode
	Order         []NodeID // topological, ascending NodeID
	OriginalSinks []NodeID
	InstanceType  string
}

// memoryConsumerWeight is the relative share of per-instance memory a
// memory-consuming node is entitled to; every consumer gets the same weight
// today, leaving room for a future per-operator hint without changing the
// finalizer's algorithm (spec.md §4.6).
const memoryConsumerWeight = 1.0

// Finalize performs the §4.6 pass: walk back from the root's chosen
// PlanNode, collect every PlanNode transitively reachable through its
// Channels, and split the given per-instance memory budget across the
// memory-consuming nodes in proportion to their weight.
func Finalize(g *Graph, root *PlanNode, planName string, memoryPerInstanceBytes int64, instanceType string) (*OptimizedPlan, error) {
	if root == nil {
		return nil, &CompileError{Kind: ErrCompileInconsistency, Message: "finalize: no surviving root candidate"}
	}

	nodes := make(map[NodeID]*PlanNode)
	var order []NodeID
	var collect func(p *PlanNode)
	collect = func(p *PlanNode) {
		if _, seen := nodes[p.NodeID]; seen {
			return
		}
		nodes[p.NodeID] = p
		order = append(order, p.NodeID)
		for _, ch := range p.Inputs {
			collect(ch.Producer)
		}
	}
	collect(root)
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	totalWeight := 0.0
	for _, p := range nodes {
		if p.Kind.isMemoryConsumer() {
			totalWeight += memoryConsumerWeight
		}
	}

	memoryPerNode := make(map[NodeID]int64, len(nodes))
	if totalWeight > 0 {
		for id, p := range nodes {
			if p.Kind.isMemoryConsumer() {
				share := memoryConsumerWeight / totalWeight
				memoryPerNode[id] = int64(share * float64(memoryPerInstanceBytes))
			}
		}
	}
	for id, bytes := range memoryPerNode {
		nodes[id].MemoryBytes = bytes
	}

	plan := &OptimizedPlan{
		Name:          planName,
		Nodes:         nodes,
		Order:         order,
		OriginalSinks: g.OriginalSinks,
		InstanceType:  instanceType,
	}
	return plan, nil
}
