package optimizer

// PropagateInterestingProperties performs the top-down descent of spec.md
// §4.3: starting from the root (which by construction has no consumers), it
// unions the requests arriving on every output edge of a node before
// deriving and pushing the requests that node places on its own inputs.
// Because a DAG node's fan-out can be > 1, a node is only processed once
// every one of its output edges has delivered its request -- tracked here
// with the same edge counter BuildGraph computed.
func PropagateInterestingProperties(g *Graph, estimator CostEstimator) {
	remaining := make([]int, len(g.Nodes)+1) // 1-indexed by NodeID
	for _, n := range g.Nodes {
		remaining[n.ID] = n.outputEdgeCount
	}

	queue := []NodeID{g.Root}
	// The root has no consumers, so it starts with trivial interesting
	// properties and is immediately ready.
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		node := g.Node(id)

		derived := deriveInputRequests(node)
		for i, in := range node.Inputs {
			inNode := g.Node(in)
			var req RequestedProperties
			if i < len(derived) {
				req = derived[i]
			}
			inNode.InterestingProperties = append(inNode.InterestingProperties, req)
			remaining[in]--
			if remaining[in] == 0 {
				queue = append(queue, in)
			}
		}
	}
}

// deriveInputRequests computes, for each of node's inputs, the
// RequestedProperties that node itself places on that input, per the
// node-kind rules of spec.md §4.3. The returned slice has one entry per
// input, in input order.
func deriveInputRequests(node *OptimizerNode) []RequestedProperties {
	switch node.Kind {
	case NodeReduce:
		req := RequestedProperties{
			Global: GlobalProperties{Kind: PartitionHash, Fields: node.Keys},
			Local:  LocalProperties{Kind: LocalGrouped, Fields: node.Keys},
		}
		return []RequestedProperties{req}

	case NodeMatch, NodeCoGroup:
		left := RequestedProperties{
			Global: GlobalProperties{Kind: PartitionHash, Fields: node.Keys},
			Local:  LocalProperties{Kind: LocalGrouped, Fields: node.Keys},
		}
		right := RequestedProperties{
			Global: GlobalProperties{Kind: PartitionHash, Fields: node.RightKeys},
			Local:  LocalProperties{Kind: LocalGrouped, Fields: node.RightKeys},
		}
		return []RequestedProperties{left, right}

	case NodeCross:
		// Both "broadcast the left" and "broadcast the right" are tracked as
		// interesting; the enumerator tries both admissible ship-strategy
		// combinations regardless, so marking full replication as
		// interesting on both sides costs nothing and helps pruning spot a
		// channel that already happens to be fully replicated.
		full := RequestedProperties{Global: GlobalProperties{Kind: PartitionFullReplication}}
		return []RequestedProperties{full, full}

	case NodeMap, NodeSource, NodeSink, NodeSinkJoiner:
		// Pass through the union of what downstream wanted from this node.
		// Source has no inputs, so this is only meaningful for Map/Sink/
		// SinkJoiner, but computing it uniformly keeps the function total.
		union := unionRequests(node.InterestingProperties)
		out := make([]RequestedProperties, len(node.Inputs))
		for i := range out {
			out[i] = union
		}
		return out

	default:
		return make([]RequestedProperties, len(node.Inputs))
	}
}

// unionRequests reduces a node's accumulated per-consumer requests to the
// single request a passthrough node forwards to its inputs: the first
// non-trivial request in arrival order. Later non-trivial requests are not
// forwarded and are not compared or merged with the first one; the arrival
// order is deterministic given a fixed traversal (spec.md §8, determinism).
func unionRequests(reqs []RequestedProperties) RequestedProperties {
	var best RequestedProperties
	for _, r := range reqs {
		if r.IsTrivial() {
			continue
		}
		if best.IsTrivial() {
			best = r
		}
	}
	return best
}
