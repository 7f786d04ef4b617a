package optimizer

import "pactopt/internal/contract"

// GetAlternatives returns the pruned list of PlanNode candidates for a
// single OptimizerNode (spec.md §4.5). Results are memoized on the node so
// a DAG-shared node is only enumerated once no matter how many consumers
// request it.
func GetAlternatives(g *Graph, id NodeID, cost CostEstimator) ([]*PlanNode, error) {
	node := g.Node(id)
	if node == nil {
		return nil, &CompileError{Kind: ErrCompileInconsistency, Message: "enumerate: unknown node id"}
	}
	if node.alternatives != nil {
		return node.alternatives, nil
	}

	inputAlts := make([][]*PlanNode, len(node.Inputs))
	for i, in := range node.Inputs {
		alts, err := GetAlternatives(g, in, cost)
		if err != nil {
			return nil, err
		}
		inputAlts[i] = alts
	}

	raw, err := generateCandidates(g, node, inputAlts, cost)
	if err != nil {
		return nil, err
	}

	pruned := prune(node, raw)
	node.alternatives = pruned
	return pruned, nil
}

// generateCandidates builds every admissible (channel choices x local
// strategy) combination for node, given the already-enumerated alternative
// lists of its inputs, skipping combinations whose branch pinnings conflict.
func generateCandidates(g *Graph, node *OptimizerNode, inputAlts [][]*PlanNode, cost CostEstimator) ([]*PlanNode, error) {
	var out []*PlanNode

	hints := parseHints(node)

	switch node.Kind {
	case NodeSource:
		out = append(out, buildLeaf(node, cost))

	case NodeMap, NodeSink:
		for _, in := range inputAlts[0] {
			out = append(out, buildSingleInput(node, in, ShipForward, LocalNone, cost))
		}

	case NodeReduce:
		ships := filterShipByHint(admissibleShipStrategies(contract.KindReduce), hints.ship[0])
		locals := filterLocalByHint(admissibleLocalStrategies(contract.KindReduce), hints.local)
		for _, in := range inputAlts[0] {
			for _, ship := range ships {
				for _, local := range locals {
					out = append(out, buildSingleInput(node, in, ship, local, cost))
				}
			}
		}

	case NodeMatch, NodeCoGroup:
		locals := filterLocalByHint(admissibleLocalStrategies(node.kindAsContract()), hints.local)
		for _, l := range inputAlts[0] {
			for _, r := range inputAlts[1] {
				pins, ok := combinePinnings(node, l, r)
				if !ok {
					continue
				}
				for _, pair := range shipPairs(node.Kind, node.Keys, node.RightKeys, l.Delivered, r.Delivered, hints) {
					for _, local := range locals {
						out = append(out, buildDualInput(node, l, r, pair.left, pair.right, local, pins, cost))
					}
				}
			}
		}

	case NodeCross:
		locals := filterLocalByHint(admissibleLocalStrategies(contract.KindCross), hints.local)
		pairs := []shipPair{{ShipBroadcast, ShipForward}, {ShipForward, ShipBroadcast}}
		for _, l := range inputAlts[0] {
			for _, r := range inputAlts[1] {
				pins, ok := combinePinnings(node, l, r)
				if !ok {
					continue
				}
				for _, pair := range pairs {
					for _, local := range locals {
						out = append(out, buildDualInput(node, l, r, pair.left, pair.right, local, pins, cost))
					}
				}
			}
		}

	case NodeSinkJoiner:
		for _, l := range inputAlts[0] {
			for _, r := range inputAlts[1] {
				pins, ok := combinePinnings(node, l, r)
				if !ok {
					continue
				}
				out = append(out, buildDualInput(node, l, r, ShipForward, ShipForward, LocalNone, pins, cost))
			}
		}

	default:
		return nil, &CompileError{Kind: ErrCompileInconsistency, Message: "unknown node kind during enumeration"}
	}

	return out, nil
}

func (n *OptimizerNode) kindAsContract() contract.Kind {
	switch n.Kind {
	case NodeMatch:
		return contract.KindMatch
	case NodeCoGroup:
		return contract.KindCoGroup
	case NodeCross:
		return contract.KindCross
	case NodeReduce:
		return contract.KindReduce
	default:
		return contract.KindMap
	}
}

type shipPair struct{ left, right ShipStrategy }

// shipPairs returns the admissible (leftShip, rightShip) combinations for a
// binary node, per the explicit pairings of spec.md §4.5's table (these are
// coupled choices, not an independent cross product of each side's
// admissible set).
func shipPairs(kind NodeKind, leftKeys, rightKeys []int, left, right DeliveredProperties, hints parsedHints) []shipPair {
	var pairs []shipPair
	switch kind {
	case NodeMatch:
		pairs = []shipPair{
			{ShipRepartitionHash, ShipRepartitionHash},
			{ShipBroadcast, ShipForward},
			{ShipForward, ShipBroadcast},
		}
		if isCoPartitioned(left, right, leftKeys, rightKeys) {
			pairs = append(pairs, shipPair{ShipForward, ShipForward})
		}
	case NodeCoGroup:
		pairs = []shipPair{
			{ShipRepartitionHash, ShipRepartitionHash},
			{ShipRepartitionRange, ShipRepartitionRange},
		}
		if isCoPartitioned(left, right, leftKeys, rightKeys) {
			pairs = append(pairs, shipPair{ShipForward, ShipForward})
		}
	}

	pairs = filterShipPairByHints(pairs, hints)
	return pairs
}

func isCoPartitioned(left, right DeliveredProperties, leftKeys, rightKeys []int) bool {
	if left.Global.Kind != right.Global.Kind {
		return false
	}
	switch left.Global.Kind {
	case PartitionHash, PartitionRange:
		return sameFieldSet(left.Global.Fields, leftKeys) && sameFieldSet(right.Global.Fields, rightKeys)
	default:
		return false
	}
}

func filterShipPairByHints(pairs []shipPair, hints parsedHints) []shipPair {
	out := pairs
	if hints.ship[1] != contract.ShipHintNone {
		want := hintToShip(hints.ship[1])
		filtered := out[:0:0]
		for _, p := range out {
			if p.left == want {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) > 0 {
			out = filtered
		}
	}
	if hints.ship[2] != contract.ShipHintNone {
		want := hintToShip(hints.ship[2])
		filtered := out[:0:0]
		for _, p := range out {
			if p.right == want {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) > 0 {
			out = filtered
		}
	}
	return out
}

func hintToShip(h contract.ShipStrategyHint) ShipStrategy {
	switch h {
	case contract.ShipHintRepartitionHash:
		return ShipRepartitionHash
	case contract.ShipHintRepartitionRange:
		return ShipRepartitionRange
	case contract.ShipHintBroadcast:
		return ShipBroadcast
	default:
		return ShipForward
	}
}

// parsedHints is the typed form of a Contract's string-keyed hints, parsed
// once per node (spec.md §9's design note).
type parsedHints struct {
	ship  [3]contract.ShipStrategyHint // [0]=INPUT_SHIP_STRATEGY, [1]=LEFT, [2]=RIGHT
	local contract.LocalStrategyHint
}

func parseHints(node *OptimizerNode) parsedHints {
	var p parsedHints
	if node.Contract == nil {
		return p
	}
	for k, v := range node.Contract.Hints() {
		isShip, ship, local, ok, err := contract.ParseHint(k, v)
		if err != nil || !ok {
			continue // invalid/unknown hints are ignored here; Compile logs a warning for invalid values
		}
		if isShip {
			switch k {
			case contract.HintInputShipStrategy:
				p.ship[0] = ship
			case contract.HintInputLeftShipStrategy:
				p.ship[1] = ship
			case contract.HintInputRightShipStrategy:
				p.ship[2] = ship
			}
		} else {
			p.local = local
		}
	}
	return p
}

func combinePinnings(node *OptimizerNode, l, r *PlanNode) (Pinning, bool) {
	if !l.Pinnings.agrees(r.Pinnings) {
		return nil, false
	}
	return mergePinnings(l.Pinnings, r.Pinnings), true
}

func buildLeaf(node *OptimizerNode, cost CostEstimator) *PlanNode {
	p := &PlanNode{
		NodeID:         node.ID,
		Kind:           node.Kind,
		Name:           node.Name,
		LocalStrategy:  LocalNone,
		Delivered:      DeliveredProperties{Global: GlobalProperties{Kind: PartitionAny}, Local: LocalProperties{Kind: LocalAny}},
		Cardinality:    node.Cardinality,
		AvgRecordWidth: node.AvgRecordWidth,
		OutputBytes:    node.OutputBytes,
		StatsKnown:     node.StatsKnown,
		Pinnings:       Pinning{},
	}
	pinSelf(node, p)
	p.OwnCost = cost.Cost(*p)
	p.TotalCost = p.OwnCost
	return p
}

func buildSingleInput(node *OptimizerNode, in *PlanNode, ship ShipStrategy, local LocalStrategy, cost CostEstimator) *PlanNode {
	ch := newChannel(in, ship, node.Keys)
	inputsOrdered := ch.Delivered.Local.Kind == LocalOrdered && sameFieldSet(ch.Delivered.Local.Fields, node.Keys)
	delivered := DeliveredProperties{
		Global: ch.Delivered.Global,
		Local:  ProduceLocal(local, node.Keys, inputsOrdered, ch.Delivered.Local),
	}
	p := &PlanNode{
		NodeID:         node.ID,
		Kind:           node.Kind,
		Name:           node.Name,
		Inputs:         []*Channel{ch},
		LocalStrategy:  local,
		Delivered:      delivered,
		Cardinality:    node.Cardinality,
		AvgRecordWidth: node.AvgRecordWidth,
		OutputBytes:    node.OutputBytes,
		StatsKnown:     node.StatsKnown,
		Pinnings:       mergePinnings(in.Pinnings),
	}
	pinSelf(node, p)
	p.OwnCost = cost.Cost(*p)
	p.TotalCost = p.OwnCost.Add(in.TotalCost)
	return p
}

func buildDualInput(node *OptimizerNode, l, r *PlanNode, leftShip, rightShip ShipStrategy, local LocalStrategy, pins Pinning, cost CostEstimator) *PlanNode {
	lch := newChannel(l, leftShip, node.Keys)
	rch := newChannel(r, rightShip, node.RightKeys)

	bothOrdered := lch.Delivered.Local.Kind == LocalOrdered && rch.Delivered.Local.Kind == LocalOrdered
	var keys []int
	if len(node.Keys) >= len(node.RightKeys) {
		keys = node.Keys
	} else {
		keys = node.RightKeys
	}

	var delivered DeliveredProperties
	switch node.Kind {
	case NodeSinkJoiner:
		delivered = DeliveredProperties{Global: GlobalProperties{Kind: PartitionAny}, Local: LocalProperties{Kind: LocalAny}}
	default:
		delivered = DeliveredProperties{
			Global: lch.Delivered.Global,
			Local:  ProduceLocal(local, keys, bothOrdered, lch.Delivered.Local),
		}
	}

	p := &PlanNode{
		NodeID:         node.ID,
		Kind:           node.Kind,
		Name:           node.Name,
		Inputs:         []*Channel{lch, rch},
		LocalStrategy:  local,
		Delivered:      delivered,
		Cardinality:    node.Cardinality,
		AvgRecordWidth: node.AvgRecordWidth,
		OutputBytes:    node.OutputBytes,
		StatsKnown:     node.StatsKnown,
		Pinnings:       pins,
	}
	pinSelf(node, p)
	p.OwnCost = cost.Cost(*p)
	p.TotalCost = p.OwnCost.Add(l.TotalCost).Add(r.TotalCost)
	return p
}

// pinSelf records this candidate as the chosen realization of node for any
// future reconvergence, if node is itself a branch point (fan-out > 1).
func pinSelf(node *OptimizerNode, p *PlanNode) {
	if node.outputEdgeCount <= 1 {
		return
	}
	if p.Pinnings == nil {
		p.Pinnings = Pinning{}
	}
	p.Pinnings[node.ID] = p
}

// capability is the boolean vector of which of a node's deduplicated
// interesting-property requests a candidate's Delivered properties satisfy.
type capability []bool

func sameRequest(a, b RequestedProperties) bool {
	return a.Global.Kind == b.Global.Kind &&
		sameFieldSet(a.Global.Fields, b.Global.Fields) &&
		a.Local.Kind == b.Local.Kind &&
		sameFieldSet(a.Local.Fields, b.Local.Fields) &&
		a.Local.Direction == b.Local.Direction
}

func dedupRequests(reqs []RequestedProperties) []RequestedProperties {
	var out []RequestedProperties
	for _, r := range reqs {
		if r.IsTrivial() {
			continue
		}
		dup := false
		for _, o := range out {
			if sameRequest(o, r) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}

func capabilityOf(p *PlanNode, reqs []RequestedProperties) capability {
	out := make(capability, len(reqs))
	for i, r := range reqs {
		out[i] = DeliveredProperties{Global: p.Delivered.Global, Local: p.Delivered.Local}.Satisfies(r)
	}
	return out
}

func (c capability) supersetOf(o capability) bool {
	for i := range c {
		if o[i] && !c[i] {
			return false
		}
	}
	return true
}

func (c capability) equal(o capability) bool {
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// prune applies the §4.5 Pareto-minimality rule: sort candidates by
// (cost, tie-break), then keep a candidate only if no cheaper-or-equal
// already-kept candidate's capability set is a superset of its own.
func prune(node *OptimizerNode, raw []*PlanNode) []*PlanNode {
	if len(raw) == 0 {
		return raw
	}
	reqs := dedupRequests(node.InterestingProperties)
	caps := make([]capability, len(raw))
	for i, c := range raw {
		caps[i] = capabilityOf(c, reqs)
	}

	order := make([]int, len(raw))
	for i := range order {
		order[i] = i
	}
	less := func(i, j int) bool {
		a, b := raw[order[i]], raw[order[j]]
		sa, sb := a.costScalar(), b.costScalar()
		if sa != sb {
			return sa < sb
		}
		if pa, pb := a.partitioningOpCount(), b.partitioningOpCount(); pa != pb {
			return pa < pb
		}
		return a.LocalStrategy < b.LocalStrategy
	}
	insertionSort(order, less)

	var kept []*PlanNode
	var keptCaps []capability
	for _, idx := range order {
		c, cc := raw[idx], caps[idx]
		dominated := false
		for _, kc := range keptCaps {
			if kc.supersetOf(cc) {
				dominated = true
				break
			}
		}
		if dominated {
			continue
		}
		kept = append(kept, c)
		keptCaps = append(keptCaps, cc)
	}
	return kept
}

func insertionSort(order []int, less func(i, j int) bool) {
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
}
