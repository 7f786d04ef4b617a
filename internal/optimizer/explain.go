package optimizer

import (
	"fmt"
	"strings"
)

// Explain renders a human-readable, deterministic (ascending NodeID) summary
// of the chosen plan: one line per node naming its kind, local strategy,
// total cost, assigned memory (when non-zero), and each input's ship
// strategy and producer id. Delivered properties are not printed. Intended for operator-facing
// diagnostics, not machine parsing.
func (p *OptimizedPlan) Explain() string {
	var b strings.Builder
	fmt.Fprintf(&b, "plan %q [%s] (instance type %s)\n", p.Name, p.CompileID, p.InstanceType)
	for _, id := range p.Order {
		n := p.Nodes[id]
		fmt.Fprintf(&b, "  [%d] %s %q local=%s cost=%.2f", n.NodeID, n.Kind, n.Name, n.LocalStrategy, n.TotalCost.Scalar())
		if n.MemoryBytes > 0 {
			fmt.Fprintf(&b, " memory=%dB", n.MemoryBytes)
		}
		for i, ch := range n.Inputs {
			fmt.Fprintf(&b, " in%d=%s(%d)", i, ch.Ship, ch.Producer.NodeID)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (p *OptimizedPlan) String() string { return p.Explain() }
