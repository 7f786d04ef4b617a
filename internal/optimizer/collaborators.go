package optimizer

import "context"

// SourceStats is the answer a DataStatistics provider gives for one source,
// or the "unknown" sentinel (spec.md §6) when nothing is registered.
type SourceStats struct {
	Known          bool
	Cardinality    int64
	AvgRecordWidth int64
	NumBytes       int64
}

// DataStatistics is the pluggable statistics collaborator (spec.md §6). The
// core never implements source statistics itself; it only consults this
// interface. A source that reports Known=false leaves its node's size
// estimates at zero; enumeration does not look at Known and applies no
// separate preference (sort-based or otherwise) for such sources.
type DataStatistics interface {
	GetStats(sourceID string) SourceStats
}

// Cost is the three-dimensional cost vector spec.md §4.5 asks for; the core
// reduces it to a scalar via Scalar() using a fixed weighting so that
// pruning and tie-breaking are deterministic.
type Cost struct {
	Network float64
	Disk    float64
	CPU     float64
}

const (
	costWeightNetwork = 1.0
	costWeightDisk    = 1.0
	costWeightCPU     = 0.1
)

// Scalar reduces the cost vector to the single number pruning compares.
func (c Cost) Scalar() float64 {
	return c.Network*costWeightNetwork + c.Disk*costWeightDisk + c.CPU*costWeightCPU
}

func (c Cost) Add(o Cost) Cost {
	return Cost{Network: c.Network + o.Network, Disk: c.Disk + o.Disk, CPU: c.CPU + o.CPU}
}

// CostEstimator is the pluggable cost collaborator (spec.md §6). Given a
// candidate PlanNode (already wired with its input Channels), it returns a
// cost vector describing that single node's own work -- not its subtree;
// the enumerator accumulates subtree cost itself.
type CostEstimator interface {
	Cost(node PlanNode) Cost
}

// InstanceHardware describes one instance type's resources, as reported by
// ClusterInfo.
type InstanceHardware struct {
	FreeMemoryBytes int64
	Cores           int
}

// InstanceType is one entry of ClusterInfo.ListInstanceTypes.
type InstanceType struct {
	TypeID       string
	Hardware     InstanceHardware // zero value means "hardware unknown"
	HasHardware  bool
	MaxInstances int
}

// ClusterInfo is the pluggable cluster collaborator (spec.md §6).
// Implementations may be backed by a synchronous lookup or by the
// background-worker pattern of spec.md §5; the driver always calls through
// ListInstanceTypes with a context carrying the bounded deadline.
type ClusterInfo interface {
	ListInstanceTypes(ctx context.Context) (map[string]InstanceType, error)
}

// PostPass attaches serialization/comparator metadata to a finalized plan.
// It is opaque to the core (spec.md §6); NoopPostPass is the default.
type PostPass interface {
	Apply(plan *OptimizedPlan) error
}

// NoopPostPass implements PostPass by doing nothing.
type NoopPostPass struct{}

func (NoopPostPass) Apply(*OptimizedPlan) error { return nil }
