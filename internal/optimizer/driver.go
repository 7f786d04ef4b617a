package optimizer

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pactopt/internal/contract"
)

// Config holds the knobs Compile needs beyond the plan itself (spec.md §4.7,
// §6). DefaultParallelism seeds every OptimizerNode's parallelism when a
// contract does not declare its own, and MaxMachines (when > 0) sets each
// node's tasks-per-instance to ceil(parallelism / MaxMachines); MemoryFraction is
// the share of an instance's free memory the finalizer may hand to
// memory-consuming nodes, mirroring how a real cluster always reserves
// headroom for the runtime itself.
type Config struct {
	DefaultParallelism int
	MaxMachines        int
	MemoryFraction     float64
	ClusterTimeout     time.Duration

	Statistics DataStatistics
	Cost       CostEstimator
	Cluster    ClusterInfo
	PostPass   PostPass

	Logger zerolog.Logger
}

// DefaultConfig returns a Config usable for tests and simple callers: a
// 1-based default parallelism, no machine cap, the package's own
// Statistics/CostModel/NoopPostPass, and a conservative 96% memory fraction
// (the remaining 4% covers JVM/runtime-style overhead on the target instance
// even though this runtime is Go, matching the headroom a teacher cluster
// would reserve).
func DefaultConfig() Config {
	return Config{
		DefaultParallelism: 1,
		MaxMachines:        0,
		MemoryFraction:     0.96,
		ClusterTimeout:     30 * time.Second,
		Statistics:         NewStatistics(),
		Cost:               NewCostModel(nil),
		PostPass:           NoopPostPass{},
		Logger:             log.Logger,
	}
}

func (c Config) withDefaults() Config {
	if c.DefaultParallelism <= 0 {
		c.DefaultParallelism = 1
	}
	if c.MemoryFraction <= 0 {
		c.MemoryFraction = 0.96
	}
	if c.ClusterTimeout <= 0 {
		c.ClusterTimeout = 30 * time.Second
	}
	if c.Statistics == nil {
		c.Statistics = NewStatistics()
	}
	if c.Cost == nil {
		c.Cost = NewCostModel(nil)
	}
	if c.PostPass == nil {
		c.PostPass = NoopPostPass{}
	}
	return c
}

// Validate checks the knobs a caller is likely to get wrong before
// Compile ever touches a plan, mirroring internal/config.Config.Validate's
// pattern of failing on the first invalid field.
func (c Config) Validate() error {
	if c.DefaultParallelism < 0 {
		return &CompileError{Kind: ErrConfiguration, Message: "DefaultParallelism must not be negative"}
	}
	if c.MaxMachines < 0 {
		return &CompileError{Kind: ErrConfiguration, Message: "MaxMachines must not be negative"}
	}
	if c.MemoryFraction < 0 || c.MemoryFraction > 1 {
		return &CompileError{Kind: ErrConfiguration, Message: "MemoryFraction must be within [0, 1]"}
	}
	if c.ClusterTimeout < 0 {
		return &CompileError{Kind: ErrConfiguration, Message: "ClusterTimeout must not be negative"}
	}
	return nil
}

// Compile runs the full optimizer pipeline of spec.md §4: build the DAG,
// propagate interesting properties, compute branches, enumerate and prune
// alternatives bottom-up, finalize the surviving root candidate, and run the
// post pass. If cfg.Cluster is set, Compile first asks it for available
// instance types and picks one per pickInstanceType before finalizing
// memory; otherwise, or when the picked type reports no hardware, it
// finalizes against a fixed 16GiB per-instance memory budget.
func Compile(ctx context.Context, plan *contract.Plan, cfg Config) (*OptimizedPlan, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	compileID := uuid.New().String()
	cfg.Logger = cfg.Logger.With().Str("compile_id", compileID).Logger()

	instanceType := ""
	var memoryBytes int64 = 1 << 34 // 16GiB fallback when no ClusterInfo is wired
	maxMachines := cfg.MaxMachines

	if cfg.Cluster != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, cfg.ClusterTimeout)
		defer cancel()

		types, err := cfg.Cluster.ListInstanceTypes(lookupCtx)
		if err != nil {
			return nil, err
		}
		picked, err := pickInstanceType(types, cfg.MaxMachines)
		if err != nil {
			return nil, err
		}
		instanceType = picked.TypeID
		if picked.HasHardware {
			memoryBytes = int64(float64(picked.Hardware.FreeMemoryBytes) * cfg.MemoryFraction)
			if maxMachines <= 0 {
				maxMachines = picked.MaxInstances
			}
		}
	}

	g, err := BuildGraph(plan, BuildOptions{
		DefaultParallelism: cfg.DefaultParallelism,
		MaxMachines:        maxMachines,
		Statistics:         cfg.Statistics,
		EstimateSizes:      true,
	})
	if err != nil {
		return nil, err
	}

	for _, n := range g.Nodes {
		if n.Contract == nil {
			continue
		}
		for k, v := range n.Contract.Hints() {
			if _, _, _, _, err := contract.ParseHint(k, v); err != nil {
				cfg.Logger.Warn().Err(err).Str("node", n.Name).Msg("ignoring invalid compiler hint")
			}
		}
	}

	PropagateInterestingProperties(g, cfg.Cost)
	ComputeBranches(g)

	alts, err := GetAlternatives(g, g.Root, cfg.Cost)
	if err != nil {
		return nil, err
	}
	if len(alts) != 1 {
		cfg.Logger.Warn().Int("count", len(alts)).Msg("root did not prune to a single candidate; picking cheapest")
	}
	if len(alts) == 0 {
		return nil, &CompileError{Kind: ErrCompileInconsistency, Message: "no surviving plan alternative at root"}
	}
	root := cheapest(alts)

	optimized, err := Finalize(g, root, plan.Name, memoryBytes, instanceType)
	if err != nil {
		return nil, err
	}
	optimized.CompileID = compileID

	if err := cfg.PostPass.Apply(optimized); err != nil {
		return nil, err
	}

	return optimized, nil
}

func cheapest(alts []*PlanNode) *PlanNode {
	best := alts[0]
	for _, a := range alts[1:] {
		if a.costScalar() < best.costScalar() {
			best = a
		}
	}
	return best
}

// pickInstanceType implements the §4.7 instance-selection heuristic: among
// the types the cluster reports, prefer more instances unless that loses
// too much memory per instance, and otherwise prefer significantly more
// memory at comparable core count. The fold is order-dependent, so
// candidates are sorted by TypeID first; map iteration order is randomized
// per run, and without a fixed order two Compile calls against the same
// ClusterInfo could otherwise pick different winners.
func pickInstanceType(types map[string]InstanceType, maxMachines int) (InstanceType, error) {
	if len(types) == 0 {
		return InstanceType{}, &CompileError{Kind: ErrClusterInfoNoInstances, Message: "cluster reported no instance types"}
	}

	ordered := make([]InstanceType, 0, len(types))
	for _, t := range types {
		ordered = append(ordered, t)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].TypeID < ordered[j].TypeID })

	var best InstanceType
	haveBest := false

	for _, t := range ordered {
		instances := t.MaxInstances
		if maxMachines > 0 && instances > maxMachines {
			instances = maxMachines
		}
		if !haveBest {
			best, haveBest = t, true
			continue
		}
		bestInstances := best.MaxInstances
		if maxMachines > 0 && bestInstances > maxMachines {
			bestInstances = maxMachines
		}

		if !t.HasHardware || !best.HasHardware {
			if instances > bestInstances {
				best = t
			}
			continue
		}

		moreInstancesOK := instances > bestInstances &&
			float64(t.Hardware.FreeMemoryBytes)*1.2 > float64(best.Hardware.FreeMemoryBytes)
		moreMemoryAtComparableCores := instances*t.Hardware.Cores >= bestInstances*best.Hardware.Cores &&
			float64(t.Hardware.FreeMemoryBytes)*1.5 > float64(best.Hardware.FreeMemoryBytes)

		if moreInstancesOK || moreMemoryAtComparableCores {
			best = t
		}
	}

	return best, nil
}
