package optimizer

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// StaticClusterInfo is the simplest ClusterInfo implementation: a fixed,
// caller-supplied instance-type table with no background refresh.
type StaticClusterInfo struct {
	types map[string]InstanceType
}

// NewStaticClusterInfo returns a ClusterInfo that always answers with types.
func NewStaticClusterInfo(types map[string]InstanceType) *StaticClusterInfo {
	return &StaticClusterInfo{types: types}
}

func (s *StaticClusterInfo) ListInstanceTypes(ctx context.Context) (map[string]InstanceType, error) {
	select {
	case <-ctx.Done():
		return nil, &CompileError{Kind: ErrClusterInfoTimeout, Message: "static cluster info", Cause: ctx.Err()}
	default:
		return s.types, nil
	}
}

// RPCClusterInfo wraps a slow lookup (a real cluster manager RPC,
// typically) behind a bounded wait (spec.md §5): the lookup runs once in its
// own goroutine and the result is cached; every call either returns the
// cached answer immediately or waits up to the context's deadline for the
// in-flight lookup to finish. A lookup that finishes after its caller gave
// up still completes and populates the cache for the next caller -- the
// assignment is single-writer-once, so a late write can never race a
// fresher one.
type RPCClusterInfo struct {
	fetch func(context.Context) (map[string]InstanceType, error)
	log   zerolog.Logger

	once   sync.Once
	done   chan struct{}
	result map[string]InstanceType
	err    error
}

// NewRPCClusterInfo wraps fetch so its result is computed at most
// once and shared by every caller.
func NewRPCClusterInfo(fetch func(context.Context) (map[string]InstanceType, error), log zerolog.Logger) *RPCClusterInfo {
	return &RPCClusterInfo{
		fetch: fetch,
		log:   log,
		done:  make(chan struct{}),
	}
}

func (b *RPCClusterInfo) ListInstanceTypes(ctx context.Context) (map[string]InstanceType, error) {
	b.once.Do(func() {
		go func() {
			defer close(b.done)
			// Deliberately detached from the caller's context: a caller that
			// times out must not cancel the lookup for everyone else waiting
			// on the same cached result.
			result, err := b.fetch(context.Background())
			b.result, b.err = result, err
			if err != nil {
				b.log.Warn().Err(err).Msg("cluster info lookup failed")
			}
		}()
	})

	select {
	case <-b.done:
		if b.err != nil {
			return nil, &CompileError{Kind: ErrClusterInfoTimeout, Message: "cluster info lookup failed", Cause: b.err}
		}
		if len(b.result) == 0 {
			return nil, &CompileError{Kind: ErrClusterInfoNoInstances, Message: "cluster reports no instance types"}
		}
		return b.result, nil
	case <-ctx.Done():
		return nil, &CompileError{Kind: ErrClusterInfoTimeout, Message: "cluster info lookup did not complete in time", Cause: ctx.Err()}
	}
}
