// Package engine provides interchangeable execution strategies for the join
// pipeline. Every engine computes the same logical job — join, then the
// ordered transform chain — and must produce identical records in identical
// order; parallelism is an internal optimization, never observable in output.
package engine

import (
	"context"
	"fmt"

	"datajoin/internal/common/errors"
	"datajoin/internal/common/logging"
	"datajoin/internal/dataset"
	"datajoin/internal/join"
	"datajoin/internal/transform"
)

// Plan is one fully-validated, loaded unit of work. The datasets, joiner
// inputs, and transform chain are read-only during Run, so a Plan may be
// executed by several engines in sequence or in parallel.
type Plan struct {
	Left             *dataset.Dataset
	Right            *dataset.Dataset
	Key              join.Key
	Mode             join.Mode
	Chain            *transform.Chain
	OnTransformError transform.ErrorPolicy
	ResultName       string
}

// Engine executes a plan
type Engine interface {
	// Name returns the engine name
	Name() string

	// Run executes the plan and returns the result dataset
	Run(ctx context.Context, plan *Plan) (*dataset.Dataset, error)
}

// New creates an engine by name. workers bounds the parallel engine's
// concurrency; it is ignored by the memory engine.
func New(name string, workers int) (Engine, error) {
	switch name {
	case "", "memory":
		return &MemoryEngine{}, nil
	case "parallel":
		return NewParallelEngine(workers), nil
	default:
		return nil, errors.NewConfigError("engine", fmt.Sprintf("unknown engine %q", name))
	}
}

// applyChain runs the transform chain over joined records under the
// configured error policy, preserving record order.
func applyChain(plan *Plan, recs []dataset.Record) ([]dataset.Record, error) {
	out := make([]dataset.Record, 0, len(recs))
	for i, rec := range recs {
		res, keep, err := plan.Chain.Apply(i+1, rec)
		if err != nil {
			switch plan.OnTransformError {
			case transform.PolicySkip:
				logging.Warn("skipped record on transform failure", logging.Err(err))
				continue
			case transform.PolicyKeep:
				logging.Warn("kept record untransformed on transform failure", logging.Err(err))
				out = append(out, rec)
				continue
			default:
				return nil, err
			}
		}
		if keep {
			out = append(out, res)
		}
	}
	return out, nil
}

// markMatched sets the right-side positions matched by a join range
func markMatched(bits []bool, matched []int) {
	for _, ri := range matched {
		bits[ri] = true
	}
}
