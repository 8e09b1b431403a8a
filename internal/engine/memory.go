package engine

import (
	"context"

	"datajoin/internal/dataset"
	"datajoin/internal/join"
)

// MemoryEngine executes the plan single-threaded: join all, transform all.
type MemoryEngine struct{}

// Name returns "memory"
func (e *MemoryEngine) Name() string { return "memory" }

// Run executes the plan sequentially
func (e *MemoryEngine) Run(ctx context.Context, plan *Plan) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j, err := join.New(plan.Left, plan.Right, plan.Key, plan.Mode)
	if err != nil {
		return nil, err
	}

	joined, matched := j.JoinRange(0, plan.Left.Len())
	if plan.Mode == join.FullOuter {
		bits := make([]bool, j.RightLen())
		markMatched(bits, matched)
		joined = append(joined, j.Tail(bits)...)
	}

	recs, err := applyChain(plan, joined)
	if err != nil {
		return nil, err
	}

	out := dataset.New(plan.ResultName, plan.Chain.OutputSchema())
	out.Records = recs
	return out, nil
}
