package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"datajoin/internal/dataset"
	"datajoin/internal/join"
)

// ParallelEngine shards the left dataset into contiguous chunks and joins
// and transforms the chunks concurrently. Chunk results are reassembled in
// chunk order and the full-outer tail is appended afterwards, so the output
// is identical to the memory engine's.
type ParallelEngine struct {
	workers int
}

// NewParallelEngine creates a parallel engine. workers <= 0 uses NumCPU.
func NewParallelEngine(workers int) *ParallelEngine {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &ParallelEngine{workers: workers}
}

// Name returns "parallel"
func (e *ParallelEngine) Name() string { return "parallel" }

// Run executes the plan over worker goroutines
func (e *ParallelEngine) Run(ctx context.Context, plan *Plan) (*dataset.Dataset, error) {
	j, err := join.New(plan.Left, plan.Right, plan.Key, plan.Mode)
	if err != nil {
		return nil, err
	}

	n := plan.Left.Len()
	workers := e.workers
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	chunkSize := (n + workers - 1) / workers
	numChunks := 0
	if chunkSize > 0 {
		numChunks = (n + chunkSize - 1) / chunkSize
	}

	chunkRecs := make([][]dataset.Record, numChunks)
	chunkMatched := make([][]int, numChunks)

	g, gctx := errgroup.WithContext(ctx)
	for c := 0; c < numChunks; c++ {
		c := c
		lo := c * chunkSize
		hi := lo + chunkSize
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			joined, matched := j.JoinRange(lo, hi)
			recs, err := applyChain(plan, joined)
			if err != nil {
				return err
			}
			chunkRecs[c] = recs
			chunkMatched[c] = matched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var recs []dataset.Record
	for _, chunk := range chunkRecs {
		recs = append(recs, chunk...)
	}

	if plan.Mode == join.FullOuter {
		bits := make([]bool, j.RightLen())
		for _, matched := range chunkMatched {
			markMatched(bits, matched)
		}
		tail, err := applyChain(plan, j.Tail(bits))
		if err != nil {
			return nil, err
		}
		recs = append(recs, tail...)
	}

	out := dataset.New(plan.ResultName, plan.Chain.OutputSchema())
	out.Records = recs
	return out, nil
}
