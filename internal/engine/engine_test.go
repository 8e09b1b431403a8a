package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datajoin/internal/dataset"
	"datajoin/internal/join"
	"datajoin/internal/sink"
	"datajoin/internal/transform"
)

func buildPlan(t *testing.T, left, right *dataset.Dataset, mode join.Mode, rules []transform.Rule) *Plan {
	t.Helper()
	joinedSchema, err := join.OutputSchema(left.Schema, right.Schema, join.Key{"id"})
	require.NoError(t, err)
	chain, err := transform.NewChain(joinedSchema, rules)
	require.NoError(t, err)
	return &Plan{
		Left:             left,
		Right:            right,
		Key:              join.Key{"id"},
		Mode:             mode,
		Chain:            chain,
		OnTransformError: transform.PolicyAbort,
		ResultName:       "result",
	}
}

func largeFixtures(t *testing.T) (*dataset.Dataset, *dataset.Dataset) {
	t.Helper()
	left := dataset.New("dataset1", dataset.NewSchema(
		dataset.Column{Name: "id", Type: dataset.TypeNumber},
		dataset.Column{Name: "a", Type: dataset.TypeString},
	))
	for i := 0; i < 500; i++ {
		left.Append(dataset.Record{float64(i % 37), fmt.Sprintf("a%d", i)})
	}
	right := dataset.New("dataset2", dataset.NewSchema(
		dataset.Column{Name: "id", Type: dataset.TypeNumber},
		dataset.Column{Name: "b", Type: dataset.TypeString},
	))
	for i := 0; i < 200; i++ {
		right.Append(dataset.Record{float64(i % 53), fmt.Sprintf("b%d", i)})
	}
	return left, right
}

// Every engine must produce byte-identical output for the same plan.
func TestEnginesAgreeByteForByte(t *testing.T) {
	rules := []transform.Rule{}
	for _, cfg := range []map[string]interface{}{
		{"type": "rename", "from": "a", "to": "alpha"},
		{"type": "fill_null", "value": 0},
	} {
		rule, err := transform.New(cfg["type"].(string), cfg)
		require.NoError(t, err)
		rules = append(rules, rule)
	}

	for _, mode := range []join.Mode{join.Inner, join.LeftOuter, join.FullOuter} {
		t.Run(string(mode), func(t *testing.T) {
			left, right := largeFixtures(t)
			plan := buildPlan(t, left, right, mode, rules)

			mem, err := (&MemoryEngine{}).Run(context.Background(), plan)
			require.NoError(t, err)

			memBytes, err := sink.EncodeCSV(mem)
			require.NoError(t, err)

			for _, workers := range []int{1, 3, 8, 64} {
				par, err := NewParallelEngine(workers).Run(context.Background(), plan)
				require.NoError(t, err)

				parBytes, err := sink.EncodeCSV(par)
				require.NoError(t, err)
				assert.Equal(t, memBytes, parBytes, "workers=%d", workers)
			}
		})
	}
}

// Running the same engine twice must also be deterministic.
func TestEngineDeterminism(t *testing.T) {
	left, right := largeFixtures(t)
	plan := buildPlan(t, left, right, join.FullOuter, nil)

	eng := NewParallelEngine(4)
	first, err := eng.Run(context.Background(), plan)
	require.NoError(t, err)
	second, err := eng.Run(context.Background(), plan)
	require.NoError(t, err)

	a, err := sink.EncodeCSV(first)
	require.NoError(t, err)
	b, err := sink.EncodeCSV(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmptyLeftInner(t *testing.T) {
	_, right := largeFixtures(t)
	left := dataset.New("dataset1", dataset.NewSchema(
		dataset.Column{Name: "id", Type: dataset.TypeNumber},
		dataset.Column{Name: "a", Type: dataset.TypeString},
	))
	plan := buildPlan(t, left, right, join.Inner, nil)

	for _, eng := range []Engine{&MemoryEngine{}, NewParallelEngine(4)} {
		out, err := eng.Run(context.Background(), plan)
		require.NoError(t, err)
		assert.Equal(t, 0, out.Len(), eng.Name())
	}
}

func TestEmptyLeftFullOuter(t *testing.T) {
	left := dataset.New("dataset1", dataset.NewSchema(
		dataset.Column{Name: "id", Type: dataset.TypeNumber},
		dataset.Column{Name: "a", Type: dataset.TypeString},
	))
	right := dataset.New("dataset2", dataset.NewSchema(
		dataset.Column{Name: "id", Type: dataset.TypeNumber},
		dataset.Column{Name: "b", Type: dataset.TypeString},
	))
	right.Append(dataset.Record{float64(1), "p"})
	right.Append(dataset.Record{float64(2), "q"})

	plan := buildPlan(t, left, right, join.FullOuter, nil)

	for _, eng := range []Engine{&MemoryEngine{}, NewParallelEngine(4)} {
		out, err := eng.Run(context.Background(), plan)
		require.NoError(t, err)
		require.Equal(t, 2, out.Len(), eng.Name())
		// dataset2 records in input order, dataset1 columns null-filled
		assert.Equal(t, dataset.Record{float64(1), nil, "p"}, out.Records[0])
		assert.Equal(t, dataset.Record{float64(2), nil, "q"}, out.Records[1])
	}
}

func TestTransformPolicySkip(t *testing.T) {
	left := dataset.New("dataset1", dataset.NewSchema(
		dataset.Column{Name: "id", Type: dataset.TypeNumber},
		dataset.Column{Name: "a", Type: dataset.TypeString},
	))
	left.Append(dataset.Record{float64(1), "5"})
	left.Append(dataset.Record{float64(2), "oops"})
	right := dataset.New("dataset2", dataset.NewSchema(
		dataset.Column{Name: "id", Type: dataset.TypeNumber},
		dataset.Column{Name: "b", Type: dataset.TypeString},
	))
	right.Append(dataset.Record{float64(1), "p"})
	right.Append(dataset.Record{float64(2), "q"})

	coerce, err := transform.New("coerce", map[string]interface{}{"column": "a", "to": "number"})
	require.NoError(t, err)

	plan := buildPlan(t, left, right, join.Inner, []transform.Rule{coerce})
	plan.OnTransformError = transform.PolicySkip

	for _, eng := range []Engine{&MemoryEngine{}, NewParallelEngine(2)} {
		out, err := eng.Run(context.Background(), plan)
		require.NoError(t, err)
		require.Equal(t, 1, out.Len(), eng.Name())
		assert.Equal(t, float64(5), out.Records[0][1])
	}
}

func TestTransformPolicyAbort(t *testing.T) {
	left := dataset.New("dataset1", dataset.NewSchema(
		dataset.Column{Name: "id", Type: dataset.TypeNumber},
		dataset.Column{Name: "a", Type: dataset.TypeString},
	))
	left.Append(dataset.Record{float64(1), "oops"})
	right := dataset.New("dataset2", dataset.NewSchema(
		dataset.Column{Name: "id", Type: dataset.TypeNumber},
		dataset.Column{Name: "b", Type: dataset.TypeString},
	))
	right.Append(dataset.Record{float64(1), "p"})

	coerce, err := transform.New("coerce", map[string]interface{}{"column": "a", "to": "number"})
	require.NoError(t, err)

	plan := buildPlan(t, left, right, join.Inner, []transform.Rule{coerce})

	for _, eng := range []Engine{&MemoryEngine{}, NewParallelEngine(2)} {
		_, err := eng.Run(context.Background(), plan)
		assert.Error(t, err, eng.Name())
	}
}

func TestUnknownEngine(t *testing.T) {
	_, err := New("quantum", 0)
	assert.Error(t, err)
}
