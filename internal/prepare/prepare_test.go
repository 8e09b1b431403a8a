package prepare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datajoin/internal/dataset"
)

func invoicesFixture() *dataset.Dataset {
	ds := dataset.New("dataset1", dataset.NewSchema(
		dataset.Column{Name: "invoice_id", Type: dataset.TypeString},
		dataset.Column{Name: "legal_entity", Type: dataset.TypeString},
		dataset.Column{Name: "counter_party", Type: dataset.TypeString},
		dataset.Column{Name: "rating", Type: dataset.TypeNumber},
		dataset.Column{Name: "status", Type: dataset.TypeString},
		dataset.Column{Name: "value", Type: dataset.TypeNumber},
	))
	ds.Append(dataset.Record{"i1", "L1", "C1", float64(1), "ARAP", float64(10)})
	ds.Append(dataset.Record{"i2", "L1", "C1", float64(3), "ARAP", float64(20)})
	ds.Append(dataset.Record{"i3", "L1", "C1", float64(2), "ACCR", float64(40)})
	ds.Append(dataset.Record{"i4", "L2", "C2", float64(5), "ACCR", float64(100)})
	return ds
}

func TestDropColumns(t *testing.T) {
	op, err := New("drop_columns", map[string]interface{}{"columns": []interface{}{"invoice_id"}})
	require.NoError(t, err)

	out, err := op.Apply(invoicesFixture())
	require.NoError(t, err)
	assert.Equal(t, []string{"legal_entity", "counter_party", "rating", "status", "value"}, out.Schema.Names())
	assert.Equal(t, 4, out.Len())
	assert.Equal(t, "L1", out.Records[0][0])
}

func TestDropColumnsMissing(t *testing.T) {
	op, err := New("drop_columns", map[string]interface{}{"columns": []interface{}{"nope"}})
	require.NoError(t, err)

	_, err = op.OutputSchema(invoicesFixture().Schema)
	assert.Error(t, err)
}

func TestFilterOp(t *testing.T) {
	op, err := New("filter", map[string]interface{}{"column": "status", "equals": "ARAP"})
	require.NoError(t, err)

	out, err := op.Apply(invoicesFixture())
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, "i1", out.Records[0][0])
	assert.Equal(t, "i2", out.Records[1][0])
}

func TestAggregate(t *testing.T) {
	op, err := New("aggregate", map[string]interface{}{
		"group_by": []interface{}{"legal_entity", "counter_party"},
		"aggregations": []interface{}{
			map[string]interface{}{"column": "value", "func": "sum", "as": "arap_value",
				"when": map[string]interface{}{"column": "status", "equals": "ARAP"}},
			map[string]interface{}{"column": "rating", "func": "max", "as": "rating_arap",
				"when": map[string]interface{}{"column": "status", "equals": "ARAP"}},
			map[string]interface{}{"column": "value", "func": "sum", "as": "accr_value",
				"when": map[string]interface{}{"column": "status", "equals": "ACCR"}},
			map[string]interface{}{"column": "rating", "func": "max", "as": "rating_accr",
				"when": map[string]interface{}{"column": "status", "equals": "ACCR"}},
		},
	})
	require.NoError(t, err)

	out, err := op.Apply(invoicesFixture())
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"legal_entity", "counter_party", "arap_value", "rating_arap", "accr_value", "rating_accr"},
		out.Schema.Names())
	require.Equal(t, 2, out.Len())

	// groups are emitted in first-seen order
	assert.Equal(t, dataset.Record{"L1", "C1", float64(30), float64(3), float64(40), float64(2)}, out.Records[0])
	// a group with no contributing rows for an aggregation gets null
	assert.Equal(t, dataset.Record{"L2", "C2", nil, nil, float64(100), float64(5)}, out.Records[1])
}

func TestAggregateCount(t *testing.T) {
	op, err := New("aggregate", map[string]interface{}{
		"group_by": []interface{}{"legal_entity"},
		"aggregations": []interface{}{
			map[string]interface{}{"column": "invoice_id", "func": "count", "as": "invoices"},
		},
	})
	require.NoError(t, err)

	out, err := op.Apply(invoicesFixture())
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, dataset.Record{"L1", float64(3)}, out.Records[0])
	assert.Equal(t, dataset.Record{"L2", float64(1)}, out.Records[1])
}

func TestAggregateConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]interface{}
	}{
		{
			name:   "no group_by",
			config: map[string]interface{}{"aggregations": []interface{}{map[string]interface{}{"column": "value", "func": "sum", "as": "v"}}},
		},
		{
			name:   "no aggregations",
			config: map[string]interface{}{"group_by": []interface{}{"legal_entity"}},
		},
		{
			name: "unknown func",
			config: map[string]interface{}{
				"group_by":     []interface{}{"legal_entity"},
				"aggregations": []interface{}{map[string]interface{}{"column": "value", "func": "avg", "as": "v"}},
			},
		},
		{
			name: "duplicate output name",
			config: map[string]interface{}{
				"group_by": []interface{}{"legal_entity"},
				"aggregations": []interface{}{
					map[string]interface{}{"column": "value", "func": "sum", "as": "v"},
					map[string]interface{}{"column": "value", "func": "max", "as": "v"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("aggregate", tt.config)
			assert.Error(t, err)
		})
	}
}

func TestOutputSchemaChain(t *testing.T) {
	drop, err := New("drop_columns", map[string]interface{}{"columns": []interface{}{"invoice_id"}})
	require.NoError(t, err)
	agg, err := New("aggregate", map[string]interface{}{
		"group_by": []interface{}{"counter_party"},
		"aggregations": []interface{}{
			map[string]interface{}{"column": "value", "func": "sum", "as": "total"},
		},
	})
	require.NoError(t, err)

	schema, err := OutputSchema(invoicesFixture().Schema, []Op{drop, agg})
	require.NoError(t, err)
	assert.Equal(t, []string{"counter_party", "total"}, schema.Names())
}

func TestUnknownOp(t *testing.T) {
	_, err := New("explode", nil)
	assert.Error(t, err)
}
