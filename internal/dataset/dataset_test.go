package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datajoin/internal/common/errors"
)

func TestCoerceString(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		colType     ColumnType
		expected    interface{}
		expectError bool
	}{
		{name: "empty is null for string", raw: "", colType: TypeString, expected: nil},
		{name: "empty is null for number", raw: "", colType: TypeNumber, expected: nil},
		{name: "empty is null for bool", raw: "", colType: TypeBool, expected: nil},
		{name: "string passes through", raw: "hello", colType: TypeString, expected: "hello"},
		{name: "integer number", raw: "42", colType: TypeNumber, expected: float64(42)},
		{name: "decimal number", raw: "3.5", colType: TypeNumber, expected: 3.5},
		{name: "negative number", raw: "-7", colType: TypeNumber, expected: float64(-7)},
		{name: "bool true", raw: "true", colType: TypeBool, expected: true},
		{name: "bad number", raw: "abc", colType: TypeNumber, expectError: true},
		{name: "bad bool", raw: "maybe", colType: TypeBool, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := CoerceString(tt.raw, tt.colType)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		colType  ColumnType
		expected interface{}
	}{
		{name: "nil stays nil", value: nil, colType: TypeNumber, expected: nil},
		{name: "int64 to number", value: int64(9), colType: TypeNumber, expected: float64(9)},
		{name: "int to number", value: 9, colType: TypeNumber, expected: float64(9)},
		{name: "bytes to string", value: []byte("x"), colType: TypeString, expected: "x"},
		{name: "numeric string to number", value: "2.5", colType: TypeNumber, expected: 2.5},
		{name: "int64 to bool", value: int64(1), colType: TypeBool, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := CoerceValue(tt.value, tt.colType)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "x", Format("x"))
	assert.Equal(t, "5", Format(float64(5)))
	assert.Equal(t, "2.5", Format(2.5))
	assert.Equal(t, "true", Format(true))
}

func TestSchemaIndexAndMissing(t *testing.T) {
	s := NewSchema(
		Column{Name: "id", Type: TypeNumber},
		Column{Name: "a", Type: TypeString},
	)

	idx, ok := s.Index("a")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = s.Index("b")
	assert.False(t, ok)

	assert.Equal(t, []string{"b"}, s.Missing([]string{"id", "b"}))
	assert.Empty(t, s.Missing([]string{"id", "a"}))
}

func TestConformStrings(t *testing.T) {
	s := NewSchema(
		Column{Name: "id", Type: TypeNumber},
		Column{Name: "name", Type: TypeString},
	)

	t.Run("valid record", func(t *testing.T) {
		rec, err := s.ConformStrings("d", 1, []string{"1", "x"}, ShapeAbort)
		require.NoError(t, err)
		assert.Equal(t, Record{float64(1), "x"}, rec)
	})

	t.Run("arity mismatch aborts", func(t *testing.T) {
		_, err := s.ConformStrings("d", 2, []string{"1"}, ShapeAbort)
		require.Error(t, err)
		assert.True(t, errors.IsRecordShapeError(err))
	})

	t.Run("arity mismatch skips", func(t *testing.T) {
		rec, err := s.ConformStrings("d", 2, []string{"1"}, ShapeSkip)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("bad cell coerces to null", func(t *testing.T) {
		rec, err := s.ConformStrings("d", 3, []string{"oops", "x"}, ShapeCoerce)
		require.NoError(t, err)
		assert.Equal(t, Record{nil, "x"}, rec)
	})

	t.Run("bad cell aborts", func(t *testing.T) {
		_, err := s.ConformStrings("d", 3, []string{"oops", "x"}, ShapeAbort)
		require.Error(t, err)
		assert.True(t, errors.IsRecordShapeError(err))
	})
}
