package colvec_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/colvec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogicalType_PhysicalSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   colvec.TypeID
		size int
	}{
		{colvec.TypeBoolean, 1},
		{colvec.TypeTinyInt, 1},
		{colvec.TypeUTinyInt, 1},
		{colvec.TypeSmallInt, 2},
		{colvec.TypeUSmallInt, 2},
		{colvec.TypeInteger, 4},
		{colvec.TypeUInteger, 4},
		{colvec.TypeFloat, 4},
		{colvec.TypeDate, 4},
		{colvec.TypeBigInt, 8},
		{colvec.TypeUBigInt, 8},
		{colvec.TypeDouble, 8},
		{colvec.TypeTime, 8},
		{colvec.TypeTimeTZ, 8},
		{colvec.TypeTimestampS, 8},
		{colvec.TypeTimestampMS, 8},
		{colvec.TypeTimestamp, 8},
		{colvec.TypeTimestampNS, 8},
		{colvec.TypeTimestampTZ, 8},
		{colvec.TypeInterval, 16},
		{colvec.TypeHugeInt, 16},
		{colvec.TypeUUID, 16},
		{colvec.TypeVarchar, 16},
		{colvec.TypeBlob, 16},
	}

	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			t.Parallel()
			typ := mustType(t, tt.id)
			assert.Equal(t, tt.id, typ.ID())
			assert.Equal(t, tt.size, typ.PhysicalSize())
		})
	}
}

func TestNewPrimitiveType_RejectsParameterizedKinds(t *testing.T) {
	t.Parallel()

	for _, id := range []colvec.TypeID{
		colvec.TypeInvalid, colvec.TypeDecimal, colvec.TypeEnum,
		colvec.TypeList, colvec.TypeArray, colvec.TypeStruct, colvec.TypeMap,
	} {
		_, err := colvec.NewPrimitiveType(id)
		require.ErrorIs(t, err, colvec.ErrUnsupportedKind, id.String())
	}
	_, err := colvec.NewPrimitiveType(colvec.TypeID(200))
	require.ErrorIs(t, err, colvec.ErrUnsupportedKind)
}

func TestNewDecimalType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		width, scale uint8
		size         int
	}{
		{4, 2, 2},
		{9, 0, 4},
		{18, 6, 8},
		{19, 2, 16},
		{38, 10, 16},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d", tt.width, tt.scale), func(t *testing.T) {
			t.Parallel()
			typ, err := colvec.NewDecimalType(tt.width, tt.scale)
			require.NoError(t, err)
			assert.Equal(t, tt.width, typ.Width())
			assert.Equal(t, tt.scale, typ.Scale())
			assert.Equal(t, tt.size, typ.PhysicalSize())
			assert.Equal(t, fmt.Sprintf("DECIMAL(%d,%d)", tt.width, tt.scale), typ.String())
		})
	}

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		_, err := colvec.NewDecimalType(0, 0)
		require.ErrorIs(t, err, colvec.ErrRange)
		_, err = colvec.NewDecimalType(39, 0)
		require.ErrorIs(t, err, colvec.ErrRange)
		_, err = colvec.NewDecimalType(4, 5)
		require.ErrorIs(t, err, colvec.ErrRange)
	})
}

func TestNewEnumType(t *testing.T) {
	t.Parallel()

	t.Run("code width follows dictionary size", func(t *testing.T) {
		t.Parallel()
		for _, tt := range []struct {
			n    int
			size int
		}{
			{3, 1},
			{255, 1},
			{256, 2},
			{65535, 2},
			{65536, 4},
		} {
			dict := make([]string, tt.n)
			for i := range dict {
				dict[i] = fmt.Sprintf("v%d", i)
			}
			typ, err := colvec.NewEnumType(dict...)
			require.NoError(t, err)
			assert.Equal(t, tt.size, typ.PhysicalSize(), "dictionary of %d", tt.n)
		}
	})

	t.Run("dictionary is copied", func(t *testing.T) {
		t.Parallel()
		dict := []string{"red", "green"}
		typ, err := colvec.NewEnumType(dict...)
		require.NoError(t, err)
		dict[0] = "blue"
		got := typ.Dictionary()
		assert.Equal(t, []string{"red", "green"}, got)
		got[1] = "yellow"
		assert.Equal(t, []string{"red", "green"}, typ.Dictionary())
		assert.Equal(t, "ENUM('red', 'green')", typ.String())
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		_, err := colvec.NewEnumType()
		require.ErrorIs(t, err, colvec.ErrRange)
		_, err = colvec.NewEnumType("a", "a")
		require.Error(t, err)
	})
}

func TestCompositeTypes(t *testing.T) {
	t.Parallel()

	integer := mustType(t, colvec.TypeInteger)
	varchar := mustType(t, colvec.TypeVarchar)

	list, err := colvec.NewListType(integer)
	require.NoError(t, err)
	assert.Equal(t, colvec.TypeList, list.ID())
	assert.Same(t, integer, list.Child())
	assert.Equal(t, 16, list.PhysicalSize())
	assert.Equal(t, "INTEGER[]", list.String())

	array, err := colvec.NewArrayType(varchar, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, array.ArraySize())
	assert.Equal(t, 0, array.PhysicalSize())
	assert.Equal(t, "VARCHAR[3]", array.String())

	st, err := colvec.NewStructType(
		colvec.StructField{Name: "id", Type: integer},
		colvec.StructField{Name: "tags", Type: list},
	)
	require.NoError(t, err)
	assert.Equal(t, 0, st.PhysicalSize())
	assert.Len(t, st.Fields(), 2)
	assert.Equal(t, "STRUCT(id INTEGER, tags INTEGER[])", st.String())

	m, err := colvec.NewMapType(varchar, integer)
	require.NoError(t, err)
	assert.Same(t, varchar, m.Child())
	assert.Same(t, integer, m.MapValue())
	assert.Equal(t, "MAP(VARCHAR, INTEGER)", m.String())

	_, err = colvec.NewListType(nil)
	require.Error(t, err)
	_, err = colvec.NewArrayType(integer, 0)
	require.ErrorIs(t, err, colvec.ErrRange)
	_, err = colvec.NewStructType()
	require.Error(t, err)
	_, err = colvec.NewStructType(
		colvec.StructField{Name: "a", Type: integer},
		colvec.StructField{Name: "a", Type: varchar},
	)
	require.Error(t, err)
	_, err = colvec.NewMapType(nil, integer)
	require.Error(t, err)
}

func TestTypeID_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "TIME WITH TIME ZONE", colvec.TypeTimeTZ.String())
	assert.Equal(t, "TypeID(200)", colvec.TypeID(200).String())
}
