package colvec_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/colvec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color string

type colorCode uint8

func TestEnumWriter(t *testing.T) {
	t.Parallel()

	colors, err := colvec.NewEnumType("red", "green", "blue")
	require.NoError(t, err)

	t.Run("strings map to codes", func(t *testing.T) {
		t.Parallel()
		w, vec, cleanup := newTestWriter(t, 4, colors)
		defer cleanup()

		require.NoError(t, w.WriteValue(0, "green"))
		require.NoError(t, w.WriteValue(1, color("blue")))
		require.NoError(t, w.WriteValue(2, colorCode(0)))
		require.NoError(t, w.WriteValue(3, 2))

		assert.Equal(t, uint32(1), vec.EnumCode(0))
		assert.Equal(t, uint8(1), vec.Data()[0])
		assert.Equal(t, "green", readValue(t, vec, 0))
		assert.Equal(t, "blue", readValue(t, vec, 1))
		assert.Equal(t, "red", readValue(t, vec, 2))
		assert.Equal(t, "blue", readValue(t, vec, 3))
	})

	t.Run("unknown string", func(t *testing.T) {
		t.Parallel()
		w, _, cleanup := newTestWriter(t, 1, colors)
		defer cleanup()

		err := w.WriteValue(0, "purple")
		require.ErrorIs(t, err, colvec.ErrInvalidEnumValue)
		assert.Contains(t, err.Error(), "purple")
	})

	t.Run("code outside dictionary", func(t *testing.T) {
		t.Parallel()
		w, _, cleanup := newTestWriter(t, 1, colors)
		defer cleanup()

		require.ErrorIs(t, w.WriteValue(0, colorCode(3)), colvec.ErrRange)
		require.ErrorIs(t, w.WriteValue(0, -1), colvec.ErrRange)
		require.ErrorIs(t, w.WriteValue(0, 1.0), colvec.ErrTypeMismatch)
	})

	t.Run("wide dictionary", func(t *testing.T) {
		t.Parallel()
		dict := make([]string, 300)
		for i := range dict {
			dict[i] = fmt.Sprintf("value_%03d", i)
		}
		wide, err := colvec.NewEnumType(dict...)
		require.NoError(t, err)

		w, vec, cleanup := newTestWriter(t, 2, wide)
		defer cleanup()

		require.NoError(t, w.WriteValue(0, "value_299"))
		require.NoError(t, w.WriteValue(1, uint16(256)))
		assert.Equal(t, uint32(299), vec.EnumCode(0))
		assert.Equal(t, "value_256", readValue(t, vec, 1))
		assert.Len(t, vec.Data(), 4)
	})
}
