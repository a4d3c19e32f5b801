package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindIndex(t *testing.T) {
	require.Equal(t, 1, FindIndex([]int{4, 7, 7}, 7), "Should find the first occurrence")
	require.Equal(t, -1, FindIndex([]int{4, 7}, 3))
	require.Equal(t, -1, FindIndex(nil, 3))
}

func TestArgMax(t *testing.T) {
	identity := func(v float64) float64 { return v }

	require.Equal(t, 2, ArgMax([]float64{-3, 1, 5, 2}, identity))
	require.Equal(t, 1, ArgMax([]float64{0, 4, 4}, identity), "Ties should go to the earliest element")
	require.Equal(t, 0, ArgMax([]float64{-7, -9}, identity), "Negative scores should still be picked")
	require.Equal(t, -1, ArgMax(nil, identity))
}
