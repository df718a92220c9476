package chord

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashKeyDeterministic(t *testing.T) {
	a := HashKey([]byte("hello"))
	b := HashKey([]byte("hello"))
	require.Equal(t, a, b)
}

func TestHashKeyDiffers(t *testing.T) {
	a := HashKey([]byte("hello"))
	b := HashKey([]byte("world"))
	require.NotEqual(t, a, b)
}

func TestBetweenNonWrapping(t *testing.T) {
	require.True(t, between(5, 1, 10))
	require.False(t, between(1, 1, 10))
	require.False(t, between(10, 1, 10))
	require.False(t, between(15, 1, 10))
}

func TestBetweenWrapping(t *testing.T) {
	require.True(t, between(250, 200, 10))
	require.True(t, between(5, 200, 10))
	require.False(t, between(50, 200, 10))
}

func TestBetweenDegenerateArc(t *testing.T) {
	require.True(t, between(5, 1, 1))
	require.False(t, between(1, 1, 1))
}

func TestBetweenInclusiveEnd(t *testing.T) {
	require.True(t, betweenInclusiveEnd(10, 1, 10))
	require.False(t, between(10, 1, 10))
	require.True(t, betweenInclusiveEnd(5, 1, 10))
	require.False(t, betweenInclusiveEnd(1, 1, 10))
}
