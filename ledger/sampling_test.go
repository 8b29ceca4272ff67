package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-growspace/inter"
)

func TestSelectK(t *testing.T) {
	pool := voters(0, 5)

	for _, tc := range []struct {
		name string
		k    int
		seed uint64
		exp  []inter.Identity
	}{
		{"from start", 3, 0, pool[0:3]},
		{"wraps around", 3, 4, []inter.Identity{pool[4], pool[0], pool[1]}},
		{"seed larger than pool", 2, 12, pool[2:4]},
		{"k larger than pool", 10, 1, []inter.Identity{pool[1], pool[2], pool[3], pool[4], pool[0]}},
		{"zero k", 0, 1, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.exp, SelectK(pool, tc.k, tc.seed, nil))
		})
	}
}

func TestSelectKSkipsTaken(t *testing.T) {
	pool := voters(0, 5)
	dst := map[inter.Identity]struct{}{pool[1]: {}, pool[2]: {}}

	got := SelectK(pool, 3, 1, dst)
	require.Equal(t, []inter.Identity{pool[3], pool[4], pool[0]}, got)
	require.Len(t, dst, 5)

	// everything is taken now
	require.Empty(t, SelectK(pool, 3, 0, dst))
}

func TestSelectKDuplicatesInPool(t *testing.T) {
	a, b := inter.FakeIdentity(1), inter.FakeIdentity(2)
	got := SelectK([]inter.Identity{a, a, b, a}, 3, 0, nil)
	require.Equal(t, []inter.Identity{a, b}, got)
}

func TestSelectKEmptyPool(t *testing.T) {
	require.Nil(t, SelectK(nil, 3, 5, nil))
}
