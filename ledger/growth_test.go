package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-growspace/inter"
	"github.com/rony4d/go-growspace/opera"
	"github.com/rony4d/go-growspace/state"
)

func TestGrowthFuncs(t *testing.T) {
	require.Equal(t, uint64(4012), FixedIncrement(4000)(12))
	require.Equal(t, uint64(133), ProportionalIncrement(33)(100))
	require.Equal(t, uint64(2), ProportionalIncrement(33)(1), "at least one byte")
	require.Equal(t, uint64(1), ProportionalIncrement(33)(0))

	_, err := NewGrowthFunc(opera.GrowthRules{Mode: "double"})
	require.Error(t, err)
}

func TestNextCapacity(t *testing.T) {
	fixed := Policy{ThresholdPercent: 80, Grow: FixedIncrement(4000), MaxSize: 10 * 1024 * 1024}
	prop := Policy{ThresholdPercent: 90, Grow: ProportionalIncrement(33), MaxSize: 10 * 1024 * 1024}

	for _, tc := range []struct {
		name     string
		policy   Policy
		capacity uint64
		required uint64
		exp      uint64
		grow     bool
	}{
		{"below threshold", fixed, 1000, 800, 1000, false},
		{"just above threshold", fixed, 1000, 801, 5000, true},
		{"far above", fixed, 12, 9000, 12012, true},
		{"proportional step", prop, 1000, 901, 1330, true},
		{"proportional many steps", prop, 100, 1000, 1290, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, grow, err := tc.policy.NextCapacity(tc.capacity, tc.required)
			require.NoError(t, err)
			require.Equal(t, tc.grow, grow)
			require.Equal(t, tc.exp, got)
		})
	}
}

func TestNextCapacityBounds(t *testing.T) {
	for _, policy := range []Policy{
		{ThresholdPercent: 80, Grow: FixedIncrement(4000), MaxSize: 1 << 30},
		{ThresholdPercent: 90, Grow: ProportionalIncrement(33), MaxSize: 1 << 30},
		{ThresholdPercent: 100, Grow: ProportionalIncrement(1), MaxSize: 1 << 30},
	} {
		for capacity := uint64(12); capacity < 50000; capacity = capacity*3 + 7 {
			for required := uint64(0); required < 3*capacity; required += capacity/5 + 1 {
				next, grow, err := policy.NextCapacity(capacity, required)
				require.NoError(t, err)
				if !grow {
					require.Equal(t, capacity, next)
					require.LessOrEqual(t, required*100, capacity*policy.ThresholdPercent)
					continue
				}
				require.Greater(t, next, capacity)
				require.GreaterOrEqual(t, next, required)
				require.Less(t, required*100, next*policy.ThresholdPercent, "occupancy after growth must be below threshold")
			}
		}
	}
}

func TestNextCapacityLimits(t *testing.T) {
	p := Policy{ThresholdPercent: 80, Grow: FixedIncrement(4000), MaxSize: 4096}
	_, _, err := p.NextCapacity(1000, 4000)
	require.True(t, errors.Is(err, ErrResizeFailure))

	stuck := Policy{ThresholdPercent: 80, Grow: func(c uint64) uint64 { return c }, MaxSize: 4096}
	_, _, err = stuck.NextCapacity(10, 10)
	require.True(t, errors.Is(err, ErrResizeFailure))
}

func TestEnsureCapacity(t *testing.T) {
	rules := opera.FakeNetRules()
	env := newTestEnv(t, rules)
	addr := inter.FakeIdentity(77)
	poor := inter.FakeIdentity(78)
	env.fund(poor, rules.Rent.MinimumBalance(100))

	setup := func(t *testing.T) {
		tx := env.store.Begin(addr, payer)
		_, err := tx.Create(addr, rules.ProgramID, payer, 100)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
	}
	setup(t)

	t.Run("within threshold", func(t *testing.T) {
		tx := env.store.Begin(addr, payer)
		defer tx.Discard()
		grown, err := env.policy.EnsureCapacity(tx, addr, payer, 80)
		require.NoError(t, err)
		require.False(t, grown)
	})

	t.Run("funding failure", func(t *testing.T) {
		tx := env.store.Begin(addr, poor)
		grown, err := env.policy.EnsureCapacity(tx, addr, poor, 81)
		require.True(t, errors.Is(err, ErrFundingFailure), err)
		require.False(t, grown)
		tx.Discard()

		acc := env.account(t, addr)
		require.Equal(t, uint64(100), acc.Capacity())
		require.Equal(t, rules.Rent.MinimumBalance(100), acc.Lamports)
	})

	t.Run("grows and funds", func(t *testing.T) {
		tx := env.store.Begin(addr, payer)
		grown, err := env.policy.EnsureCapacity(tx, addr, payer, 81)
		require.NoError(t, err)
		require.True(t, grown)
		require.NoError(t, tx.Commit())

		acc := env.account(t, addr)
		require.Equal(t, uint64(4100), acc.Capacity())
		require.Equal(t, rules.Rent.MinimumBalance(4100), acc.Lamports)
	})

	t.Run("missing account", func(t *testing.T) {
		missing := inter.FakeIdentity(79)
		tx := env.store.Begin(missing, payer)
		defer tx.Discard()
		_, err := env.policy.EnsureCapacity(tx, missing, payer, 1)
		require.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("not writable", func(t *testing.T) {
		tx := env.store.Begin(payer)
		defer tx.Discard()
		_, err := env.policy.EnsureCapacity(tx, addr, payer, 4000)
		require.True(t, errors.Is(err, ErrFundingFailure) || errors.Is(err, ErrResizeFailure), err)
		require.Contains(t, err.Error(), state.ErrNotWritable.Error())
	})
}
