package ledger

import (
	"fmt"

	"github.com/rony4d/go-growspace/inter"
	"github.com/rony4d/go-growspace/opera"
	"github.com/rony4d/go-growspace/state"
)

// GrowthFunc returns the next capacity for a given one. It must return a
// value strictly greater than its argument.
type GrowthFunc func(capacity uint64) uint64

// FixedIncrement grows by n bytes per step.
func FixedIncrement(n uint64) GrowthFunc {
	return func(capacity uint64) uint64 {
		return capacity + n
	}
}

// ProportionalIncrement grows by percent of the current capacity per step,
// and by at least one byte.
func ProportionalIncrement(percent uint64) GrowthFunc {
	return func(capacity uint64) uint64 {
		step := capacity * percent / 100
		if step == 0 {
			step = 1
		}
		return capacity + step
	}
}

// NewGrowthFunc builds the growth function configured by rules.
func NewGrowthFunc(rules opera.GrowthRules) (GrowthFunc, error) {
	switch rules.Mode {
	case opera.GrowFixed:
		return FixedIncrement(rules.Increment), nil
	case opera.GrowProportional:
		return ProportionalIncrement(rules.Increment), nil
	}
	return nil, fmt.Errorf("unknown growth mode %q", rules.Mode)
}

// Policy decides when and how far growable accounts are resized, and keeps
// their balance at the rent-exempt minimum for the new capacity.
type Policy struct {
	ThresholdPercent uint64
	Grow             GrowthFunc
	MaxSize          uint64
	Rent             state.Rent
}

// NewPolicy builds the growth policy of rules.
func NewPolicy(rules opera.Rules) (Policy, error) {
	grow, err := NewGrowthFunc(rules.Growth)
	if err != nil {
		return Policy{}, err
	}
	return Policy{
		ThresholdPercent: rules.Growth.ThresholdPercent,
		Grow:             grow,
		MaxSize:          rules.Limits.MaxAccountSize,
		Rent:             rules.Rent,
	}, nil
}

// above reports whether required/capacity exceeds the threshold.
func (p Policy) above(required, capacity uint64) bool {
	return required*100 > capacity*p.ThresholdPercent
}

// NextCapacity returns the capacity an account of the given capacity must be
// grown to so it holds required bytes. The second result is false when the
// occupancy is within the threshold and nothing needs to change.
//
// After growth, required/capacity is strictly below the threshold.
func (p Policy) NextCapacity(capacity, required uint64) (uint64, bool, error) {
	if !p.above(required, capacity) {
		return capacity, false, nil
	}
	next := capacity
	for required*100 >= next*p.ThresholdPercent {
		grown := p.Grow(next)
		if grown <= next {
			return 0, false, fmt.Errorf("%w: growth from %d did not increase capacity", ErrResizeFailure, next)
		}
		if grown > p.MaxSize {
			return 0, false, fmt.Errorf("%w: %d bytes needed, max account size is %d", ErrResizeFailure, grown, p.MaxSize)
		}
		next = grown
	}
	return next, true, nil
}

// EnsureCapacity grows the account at addr so that it can hold required
// bytes, topping its balance up from payer first. It never shrinks.
// On error the caller must discard tx.
func (p Policy) EnsureCapacity(tx *state.Tx, addr, payer inter.Identity, required uint64) (bool, error) {
	acc, err := tx.Get(addr)
	if err != nil {
		return false, err
	}
	if acc == nil {
		return false, fmt.Errorf("%w: account %s", ErrNotFound, addr)
	}
	capacity, grow, err := p.NextCapacity(acc.Capacity(), required)
	if err != nil || !grow {
		return false, err
	}

	if min := p.Rent.MinimumBalance(capacity); acc.Lamports < min {
		if err := tx.Transfer(payer, addr, min-acc.Lamports); err != nil {
			return false, wrap(ErrFundingFailure, err)
		}
	}
	if err := tx.Resize(addr, capacity); err != nil {
		return false, wrap(ErrResizeFailure, err)
	}
	accountsGrownMeter.Mark(1)
	return true, nil
}
