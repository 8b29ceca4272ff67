// Package opera holds the network rules of a grow_space deployment: the
// program identity, the growth and funding policy of ledger accounts, rent,
// host limits and voter sampling.
//
// Rules are plain values. Presets exist for the main, test and fake networks;
// callers that need to tweak a preset take a Copy first.

package opera

import (
	"encoding/json"
	"fmt"

	"github.com/rony4d/go-growspace/inter"
)

const (
	MainNetworkID uint64 = 0x6773
	TestNetworkID uint64 = 0x6774
	FakeNetworkID uint64 = 0x6775

	// MainProgramID is the deployment identifier of the main network program.
	MainProgramID = "DzDvqRGfLJkFxUB4sBCxS4EuXk2EK62PPpAFfPz6h6p5"
)

// Growth modes.
const (
	// GrowFixed adds Increment bytes per growth step.
	GrowFixed = "fixed"
	// GrowProportional adds Increment percent of the current capacity per step.
	GrowProportional = "proportional"
)

// Rules describes one deployment of the program.
type Rules struct {
	Name      string
	NetworkID uint64

	// ProgramID owns every account the program creates and salts every
	// derived address.
	ProgramID inter.Identity

	// RangeSpan is the distance between a ledger's range id and the range id
	// of the snapshot it finalizes when votes arrive through the REST API.
	RangeSpan uint64

	Growth   GrowthRules
	Rent     RentRules
	Limits   LimitsRules
	Sampling SamplingRules
}

// GrowthRules is the occupancy-driven growth policy of growable accounts.
type GrowthRules struct {
	// ThresholdPercent is the occupancy (required/capacity) above which an
	// account is grown. After growth the occupancy is strictly below it.
	ThresholdPercent uint64
	// Mode is GrowFixed or GrowProportional.
	Mode string
	// Increment is bytes for GrowFixed and percent for GrowProportional.
	Increment uint64
	// InitialCapacity is the capacity of a freshly initialized ledger.
	InitialCapacity uint64
}

// RentRules defines the minimum balance an account must hold for its size.
type RentRules struct {
	LamportsPerByteYear uint64
	ExemptionYears      uint64
	// AccountOverhead is charged on top of the data size of every account.
	AccountOverhead uint64
}

// LimitsRules are host limits.
type LimitsRules struct {
	// MaxAccountSize bounds account capacity; growing past it fails.
	MaxAccountSize uint64
	// MaxReturnData bounds the serialized response of read operations.
	MaxReturnData uint64
}

// SamplingRules controls the optional pseudo-random thinning of the winners
// before crediting. The seed is time derived and predictable; it must not be
// relied upon for fairness.
type SamplingRules struct {
	Enabled bool
	// K is the number of winners credited per finalized block.
	K int
	// MinPool is the minimum number of winning voters required to sample.
	MinPool int
}

// MinimumBalance returns the rent-exempt balance for an account of size bytes.
func (r RentRules) MinimumBalance(size uint64) uint64 {
	return (r.AccountOverhead + size) * r.LamportsPerByteYear * r.ExemptionYears
}

// Validate reports inconsistent growth rules.
func (g GrowthRules) Validate() error {
	if g.ThresholdPercent == 0 || g.ThresholdPercent > 100 {
		return fmt.Errorf("growth threshold must be within (0, 100], got %d", g.ThresholdPercent)
	}
	switch g.Mode {
	case GrowFixed, GrowProportional:
	default:
		return fmt.Errorf("unknown growth mode %q", g.Mode)
	}
	if g.Increment == 0 {
		return fmt.Errorf("growth increment must be positive")
	}
	if g.InitialCapacity < inter.EmptyLedgerSize {
		return fmt.Errorf("initial capacity %d cannot hold an empty ledger", g.InitialCapacity)
	}
	return nil
}

// Validate reports inconsistent rules.
func (r Rules) Validate() error {
	if err := r.Growth.Validate(); err != nil {
		return err
	}
	if r.Growth.InitialCapacity > r.Limits.MaxAccountSize {
		return fmt.Errorf("initial capacity %d exceeds max account size %d", r.Growth.InitialCapacity, r.Limits.MaxAccountSize)
	}
	if r.Sampling.Enabled && (r.Sampling.K <= 0 || r.Sampling.MinPool < r.Sampling.K) {
		return fmt.Errorf("sampling needs 0 < K <= MinPool, got K=%d MinPool=%d", r.Sampling.K, r.Sampling.MinPool)
	}
	return nil
}

// MainNetRules returns main network rules.
func MainNetRules() Rules {
	return Rules{
		Name:      "main",
		NetworkID: MainNetworkID,
		ProgramID: inter.MustIdentityFromString(MainProgramID),
		RangeSpan: 100,
		Growth: GrowthRules{
			ThresholdPercent: 90,
			Mode:             GrowProportional,
			Increment:        33,
			InitialCapacity:  1024,
		},
		Rent:     DefaultRentRules(),
		Limits:   DefaultLimitsRules(),
		Sampling: DefaultSamplingRules(),
	}
}

// TestNetRules returns test network rules.
func TestNetRules() Rules {
	return Rules{
		Name:      "test",
		NetworkID: TestNetworkID,
		ProgramID: inter.FakeIdentity(0x7465),
		RangeSpan: 100,
		Growth: GrowthRules{
			ThresholdPercent: 90,
			Mode:             GrowFixed,
			Increment:        4000,
			InitialCapacity:  1024,
		},
		Rent:     DefaultRentRules(),
		Limits:   DefaultLimitsRules(),
		Sampling: DefaultSamplingRules(),
	}
}

// FakeNetRules returns rules for local testing. Ledgers start at the size of
// an empty ledger so growth kicks in on the first vote.
func FakeNetRules() Rules {
	return Rules{
		Name:      "fake",
		NetworkID: FakeNetworkID,
		ProgramID: inter.FakeIdentity(0x6661),
		RangeSpan: 100,
		Growth: GrowthRules{
			ThresholdPercent: 80,
			Mode:             GrowFixed,
			Increment:        4000,
			InitialCapacity:  inter.EmptyLedgerSize,
		},
		Rent:     DefaultRentRules(),
		Limits:   DefaultLimitsRules(),
		Sampling: DefaultSamplingRules(),
	}
}

// DefaultRentRules mirrors the usual host rent: 3480 lamports per byte-year,
// two years for exemption and 128 bytes of per-account overhead.
func DefaultRentRules() RentRules {
	return RentRules{
		LamportsPerByteYear: 3480,
		ExemptionYears:      2,
		AccountOverhead:     128,
	}
}

func DefaultLimitsRules() LimitsRules {
	return LimitsRules{
		MaxAccountSize: 10 * 1024 * 1024,
		MaxReturnData:  1024,
	}
}

func DefaultSamplingRules() SamplingRules {
	return SamplingRules{
		Enabled: false,
		K:       3,
		MinPool: 3,
	}
}

// RulesByName returns the preset rules of a network.
func RulesByName(name string) (Rules, error) {
	switch name {
	case "main":
		return MainNetRules(), nil
	case "test":
		return TestNetRules(), nil
	case "fake":
		return FakeNetRules(), nil
	}
	return Rules{}, fmt.Errorf("unknown network %q", name)
}

// Copy returns a copy of the rules. Rules hold no reference types.
func (r Rules) Copy() Rules {
	return r
}

func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}
