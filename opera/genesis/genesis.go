// Package genesis describes the initial balances of a network and writes them
// into an empty store.
package genesis

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/hash"

	"github.com/rony4d/go-growspace/inter"
	"github.com/rony4d/go-growspace/state"
	"github.com/rony4d/go-growspace/utils/fast"
)

// MarkerKey is the store metadata key holding the applied genesis hash.
const MarkerKey = "genesis"

var ErrAlreadyApplied = errors.New("genesis is already applied")

// Allocation funds one system account.
type Allocation struct {
	Address  inter.Identity
	Lamports uint64
}

// Genesis is the initial state of a network.
type Genesis struct {
	Network     string
	Allocations []Allocation
}

// FakeGenesis funds FakeIdentity(1..n) with balance each.
func FakeGenesis(n uint32, balance uint64) Genesis {
	g := Genesis{Network: "fake"}
	for i := uint32(1); i <= n; i++ {
		g.Allocations = append(g.Allocations, Allocation{
			Address:  inter.FakeIdentity(i),
			Lamports: balance,
		})
	}
	return g
}

// Hash identifies the genesis content.
func (g Genesis) Hash() hash.Hash {
	w := fast.NewWriter(make([]byte, 0, len(g.Network)+40*len(g.Allocations)))
	w.Write([]byte(g.Network))
	for _, a := range g.Allocations {
		w.Write(a.Address.Bytes())
		w.U64(a.Lamports)
	}
	return hash.Of(w.Bytes())
}

// Validate reports duplicate or empty allocations.
func (g Genesis) Validate() error {
	seen := make(map[inter.Identity]struct{}, len(g.Allocations))
	for _, a := range g.Allocations {
		if a.Address.IsZero() {
			return errors.New("genesis allocation to the zero identity")
		}
		if _, ok := seen[a.Address]; ok {
			return fmt.Errorf("duplicate genesis allocation for %s", a.Address)
		}
		seen[a.Address] = struct{}{}
	}
	return nil
}

// Apply writes the allocations into s in one transaction. A store can take a
// genesis only once.
func (g Genesis) Apply(s *state.Store) (hash.Hash, error) {
	if err := g.Validate(); err != nil {
		return hash.Hash{}, err
	}
	applied, err := s.Meta(MarkerKey)
	if err != nil {
		return hash.Hash{}, err
	}
	if applied != nil {
		return hash.BytesToHash(applied), fmt.Errorf("%w: %s", ErrAlreadyApplied, hash.BytesToHash(applied).String())
	}

	addrs := make([]inter.Identity, len(g.Allocations))
	for i, a := range g.Allocations {
		addrs[i] = a.Address
	}
	tx := s.Begin(addrs...)
	defer tx.Discard()
	for _, a := range g.Allocations {
		acc := &state.Account{Owner: state.SystemOwner, Lamports: a.Lamports}
		if err := tx.Put(a.Address, acc); err != nil {
			return hash.Hash{}, err
		}
	}
	h := g.Hash()
	if err := tx.PutMeta(MarkerKey, h.Bytes()); err != nil {
		return hash.Hash{}, err
	}
	return h, tx.Commit()
}
