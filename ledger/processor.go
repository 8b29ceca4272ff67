// Package ledger implements the grow_space program: appending votes to a
// growable per-range ledger, finalizing a previous ledger by simple majority
// and crediting the participants who backed each winner, and paging through
// the credit aggregate.
package ledger

import (
	"encoding"
	"fmt"
	"time"

	"github.com/rony4d/go-growspace/inter"
	"github.com/rony4d/go-growspace/logger"
	"github.com/rony4d/go-growspace/opera"
	"github.com/rony4d/go-growspace/state"
)

// Processor executes program calls against a state.Store. Each call runs in
// its own transaction and is safe for concurrent use.
type Processor struct {
	rules  opera.Rules
	store  *state.Store
	policy Policy
	now    func() time.Time

	logger.Instance
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock overrides the clock used to seed voter sampling.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

// New returns a Processor for the given deployment rules.
func New(store *state.Store, rules opera.Rules, opts ...Option) (*Processor, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	policy, err := NewPolicy(rules)
	if err != nil {
		return nil, err
	}
	p := &Processor{
		rules:    rules,
		store:    store,
		policy:   policy,
		now:      time.Now,
		Instance: logger.New("ledger"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Rules returns the deployment rules.
func (p *Processor) Rules() opera.Rules {
	return p.rules
}

// Ledger returns the committed ledger of a period range.
func (p *Processor) Ledger(rangeID uint64) (*inter.Ledger, error) {
	addr := LedgerAddress(p.rules.ProgramID, rangeID)
	acc, err := p.store.Account(addr)
	if err != nil {
		return nil, err
	}
	led := new(inter.Ledger)
	if err := p.decodeOwned(addr, acc, led); err != nil {
		return nil, err
	}
	return led, nil
}

// VoterCredit returns the committed credit account of a participant.
func (p *Processor) VoterCredit(voter inter.Identity) (*inter.VoterCredit, error) {
	addr := VoterAddress(p.rules.ProgramID, voter)
	acc, err := p.store.Account(addr)
	if err != nil {
		return nil, err
	}
	vc := new(inter.VoterCredit)
	if err := p.decodeOwned(addr, acc, vc); err != nil {
		return nil, err
	}
	return vc, nil
}

// Aggregate returns the committed credit aggregate. It is empty until the
// first participant is credited.
func (p *Processor) Aggregate() (*inter.CreditAggregate, error) {
	addr := AggregateAddress(p.rules.ProgramID)
	acc, err := p.store.Account(addr)
	if err != nil {
		return nil, err
	}
	agg := new(inter.CreditAggregate)
	if acc == nil {
		return agg, nil
	}
	if err := p.decodeOwned(addr, acc, agg); err != nil {
		return nil, err
	}
	return agg, nil
}

// CandidateAccounts lists the credit account addresses of every participant
// that voted in the ledger of rangeID. Callers of FinalizeAndCredit use it to
// build the candidate list.
func (p *Processor) CandidateAccounts(rangeID uint64) ([]inter.Identity, error) {
	led, err := p.Ledger(rangeID)
	if err != nil {
		return nil, err
	}
	voters := led.Voters()
	res := make([]inter.Identity, len(voters))
	for i, v := range voters {
		res[i] = VoterAddress(p.rules.ProgramID, v)
	}
	return res, nil
}

func (p *Processor) decodeOwned(addr inter.Identity, acc *state.Account, rec encoding.BinaryUnmarshaler) error {
	if acc == nil {
		return fmt.Errorf("%w: account %s", ErrNotFound, addr)
	}
	if acc.Owner != p.rules.ProgramID {
		return fmt.Errorf("%w: account %s is not owned by the program", ErrDecode, addr)
	}
	if err := rec.UnmarshalBinary(acc.Data); err != nil {
		return fmt.Errorf("account %s: %w", addr, err)
	}
	return nil
}

// load decodes a program account read through tx.
func (p *Processor) load(tx *state.Tx, addr inter.Identity, rec encoding.BinaryUnmarshaler) error {
	acc, err := tx.Get(addr)
	if err != nil {
		return err
	}
	return p.decodeOwned(addr, acc, rec)
}

// record is a persisted record with an exact encoded size.
type record interface {
	encoding.BinaryMarshaler
	Size() uint64
}

// write grows addr as needed and stores rec at the start of its data.
func (p *Processor) write(tx *state.Tx, addr, payer inter.Identity, rec record) error {
	grown, err := p.policy.EnsureCapacity(tx, addr, payer, rec.Size())
	if err != nil {
		return err
	}
	if err := p.put(tx, addr, rec); err != nil {
		return err
	}
	if grown {
		p.Log.Debug("Account grown", "address", addr, "size", rec.Size())
	}
	return nil
}

// put stores rec at the start of the data of addr, zeroing the rest.
func (p *Processor) put(tx *state.Tx, addr inter.Identity, rec encoding.BinaryMarshaler) error {
	raw, err := rec.MarshalBinary()
	if err != nil {
		return wrap(ErrSerialization, err)
	}
	acc, err := tx.Get(addr)
	if err != nil {
		return err
	}
	if acc == nil {
		return fmt.Errorf("%w: account %s", ErrNotFound, addr)
	}
	if uint64(len(raw)) > acc.Capacity() {
		return fmt.Errorf("%w: %d bytes do not fit into %d", ErrResizeFailure, len(raw), acc.Capacity())
	}
	n := copy(acc.Data, raw)
	for i := n; i < len(acc.Data); i++ {
		acc.Data[i] = 0
	}
	return tx.Put(addr, acc)
}

// create allocates a program account of the given capacity paid by payer.
func (p *Processor) create(tx *state.Tx, addr, payer inter.Identity, capacity uint64) error {
	_, err := tx.Create(addr, p.rules.ProgramID, payer, capacity)
	if err == nil {
		return nil
	}
	if isFunding(err) {
		return wrap(ErrFundingFailure, err)
	}
	return err
}
