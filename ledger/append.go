package ledger

import (
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-growspace/inter"
	"github.com/rony4d/go-growspace/state"
)

// InitializeLedger creates the empty ledger of a period range, funded by
// payer. Initializing an existing ledger is a no-op.
func (p *Processor) InitializeLedger(payer inter.Identity, rangeID uint64) (inter.Identity, error) {
	addr := LedgerAddress(p.rules.ProgramID, rangeID)

	tx := p.store.Begin(addr, payer)
	defer tx.Discard()

	acc, err := tx.Get(addr)
	if err != nil {
		return addr, err
	}
	if acc != nil && acc.Owner == p.rules.ProgramID {
		return addr, p.load(tx, addr, new(inter.Ledger))
	}

	if err := p.create(tx, addr, payer, p.rules.Growth.InitialCapacity); err != nil {
		return addr, err
	}
	if err := p.put(tx, addr, new(inter.Ledger)); err != nil {
		return addr, err
	}
	if err := tx.Commit(); err != nil {
		return addr, err
	}
	p.Log.Info("Ledger initialized", "range", rangeID, "address", addr, "payer", payer)
	return addr, nil
}

// AppendRequest is a vote submission.
type AppendRequest struct {
	RangeID uint64
	Period  idx.Block
	// Value is normalized to an 8-byte digest.
	Value []byte
	Voter inter.Identity
	// Payer is the submitter; it funds account creation and growth.
	Payer inter.Identity

	// Previous optionally names the range whose ledger is finalized in the
	// same call, before the vote is appended. Candidates are the credit
	// accounts offered for crediting.
	Previous   *uint64
	Candidates []inter.Identity
}

// AppendResult reports the effect of an AppendVote call.
type AppendResult struct {
	Address  inter.Identity
	Digest   inter.Digest
	Changes  inter.AppendResult
	Size     uint64
	Capacity uint64

	// Finalized is set when the request named a previous snapshot.
	Finalized *FinalizeResult
}

// AppendVote records the voter's vote for (period, value) in the ledger of the
// range. Repeated submissions of the same vote leave the ledger unchanged.
// The voter's credit account is created on first use.
func (p *Processor) AppendVote(req AppendRequest) (*AppendResult, error) {
	pid := p.rules.ProgramID
	ledgerAddr := LedgerAddress(pid, req.RangeID)
	creditAddr := VoterAddress(pid, req.Voter)

	writable := []inter.Identity{ledgerAddr, creditAddr, req.Payer}
	if req.Previous != nil {
		writable = append(writable, AggregateAddress(pid))
		writable = append(writable, req.Candidates...)
	}
	tx := p.store.Begin(writable...)
	defer tx.Discard()

	res := &AppendResult{
		Address: ledgerAddr,
		Digest:  inter.NormalizeDigest(req.Value),
	}

	if req.Previous != nil {
		fin, err := p.finalize(tx, FinalizeRequest{
			Snapshot:   req.Previous,
			Period:     req.Period,
			Submitter:  req.Payer,
			Candidates: req.Candidates,
		})
		if err != nil {
			return nil, err
		}
		res.Finalized = fin
	}

	led := new(inter.Ledger)
	if err := p.load(tx, ledgerAddr, led); err != nil {
		return nil, err
	}
	res.Changes = led.Append(req.Period, res.Digest, req.Voter)

	if err := p.ensureVoterCredit(tx, req.Voter, req.Payer); err != nil {
		return nil, err
	}
	if res.Changes.Changed() {
		if err := p.write(tx, ledgerAddr, req.Payer, led); err != nil {
			return nil, err
		}
	}

	acc, err := tx.Get(ledgerAddr)
	if err != nil {
		return nil, err
	}
	res.Size = led.Size()
	res.Capacity = acc.Capacity()

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if res.Changes.NewVoter {
		votesAppendedMeter.Mark(1)
	} else {
		votesDuplicateMeter.Mark(1)
	}
	ledgerSizeGauge.Update(int64(res.Size))
	p.Log.Debug("Vote appended", "range", req.RangeID, "period", req.Period, "digest", res.Digest,
		"voter", req.Voter, "size", res.Size, "capacity", res.Capacity, "new", res.Changes.NewVoter)
	return res, nil
}

// ensureVoterCredit creates the zeroed credit account of voter if absent.
func (p *Processor) ensureVoterCredit(tx *state.Tx, voter, payer inter.Identity) error {
	addr := VoterAddress(p.rules.ProgramID, voter)
	acc, err := tx.Get(addr)
	if err != nil {
		return err
	}
	if acc != nil && acc.Owner == p.rules.ProgramID {
		return nil
	}
	if err := p.create(tx, addr, payer, inter.VoterCreditSize); err != nil {
		return fmt.Errorf("credit account of %s: %w", voter, err)
	}
	return p.put(tx, addr, &inter.VoterCredit{Owner: voter})
}
