package ledger

import (
	"fmt"
	"sort"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-growspace/inter"
	"github.com/rony4d/go-growspace/state"
)

// FinalizeRequest asks to finalize the ledger of a previous range.
type FinalizeRequest struct {
	// Snapshot is the range id of the ledger to finalize. A nil Snapshot
	// skips finalization.
	Snapshot *uint64
	// Period is the current period; it is the credit watermark.
	Period idx.Block
	// Submitter is never credited by its own call and pays for aggregate growth.
	Submitter inter.Identity
	// Candidates are credit account addresses offered for crediting. Entries
	// that do not match a winning voter's derived address are ignored.
	Candidates []inter.Identity
}

// BlockOutcome is the tally of one BlockRecord.
type BlockOutcome struct {
	BlockID idx.Block
	Total   uint64
	// Winner is nil when no candidate holds a strict majority.
	Winner *inter.Digest
	Votes  uint64
}

// FinalizeResult reports the effect of a finalization.
type FinalizeResult struct {
	Blocks   []BlockOutcome
	Credited []inter.Identity
}

// Majority returns the candidate holding strictly more than half of the
// block's votes, or nil, together with the total vote count. Ties on count
// keep list order.
func Majority(block *inter.BlockRecord) (*inter.CandidateRecord, uint64) {
	total := block.TotalVotes()
	if len(block.Candidates) == 0 {
		return nil, total
	}
	sorted := make([]*inter.CandidateRecord, len(block.Candidates))
	for i := range block.Candidates {
		sorted[i] = &block.Candidates[i]
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	if sorted[0].Count > total/2 {
		return sorted[0], total
	}
	return nil, total
}

// FinalizeAndCredit tallies every block of the snapshot ledger and credits
// the winners' voters once per period. An absent or empty snapshot is a no-op.
func (p *Processor) FinalizeAndCredit(req FinalizeRequest) (*FinalizeResult, error) {
	if req.Snapshot == nil {
		return &FinalizeResult{}, nil
	}
	writable := append([]inter.Identity{AggregateAddress(p.rules.ProgramID), req.Submitter}, req.Candidates...)
	tx := p.store.Begin(writable...)
	defer tx.Discard()

	res, err := p.finalize(tx, req)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Processor) finalize(tx *state.Tx, req FinalizeRequest) (*FinalizeResult, error) {
	res := &FinalizeResult{}
	if req.Snapshot == nil {
		return res, nil
	}
	snapshot := new(inter.Ledger)
	if err := p.load(tx, LedgerAddress(p.rules.ProgramID, *req.Snapshot), snapshot); err != nil {
		return nil, err
	}
	if len(snapshot.Blocks) == 0 {
		p.Log.Debug("Empty snapshot", "range", *req.Snapshot)
		return res, nil
	}

	offered := make(map[inter.Identity]struct{}, len(req.Candidates))
	for _, c := range req.Candidates {
		offered[c] = struct{}{}
	}

	agg := new(inter.CreditAggregate)
	aggAddr := AggregateAddress(p.rules.ProgramID)
	aggAcc, err := tx.Get(aggAddr)
	if err != nil {
		return nil, err
	}
	if aggAcc != nil {
		if err := p.decodeOwned(aggAddr, aggAcc, agg); err != nil {
			return nil, err
		}
	}
	aggDirty := false
	// picked spans all blocks of this finalization, so sampling never spends
	// a slot on a voter it already credited here.
	picked := make(map[inter.Identity]struct{})

	for i := range snapshot.Blocks {
		block := &snapshot.Blocks[i]
		winner, total := Majority(block)
		outcome := BlockOutcome{BlockID: block.BlockID, Total: total}
		if winner == nil {
			res.Blocks = append(res.Blocks, outcome)
			continue
		}
		value := winner.Value
		outcome.Winner = &value
		outcome.Votes = winner.Count
		res.Blocks = append(res.Blocks, outcome)
		blocksFinalizedMeter.Mark(1)

		pool, err := p.eligible(tx, winner.Voters, offered, req, picked)
		if err != nil {
			return nil, err
		}
		recipients, err := p.recipients(winner.Voters, pool, picked)
		if err != nil {
			return nil, err
		}
		for _, voter := range recipients {
			vc := pool[voter]
			if vc == nil || !vc.CreditFor(req.Period) {
				continue
			}
			if err := p.put(tx, VoterAddress(p.rules.ProgramID, voter), vc); err != nil {
				return nil, err
			}
			creditsAppliedMeter.Mark(1)
			agg.Upsert(*vc)
			aggDirty = true
			res.Credited = append(res.Credited, voter)
		}
	}

	if aggDirty {
		if aggAcc == nil {
			if err := p.create(tx, aggAddr, req.Submitter, inter.EmptyAggregateSize); err != nil {
				return nil, fmt.Errorf("credit aggregate: %w", err)
			}
		}
		if err := p.write(tx, aggAddr, req.Submitter, agg); err != nil {
			return nil, err
		}
	}
	p.Log.Debug("Snapshot finalized", "range", *req.Snapshot, "period", req.Period,
		"blocks", len(res.Blocks), "credited", len(res.Credited))
	return res, nil
}

// eligible returns the winning voters that may be credited for req.Period,
// keyed to their decoded credit record. Voters already credited by this
// finalization stay in the pool with a nil record so they count towards the
// sampling minimum.
func (p *Processor) eligible(tx *state.Tx, voters []inter.Identity, offered map[inter.Identity]struct{}, req FinalizeRequest, picked map[inter.Identity]struct{}) (map[inter.Identity]*inter.VoterCredit, error) {
	pool := make(map[inter.Identity]*inter.VoterCredit, len(voters))
	for _, voter := range voters {
		if _, ok := picked[voter]; ok {
			pool[voter] = nil
			continue
		}
		vc, err := p.creditRecord(tx, voter, offered, req)
		if err != nil {
			return nil, err
		}
		if vc == nil {
			creditsSkippedMeter.Mark(1)
			continue
		}
		pool[voter] = vc
	}
	if !p.rules.Sampling.Enabled {
		// without sampling every winner is credited once per finalization
		for voter := range picked {
			delete(pool, voter)
		}
	}
	return pool, nil
}

// recipients orders the pool by the block's voter list and thins it by
// sampling when enabled. Picks are recorded in picked.
func (p *Processor) recipients(voters []inter.Identity, pool map[inter.Identity]*inter.VoterCredit, picked map[inter.Identity]struct{}) ([]inter.Identity, error) {
	ordered := make([]inter.Identity, 0, len(pool))
	for _, voter := range voters {
		if _, ok := pool[voter]; ok {
			ordered = append(ordered, voter)
		}
	}
	s := p.rules.Sampling
	if !s.Enabled {
		for _, voter := range ordered {
			picked[voter] = struct{}{}
		}
		return ordered, nil
	}
	if len(ordered) < s.MinPool {
		return nil, fmt.Errorf("%w: %d eligible voters, sampling needs %d", ErrInsufficientCandidates, len(ordered), s.MinPool)
	}
	return SelectK(ordered, s.K, uint64(p.now().Unix()), picked), nil
}

// creditRecord returns the credit record of voter if it was offered and
// passes the ownership, self-credit and double-credit guards, or nil.
func (p *Processor) creditRecord(tx *state.Tx, voter inter.Identity, offered map[inter.Identity]struct{}, req FinalizeRequest) (*inter.VoterCredit, error) {
	addr := VoterAddress(p.rules.ProgramID, voter)
	if _, ok := offered[addr]; !ok {
		return nil, nil
	}
	acc, err := tx.Get(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.Owner != p.rules.ProgramID {
		return nil, nil
	}
	vc := new(inter.VoterCredit)
	if err := vc.UnmarshalBinary(acc.Data); err != nil {
		return nil, fmt.Errorf("account %s: %w", addr, err)
	}
	if vc.Owner == req.Submitter || vc.LastCreditedPeriod >= req.Period {
		return nil, nil
	}
	return vc, nil
}
