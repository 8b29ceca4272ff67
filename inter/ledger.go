package inter

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
)

// Ledger is the growable record of one period range. Blocks keep insertion
// order and BlockIDs are unique within the ledger.
type Ledger struct {
	Blocks []BlockRecord
}

// BlockRecord groups all candidate values submitted for one period.
type BlockRecord struct {
	BlockID    idx.Block
	Candidates []CandidateRecord
}

// CandidateRecord holds one candidate value for a period and the set of
// participants who submitted it. Count always equals len(Voters).
type CandidateRecord struct {
	Value  Digest
	Voters []Identity
	Count  uint64
}

// AppendResult describes what Ledger.Append changed.
type AppendResult struct {
	NewBlock     bool
	NewCandidate bool
	NewVoter     bool
}

// Changed reports whether the append modified the ledger.
func (r AppendResult) Changed() bool {
	return r.NewBlock || r.NewCandidate || r.NewVoter
}

// Append records that voter observed value for the given period.
//
// A missing BlockRecord is appended at the end of the ledger, a missing
// CandidateRecord at the end of the block, both starting with the voter as
// the only member. Repeating an existing (period, value, voter) triple is a
// no-op, so the operation is idempotent.
func (l *Ledger) Append(period idx.Block, value Digest, voter Identity) AppendResult {
	var res AppendResult

	block := l.Block(period)
	if block == nil {
		l.Blocks = append(l.Blocks, BlockRecord{BlockID: period})
		block = &l.Blocks[len(l.Blocks)-1]
		res.NewBlock = true
	}

	cand := block.Candidate(value)
	if cand == nil {
		block.Candidates = append(block.Candidates, CandidateRecord{Value: value})
		cand = &block.Candidates[len(block.Candidates)-1]
		res.NewCandidate = true
	}

	res.NewVoter = cand.AddVoter(voter)
	return res
}

// Block returns the record for the period, or nil.
func (l *Ledger) Block(period idx.Block) *BlockRecord {
	for i := range l.Blocks {
		if l.Blocks[i].BlockID == period {
			return &l.Blocks[i]
		}
	}
	return nil
}

// Voters returns every distinct identity that voted anywhere in the ledger,
// in first-seen order.
func (l *Ledger) Voters() []Identity {
	seen := make(map[Identity]struct{})
	var res []Identity
	for _, b := range l.Blocks {
		for _, c := range b.Candidates {
			for _, v := range c.Voters {
				if _, ok := seen[v]; ok {
					continue
				}
				seen[v] = struct{}{}
				res = append(res, v)
			}
		}
	}
	return res
}

// Candidate returns the record for the value, or nil.
func (b *BlockRecord) Candidate(value Digest) *CandidateRecord {
	for i := range b.Candidates {
		if b.Candidates[i].Value == value {
			return &b.Candidates[i]
		}
	}
	return nil
}

// TotalVotes sums the candidate counts of the block.
func (b *BlockRecord) TotalVotes() uint64 {
	var total uint64
	for _, c := range b.Candidates {
		total += c.Count
	}
	return total
}

// HasVoter reports whether id is in the voter set.
func (c *CandidateRecord) HasVoter(id Identity) bool {
	for _, v := range c.Voters {
		if v == id {
			return true
		}
	}
	return false
}

// AddVoter inserts id into the voter set and recomputes Count.
// It returns false if id was already present.
func (c *CandidateRecord) AddVoter(id Identity) bool {
	if c.HasVoter(id) {
		return false
	}
	c.Voters = append(c.Voters, id)
	c.Count = uint64(len(c.Voters))
	return true
}
