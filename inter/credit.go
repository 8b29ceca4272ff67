package inter

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
)

// VoterCredit is the per-participant credit account. It is created zeroed on
// first reference and only the tally mutates it afterwards.
//
// LastCreditedPeriod is the double-credit watermark: a participant is credited
// for a period only if the watermark is strictly below it.
type VoterCredit struct {
	Owner              Identity
	Credit             uint64
	Debit              uint64
	LastCreditedPeriod idx.Block
}

// CreditFor applies one credit for period unless the watermark forbids it.
// It returns whether the credit was applied.
func (v *VoterCredit) CreditFor(period idx.Block) bool {
	if v.LastCreditedPeriod >= period {
		return false
	}
	v.Credit++
	v.LastCreditedPeriod = period
	return true
}

// CreditEntry is one row of the CreditAggregate.
type CreditEntry struct {
	Identity Identity
	Credit   uint64
	Debit    uint64
}

// CreditAggregate lists every participant that has been credited, in the
// order they were first credited.
type CreditAggregate struct {
	Entries []CreditEntry
}

// Upsert refreshes the entry of v.Owner or appends a new one.
// It returns true if the entry is new.
func (a *CreditAggregate) Upsert(v VoterCredit) bool {
	for i := range a.Entries {
		if a.Entries[i].Identity == v.Owner {
			a.Entries[i].Credit = v.Credit
			a.Entries[i].Debit = v.Debit
			return false
		}
	}
	a.Entries = append(a.Entries, CreditEntry{
		Identity: v.Owner,
		Credit:   v.Credit,
		Debit:    v.Debit,
	})
	return true
}

// Chunk returns entries[offset : min(offset+limit, len)].
// An offset at or past the end yields an empty, non-nil chunk.
func (a *CreditAggregate) Chunk(offset, limit uint64) []CreditEntry {
	n := uint64(len(a.Entries))
	if offset >= n {
		return []CreditEntry{}
	}
	end := n
	if limit < n-offset {
		end = offset + limit
	}
	res := make([]CreditEntry, end-offset)
	copy(res, a.Entries[offset:end])
	return res
}
