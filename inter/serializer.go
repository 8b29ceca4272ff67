package inter

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"

	"github.com/rony4d/go-growspace/utils/fast"
)

// Persisted layout
//
//	Ledger:          tag(8) | u32 nBlocks | BlockRecord...
//	BlockRecord:     u64 blockID | u32 nCandidates | CandidateRecord...
//	CandidateRecord: digest(8) | u64 count | u32 nVoters | identity(32)...
//	VoterCredit:     tag(8) | identity(32) | u64 credit | u64 debit | u64 lastCreditedPeriod
//	CreditAggregate: tag(8) | u32 nEntries | (identity(32) | u64 credit | u64 debit)...
//
// Integers are little-endian. Account data may be longer than the encoded
// record; the tail must be zero padding.

const (
	// TagSize is the length of the record type discriminator.
	TagSize = 8

	lenSize         = 4
	u64Size         = 8
	blockHeaderSize = u64Size + lenSize
	candHeaderSize  = DigestSize + u64Size + lenSize

	// EmptyLedgerSize is the encoded size of a ledger without blocks.
	EmptyLedgerSize = TagSize + lenSize
	// VoterCreditSize is the encoded size of a VoterCredit.
	VoterCreditSize = TagSize + IdentitySize + 3*u64Size
	// CreditEntrySize is the encoded size of one CreditAggregate row.
	CreditEntrySize = IdentitySize + 2*u64Size
	// EmptyAggregateSize is the encoded size of an aggregate without entries.
	EmptyAggregateSize = TagSize + lenSize
)

// Tag is the 8-byte record discriminator written in front of every record.
type Tag [TagSize]byte

var (
	LedgerTag    = recordTag("Ledger")
	CreditTag    = recordTag("VoterCredit")
	AggregateTag = recordTag("CreditAggregate")
)

var (
	// ErrMalformedEncoding is returned for truncated or inconsistent input.
	ErrMalformedEncoding = fmt.Errorf("%w: malformed encoding", ErrDecode)
	// ErrWrongTag is returned when the record tag does not match.
	ErrWrongTag = fmt.Errorf("%w: unexpected record tag", ErrDecode)
	// ErrNonZeroPadding is returned when bytes past the record are not zero.
	ErrNonZeroPadding = fmt.Errorf("%w: non-zero padding", ErrDecode)
)

func recordTag(name string) Tag {
	var t Tag
	h := hash.Of([]byte("account:" + name))
	copy(t[:], h[:TagSize])
	return t
}

// Size returns the exact encoded size of the ledger. This is the ledger's
// data_size.
func (l *Ledger) Size() uint64 {
	size := uint64(EmptyLedgerSize)
	for i := range l.Blocks {
		size += l.Blocks[i].Size()
	}
	return size
}

// Size returns the exact encoded size of the block record.
func (b *BlockRecord) Size() uint64 {
	size := uint64(blockHeaderSize)
	for i := range b.Candidates {
		size += b.Candidates[i].Size()
	}
	return size
}

// Size returns the exact encoded size of the candidate record.
func (c *CandidateRecord) Size() uint64 {
	return candHeaderSize + uint64(len(c.Voters))*IdentitySize
}

// Size returns the exact encoded size of the credit account.
func (v *VoterCredit) Size() uint64 {
	return VoterCreditSize
}

// Size returns the exact encoded size of the aggregate.
func (a *CreditAggregate) Size() uint64 {
	return EmptyAggregateSize + uint64(len(a.Entries))*CreditEntrySize
}

// MarshalBinary encodes the ledger.
func (l *Ledger) MarshalBinary() ([]byte, error) {
	w := fast.NewWriter(make([]byte, 0, l.Size()))
	w.Write(LedgerTag[:])
	w.U32(uint32(len(l.Blocks)))
	for _, b := range l.Blocks {
		w.U64(uint64(b.BlockID))
		w.U32(uint32(len(b.Candidates)))
		for _, c := range b.Candidates {
			w.Write(c.Value[:])
			w.U64(c.Count)
			w.U32(uint32(len(c.Voters)))
			for _, v := range c.Voters {
				w.Write(v[:])
			}
		}
	}
	return w.Bytes(), nil
}

// UnmarshalBinary decodes a ledger from account data.
func (l *Ledger) UnmarshalBinary(raw []byte) error {
	return unmarshalAdapter(raw, LedgerTag, func(r *fast.Reader) error {
		nBlocks := readLen(r, blockHeaderSize)
		blocks := make([]BlockRecord, nBlocks)
		seenBlocks := make(map[idx.Block]struct{}, nBlocks)
		for i := range blocks {
			b := &blocks[i]
			b.BlockID = idx.Block(r.U64())
			if _, ok := seenBlocks[b.BlockID]; ok {
				return fmt.Errorf("%w: duplicate block %d", ErrMalformedEncoding, b.BlockID)
			}
			seenBlocks[b.BlockID] = struct{}{}

			b.Candidates = make([]CandidateRecord, readLen(r, candHeaderSize))
			seenValues := make(map[Digest]struct{}, len(b.Candidates))
			for j := range b.Candidates {
				c := &b.Candidates[j]
				copy(c.Value[:], r.Read(DigestSize))
				if _, ok := seenValues[c.Value]; ok {
					return fmt.Errorf("%w: duplicate value %s in block %d", ErrMalformedEncoding, c.Value, b.BlockID)
				}
				seenValues[c.Value] = struct{}{}

				c.Count = r.U64()
				c.Voters = make([]Identity, readLen(r, IdentitySize))
				seenVoters := make(map[Identity]struct{}, len(c.Voters))
				for k := range c.Voters {
					copy(c.Voters[k][:], r.Read(IdentitySize))
					if _, ok := seenVoters[c.Voters[k]]; ok {
						return fmt.Errorf("%w: duplicate voter %s", ErrMalformedEncoding, c.Voters[k])
					}
					seenVoters[c.Voters[k]] = struct{}{}
				}
				if c.Count != uint64(len(c.Voters)) {
					return fmt.Errorf("%w: count %d for %d voters", ErrMalformedEncoding, c.Count, len(c.Voters))
				}
			}
		}
		l.Blocks = blocks
		return nil
	})
}

// MarshalBinary encodes the credit account.
func (v *VoterCredit) MarshalBinary() ([]byte, error) {
	w := fast.NewWriter(make([]byte, 0, VoterCreditSize))
	w.Write(CreditTag[:])
	w.Write(v.Owner[:])
	w.U64(v.Credit)
	w.U64(v.Debit)
	w.U64(uint64(v.LastCreditedPeriod))
	return w.Bytes(), nil
}

// UnmarshalBinary decodes a credit account.
func (v *VoterCredit) UnmarshalBinary(raw []byte) error {
	return unmarshalAdapter(raw, CreditTag, func(r *fast.Reader) error {
		copy(v.Owner[:], r.Read(IdentitySize))
		v.Credit = r.U64()
		v.Debit = r.U64()
		v.LastCreditedPeriod = idx.Block(r.U64())
		return nil
	})
}

// MarshalBinary encodes the aggregate.
func (a *CreditAggregate) MarshalBinary() ([]byte, error) {
	w := fast.NewWriter(make([]byte, 0, a.Size()))
	w.Write(AggregateTag[:])
	w.U32(uint32(len(a.Entries)))
	for _, e := range a.Entries {
		w.Write(e.Identity[:])
		w.U64(e.Credit)
		w.U64(e.Debit)
	}
	return w.Bytes(), nil
}

// UnmarshalBinary decodes the aggregate.
func (a *CreditAggregate) UnmarshalBinary(raw []byte) error {
	return unmarshalAdapter(raw, AggregateTag, func(r *fast.Reader) error {
		entries := make([]CreditEntry, readLen(r, CreditEntrySize))
		for i := range entries {
			copy(entries[i].Identity[:], r.Read(IdentitySize))
			entries[i].Credit = r.U64()
			entries[i].Debit = r.U64()
		}
		a.Entries = entries
		return nil
	})
}

// readLen reads a u32 length prefix and rejects lengths that cannot fit in
// the remaining input, so corrupt prefixes cannot force large allocations.
func readLen(r *fast.Reader, minItemSize int) int {
	n := int(r.U32())
	if n*minItemSize > r.Remaining() {
		panic(fast.ErrShortBuffer)
	}
	return n
}

// unmarshalAdapter checks the tag, runs decode and recovers reader overruns
// as ErrMalformedEncoding.
func unmarshalAdapter(raw []byte, tag Tag, decode func(r *fast.Reader) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && errors.Is(e, fast.ErrShortBuffer) {
				err = ErrMalformedEncoding
				return
			}
			panic(r)
		}
	}()

	r := fast.NewReader(raw)
	var got Tag
	copy(got[:], r.Read(TagSize))
	if got != tag {
		return ErrWrongTag
	}
	if err := decode(r); err != nil {
		return err
	}
	for _, b := range r.Read(r.Remaining()) {
		if b != 0 {
			return ErrNonZeroPadding
		}
	}
	return nil
}
