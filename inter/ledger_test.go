package inter

import (
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/stretchr/testify/require"
)

func TestLedgerAppend(t *testing.T) {
	var (
		l     Ledger
		alice = FakeIdentity(1)
		bob   = FakeIdentity(2)
		a     = NormalizeDigest([]byte("ABCDEFGH"))
		z     = NormalizeDigest([]byte("ZZZZZZZZ"))
	)

	t.Run("first vote creates block and candidate", func(t *testing.T) {
		res := l.Append(1000, a, alice)
		require.Equal(t, AppendResult{NewBlock: true, NewCandidate: true, NewVoter: true}, res)
		require.Len(t, l.Blocks, 1)
		require.Equal(t, idx.Block(1000), l.Blocks[0].BlockID)
		require.Equal(t, []Identity{alice}, l.Blocks[0].Candidates[0].Voters)
		require.Equal(t, uint64(1), l.Blocks[0].Candidates[0].Count)
	})

	t.Run("repeat is idempotent", func(t *testing.T) {
		before := l.Size()
		res := l.Append(1000, a, alice)
		require.False(t, res.Changed())
		require.Equal(t, before, l.Size())
		require.Equal(t, uint64(1), l.Blocks[0].Candidates[0].Count)
	})

	t.Run("second voter joins candidate", func(t *testing.T) {
		res := l.Append(1000, a, bob)
		require.Equal(t, AppendResult{NewVoter: true}, res)
		require.Equal(t, uint64(2), l.Block(1000).Candidate(a).Count)
	})

	t.Run("other value is a new candidate", func(t *testing.T) {
		res := l.Append(1000, z, alice)
		require.Equal(t, AppendResult{NewCandidate: true, NewVoter: true}, res)
		block := l.Block(1000)
		require.Len(t, block.Candidates, 2)
		require.Equal(t, a, block.Candidates[0].Value)
		require.Equal(t, z, block.Candidates[1].Value)
		require.Equal(t, uint64(3), block.TotalVotes())
	})

	t.Run("other period leaves existing blocks untouched", func(t *testing.T) {
		before, err := l.MarshalBinary()
		require.NoError(t, err)

		l.Append(1001, a, bob)
		require.Len(t, l.Blocks, 2)
		require.Equal(t, idx.Block(1001), l.Blocks[1].BlockID)

		var prefix Ledger
		prefix.Blocks = l.Blocks[:1]
		after, err := prefix.MarshalBinary()
		require.NoError(t, err)
		require.Equal(t, before, after)
	})

	require.Equal(t, []Identity{alice, bob}, l.Voters())
	require.Nil(t, l.Block(999))
	require.Nil(t, l.Block(1000).Candidate(NormalizeDigest([]byte("nope"))))
}

func TestLedgerSizeIsExact(t *testing.T) {
	var l Ledger
	require.Equal(t, uint64(EmptyLedgerSize), l.Size())

	for i := uint32(0); i < 20; i++ {
		l.Append(idx.Block(i%3), NormalizeDigest([]byte{byte(i % 5)}), FakeIdentity(i))
		raw, err := l.MarshalBinary()
		require.NoError(t, err)
		require.Equal(t, uint64(len(raw)), l.Size(), "after %d votes", i+1)
	}
}

func TestCandidateCountTracksVoters(t *testing.T) {
	var c CandidateRecord
	for i := 0; i < 3; i++ {
		c.AddVoter(FakeIdentity(1))
		c.AddVoter(FakeIdentity(2))
	}
	require.Equal(t, uint64(len(c.Voters)), c.Count)
	require.Equal(t, uint64(2), c.Count)
	require.True(t, c.HasVoter(FakeIdentity(2)))
	require.False(t, c.HasVoter(FakeIdentity(3)))
}

func TestVoterCreditWatermark(t *testing.T) {
	v := VoterCredit{Owner: FakeIdentity(1)}

	require.True(t, v.CreditFor(10))
	require.False(t, v.CreditFor(10))
	require.False(t, v.CreditFor(9))
	require.True(t, v.CreditFor(11))
	require.Equal(t, uint64(2), v.Credit)
	require.Equal(t, idx.Block(11), v.LastCreditedPeriod)
}

func TestAggregateChunk(t *testing.T) {
	var a CreditAggregate
	for i := uint32(0); i < 5; i++ {
		require.True(t, a.Upsert(VoterCredit{Owner: FakeIdentity(i), Credit: uint64(i)}))
	}
	require.False(t, a.Upsert(VoterCredit{Owner: FakeIdentity(2), Credit: 9}))
	require.Equal(t, uint64(9), a.Entries[2].Credit)

	for _, tc := range []struct {
		offset, limit uint64
		exp           []CreditEntry
	}{
		{0, 2, a.Entries[0:2]},
		{3, 10, a.Entries[3:5]},
		{4, 1, a.Entries[4:5]},
		{5, 10, []CreditEntry{}},
		{10, 1, []CreditEntry{}},
		{0, 0, []CreditEntry{}},
	} {
		require.Equal(t, tc.exp, a.Chunk(tc.offset, tc.limit), "offset=%d limit=%d", tc.offset, tc.limit)
	}
}
