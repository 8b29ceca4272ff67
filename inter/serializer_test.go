package inter

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeLedger() *Ledger {
	l := &Ledger{}
	l.Append(1000, NormalizeDigest([]byte("ABCDEFGH")), FakeIdentity(1))
	l.Append(1000, NormalizeDigest([]byte("ABCDEFGH")), FakeIdentity(2))
	l.Append(1000, NormalizeDigest([]byte("ZZZZZZZZ")), FakeIdentity(3))
	l.Append(1001, NormalizeDigest([]byte("x")), FakeIdentity(1))
	return l
}

func TestLedgerLayout(t *testing.T) {
	require := require.New(t)

	l := fakeLedger()
	raw, err := l.MarshalBinary()
	require.NoError(err)

	require.Equal(LedgerTag[:], raw[:TagSize])
	require.Equal(uint32(2), binary.LittleEndian.Uint32(raw[TagSize:]))
	require.Equal(uint64(1000), binary.LittleEndian.Uint64(raw[EmptyLedgerSize:]))

	// padded account data decodes to the same ledger
	padded := append(raw, make([]byte, 100)...)
	var got Ledger
	require.NoError(got.UnmarshalBinary(padded))
	require.Equal(l.Blocks, got.Blocks)
	require.Equal(l.Size(), got.Size())
}

func TestLedgerDecodeErrors(t *testing.T) {
	raw, err := fakeLedger().MarshalBinary()
	require.NoError(t, err)

	countOffset := EmptyLedgerSize + blockHeaderSize + DigestSize

	for _, tc := range []struct {
		name   string
		mutate func([]byte) []byte
		exp    error
	}{
		{"empty", func([]byte) []byte { return nil }, ErrMalformedEncoding},
		{"truncated", func(b []byte) []byte { return b[:len(b)-1] }, ErrMalformedEncoding},
		{"wrong tag", func(b []byte) []byte { b[0] ^= 0xff; return b }, ErrWrongTag},
		{"dirty padding", func(b []byte) []byte { return append(b, 0, 1) }, ErrNonZeroPadding},
		{"count drift", func(b []byte) []byte {
			binary.LittleEndian.PutUint64(b[countOffset:], 3)
			return b
		}, ErrMalformedEncoding},
		{"huge length", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[TagSize:], 0xffffffff)
			return b
		}, ErrMalformedEncoding},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.mutate(append([]byte(nil), raw...))
			var l Ledger
			err := l.UnmarshalBinary(b)
			require.True(t, errors.Is(err, tc.exp), err)
			require.True(t, errors.Is(err, ErrDecode), err)
		})
	}
}

func TestLedgerRejectsDuplicates(t *testing.T) {
	l := fakeLedger()
	l.Blocks[1].BlockID = l.Blocks[0].BlockID
	raw, err := l.MarshalBinary()
	require.NoError(t, err)
	require.True(t, errors.Is(new(Ledger).UnmarshalBinary(raw), ErrMalformedEncoding))

	l = fakeLedger()
	c := &l.Blocks[0].Candidates[0]
	c.Voters[1] = c.Voters[0]
	raw, err = l.MarshalBinary()
	require.NoError(t, err)
	require.True(t, errors.Is(new(Ledger).UnmarshalBinary(raw), ErrMalformedEncoding))
}

func TestVoterCreditLayout(t *testing.T) {
	v := VoterCredit{Owner: FakeIdentity(5), Credit: 3, Debit: 1, LastCreditedPeriod: 1200}
	raw, err := v.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, raw, VoterCreditSize)

	var got VoterCredit
	require.NoError(t, got.UnmarshalBinary(append(raw, 0, 0, 0)))
	require.Equal(t, v, got)

	require.True(t, errors.Is(got.UnmarshalBinary(raw[:VoterCreditSize-1]), ErrDecode))
	// a ledger is not a credit account
	ledgerRaw, _ := fakeLedger().MarshalBinary()
	require.True(t, errors.Is(got.UnmarshalBinary(ledgerRaw), ErrWrongTag))
}

func TestAggregateLayout(t *testing.T) {
	var a CreditAggregate
	a.Upsert(VoterCredit{Owner: FakeIdentity(1), Credit: 1})
	a.Upsert(VoterCredit{Owner: FakeIdentity(2), Credit: 4, Debit: 2})

	raw, err := a.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, a.Size(), uint64(len(raw)))

	var got CreditAggregate
	require.NoError(t, got.UnmarshalBinary(raw))
	require.Equal(t, a, got)
}
