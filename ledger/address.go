package ledger

import (
	"encoding/binary"

	"github.com/Fantom-foundation/lachesis-base/hash"

	"github.com/rony4d/go-growspace/inter"
)

// Seeds of the program derived accounts.
const (
	LedgerSeed    = "pda_account"
	VoterSeed     = "user_account_pda"
	AggregateSeed = "accounting"

	derivedMarker = "ProgramDerivedAddress"
)

// DeriveAddress computes the deterministic address of a program account as
// sha256(seeds... || programID || marker).
func DeriveAddress(programID inter.Identity, seeds ...[]byte) inter.Identity {
	parts := make([][]byte, 0, len(seeds)+2)
	parts = append(parts, seeds...)
	parts = append(parts, programID[:], []byte(derivedMarker))
	return inter.Identity(hash.Of(parts...))
}

// LedgerAddress is the address of the ledger of a period range.
func LedgerAddress(programID inter.Identity, rangeID uint64) inter.Identity {
	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], rangeID)
	return DeriveAddress(programID, []byte(LedgerSeed), id[:])
}

// VoterAddress is the address of a participant's VoterCredit account.
func VoterAddress(programID inter.Identity, voter inter.Identity) inter.Identity {
	return DeriveAddress(programID, []byte(VoterSeed), voter[:])
}

// AggregateAddress is the address of the CreditAggregate.
func AggregateAddress(programID inter.Identity) inter.Identity {
	return DeriveAddress(programID, []byte(AggregateSeed))
}
