package ledger

import (
	"errors"
	"fmt"

	"github.com/rony4d/go-growspace/inter"
	"github.com/rony4d/go-growspace/state"
)

// Every error aborts the call it is returned from; no partial state is
// committed.
var (
	// ErrNotFound is returned when a referenced record or account is absent.
	ErrNotFound = errors.New("not found")
	// ErrDecode is returned when stored or supplied bytes cannot be
	// interpreted as the expected record or key.
	ErrDecode = inter.ErrDecode
	// ErrInsufficientCandidates is returned when sampling needs a larger pool.
	ErrInsufficientCandidates = errors.New("insufficient candidates")
	// ErrSerialization is returned when a response cannot be encoded into
	// the return-data buffer.
	ErrSerialization = errors.New("serialization failed")
	// ErrFundingFailure is returned when the payer cannot cover rent.
	ErrFundingFailure = errors.New("funding failed")
	// ErrResizeFailure is returned when the host refuses to grow an account.
	ErrResizeFailure = errors.New("resize failed")
)

// wrap tags err with kind while keeping the host error text.
func wrap(kind, err error) error {
	if err == nil || errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %s", kind, err.Error())
}

func isFunding(err error) bool {
	return errors.Is(err, state.ErrInsufficientFunds)
}
