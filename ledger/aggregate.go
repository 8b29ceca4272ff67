package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rony4d/go-growspace/inter"
)

// ReadVoterChunk returns aggregate entries [offset, min(offset+limit, len))
// RLP-encoded as the call's return data, along with the decoded entries.
// An offset at or past the end yields an empty chunk.
func (p *Processor) ReadVoterChunk(offset, limit uint64) ([]byte, []inter.CreditEntry, error) {
	agg, err := p.Aggregate()
	if err != nil {
		return nil, nil, err
	}
	chunk := agg.Chunk(offset, limit)
	raw, err := rlp.EncodeToBytes(chunk)
	if err != nil {
		return nil, nil, wrap(ErrSerialization, err)
	}
	if max := p.rules.Limits.MaxReturnData; uint64(len(raw)) > max {
		return nil, nil, fmt.Errorf("%w: %d entries take %d bytes, return data holds %d", ErrSerialization, len(chunk), len(raw), max)
	}
	p.Log.Trace("Voter chunk read", "offset", offset, "limit", limit, "entries", len(chunk))
	return raw, chunk, nil
}

// DecodeVoterChunk decodes return data produced by ReadVoterChunk.
func DecodeVoterChunk(raw []byte) ([]inter.CreditEntry, error) {
	var chunk []inter.CreditEntry
	if err := rlp.DecodeBytes(raw, &chunk); err != nil {
		return nil, fmt.Errorf("%w: voter chunk: %v", ErrDecode, err)
	}
	return chunk, nil
}
