// Package api exposes the ledger processor over JSON-RPC (namespace "ledger")
// and a small REST surface for vote submitters.
package api

import (
	"context"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/rony4d/go-growspace/inter"
	"github.com/rony4d/go-growspace/ledger"
)

// Namespace is the JSON-RPC namespace of PublicLedgerAPI.
const Namespace = "ledger"

// PublicLedgerAPI provides the ledger operations over JSON-RPC.
type PublicLedgerAPI struct {
	p *ledger.Processor
}

// NewPublicLedgerAPI creates a new ledger API.
func NewPublicLedgerAPI(p *ledger.Processor) *PublicLedgerAPI {
	return &PublicLedgerAPI{p}
}

// AppendArgs are the arguments of ledger_appendVote.
type AppendArgs struct {
	RangeID    hexutil.Uint64   `json:"rangeId"`
	Period     hexutil.Uint64   `json:"period"`
	Value      hexutil.Bytes    `json:"value"`
	Voter      inter.Identity   `json:"voter"`
	Payer      inter.Identity   `json:"payer"`
	Previous   *hexutil.Uint64  `json:"previous,omitempty"`
	Candidates []inter.Identity `json:"candidates,omitempty"`
}

// FinalizeArgs are the arguments of ledger_finalizeAndCredit.
type FinalizeArgs struct {
	Snapshot   *hexutil.Uint64  `json:"snapshot"`
	Period     hexutil.Uint64   `json:"period"`
	Submitter  inter.Identity   `json:"submitter"`
	Candidates []inter.Identity `json:"candidates,omitempty"`
}

// RPCBlockOutcome is the JSON form of ledger.BlockOutcome.
type RPCBlockOutcome struct {
	BlockID hexutil.Uint64 `json:"blockId"`
	Total   hexutil.Uint64 `json:"total"`
	Winner  *inter.Digest  `json:"winner"`
	Votes   hexutil.Uint64 `json:"votes"`
}

// RPCFinalizeResult is the JSON form of ledger.FinalizeResult.
type RPCFinalizeResult struct {
	Blocks   []RPCBlockOutcome `json:"blocks"`
	Credited []inter.Identity  `json:"credited"`
}

// RPCAppendResult is the JSON form of ledger.AppendResult.
type RPCAppendResult struct {
	Address      inter.Identity     `json:"address"`
	Digest       inter.Digest       `json:"digest"`
	NewBlock     bool               `json:"newBlock"`
	NewCandidate bool               `json:"newCandidate"`
	NewVoter     bool               `json:"newVoter"`
	Size         hexutil.Uint64     `json:"size"`
	Capacity     hexutil.Uint64     `json:"capacity"`
	Finalized    *RPCFinalizeResult `json:"finalized,omitempty"`
}

// RPCCreditEntry is the JSON form of inter.CreditEntry.
type RPCCreditEntry struct {
	Identity inter.Identity `json:"identity"`
	Credit   hexutil.Uint64 `json:"credit"`
	Debit    hexutil.Uint64 `json:"debit"`
}

// RPCVoterChunk carries the raw return data with its decoded entries.
type RPCVoterChunk struct {
	Data    hexutil.Bytes    `json:"data"`
	Entries []RPCCreditEntry `json:"entries"`
}

// RPCVoterCredit is the JSON form of inter.VoterCredit.
type RPCVoterCredit struct {
	Owner              inter.Identity `json:"owner"`
	Credit             hexutil.Uint64 `json:"credit"`
	Debit              hexutil.Uint64 `json:"debit"`
	LastCreditedPeriod hexutil.Uint64 `json:"lastCreditedPeriod"`
}

func toRPCFinalizeResult(res *ledger.FinalizeResult) *RPCFinalizeResult {
	if res == nil {
		return nil
	}
	out := &RPCFinalizeResult{
		Blocks:   make([]RPCBlockOutcome, len(res.Blocks)),
		Credited: res.Credited,
	}
	if out.Credited == nil {
		out.Credited = []inter.Identity{}
	}
	for i, b := range res.Blocks {
		out.Blocks[i] = RPCBlockOutcome{
			BlockID: hexutil.Uint64(b.BlockID),
			Total:   hexutil.Uint64(b.Total),
			Winner:  b.Winner,
			Votes:   hexutil.Uint64(b.Votes),
		}
	}
	return out
}

func optional(v *hexutil.Uint64) *uint64 {
	if v == nil {
		return nil
	}
	u := uint64(*v)
	return &u
}

// InitializeLedger creates the ledger of a range and returns its address.
func (api *PublicLedgerAPI) InitializeLedger(ctx context.Context, payer inter.Identity, rangeID hexutil.Uint64) (inter.Identity, error) {
	return api.p.InitializeLedger(payer, uint64(rangeID))
}

// AppendVote records a vote, optionally finalizing a previous range first.
func (api *PublicLedgerAPI) AppendVote(ctx context.Context, args AppendArgs) (*RPCAppendResult, error) {
	res, err := api.p.AppendVote(ledger.AppendRequest{
		RangeID:    uint64(args.RangeID),
		Period:     idx.Block(args.Period),
		Value:      args.Value,
		Voter:      args.Voter,
		Payer:      args.Payer,
		Previous:   optional(args.Previous),
		Candidates: args.Candidates,
	})
	if err != nil {
		return nil, err
	}
	return &RPCAppendResult{
		Address:      res.Address,
		Digest:       res.Digest,
		NewBlock:     res.Changes.NewBlock,
		NewCandidate: res.Changes.NewCandidate,
		NewVoter:     res.Changes.NewVoter,
		Size:         hexutil.Uint64(res.Size),
		Capacity:     hexutil.Uint64(res.Capacity),
		Finalized:    toRPCFinalizeResult(res.Finalized),
	}, nil
}

// FinalizeAndCredit tallies a snapshot ledger and credits its winners.
func (api *PublicLedgerAPI) FinalizeAndCredit(ctx context.Context, args FinalizeArgs) (*RPCFinalizeResult, error) {
	res, err := api.p.FinalizeAndCredit(ledger.FinalizeRequest{
		Snapshot:   optional(args.Snapshot),
		Period:     idx.Block(args.Period),
		Submitter:  args.Submitter,
		Candidates: args.Candidates,
	})
	if err != nil {
		return nil, err
	}
	return toRPCFinalizeResult(res), nil
}

// CandidateAccounts returns the credit accounts to offer when finalizing a range.
func (api *PublicLedgerAPI) CandidateAccounts(ctx context.Context, rangeID hexutil.Uint64) ([]inter.Identity, error) {
	return api.p.CandidateAccounts(uint64(rangeID))
}

// GetVoterChunk returns a page of the credit aggregate.
func (api *PublicLedgerAPI) GetVoterChunk(ctx context.Context, offset, limit hexutil.Uint64) (*RPCVoterChunk, error) {
	raw, chunk, err := api.p.ReadVoterChunk(uint64(offset), uint64(limit))
	if err != nil {
		return nil, err
	}
	out := &RPCVoterChunk{Data: raw, Entries: make([]RPCCreditEntry, len(chunk))}
	for i, e := range chunk {
		out.Entries[i] = RPCCreditEntry{
			Identity: e.Identity,
			Credit:   hexutil.Uint64(e.Credit),
			Debit:    hexutil.Uint64(e.Debit),
		}
	}
	return out, nil
}

// GetLedger returns the decoded ledger of a range.
func (api *PublicLedgerAPI) GetLedger(ctx context.Context, rangeID hexutil.Uint64) (map[string]interface{}, error) {
	led, err := api.p.Ledger(uint64(rangeID))
	if err != nil {
		return nil, err
	}
	return RPCMarshalLedger(uint64(rangeID), led), nil
}

// GetVoterCredit returns the credit account of a participant.
func (api *PublicLedgerAPI) GetVoterCredit(ctx context.Context, voter inter.Identity) (*RPCVoterCredit, error) {
	vc, err := api.p.VoterCredit(voter)
	if err != nil {
		return nil, err
	}
	return &RPCVoterCredit{
		Owner:              vc.Owner,
		Credit:             hexutil.Uint64(vc.Credit),
		Debit:              hexutil.Uint64(vc.Debit),
		LastCreditedPeriod: hexutil.Uint64(vc.LastCreditedPeriod),
	}, nil
}

// RPCMarshalLedger converts a ledger to the JSON shape served by both the
// RPC and the REST surface.
func RPCMarshalLedger(rangeID uint64, led *inter.Ledger) map[string]interface{} {
	blocks := make([]map[string]interface{}, len(led.Blocks))
	for i, b := range led.Blocks {
		candidates := make([]map[string]interface{}, len(b.Candidates))
		for j, c := range b.Candidates {
			candidates[j] = map[string]interface{}{
				"finalHash": c.Value,
				"count":     c.Count,
				"pubkeys":   c.Voters,
			}
		}
		blocks[i] = map[string]interface{}{
			"blockId":     uint64(b.BlockID),
			"finalHashes": candidates,
		}
	}
	return map[string]interface{}{
		"blockId": rangeID,
		"entries": blocks,
	}
}
