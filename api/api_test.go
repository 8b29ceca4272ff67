package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-growspace/integration"
	"github.com/rony4d/go-growspace/inter"
	"github.com/rony4d/go-growspace/ledger"
	"github.com/rony4d/go-growspace/opera"
	"github.com/rony4d/go-growspace/opera/genesis"
)

var wallet = inter.FakeIdentity(1)

func newProcessor(t *testing.T) *ledger.Processor {
	g := genesis.FakeGenesis(3, 1e15)
	s, p, err := integration.MakeEngine("", integration.LitePreset(), opera.FakeNetRules(), &g)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return p
}

func newClient(t *testing.T, p *ledger.Processor) *rpc.Client {
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName(Namespace, NewPublicLedgerAPI(p)))
	t.Cleanup(srv.Stop)
	client := rpc.DialInProc(srv)
	t.Cleanup(client.Close)
	return client
}

func TestLedgerAPI(t *testing.T) {
	require := require.New(t)
	p := newProcessor(t)
	client := newClient(t, p)

	var addr inter.Identity
	require.NoError(client.Call(&addr, "ledger_initializeLedger", wallet, hexutil.Uint64(1)))
	require.Equal(ledger.LedgerAddress(p.Rules().ProgramID, 1), addr)

	winners := []inter.Identity{inter.FakeIdentity(10), inter.FakeIdentity(11)}
	for _, v := range winners {
		var res RPCAppendResult
		require.NoError(client.Call(&res, "ledger_appendVote", AppendArgs{
			RangeID: 1,
			Period:  10,
			Value:   hexutil.Bytes("ABCDEFGH"),
			Voter:   v,
			Payer:   wallet,
		}))
		require.Equal(addr, res.Address)
		require.Equal(inter.NormalizeDigest([]byte("ABCDEFGH")), res.Digest)
		require.True(res.NewVoter)
	}

	var candidates []inter.Identity
	require.NoError(client.Call(&candidates, "ledger_candidateAccounts", hexutil.Uint64(1)))
	require.Len(candidates, 2)

	snapshot := hexutil.Uint64(1)
	var fin RPCFinalizeResult
	require.NoError(client.Call(&fin, "ledger_finalizeAndCredit", FinalizeArgs{
		Snapshot:   &snapshot,
		Period:     110,
		Submitter:  wallet,
		Candidates: candidates,
	}))
	require.Len(fin.Blocks, 1)
	require.Equal(hexutil.Uint64(2), fin.Blocks[0].Total)
	require.NotNil(fin.Blocks[0].Winner)
	require.Equal(winners, fin.Credited)

	var vc RPCVoterCredit
	require.NoError(client.Call(&vc, "ledger_getVoterCredit", winners[0]))
	require.Equal(hexutil.Uint64(1), vc.Credit)
	require.Equal(hexutil.Uint64(110), vc.LastCreditedPeriod)

	var chunk RPCVoterChunk
	require.NoError(client.Call(&chunk, "ledger_getVoterChunk", hexutil.Uint64(1), hexutil.Uint64(10)))
	require.Len(chunk.Entries, 1)
	require.Equal(winners[1], chunk.Entries[0].Identity)
	decoded, err := ledger.DecodeVoterChunk(chunk.Data)
	require.NoError(err)
	require.Len(decoded, 1)

	var led map[string]interface{}
	require.NoError(client.Call(&led, "ledger_getLedger", hexutil.Uint64(1)))
	require.Len(led["entries"], 1)
}

func TestLedgerAPIErrors(t *testing.T) {
	client := newClient(t, newProcessor(t))

	var led map[string]interface{}
	err := client.Call(&led, "ledger_getLedger", hexutil.Uint64(99))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ledger.ErrNotFound.Error())

	var res RPCAppendResult
	err = client.Call(&res, "ledger_appendVote", AppendArgs{RangeID: 99, Period: 1, Value: hexutil.Bytes("x"), Voter: wallet, Payer: wallet})
	require.Error(t, err)
}

func post(t *testing.T, srv *httptest.Server, body interface{}) (*http.Response, map[string]interface{}) {
	return postTo(t, srv, "/append_data", body)
}

func postTo(t *testing.T, srv *httptest.Server, path string, body interface{}) (*http.Response, map[string]interface{}) {
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func get(t *testing.T, srv *httptest.Server, path string, out interface{}) *http.Response {
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func TestRESTAppendAndFetch(t *testing.T) {
	require := require.New(t)
	p := newProcessor(t)
	srv := httptest.NewServer(NewService(p, wallet).Router())
	defer srv.Close()

	alice, bob := inter.FakeIdentity(20), inter.FakeIdentity(21)
	for _, v := range []inter.Identity{alice, bob} {
		resp, out := post(t, srv, map[string]interface{}{
			"block_id":   1000,
			"final_hash": "ABCDEFGH",
			"pubkey":     v.String(),
		})
		require.Equal(http.StatusOK, resp.StatusCode, out)
		require.Equal("Appended data", out["message"])
		require.Equal(ledger.LedgerAddress(p.Rules().ProgramID, 1000).String(), out["pda"])
		require.NotEmpty(resp.Header.Get(requestIDHeader))
		require.Equal(resp.Header.Get(requestIDHeader), out["request_id"])
	}

	var led struct {
		BlockID uint64 `json:"blockId"`
		Entries []struct {
			BlockID     uint64 `json:"blockId"`
			FinalHashes []struct {
				FinalHash string   `json:"finalHash"`
				Count     uint64   `json:"count"`
				Pubkeys   []string `json:"pubkeys"`
			} `json:"finalHashes"`
		} `json:"entries"`
	}
	resp := get(t, srv, "/fetch_data/1000", &led)
	require.Equal(http.StatusOK, resp.StatusCode)
	require.Equal(uint64(1000), led.BlockID)
	require.Len(led.Entries, 1)
	require.Equal("ABCDEFGH", led.Entries[0].FinalHashes[0].FinalHash)
	require.Equal(uint64(2), led.Entries[0].FinalHashes[0].Count)
	require.Equal([]string{alice.String(), bob.String()}, led.Entries[0].FinalHashes[0].Pubkeys)

	// a vote one range later finalizes block 1000 and credits both voters
	carol := inter.FakeIdentity(22)
	resp, out := post(t, srv, map[string]interface{}{
		"first_block_id": 1000 + p.Rules().RangeSpan,
		"final_hash":     "ZZ",
		"pubkey":         carol.String(),
	})
	require.Equal(http.StatusOK, resp.StatusCode, out)
	require.Equal(float64(2), out["credited"])

	var voters []RPCCreditEntry
	resp = get(t, srv, "/voters?offset=0&limit=10", &voters)
	require.Equal(http.StatusOK, resp.StatusCode)
	require.Len(voters, 2)
	require.Equal(alice, voters[0].Identity)
	require.Equal(hexutil.Uint64(1), voters[0].Credit)

	resp = get(t, srv, "/voters?offset=5", &voters)
	require.Equal(http.StatusOK, resp.StatusCode)
	require.Empty(voters)
}

func TestRESTErrors(t *testing.T) {
	srv := httptest.NewServer(NewService(newProcessor(t), wallet).Router())
	defer srv.Close()

	for _, tc := range []struct {
		name   string
		body   interface{}
		status int
	}{
		{"missing block id", map[string]interface{}{"final_hash": "A", "pubkey": wallet.String()}, http.StatusBadRequest},
		{"bad pubkey", map[string]interface{}{"block_id": 1, "final_hash": "A", "pubkey": "not-base58!"}, http.StatusBadRequest},
		{"short pubkey", map[string]interface{}{"block_id": 1, "final_hash": "A", "pubkey": "3mJr7A"}, http.StatusBadRequest},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp, out := post(t, srv, tc.body)
			require.Equal(t, tc.status, resp.StatusCode)
			require.NotEmpty(t, out["error"])
		})
	}

	var out map[string]interface{}
	resp := get(t, srv, "/fetch_data/77", &out)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = get(t, srv, "/voters?limit=abc", &out)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRESTRootSubmission(t *testing.T) {
	p := newProcessor(t)
	srv := httptest.NewServer(NewService(p, wallet).Router())
	defer srv.Close()

	voter := inter.FakeIdentity(30)
	resp, out := postTo(t, srv, "/", map[string]interface{}{
		"first_block_id": 2000,
		"final_hash":     "ABCDEFGH",
		"pubkey":         voter.String(),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, out)
	require.Equal(t, ledger.LedgerAddress(p.Rules().ProgramID, 2000).String(), out["pda"])

	led, err := p.Ledger(2000)
	require.NoError(t, err)
	require.Len(t, led.Blocks, 1)
	require.Equal(t, []inter.Identity{voter}, led.Blocks[0].Candidates[0].Voters)
}

func TestStatusOf(t *testing.T) {
	require.Equal(t, http.StatusNotFound, statusOf(ledger.ErrNotFound))
	require.Equal(t, http.StatusUnprocessableEntity, statusOf(ledger.ErrFundingFailure))
	require.Equal(t, http.StatusInternalServerError, statusOf(errors.New("boom")))
	// stored records that fail to decode are a server fault
	require.Equal(t, http.StatusInternalServerError, statusOf(ledger.ErrDecode))
}
