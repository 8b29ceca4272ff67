package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rony4d/go-growspace/inter"
	"github.com/rony4d/go-growspace/ledger"
	"github.com/rony4d/go-growspace/logger"
)

const (
	requestIDHeader = "X-Request-Id"
	defaultLimit    = 50
)

// AppendBody is the payload of POST /append_data. FirstBlockID is accepted
// as an alias of BlockID.
type AppendBody struct {
	BlockID      *uint64 `json:"block_id"`
	FirstBlockID *uint64 `json:"first_block_id"`
	FinalHash    string  `json:"final_hash"`
	Pubkey       string  `json:"pubkey"`
}

// AppendResponse answers POST /append_data.
type AppendResponse struct {
	Message   string         `json:"message"`
	PDA       inter.Identity `json:"pda"`
	RequestID string         `json:"request_id"`
	Credited  int            `json:"credited"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id"`
}

// Service serves vote submissions on behalf of a single paying wallet.
// Every submission uses the block id as both the range id and the period,
// and finalizes the range RangeSpan blocks earlier when its ledger exists.
type Service struct {
	p     *ledger.Processor
	payer inter.Identity

	logger.Instance
}

// NewService creates a REST service paying with payer.
func NewService(p *ledger.Processor, payer inter.Identity) *Service {
	return &Service{
		p:        p,
		payer:    payer,
		Instance: logger.New("rest"),
	}
}

// Router registers the REST endpoints on a new router.
func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestID)
	r.HandleFunc("/append_data", s.handleAppend).Methods(http.MethodPost)
	r.HandleFunc("/", s.handleAppend).Methods(http.MethodPost)
	r.HandleFunc("/fetch_data/{block_id:[0-9]+}", s.handleFetch).Methods(http.MethodGet)
	r.HandleFunc("/voters", s.handleVoters).Methods(http.MethodGet)
	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("Failed to write response", "err", err)
	}
}

func (s *Service) fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	resp := errorResponse{Error: msg, RequestID: r.Header.Get(requestIDHeader)}
	if err != nil {
		resp.Details = err.Error()
	}
	if status >= http.StatusInternalServerError {
		s.Log.Error(msg, "request", resp.RequestID, "err", err)
	} else {
		s.Log.Debug(msg, "request", resp.RequestID, "err", err)
	}
	writeJSON(w, status, resp)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDecode), errors.Is(err, ledger.ErrSerialization):
		return http.StatusInternalServerError
	case errors.Is(err, ledger.ErrFundingFailure), errors.Is(err, ledger.ErrResizeFailure), errors.Is(err, ledger.ErrInsufficientCandidates):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Service) handleAppend(w http.ResponseWriter, r *http.Request) {
	var body AppendBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, http.StatusBadRequest, "Invalid body", err)
		return
	}
	blockID := body.BlockID
	if blockID == nil {
		blockID = body.FirstBlockID
	}
	if blockID == nil {
		s.fail(w, r, http.StatusBadRequest, "Missing block_id", nil)
		return
	}
	voter, err := inter.IdentityFromString(body.Pubkey)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "Invalid pubkey", err)
		return
	}

	addr, err := s.p.InitializeLedger(s.payer, *blockID)
	if err != nil {
		s.fail(w, r, statusOf(err), "Failed to initialize PDA", err)
		return
	}

	req := ledger.AppendRequest{
		RangeID: *blockID,
		Period:  idx.Block(*blockID),
		Value:   []byte(body.FinalHash),
		Voter:   voter,
		Payer:   s.payer,
	}
	if span := s.p.Rules().RangeSpan; *blockID >= span {
		prev := *blockID - span
		candidates, err := s.p.CandidateAccounts(prev)
		switch {
		case err == nil:
			req.Previous = &prev
			req.Candidates = candidates
		case !errors.Is(err, ledger.ErrNotFound):
			s.fail(w, r, statusOf(err), "Failed to read previous ledger", err)
			return
		}
	}

	res, err := s.p.AppendVote(req)
	if err != nil {
		s.fail(w, r, statusOf(err), "Failed to append data", err)
		return
	}
	resp := AppendResponse{
		Message:   "Appended data",
		PDA:       addr,
		RequestID: r.Header.Get(requestIDHeader),
	}
	if res.Finalized != nil {
		resp.Credited = len(res.Finalized.Credited)
	}
	s.Log.Debug("Vote received", "request", resp.RequestID, "block", *blockID, "voter", voter)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleFetch(w http.ResponseWriter, r *http.Request) {
	blockID, err := strconv.ParseUint(mux.Vars(r)["block_id"], 10, 64)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "Invalid block_id", err)
		return
	}
	led, err := s.p.Ledger(blockID)
	if err != nil {
		s.fail(w, r, statusOf(err), "Failed to fetch data", err)
		return
	}
	writeJSON(w, http.StatusOK, RPCMarshalLedger(blockID, led))
}

func queryUint(r *http.Request, key string, def uint64) (uint64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func (s *Service) handleVoters(w http.ResponseWriter, r *http.Request) {
	offset, err := queryUint(r, "offset", 0)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "Invalid offset", err)
		return
	}
	limit, err := queryUint(r, "limit", defaultLimit)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "Invalid limit", err)
		return
	}
	_, chunk, err := s.p.ReadVoterChunk(offset, limit)
	if err != nil {
		s.fail(w, r, statusOf(err), "Failed to read voters", err)
		return
	}
	entries := make([]RPCCreditEntry, len(chunk))
	for i, e := range chunk {
		entries[i] = RPCCreditEntry{Identity: e.Identity, Credit: hexutil.Uint64(e.Credit), Debit: hexutil.Uint64(e.Debit)}
	}
	writeJSON(w, http.StatusOK, entries)
}
