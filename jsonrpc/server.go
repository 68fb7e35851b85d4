package jsonrpc

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"minechain/block"
	"minechain/chain"
	"minechain/config"
	"minechain/errors"
	"minechain/jsonx"
	"minechain/logx"
	"minechain/utils"
)

// --- Error type used by handlers ---

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	codeInvalidRequest = -32600
	codeInternal       = -32000
)

func toJRPC2Error(e *rpcError) error {
	if e == nil {
		return nil
	}
	if e.Data != nil {
		return jrpc2.Errorf(jrpc2.Code(e.Code), "%s", e.Message).WithData(e.Data)
	}
	return jrpc2.Errorf(jrpc2.Code(e.Code), "%s", e.Message)
}

func chainErrToRPC(err error) *rpcError {
	return &rpcError{
		Code:    codeInvalidRequest,
		Message: err.Error(),
		Data:    string(errors.CodeOf(err)),
	}
}

// --- Params/Results ---

// pow.solve: the offloaded hash-search worker boundary.
type solveParams struct {
	Signature  string `json:"signature"`
	Difficulty string `json:"difficulty,omitempty"`
}

type solveResult struct {
	Hash  string `json:"hash"`
	Nonce int64  `json:"nonce"`
}

type submitParams struct {
	Payload string `json:"payload"`
}

type submitResponse struct {
	Ok      bool   `json:"ok"`
	EntryID string `json:"entry_id"`
	Error   string `json:"error,omitempty"`
}

type setDifficultyParams struct {
	Difficulty string `json:"difficulty"`
}

type setDifficultyResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type addBlockParams struct {
	Index       uint64 `json:"index"`
	Difficulty  string `json:"difficulty"`
	PrevHash    string `json:"prev_hash"`
	Payload     string `json:"payload"`
	TimestampMs int64  `json:"timestamp_ms"`
	Nonce       int64  `json:"nonce"`
	Hash        string `json:"hash"`
	EntryID     string `json:"entry_id,omitempty"`
}

type addBlockResponse struct {
	Ok bool `json:"ok"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

// Server bridges JSON-RPC over HTTP to the hash-search worker and, when a
// chain is attached, to the chain's admission operations.
type Server struct {
	addr  string
	chain *chain.Chain // nil in standalone worker mode
}

// NewServer creates a server for addr. A nil chain serves only pow.solve.
func NewServer(addr string, c *chain.Chain) *Server {
	return &Server{addr: addr, chain: c}
}

// Handler returns the HTTP handler serving the method map, for tests and
// embedding.
func (s *Server) Handler() http.Handler {
	return jhttp.NewBridge(s.buildMethodMap(), &jhttp.BridgeOptions{Server: &jrpc2.ServerOptions{}})
}

func (s *Server) Start() {
	h := s.Handler()
	mux := http.NewServeMux()
	mux.Handle("/", h)
	go func() {
		if err := http.ListenAndServe(s.addr, mux); err != nil {
			logx.Error("JSONRPC", "rpc server stopped: ", err)
		}
	}()
	logx.Info("JSONRPC", "serving on ", s.addr)
}

// Build jrpc2 method map
func (s *Server) buildMethodMap() handler.Map {
	methods := handler.Map{
		// Raw params: a malformed payload degrades to the empty request
		// and fails the required-signature check instead of propagating a
		// decode error.
		MethodPowSolve: handler.New(func(ctx context.Context, raw json.RawMessage) (*solveResult, error) {
			var p solveParams
			if err := jsonx.Unmarshal(raw, &p); err != nil {
				p = solveParams{}
			}
			res, rpcErr := s.rpcSolve(ctx, p)
			if rpcErr != nil {
				return nil, toJRPC2Error(rpcErr)
			}
			return res, nil
		}),
	}
	if s.chain == nil {
		return methods
	}
	methods[MethodChainSubmit] = handler.New(func(ctx context.Context, p submitParams) (*submitResponse, error) {
		return s.rpcSubmit(p), nil
	})
	methods[MethodChainStatus] = handler.New(func(ctx context.Context) (*ChainStatus, error) {
		return SnapshotChain(s.chain), nil
	})
	methods[MethodChainSetDifficulty] = handler.New(func(ctx context.Context, p setDifficultyParams) (*setDifficultyResponse, error) {
		return s.rpcSetDifficulty(p), nil
	})
	methods[MethodChainAddBlock] = handler.New(func(ctx context.Context, p addBlockParams) (*addBlockResponse, error) {
		return s.rpcAddBlock(p), nil
	})
	methods[MethodChainValidate] = handler.New(func(ctx context.Context) (*validateResponse, error) {
		return &validateResponse{Valid: s.chain.IsValid()}, nil
	})
	methods[MethodChainAbort] = handler.New(func(ctx context.Context) (*addBlockResponse, error) {
		s.chain.AbortActive()
		return &addBlockResponse{Ok: true}, nil
	})
	methods[MethodChainResume] = handler.New(func(ctx context.Context) (*addBlockResponse, error) {
		s.chain.Resume()
		return &addBlockResponse{Ok: true}, nil
	})
	return methods
}

func (s *Server) rpcSolve(ctx context.Context, p solveParams) (*solveResult, *rpcError) {
	if p.Signature == "" {
		return nil, &rpcError{
			Code:    codeInvalidRequest,
			Message: errors.ErrMsgMissingSignature,
			Data:    string(errors.ErrCodeMissingField),
		}
	}
	difficultyStr := p.Difficulty
	if difficultyStr == "" {
		difficultyStr = config.DefaultWorkerDifficulty
	}
	difficulty, err := utils.ParseDifficulty(difficultyStr)
	if err != nil {
		return nil, chainErrToRPC(err)
	}

	hash, nonce, err := (block.CPUSolver{}).Solve(ctx, p.Signature, difficulty)
	if err != nil {
		// Cancellation or transport teardown; nothing useful to report.
		return nil, &rpcError{Code: codeInternal, Message: errors.ErrMsgInternal}
	}
	return &solveResult{Hash: hash, Nonce: nonce}, nil
}

func (s *Server) rpcSubmit(p submitParams) *submitResponse {
	entry, err := s.chain.Enqueue(p.Payload)
	if err != nil {
		return &submitResponse{Ok: false, Error: err.Error()}
	}
	return &submitResponse{Ok: true, EntryID: entry.ID()}
}

func (s *Server) rpcSetDifficulty(p setDifficultyParams) *setDifficultyResponse {
	d, err := utils.ParseDifficulty(p.Difficulty)
	if err != nil {
		return &setDifficultyResponse{Ok: false, Error: err.Error()}
	}
	if err := s.chain.SetDifficulty(d); err != nil {
		return &setDifficultyResponse{Ok: false, Error: err.Error()}
	}
	return &setDifficultyResponse{Ok: true}
}

func (s *Server) rpcAddBlock(p addBlockParams) *addBlockResponse {
	difficulty, err := utils.ParseDifficulty(p.Difficulty)
	if err != nil {
		return &addBlockResponse{Ok: false}
	}
	cfg := block.Config{
		Payload:    p.Payload,
		Index:      p.Index,
		Difficulty: difficulty,
		PrevHash:   p.PrevHash,
		CreatedAt:  msToTime(p.TimestampMs),
		Nonce:      p.Nonce,
		Hash:       p.Hash,
	}
	return &addBlockResponse{Ok: s.chain.AddBlock(cfg, p.EntryID)}
}
