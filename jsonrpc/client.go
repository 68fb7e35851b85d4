package jsonrpc

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/holiman/uint256"

	"minechain/block"
	"minechain/logx"
)

// RemoteSolver offloads the hash search to a pow.solve worker over
// JSON-RPC. It satisfies block.Solver; cancellation of ctx cancels the
// call, and a cancellation arriving after the worker replied is a no-op.
type RemoteSolver struct {
	client *jrpc2.Client
}

var _ block.Solver = (*RemoteSolver)(nil)

// NewRemoteSolver dials the worker endpoint, e.g. "http://127.0.0.1:9870".
func NewRemoteSolver(url string) *RemoteSolver {
	return &RemoteSolver{
		client: jrpc2.NewClient(jhttp.NewChannel(url, nil), nil),
	}
}

func (r *RemoteSolver) Solve(ctx context.Context, signature string, difficulty *uint256.Int) (string, int64, error) {
	params := solveParams{
		Signature:  signature,
		Difficulty: difficulty.Dec(),
	}
	var res solveResult
	if err := r.client.CallResult(ctx, MethodPowSolve, params, &res); err != nil {
		logx.Warn("JSONRPC", "remote solve failed: ", err)
		return "", block.NonceSentinel, err
	}
	return res.Hash, res.Nonce, nil
}

// Close releases the underlying HTTP client.
func (r *RemoteSolver) Close() error {
	return r.client.Close()
}
