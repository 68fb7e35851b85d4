package jsonrpc

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minechain/block"
	"minechain/chain"
	"minechain/jsonx"
	"minechain/utils"
)

func newWorkerServer(t *testing.T) (*httptest.Server, *jrpc2.Client) {
	t.Helper()
	srv := NewServer("", nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	client := jrpc2.NewClient(jhttp.NewChannel(ts.URL, nil), nil)
	t.Cleanup(func() { client.Close() })
	return ts, client
}

func TestPowSolveFirstNonceAtMaxDifficulty(t *testing.T) {
	_, client := newWorkerServer(t)

	params := solveParams{
		Signature:  "block-signature",
		Difficulty: utils.MaxDifficulty().Dec(),
	}
	var res solveResult
	require.NoError(t, client.CallResult(context.Background(), MethodPowSolve, params, &res))

	assert.Equal(t, int64(0), res.Nonce)
	assert.Equal(t, block.HashFor("block-signature", 0), res.Hash)
	assert.True(t, block.SatisfiesDifficulty(res.Hash, utils.MaxDifficulty()))
}

func TestPowSolveDefaultsDifficulty(t *testing.T) {
	_, client := newWorkerServer(t)

	var res solveResult
	err := client.CallResult(context.Background(), MethodPowSolve, solveParams{Signature: "sig"}, &res)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Nonce, int64(0))
	assert.Equal(t, block.HashFor("sig", res.Nonce), res.Hash)
}

func TestPowSolveMissingSignature(t *testing.T) {
	_, client := newWorkerServer(t)

	var res solveResult
	err := client.CallResult(context.Background(), MethodPowSolve, solveParams{}, &res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Signature is required")
}

func TestPowSolveInvalidDifficulty(t *testing.T) {
	_, client := newWorkerServer(t)

	var res solveResult
	err := client.CallResult(context.Background(), MethodPowSolve, solveParams{Signature: "sig", Difficulty: "not-a-number"}, &res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "numeric")
}

func TestPowSolveMalformedParamsDegradeToEmptyRequest(t *testing.T) {
	ts, _ := newWorkerServer(t)

	// Params that do not decode into the request object are treated as an
	// empty request and fail the required-signature check.
	body := []byte(`{"jsonrpc":"2.0","id":1,"method":"pow.solve","params":[42]}`)
	resp, err := http.Post(ts.URL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, jsonx.Unmarshal(raw, &envelope))
	require.NotNil(t, envelope.Error)
	assert.Contains(t, envelope.Error.Message, "Signature is required")
}

func TestRemoteSolver(t *testing.T) {
	ts, _ := newWorkerServer(t)
	solver := NewRemoteSolver(ts.URL)
	defer solver.Close()

	hash, nonce, err := solver.Solve(context.Background(), "remote-sig", utils.MaxDifficulty())
	require.NoError(t, err)
	assert.Equal(t, int64(0), nonce)
	assert.Equal(t, block.HashFor("remote-sig", 0), hash)
}

func TestRemoteSolverCancellation(t *testing.T) {
	ts, _ := newWorkerServer(t)
	solver := NewRemoteSolver(ts.URL)
	defer solver.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		// Difficulty 0 never resolves in practice.
		_, _, err := solver.Solve(ctx, "unsolvable", uint256.NewInt(0))
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("remote solve did not honor cancellation")
	}
}

func newChainServer(t *testing.T) *jrpc2.Client {
	t.Helper()
	c, err := chain.NewChain(utils.MaxDifficulty(), nil, nil)
	require.NoError(t, err)
	srv := NewServer("", c)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	client := jrpc2.NewClient(jhttp.NewChannel(ts.URL, nil), nil)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestChainSubmitAndStatus(t *testing.T) {
	client := newChainServer(t)

	var sub submitResponse
	require.NoError(t, client.CallResult(context.Background(), MethodChainSubmit, submitParams{Payload: "hello"}, &sub))
	require.True(t, sub.Ok)
	assert.NotEmpty(t, sub.EntryID)

	// Max difficulty solves on the first nonce; wait for the commit.
	deadline := time.Now().Add(5 * time.Second)
	for {
		var status ChainStatus
		require.NoError(t, client.CallResult(context.Background(), MethodChainStatus, nil, &status))
		if status.Height == 1 {
			assert.Equal(t, "hello", status.Blocks[0].Payload)
			assert.Equal(t, "READY", status.Blocks[0].State)
			assert.Empty(t, status.Pending)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for block commit")
		}
		time.Sleep(10 * time.Millisecond)
	}

	var valid validateResponse
	require.NoError(t, client.CallResult(context.Background(), MethodChainValidate, nil, &valid))
	assert.True(t, valid.Valid)
}

func TestChainSubmitMissingPayload(t *testing.T) {
	client := newChainServer(t)

	var sub submitResponse
	require.NoError(t, client.CallResult(context.Background(), MethodChainSubmit, submitParams{}, &sub))
	assert.False(t, sub.Ok)
	assert.Contains(t, sub.Error, "missing_field")
}

func TestChainSetDifficulty(t *testing.T) {
	client := newChainServer(t)

	var res setDifficultyResponse
	require.NoError(t, client.CallResult(context.Background(), MethodChainSetDifficulty, setDifficultyParams{Difficulty: "12345"}, &res))
	assert.True(t, res.Ok)

	require.NoError(t, client.CallResult(context.Background(), MethodChainSetDifficulty, setDifficultyParams{Difficulty: "garbage"}, &res))
	assert.False(t, res.Ok)
	assert.Contains(t, res.Error, "invalid_difficulty")
}

func TestChainAddBlockRejectsWrongIndex(t *testing.T) {
	client := newChainServer(t)

	var res addBlockResponse
	p := addBlockParams{
		Index:       7,
		Difficulty:  utils.MaxDifficulty().Dec(),
		PrevHash:    "",
		Payload:     "external",
		TimestampMs: 1700000000000,
		Nonce:       0,
		Hash:        block.HashFor("irrelevant", 0),
	}
	require.NoError(t, client.CallResult(context.Background(), MethodChainAddBlock, p, &res))
	assert.False(t, res.Ok)
}
