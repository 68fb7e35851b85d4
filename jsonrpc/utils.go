package jsonrpc

import (
	"time"

	"minechain/chain"
)

// JSON-RPC Method name constants
const (
	// Worker methods
	MethodPowSolve = "pow.solve"

	// Chain methods
	MethodChainSubmit        = "chain.submit"
	MethodChainStatus        = "chain.status"
	MethodChainSetDifficulty = "chain.setdifficulty"
	MethodChainAddBlock      = "chain.addblock"
	MethodChainValidate      = "chain.validate"
	MethodChainAbort         = "chain.abort"
	MethodChainResume        = "chain.resume"
)

func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// --- Display snapshot of chain/queue state ---

type BlockInfo struct {
	Index       uint64 `json:"index"`
	Difficulty  string `json:"difficulty"`
	PrevHash    string `json:"prev_hash"`
	Payload     string `json:"payload"`
	TimestampMs int64  `json:"timestamp_ms"`
	Nonce       int64  `json:"nonce"`
	Hash        string `json:"hash"`
	State       string `json:"state"`
}

type EntryInfo struct {
	ID      string `json:"id"`
	Payload string `json:"payload"`
}

type ChainStatus struct {
	Height       int         `json:"height"`
	Difficulty   string      `json:"difficulty"`
	Constructing bool        `json:"constructing"`
	Blocks       []BlockInfo `json:"blocks"`
	Pending      []EntryInfo `json:"pending"`
}

// SnapshotChain renders the committed sequence and pending queue for
// display.
func SnapshotChain(c *chain.Chain) *ChainStatus {
	committed := c.Committed()
	blocks := make([]BlockInfo, len(committed))
	for i, b := range committed {
		blocks[i] = BlockInfo{
			Index:       b.Index(),
			Difficulty:  b.Difficulty().Dec(),
			PrevHash:    b.PrevHash(),
			Payload:     b.Payload(),
			TimestampMs: b.CreatedAt().UnixMilli(),
			Nonce:       b.Nonce(),
			Hash:        b.Hash(),
			State:       b.State().String(),
		}
	}
	pending := c.PendingEntries()
	entries := make([]EntryInfo, len(pending))
	for i, e := range pending {
		entries[i] = EntryInfo{ID: e.ID(), Payload: e.Payload()}
	}
	return &ChainStatus{
		Height:       c.Height(),
		Difficulty:   c.Difficulty().Dec(),
		Constructing: c.HasActive(),
		Blocks:       blocks,
		Pending:      entries,
	}
}
