package block

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/holiman/uint256"

	"minechain/monitoring"
	"minechain/utils"
)

// NonceSentinel marks a block whose search has not produced a nonce yet.
const NonceSentinel int64 = -1

// hashAttemptFlushEvery bounds how many attempts are batched before the
// attempt counter metric is flushed.
const hashAttemptFlushEvery = 4096

// Solver searches for the first nonce >= 0 whose digest satisfies the
// difficulty threshold. Implementations must stop promptly once ctx is
// canceled; cancellation is only ever checked between attempts, never
// mid-hash.
type Solver interface {
	Solve(ctx context.Context, signature string, difficulty *uint256.Int) (hash string, nonce int64, err error)
}

// CPUSolver runs the search in-process.
type CPUSolver struct{}

func (CPUSolver) Solve(ctx context.Context, signature string, difficulty *uint256.Int) (string, int64, error) {
	prefix := []byte(signature)
	buf := make([]byte, len(prefix), len(prefix)+20)
	copy(buf, prefix)

	var attempts uint64
	defer func() {
		monitoring.AddHashAttempts(attempts % hashAttemptFlushEvery)
	}()

	for nonce := int64(0); ; nonce++ {
		select {
		case <-ctx.Done():
			return "", NonceSentinel, ctx.Err()
		default:
		}

		buf = strconv.AppendInt(buf[:len(prefix)], nonce, 10)
		digest := sha256.Sum256(buf)

		attempts++
		if attempts%hashAttemptFlushEvery == 0 {
			monitoring.AddHashAttempts(hashAttemptFlushEvery)
		}

		if utils.DigestToUint256(digest).Cmp(difficulty) <= 0 {
			return hex.EncodeToString(digest[:]), nonce, nil
		}
	}
}

// HashFor recomputes the digest for a signature and a fixed nonce.
func HashFor(signature string, nonce int64) string {
	digest := sha256.Sum256([]byte(signature + strconv.FormatInt(nonce, 10)))
	return hex.EncodeToString(digest[:])
}

// SatisfiesDifficulty reports whether a hex digest, read as an unsigned
// 256-bit integer, does not exceed the threshold.
func SatisfiesDifficulty(hexHash string, difficulty *uint256.Int) bool {
	raw, err := hex.DecodeString(hexHash)
	if err != nil || len(raw) != sha256.Size {
		return false
	}
	var digest [32]byte
	copy(digest[:], raw)
	return utils.DigestToUint256(digest).Cmp(difficulty) <= 0
}
