package utils

import (
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"minechain/errors"
)

// -- Difficulty --

// ParseDifficulty converts a decimal or 0x-prefixed hex string into a
// 256-bit difficulty threshold. Hex input may carry leading zero digits.
// Non-numeric input is rejected with ErrCodeInvalidDifficulty, never panics.
func ParseDifficulty(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.NewError(errors.ErrCodeInvalidDifficulty, errors.ErrMsgInvalidDifficulty)
	}
	bi, ok := new(big.Int).SetString(s, 0)
	if !ok || bi.Sign() < 0 {
		return nil, errors.NewError(errors.ErrCodeInvalidDifficulty, errors.ErrMsgInvalidDifficulty)
	}
	d, overflow := uint256.FromBig(bi)
	if overflow {
		return nil, errors.NewError(errors.ErrCodeInvalidDifficulty, errors.ErrMsgInvalidDifficulty)
	}
	return d, nil
}

// MaxDifficulty returns the maximum 256-bit value, the threshold every
// digest satisfies.
func MaxDifficulty() *uint256.Int {
	max := new(uint256.Int)
	return max.Not(max)
}

// DigestToUint256 interprets a SHA-256 digest as an unsigned big-endian
// integer.
func DigestToUint256(digest [32]byte) *uint256.Int {
	return new(uint256.Int).SetBytes(digest[:])
}
