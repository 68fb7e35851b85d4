package utils

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minechain/errors"
)

func TestParseDifficultyDecimal(t *testing.T) {
	d, err := ParseDifficulty("1000000")
	require.NoError(t, err)
	assert.Equal(t, "1000000", d.Dec())
}

func TestParseDifficultyHex(t *testing.T) {
	d, err := ParseDifficulty("0xff")
	require.NoError(t, err)
	assert.Equal(t, "255", d.Dec())

	d, err = ParseDifficulty("0XFF")
	require.NoError(t, err)
	assert.Equal(t, "255", d.Dec())
}

func TestParseDifficultyRejectsNonNumeric(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "12x", "0x", "0xzz", "-5"} {
		_, err := ParseDifficulty(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidDifficulty), "input %q", input)
	}
}

func TestMaxDifficulty(t *testing.T) {
	max := MaxDifficulty()
	digest := sha256.Sum256([]byte("anything"))
	assert.LessOrEqual(t, DigestToUint256(digest).Cmp(max), 0)
}

func TestDigestToUint256BigEndian(t *testing.T) {
	var digest [32]byte
	digest[31] = 0x2a
	assert.Equal(t, "42", DigestToUint256(digest).Dec())
}
