package config

const (
	// DefaultWorkerDifficulty is the threshold the hash-search worker
	// assumes when a request carries no difficulty: 16 leading zero bits.
	DefaultWorkerDifficulty = "0x0000ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"

	// GenesisPrevHash is the previous-hash value of the block at index 0.
	GenesisPrevHash = ""
)
