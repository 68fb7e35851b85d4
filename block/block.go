package block

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"minechain/errors"
	"minechain/exception"
	"minechain/logx"
	"minechain/monitoring"
	"minechain/utils"
)

// Listener observes the outcome of a block's proof-of-work search. Exactly
// one of the two callbacks fires per searched block, exactly once, always
// from the search goroutine.
type Listener interface {
	OnReady(b *Block)
	OnAborted(b *Block)
}

// Config carries the fixed candidate fields of a block. Supplying Hash marks
// the block pre-solved: it enters Ready directly and no search is started.
type Config struct {
	Payload    string
	Index      uint64
	Difficulty *uint256.Int
	PrevHash   string
	CreatedAt  time.Time // zero value means now
	Nonce      int64     // only meaningful together with Hash
	Hash       string    // hex digest of a finished search
}

// Block owns one entry's proof-of-work lifecycle: fixed candidate fields, a
// cancelable asynchronous nonce search and terminal Ready/Aborted states.
// All invariant-bearing fields are private; mutation happens only through
// the search itself and RequestAbort.
type Block struct {
	mu         sync.Mutex
	index      uint64
	difficulty *uint256.Int
	prevHash   string
	payload    string
	createdAt  time.Time
	nonce      int64
	hash       string
	state      State

	listener Listener
	solver   Solver
	cancel   context.CancelFunc
}

// NewBlock validates cfg and either imports a pre-solved block or starts
// the asynchronous search immediately.
func NewBlock(cfg Config, listener Listener, solver Solver) (*Block, error) {
	if cfg.Payload == "" {
		return nil, errors.NewError(errors.ErrCodeMissingField, errors.ErrMsgMissingPayload)
	}
	if cfg.Difficulty == nil {
		return nil, errors.NewError(errors.ErrCodeInvalidDifficulty, errors.ErrMsgInvalidDifficulty)
	}
	createdAt := cfg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	b := &Block{
		index:      cfg.Index,
		difficulty: new(uint256.Int).Set(cfg.Difficulty),
		prevHash:   cfg.PrevHash,
		payload:    cfg.Payload,
		createdAt:  createdAt,
		nonce:      NonceSentinel,
		state:      StateInitializing,
		listener:   listener,
		solver:     solver,
	}

	if cfg.Hash != "" {
		// Externally constructed block: already solved, nothing to search.
		b.nonce = cfg.Nonce
		b.hash = strings.ToLower(cfg.Hash)
		b.state = StateReady
		return b, nil
	}

	if b.solver == nil {
		b.solver = CPUSolver{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	exception.SafeGo("block-search", func() {
		b.runSearch(ctx)
	})
	return b, nil
}

// Signature concatenates the fixed candidate fields, nonce excluded, as the
// search's hash prefix: index, difficulty and created-at in base 10,
// previous hash and payload verbatim.
func (b *Block) Signature() string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(b.index, 10))
	sb.WriteString(b.difficulty.Dec())
	sb.WriteString(b.prevHash)
	sb.WriteString(b.payload)
	sb.WriteString(strconv.FormatInt(b.createdAt.UnixMilli(), 10))
	return sb.String()
}

func (b *Block) runSearch(ctx context.Context) {
	start := time.Now()
	hash, nonce, err := b.solver.Solve(ctx, b.Signature(), b.difficulty)

	b.mu.Lock()
	if b.state != StateInitializing {
		// An abort won the race; a late result is discarded.
		b.mu.Unlock()
		b.notifyAborted()
		return
	}
	if err != nil {
		// Solver failed without an abort request (remote solver error,
		// spurious cancellation). Treated as an aborted construction.
		b.state = StateAborted
		b.mu.Unlock()
		logx.Warn("BLOCK", "search failed for index ", b.index, ": ", err)
		monitoring.IncreaseAbortedBlockCount(monitoring.AbortReasonOther)
		b.notifyAborted()
		return
	}
	b.hash = hash
	b.nonce = nonce
	b.state = StateReady
	b.mu.Unlock()

	monitoring.ObserveSolveDuration(time.Since(start))
	logx.Info("BLOCK", "solved index ", b.index, " | nonce=", nonce, " hash=", utils.ShortHash(hash))
	b.notifyReady()
}

func (b *Block) notifyReady() {
	if b.listener != nil {
		b.listener.OnReady(b)
	}
}

func (b *Block) notifyAborted() {
	if b.listener != nil {
		b.listener.OnAborted(b)
	}
}

// RequestAbort cooperatively cancels a running search. Aborting a block that
// already reached Ready is a usage error reported as ErrCodeAlreadyFinalized;
// aborting an already aborted block is a no-op. The aborted notification is
// delivered asynchronously by the search goroutine.
func (b *Block) RequestAbort() error {
	b.mu.Lock()
	switch b.state {
	case StateReady:
		b.mu.Unlock()
		return errors.NewError(errors.ErrCodeAlreadyFinalized, errors.ErrMsgAlreadyFinalized)
	case StateAborted:
		b.mu.Unlock()
		return nil
	}
	b.state = StateAborted
	b.mu.Unlock()

	b.cancel()
	monitoring.IncreaseAbortedBlockCount(monitoring.AbortRequested)
	return nil
}

// IsValid recomputes the digest over the signature and stored nonce and
// checks it against the stored hash and the difficulty threshold. Pure,
// usable in any state; a block without a hash is never valid.
func (b *Block) IsValid() bool {
	b.mu.Lock()
	hash := b.hash
	nonce := b.nonce
	difficulty := b.difficulty
	b.mu.Unlock()

	if hash == "" || nonce < 0 {
		return false
	}
	if HashFor(b.Signature(), nonce) != hash {
		return false
	}
	return SatisfiesDifficulty(hash, difficulty)
}

func (b *Block) Index() uint64 {
	return b.index
}

// Difficulty returns a copy; the threshold snapshotted at construction
// never changes afterwards.
func (b *Block) Difficulty() *uint256.Int {
	return new(uint256.Int).Set(b.difficulty)
}

func (b *Block) PrevHash() string {
	return b.prevHash
}

func (b *Block) Payload() string {
	return b.payload
}

func (b *Block) CreatedAt() time.Time {
	return b.createdAt
}

func (b *Block) Nonce() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonce
}

// Hash returns the finished hex digest, or "" while the search is running.
func (b *Block) Hash() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hash
}

func (b *Block) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
