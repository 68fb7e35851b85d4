package chain

import (
	"sync"

	"github.com/holiman/uint256"

	"minechain/block"
	"minechain/config"
	"minechain/errors"
	"minechain/events"
	"minechain/logx"
	"minechain/mempool"
	"minechain/monitoring"
	"minechain/utils"
)

// Chain owns the ordered committed sequence and the FIFO queue of pending
// entries, and serializes block construction: at most one block is in
// flight, and every queue mutation, commit and requeue happens under one
// mutex so admission control and ordering invariants hold.
type Chain struct {
	mu          sync.Mutex
	committed   []*block.Block
	queue       *mempool.Queue
	active      *block.Block
	activeEntry *mempool.PendingEntry
	difficulty  *uint256.Int
	bus         *events.EventBus
	solver      block.Solver
}

// NewChain creates an empty chain with the given construction difficulty.
// A nil solver defaults to the in-process CPU search; a nil bus gets a
// fresh one.
func NewChain(difficulty *uint256.Int, solver block.Solver, bus *events.EventBus) (*Chain, error) {
	if difficulty == nil {
		return nil, errors.NewError(errors.ErrCodeInvalidDifficulty, errors.ErrMsgInvalidDifficulty)
	}
	if bus == nil {
		bus = events.NewEventBus()
	}
	return &Chain{
		committed:  make([]*block.Block, 0),
		queue:      mempool.NewQueue(),
		difficulty: new(uint256.Int).Set(difficulty),
		bus:        bus,
		solver:     solver,
	}, nil
}

// EventBus exposes the chain's notification bus for subscribers.
func (c *Chain) EventBus() *events.EventBus {
	return c.bus
}

// SetDifficulty replaces the threshold used for future constructions only;
// committed and in-flight blocks keep the difficulty they were built with.
// A nil value is rejected and the prior difficulty retained.
func (c *Chain) SetDifficulty(d *uint256.Int) error {
	if d == nil {
		return errors.NewError(errors.ErrCodeInvalidDifficulty, errors.ErrMsgInvalidDifficulty)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.difficulty = new(uint256.Int).Set(d)
	logx.Info("CHAIN", "difficulty set to ", d.Dec())
	return nil
}

// Difficulty returns a copy of the threshold future blocks will be built
// with.
func (c *Chain) Difficulty() *uint256.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(uint256.Int).Set(c.difficulty)
}

// Enqueue wraps payload in a pending entry, appends it to the queue tail
// and starts construction when the chain is idle.
func (c *Chain) Enqueue(payload string) (*mempool.PendingEntry, error) {
	entry, err := mempool.NewPendingEntry(payload, "")
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.queue.Push(entry)
	c.bus.Publish(events.NewEntryEnqueued(entry.ID(), entry.Payload()))
	logx.Info("CHAIN", "enqueued entry ", entry.ID())
	if c.active == nil {
		c.resumeLocked()
	}
	c.mu.Unlock()
	return entry, nil
}

// AbortActive requests cancellation of the in-flight construction, if any.
// The teardown itself (requeue, idle transition) happens when the aborted
// notification arrives.
func (c *Chain) AbortActive() {
	c.mu.Lock()
	active := c.active
	entry := c.activeEntry
	c.mu.Unlock()
	if active == nil {
		return
	}
	if err := active.RequestAbort(); err != nil {
		// The search finished first; advisory only.
		logx.Warn("CHAIN", "abort after finalize on index ", active.Index(), ": ", err)
		c.bus.Publish(events.NewAbortAfterFinalize(entry.ID(), active.Index()))
	}
}

// Resume triggers construction of the next block. A no-op while a block is
// in flight; publishes a waiting notification when the queue is empty.
func (c *Chain) Resume() {
	c.mu.Lock()
	c.resumeLocked()
	c.mu.Unlock()
}

// resumeLocked pops the queue head and starts its search. Caller holds mu.
func (c *Chain) resumeLocked() {
	if c.active != nil {
		return
	}
	entry := c.queue.Pop()
	if entry == nil {
		c.bus.Publish(events.NewChainWaiting())
		logx.Debug("CHAIN", "queue empty, waiting")
		return
	}

	cfg := block.Config{
		Payload:    entry.Payload(),
		Index:      uint64(len(c.committed)),
		Difficulty: c.difficulty,
		PrevHash:   c.tipHashLocked(),
	}
	b, err := block.NewBlock(cfg, c, c.solver)
	if err != nil {
		// Queue entries are validated on admission, so this is unexpected;
		// restore the entry rather than lose it.
		logx.Error("CHAIN", "construction rejected for entry ", entry.ID(), ": ", err)
		c.queue.PushFront(entry)
		return
	}
	c.active = b
	c.activeEntry = entry
	c.bus.Publish(events.NewBlockConstructing(entry.ID(), b.Index()))
	logx.Info("CHAIN", "constructing block ", b.Index(), " for entry ", entry.ID())
}

func (c *Chain) tipHashLocked() string {
	if len(c.committed) == 0 {
		return config.GenesisPrevHash
	}
	return c.committed[len(c.committed)-1].Hash()
}

// OnReady implements block.Listener: the active search finished, commit the
// block and immediately attempt the next construction.
func (c *Chain) OnReady(b *block.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b != c.active {
		// Superseded by an imported block while the result was in flight.
		logx.Debug("CHAIN", "discarding stale ready block at index ", b.Index())
		return
	}
	entry := c.activeEntry
	c.active = nil
	c.activeEntry = nil
	c.commitLocked(b, entry.ID(), events.SourceMined)
	c.resumeLocked()
}

// OnAborted implements block.Listener: tear down the active construction,
// reinsert its entry at the queue head and return to idle. No auto-retry;
// the caller resumes explicitly or the next enqueue does.
func (c *Chain) OnAborted(b *block.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b != c.active {
		// AddBlock already detached and requeued this construction.
		return
	}
	entry := c.activeEntry
	c.active = nil
	c.activeEntry = nil
	c.queue.PushFront(entry)
	c.bus.Publish(events.NewConstructionAborted(entry.ID(), b.Index()))
	logx.Info("CHAIN", "construction aborted at index ", b.Index(), ", entry ", entry.ID(), " requeued")
}

// commitLocked appends a block to the committed sequence. Caller holds mu.
func (c *Chain) commitLocked(b *block.Block, entryID string, source events.BlockSource) {
	c.committed = append(c.committed, b)
	monitoring.SetChainHeight(len(c.committed))
	monitoring.IncreaseCommittedBlockCount()
	c.bus.Publish(events.NewBlockCommitted(entryID, b, source))
	logx.Info("CHAIN", "committed block ", b.Index(), " hash=", utils.ShortHash(b.Hash()), " source=", string(source))
}

// AddBlock admits an externally solved block. The fields must carry a hash;
// the block is checked against the expected next index and previous hash
// and rejected without touching chain state when invalid. On success any
// in-flight construction is aborted with its entry requeued at the head,
// then the pending entry matching entryID is removed, the block committed
// and construction resumed.
func (c *Chain) AddBlock(cfg block.Config, entryID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg.Hash == "" {
		monitoring.IncreaseRejectedImportCount()
		return false
	}
	b, err := block.NewBlock(cfg, nil, nil)
	if err != nil {
		logx.Warn("CHAIN", "rejecting malformed external block: ", err)
		monitoring.IncreaseRejectedImportCount()
		return false
	}
	if !c.validateAt(b, uint64(len(c.committed)), c.tipHashLocked()) {
		logx.Warn("CHAIN", "rejecting invalid external block at index ", b.Index())
		monitoring.IncreaseRejectedImportCount()
		return false
	}

	// Abort the in-flight construction before committing. The aborted
	// entry is requeued at the head first, then the entry matching the
	// imported block is removed, so an overlap leaves the queue without a
	// duplicate.
	if c.active != nil {
		superseded := c.active
		entry := c.activeEntry
		c.active = nil
		c.activeEntry = nil
		if err := superseded.RequestAbort(); err != nil {
			logx.Warn("CHAIN", "superseded block already finalized at index ", superseded.Index())
			c.bus.Publish(events.NewAbortAfterFinalize(entry.ID(), superseded.Index()))
		}
		monitoring.IncreaseAbortedBlockCount(monitoring.AbortSuperseded)
		c.queue.PushFront(entry)
		c.bus.Publish(events.NewConstructionAborted(entry.ID(), superseded.Index()))
	}
	if entryID != "" {
		c.queue.RemoveByID(entryID)
	}

	c.commitLocked(b, entryID, events.SourceImported)
	monitoring.IncreaseImportedBlockCount()
	c.resumeLocked()
	return true
}

// validateAt is the single validation rule shared by IsValid and AddBlock:
// the block's own hash check plus linkage against the expected position.
func (c *Chain) validateAt(b *block.Block, index uint64, prevHash string) bool {
	return b.IsValid() && b.Index() == index && b.PrevHash() == prevHash
}

// IsValid revalidates the whole committed sequence: per-block hash
// validity, consecutive indices and previous-hash linkage from the genesis
// block on.
func (c *Chain) IsValid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prevHash := config.GenesisPrevHash
	for i, b := range c.committed {
		if !c.validateAt(b, uint64(i), prevHash) {
			return false
		}
		prevHash = b.Hash()
	}
	return true
}

// Height returns the number of committed blocks.
func (c *Chain) Height() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.committed)
}

// Committed returns a copy of the committed sequence.
func (c *Chain) Committed() []*block.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*block.Block, len(c.committed))
	copy(out, c.committed)
	return out
}

// BlockAt returns the committed block at index, or nil.
func (c *Chain) BlockAt(index uint64) *block.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= uint64(len(c.committed)) {
		return nil
	}
	return c.committed[index]
}

// PendingEntries returns a copy of the queue contents in order.
func (c *Chain) PendingEntries() []*mempool.PendingEntry {
	return c.queue.Snapshot()
}

// HasActive reports whether a construction is in flight.
func (c *Chain) HasActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}
