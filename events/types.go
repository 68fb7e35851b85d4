package events

import (
	"time"

	"minechain/block"
)

// EventType is an enum-like string type for chain events
type EventType string

const (
	EventEntryEnqueued       EventType = "EntryEnqueued"
	EventBlockConstructing   EventType = "BlockConstructing"
	EventChainWaiting        EventType = "ChainWaiting"
	EventBlockCommitted      EventType = "BlockCommitted"
	EventConstructionAborted EventType = "ConstructionAborted"
	EventAbortAfterFinalize  EventType = "AbortAfterFinalize"
)

// BlockSource distinguishes how a committed block was produced.
type BlockSource string

const (
	SourceMined    BlockSource = "mined"
	SourceImported BlockSource = "imported"
)

// ChainEvent represents any event that occurs on the chain
type ChainEvent interface {
	Type() EventType
	Timestamp() time.Time
	EntryID() string
}

// EntryEnqueued fires when a payload is wrapped and appended to the queue
type EntryEnqueued struct {
	entryID   string
	payload   string
	timestamp time.Time
}

func NewEntryEnqueued(entryID, payload string) *EntryEnqueued {
	return &EntryEnqueued{entryID: entryID, payload: payload, timestamp: time.Now()}
}

func (e *EntryEnqueued) Type() EventType      { return EventEntryEnqueued }
func (e *EntryEnqueued) Timestamp() time.Time { return e.timestamp }
func (e *EntryEnqueued) EntryID() string      { return e.entryID }
func (e *EntryEnqueued) Payload() string      { return e.payload }

// BlockConstructing fires when the queue head starts its hash search
type BlockConstructing struct {
	entryID   string
	index     uint64
	timestamp time.Time
}

func NewBlockConstructing(entryID string, index uint64) *BlockConstructing {
	return &BlockConstructing{entryID: entryID, index: index, timestamp: time.Now()}
}

func (e *BlockConstructing) Type() EventType      { return EventBlockConstructing }
func (e *BlockConstructing) Timestamp() time.Time { return e.timestamp }
func (e *BlockConstructing) EntryID() string      { return e.entryID }
func (e *BlockConstructing) Index() uint64        { return e.index }

// ChainWaiting fires when a construction attempt finds the queue empty
type ChainWaiting struct {
	timestamp time.Time
}

func NewChainWaiting() *ChainWaiting {
	return &ChainWaiting{timestamp: time.Now()}
}

func (e *ChainWaiting) Type() EventType      { return EventChainWaiting }
func (e *ChainWaiting) Timestamp() time.Time { return e.timestamp }
func (e *ChainWaiting) EntryID() string      { return "" }

// BlockCommitted fires when a block is appended to the committed sequence;
// it carries the block itself and the id of the entry it was built from
type BlockCommitted struct {
	entryID   string
	block     *block.Block
	source    BlockSource
	timestamp time.Time
}

func NewBlockCommitted(entryID string, b *block.Block, source BlockSource) *BlockCommitted {
	return &BlockCommitted{
		entryID:   entryID,
		block:     b,
		source:    source,
		timestamp: time.Now(),
	}
}

func (e *BlockCommitted) Type() EventType      { return EventBlockCommitted }
func (e *BlockCommitted) Timestamp() time.Time { return e.timestamp }
func (e *BlockCommitted) EntryID() string      { return e.entryID }
func (e *BlockCommitted) Block() *block.Block  { return e.block }
func (e *BlockCommitted) Index() uint64        { return e.block.Index() }
func (e *BlockCommitted) BlockHash() string    { return e.block.Hash() }
func (e *BlockCommitted) Source() BlockSource  { return e.source }

// ConstructionAborted fires when an in-flight construction is torn down and
// its entry returned to the queue head
type ConstructionAborted struct {
	entryID   string
	index     uint64
	timestamp time.Time
}

func NewConstructionAborted(entryID string, index uint64) *ConstructionAborted {
	return &ConstructionAborted{entryID: entryID, index: index, timestamp: time.Now()}
}

func (e *ConstructionAborted) Type() EventType      { return EventConstructionAborted }
func (e *ConstructionAborted) Timestamp() time.Time { return e.timestamp }
func (e *ConstructionAborted) EntryID() string      { return e.entryID }
func (e *ConstructionAborted) Index() uint64        { return e.index }

// AbortAfterFinalize is informational: an abort request lost the race
// against a search that had already finished
type AbortAfterFinalize struct {
	entryID   string
	index     uint64
	timestamp time.Time
}

func NewAbortAfterFinalize(entryID string, index uint64) *AbortAfterFinalize {
	return &AbortAfterFinalize{entryID: entryID, index: index, timestamp: time.Now()}
}

func (e *AbortAfterFinalize) Type() EventType      { return EventAbortAfterFinalize }
func (e *AbortAfterFinalize) Timestamp() time.Time { return e.timestamp }
func (e *AbortAfterFinalize) EntryID() string      { return e.entryID }
func (e *AbortAfterFinalize) Index() uint64        { return e.index }
