package mempool

import (
	"github.com/google/uuid"

	"minechain/errors"
)

// IDGenerator produces unique identifiers for pending entries. It is a
// package-level hook so tests can install a deterministic generator.
type IDGenerator func() string

var defaultIDGenerator IDGenerator = func() string {
	return uuid.Must(uuid.NewV7()).String()
}

var idGenerator = defaultIDGenerator

// SetIDGenerator replaces the entry id generator and returns the previous
// one so callers can restore it.
func SetIDGenerator(gen IDGenerator) IDGenerator {
	prev := idGenerator
	if gen == nil {
		idGenerator = defaultIDGenerator
	} else {
		idGenerator = gen
	}
	return prev
}

// PendingEntry pairs an opaque payload with a stable identifier used to
// correlate the queued payload with the block eventually built from it.
// Immutable once created.
type PendingEntry struct {
	id      string
	payload string
}

// NewPendingEntry wraps payload in an entry. An empty id is replaced with a
// freshly generated unique token.
func NewPendingEntry(payload string, id string) (*PendingEntry, error) {
	if payload == "" {
		return nil, errors.NewError(errors.ErrCodeMissingField, errors.ErrMsgMissingPayload)
	}
	if id == "" {
		id = idGenerator()
	}
	return &PendingEntry{id: id, payload: payload}, nil
}

func (e *PendingEntry) ID() string {
	return e.id
}

func (e *PendingEntry) Payload() string {
	return e.payload
}
