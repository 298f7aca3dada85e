package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QueueKind identifies which unit of deferred inference work a queue item
// represents.
type QueueKind string

// The four queue kinds. Each gets its own worker loop.
const (
	QueueKindExtraction    QueueKind = "extraction"
	QueueKindAnonymization QueueKind = "anonymization"
	QueueKindAnalysis      QueueKind = "analysis"
	QueueKindMatch         QueueKind = "match"
)

// QueueKinds lists every kind in a stable order, for wiring one worker per
// kind and for aggregate reporting.
var QueueKinds = []QueueKind{
	QueueKindExtraction,
	QueueKindAnonymization,
	QueueKindAnalysis,
	QueueKindMatch,
}

// QueueItemStatus represents the lifecycle state of a queue item.
type QueueItemStatus string

// Queue item status values. There is no "processing" state: an item stays
// pending while a worker handles it and is deleted on success, so a crash
// mid-cycle simply leaves it eligible for the next cycle.
const (
	QueueItemStatusPending QueueItemStatus = "pending"
	QueueItemStatusDormant QueueItemStatus = "dormant"
)

// Common validation errors for QueueItem
var (
	ErrInvalidQueueKind   = errors.New("invalid queue kind")
	ErrEmptyOwnerKey      = errors.New("queue item owner key cannot be empty")
	ErrInvalidQueueStatus = errors.New("invalid queue item status")
	ErrInvalidOwnerKey    = errors.New("malformed queue item owner key")
)

// QueueItem is one durable row of retryable work. At most one row exists
// per (kind, owner key): re-enqueuing upserts onto the existing row and
// resets its attempt state. AttemptCount only ever increases, and only on
// failure. An item that exhausts its retry ceiling is parked dormant with a
// far-future NextRetryAt rather than deleted, so AttemptCount and LastError
// stay inspectable.
type QueueItem struct {
	ID           uuid.UUID       `json:"id"`
	Kind         QueueKind       `json:"kind"`
	OwnerKey     string          `json:"owner_key"`
	Status       QueueItemStatus `json:"status"`
	AttemptCount int             `json:"attempt_count"`
	NextRetryAt  *time.Time      `json:"next_retry_at,omitempty"`
	LastError    string          `json:"last_error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewQueueItem creates a pending QueueItem for the given kind and owner key.
// Returns an error if validation fails.
func NewQueueItem(kind QueueKind, ownerKey string) (*QueueItem, error) {
	item := &QueueItem{
		ID:        uuid.New(),
		Kind:      kind,
		OwnerKey:  ownerKey,
		Status:    QueueItemStatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the QueueItem has valid data.
func (q *QueueItem) Validate() error {
	if !q.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidQueueKind, q.Kind)
	}

	if q.OwnerKey == "" {
		return ErrEmptyOwnerKey
	}

	switch q.Status {
	case QueueItemStatusPending, QueueItemStatusDormant:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidQueueStatus, q.Status)
	}

	return nil
}

// Valid reports whether k is one of the four known kinds.
func (k QueueKind) Valid() bool {
	switch k {
	case QueueKindExtraction, QueueKindAnonymization, QueueKindAnalysis, QueueKindMatch:
		return true
	default:
		return false
	}
}

// MatchOwnerKey packs a candidate/job pair into the single owner-key column.
func MatchOwnerKey(candidateID, jobID uuid.UUID) string {
	return candidateID.String() + ":" + jobID.String()
}

// SplitMatchOwnerKey reverses MatchOwnerKey.
func SplitMatchOwnerKey(key string) (candidateID, jobID uuid.UUID, err error) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidOwnerKey, key)
	}

	candidateID, err = uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidOwnerKey, err)
	}

	jobID, err = uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidOwnerKey, err)
	}

	return candidateID, jobID, nil
}
