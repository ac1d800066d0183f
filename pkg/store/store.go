// Package store persists processed snapshots for the HTTP API.
//
// Every POST to the API records the snapshot it received together with the
// launch line and graph it produced, so clients can fetch the result again
// by ID. Implementations:
//   - [MemoryStore]: process-local, for tests and single-instance servers
//   - [FileStore]: one JSON file per record
//   - [MongoStore]: shared across replicas, expired records removed by a TTL index
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/launchgraph/pkg/errors"
	"github.com/matzehuels/launchgraph/pkg/graph"
)

// DefaultTTL is how long a record is kept.
const DefaultTTL = 30 * 24 * time.Hour

// Record is a processed snapshot.
type Record struct {
	ID           string         `json:"id" bson:"_id"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
	ExpiresAt    time.Time      `json:"expires_at" bson:"expires_at"`
	SnapshotHash string         `json:"snapshot_hash" bson:"snapshot_hash"`
	Format       string         `json:"format" bson:"format"`
	Snapshot     []byte         `json:"snapshot,omitempty" bson:"snapshot,omitempty"`
	Launch       string         `json:"launch" bson:"launch"`
	Graph        graph.Document `json:"graph" bson:"graph"`
}

// IsExpired reports whether the record is past its expiry.
func (r *Record) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// NewRecord returns a record with a fresh ID and the given lifetime. A zero
// ttl never expires.
func NewRecord(ttl time.Duration) *Record {
	now := time.Now().UTC()
	r := &Record{ID: uuid.NewString(), CreatedAt: now}
	if ttl > 0 {
		r.ExpiresAt = now.Add(ttl)
	}
	return r
}

// Store is implemented by record backends. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the record with id, or an error with code
	// SNAPSHOT_NOT_FOUND when it is missing or expired.
	Get(ctx context.Context, id string) (*Record, error)

	// Put inserts or replaces a record.
	Put(ctx context.Context, r *Record) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Cleanup removes expired records.
	Cleanup(ctx context.Context) error

	Close() error
}

// ValidateID checks that id is a UUID, which keeps ids safe to use as file
// names.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "invalid snapshot id %q", id)
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeSnapshotNotFound, "snapshot %s not found", id)
}
