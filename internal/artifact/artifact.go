// Package artifact stores the documents records attest to. The core workflow
// only ever handles content hashes; bytes live here.
package artifact

import (
	"context"
)

// Store is a content-addressed blob store. Store returns the hash the bytes
// are retrievable under; storing the same bytes twice returns the same hash.
type Store interface {
	Store(ctx context.Context, data []byte) (string, error)
	Retrieve(ctx context.Context, hash string) ([]byte, error)
	Exists(ctx context.Context, hash string) (bool, error)
}
