// Package vecstore provides nearest-neighbor search over sound latents.
//
// Latents are flattened to dense float32 vectors (see latent.Flatten) and
// compared by cosine distance. The descriptors live on very different scales
// (pitch in Hz next to ratios in [0, 1]), so vectors are usually passed
// through a Standardizer fitted on the indexed set before insertion and
// search.
package vecstore

import "errors"

// ErrDimension is returned when a vector's length differs from the index's.
var ErrDimension = errors.New("vecstore: dimension mismatch")

// Index is the interface for nearest-neighbor search over dense float32
// vectors.
//
// All implementations must be safe for concurrent use.
type Index interface {
	// Insert adds or updates a vector with the given ID.
	Insert(id string, vector []float32) error

	// BatchInsert adds or updates multiple vectors at once.
	// ids and vectors must have the same length.
	BatchInsert(ids []string, vectors [][]float32) error

	// Search returns the top-k nearest vectors to the query, closest first.
	// Ties are broken by ID.
	Search(query []float32, topK int) ([]Match, error)

	// Delete removes a vector by ID. No error if ID does not exist.
	Delete(id string) error

	// Len returns the number of vectors in the index.
	Len() int

	// Close releases resources held by the index.
	Close() error
}

// Match is a single result from a similarity search.
type Match struct {
	// ID is the identifier of the matched vector.
	ID string `json:"id"`

	// Distance is the cosine distance in [0, 2]; lower is more similar.
	Distance float32 `json:"distance"`
}

// Similarity returns 1 - Distance, the cosine similarity in [-1, 1].
func (m Match) Similarity() float32 {
	return 1 - m.Distance
}
