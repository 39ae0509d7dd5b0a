package flat

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
)

// ---------------------------------------------------------------------------
// ContentStore: content-addressed index of function blocks
// ---------------------------------------------------------------------------

// Digest is the SHA-256 hash of a function's serialized block, TOC
// included. Two functions share a digest exactly when their flattened
// encodings are byte-identical.
type Digest [sha256.Size]byte

// String returns the hex form of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// FunctionDigest identifies one function block by content.
type FunctionDigest struct {
	Name string
	Size int // serialized block size in bytes
	Hash Digest
}

// DigestView computes the content digest of a function's block.
func DigestView(v *View) FunctionDigest {
	return FunctionDigest{
		Name: v.Name(),
		Size: len(v.Block()),
		Hash: sha256.Sum256(v.Block()),
	}
}

// ContentStore indexes function blocks by their content digest. It backs
// image verification: re-digesting a loaded image and comparing against a
// store detects any divergence between two copies of a program.
type ContentStore struct {
	mu      sync.RWMutex
	entries map[Digest]FunctionDigest
}

// NewContentStore creates an empty content store.
func NewContentStore() *ContentStore {
	return &ContentStore{entries: make(map[Digest]FunctionDigest)}
}

// Index adds a function block to the store, keyed by its digest.
func (cs *ContentStore) Index(v *View) FunctionDigest {
	fd := DigestView(v)
	cs.mu.Lock()
	cs.entries[fd.Hash] = fd
	cs.mu.Unlock()
	return fd
}

// IndexImage indexes every function block of an image.
func (cs *ContentStore) IndexImage(img *Image) {
	for _, v := range img.Views() {
		cs.Index(v)
	}
}

// Lookup returns the entry for the given digest.
func (cs *ContentStore) Lookup(h Digest) (FunctionDigest, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	fd, ok := cs.entries[h]
	return fd, ok
}

// Has reports whether the store holds the given digest.
func (cs *ContentStore) Has(h Digest) bool {
	_, ok := cs.Lookup(h)
	return ok
}

// Len returns the number of indexed blocks.
func (cs *ContentStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.entries)
}

// All returns every entry sorted by function name, then digest, for
// deterministic listings.
func (cs *ContentStore) All() []FunctionDigest {
	cs.mu.RLock()
	out := make([]FunctionDigest, 0, len(cs.entries))
	for _, fd := range cs.entries {
		out = append(out, fd)
	}
	cs.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Hash.String() < out[j].Hash.String()
	})
	return out
}
