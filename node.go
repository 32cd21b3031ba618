package geocache

import (
	"context"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/hupe1980/geocache/cachefile"
	"github.com/hupe1980/geocache/model"
)

// Node is an open cache file. Its methods are safe for concurrent use.
type Node struct {
	id      NodeID
	md      *cachefile.Metadata
	stale   bool
	metrics MetricsCollector

	mu     sync.Mutex // guards file and closer
	file   *cachefile.Context
	closer io.Closer
}

// ID returns the node's coordinates.
func (n *Node) ID() NodeID {
	return n.id
}

// Metadata returns the decoded header.
func (n *Node) Metadata() *cachefile.Metadata {
	return n.md
}

// Stale reports whether the file was written by a different client version.
func (n *Node) Stale() bool {
	return n.stale
}

// Stats returns the IO counters of the underlying decoder.
func (n *Node) Stats() cachefile.Stats {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.file.Stats()
}

// FindFeature returns the feature with the given id, or ErrNotFound.
func (n *Node) FindFeature(id int64) (*model.Feature, error) {
	start := time.Now()
	n.mu.Lock()
	if n.closer == nil {
		n.mu.Unlock()
		return nil, ErrClosed
	}
	f, err := n.file.FindFeature(id)
	n.mu.Unlock()
	n.metrics.RecordLookup(err == nil, time.Since(start))
	return f, translateError(err)
}

// Feature returns the feature at position idx in write order.
func (n *Node) Feature(idx int) (*model.Feature, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closer == nil {
		return nil, ErrClosed
	}
	f, err := n.file.Feature(idx)
	return f, translateError(err)
}

// FeatureIDs returns the feature ids in write order.
func (n *Node) FeatureIDs() ([]int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closer == nil {
		return nil, ErrClosed
	}
	return n.file.FeatureIDs()
}

// FindFeatureSet returns the feature set with the given id, or ErrNotFound.
func (n *Node) FindFeatureSet(id int64) (*model.FeatureSet, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closer == nil {
		return nil, ErrClosed
	}
	fs, err := n.file.FindFeatureSet(id)
	return fs, translateError(err)
}

// FeatureSets returns every feature set in write order.
func (n *Node) FeatureSets() ([]*model.FeatureSet, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closer == nil {
		return nil, ErrClosed
	}
	out := make([]*model.FeatureSet, 0, n.md.NumFeatureSets)
	for i := range n.md.NumFeatureSets {
		fs, err := n.file.FeatureSet(i)
		if err != nil {
			return nil, err
		}
		out = append(out, fs)
	}
	return out, nil
}

// Features iterates the features in write order. A record that fails to
// decode ends the sequence silently; use StrictFeatures to observe it.
// Lookups may be interleaved with the iteration.
func (n *Node) Features(ctx context.Context) iter.Seq2[*model.Feature, error] {
	return n.iterate(ctx, (*cachefile.Context).Features)
}

// StrictFeatures is like Features but yields the decode error that ended
// the sequence.
func (n *Node) StrictFeatures(ctx context.Context) iter.Seq2[*model.Feature, error] {
	return n.iterate(ctx, (*cachefile.Context).StrictFeatures)
}

func (n *Node) iterate(ctx context.Context, open func(*cachefile.Context) *cachefile.Cursor) iter.Seq2[*model.Feature, error] {
	return func(yield func(*model.Feature, error) bool) {
		n.mu.Lock()
		if n.closer == nil {
			n.mu.Unlock()
			yield(nil, ErrClosed)
			return
		}
		cur := open(n.file)
		n.mu.Unlock()

		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			n.mu.Lock()
			if n.closer == nil {
				n.mu.Unlock()
				yield(nil, ErrClosed)
				return
			}
			ok := cur.Next()
			f, err := cur.Feature(), cur.Err()
			n.mu.Unlock()

			if !ok {
				if err != nil {
					yield(nil, err)
				}
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

// Close releases the underlying file or blob. Reads after Close fail with
// ErrClosed.
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closer == nil {
		return ErrClosed
	}
	err := n.closer.Close()
	n.closer = nil
	return err
}
