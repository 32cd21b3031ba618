package testutil

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/hupe1980/geocache/model"
)

// MemorySource is an in-memory model.FeatureStore.
//
// Features and feature sets are returned in insertion order. It is safe for
// concurrent use.
type MemorySource struct {
	mu          sync.RWMutex
	features    []*model.Feature
	featureSets []*model.FeatureSet

	// FailAfter makes QueryFeatures fail after yielding that many features
	// when positive.
	FailAfter int

	queries []model.FeatureQuery
}

// ErrInjected is returned by a MemorySource configured with FailAfter.
var ErrInjected = errors.New("testutil: injected source failure")

// NewMemorySource creates an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{}
}

// AddFeatures appends features.
func (m *MemorySource) AddFeatures(fs ...*model.Feature) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.features = append(m.features, fs...)
}

// AddFeatureSets appends feature sets.
func (m *MemorySource) AddFeatureSets(fss ...*model.FeatureSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.featureSets = append(m.featureSets, fss...)
}

// Queries returns the feature queries received so far.
func (m *MemorySource) Queries() []model.FeatureQuery {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.FeatureQuery(nil), m.queries...)
}

// QueryFeatures implements model.FeatureStore.
func (m *MemorySource) QueryFeatures(ctx context.Context, q model.FeatureQuery) iter.Seq2[*model.Feature, error] {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	snapshot := append([]*model.Feature(nil), m.features...)
	failAfter := m.FailAfter
	m.mu.Unlock()

	return func(yield func(*model.Feature, error) bool) {
		n := 0
		for _, f := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if q.Limit > 0 && n >= q.Limit {
				return
			}
			if failAfter > 0 && n >= failAfter {
				yield(nil, ErrInjected)
				return
			}
			if !q.Matches(f) {
				continue
			}
			n++
			if !yield(f, nil) {
				return
			}
		}
	}
}

// QueryFeatureSets implements model.FeatureStore.
func (m *MemorySource) QueryFeatureSets(ctx context.Context, q model.FeatureSetQuery) iter.Seq2[*model.FeatureSet, error] {
	m.mu.RLock()
	snapshot := append([]*model.FeatureSet(nil), m.featureSets...)
	m.mu.RUnlock()

	return func(yield func(*model.FeatureSet, error) bool) {
		for _, fs := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !q.Matches(fs) {
				continue
			}
			if !yield(fs, nil) {
				return
			}
		}
	}
}
