package model

import (
	"context"
	"iter"

	"github.com/paulmach/orb"
)

// FeatureQuery selects features from a FeatureStore.
type FeatureQuery struct {
	// Limit caps the number of results. Zero means unlimited.
	Limit int
	// FeatureSetIDs restricts results to these feature sets when non-empty.
	FeatureSetIDs []int64
	// IDs restricts results to these feature ids when non-empty.
	IDs []int64
	// SpatialFilter restricts results to features whose geometry bound
	// intersects it.
	SpatialFilter *orb.Bound
}

// FeatureSetQuery selects feature sets from a FeatureStore.
type FeatureSetQuery struct {
	// IDs restricts results to these feature set ids when non-empty.
	IDs []int64
}

// FeatureStore is the live source a snapshot is taken from.
//
// Implementations stream results in their natural order; the iteration stops
// at the first non-nil error.
type FeatureStore interface {
	QueryFeatures(ctx context.Context, q FeatureQuery) iter.Seq2[*Feature, error]
	QueryFeatureSets(ctx context.Context, q FeatureSetQuery) iter.Seq2[*FeatureSet, error]
}

// Matches reports whether f satisfies the id, feature set and spatial
// constraints of q. Limit is not considered.
func (q FeatureQuery) Matches(f *Feature) bool {
	if len(q.FeatureSetIDs) > 0 && !contains(q.FeatureSetIDs, f.FeatureSetID) {
		return false
	}
	if len(q.IDs) > 0 && !contains(q.IDs, f.ID) {
		return false
	}
	if q.SpatialFilter != nil {
		if f.Geometry == nil {
			return false
		}
		if !q.SpatialFilter.Intersects(f.Geometry.Bound()) {
			return false
		}
	}
	return true
}

// Matches reports whether fs satisfies q.
func (q FeatureSetQuery) Matches(fs *FeatureSet) bool {
	return len(q.IDs) == 0 || contains(q.IDs, fs.ID)
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
