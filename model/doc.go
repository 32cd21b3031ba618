// Package model defines the feature types stored in cache files and the
// narrow query interface through which a live feature store is consumed.
//
// # Data Types
//
//   - Feature: a geometry with identity, name, style and attributes
//   - FeatureSet: metadata for a group of features (provider, type, resolution range)
//
// # Source Interface
//
// A FeatureStore answers two queries, both streamed:
//
//	for f, err := range store.QueryFeatures(ctx, model.FeatureQuery{Limit: 100}) {
//	    ...
//	}
package model
