// Package testutil provides testing utilities for geocache.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Features
//
//	rng := testutil.NewRNG(seed)
//	features := rng.Features(100, testutil.FeatureOptions{FeatureSets: 4})
//
// # In-Memory Source
//
//	src := testutil.NewMemorySource()
//	src.AddFeatureSets(sets...)
//	src.AddFeatures(features...)
//
// # In-Memory Channel
//
// Channel is a growable io.ReadWriteSeeker used in place of a file.
package testutil
